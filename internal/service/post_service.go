package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/metrics"
	"github.com/pressroom/internal/slug"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrTitleRequired    = errors.New("post title is required")
	ErrContentRequired  = errors.New("post content is required")
	ErrInvalidStatus    = errors.New("invalid post status")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTagNotFound      = errors.New("tag not found")
)

// slugRetryLimit 限制唯一约束冲突后的整体重试次数。分配器内部的探测
// 已经有界,这里只兜并发创建同名文章时的读写竞争窗口。
const slugRetryLimit = 3

// PostService wraps post related database operations.
type PostService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb, now: time.Now}
}

// WithClock 允许测试注入固定时钟。
func (s *PostService) WithClock(now func() time.Time) *PostService {
	if now != nil {
		s.now = now
	}
	return s
}

// PostCreate represents fields accepted when creating a post.
type PostCreate struct {
	Title            string
	Content          string
	Excerpt          string
	FeaturedImageURL string
	Status           string
	AuthorID         uint
	CategoryIDs      []uint
	TagIDs           []uint
}

// PostUpdate represents a partial update; nil fields are left untouched.
type PostUpdate struct {
	Title            *string
	Content          *string
	Excerpt          *string
	FeaturedImageURL *string
	Status           *string
	CategoryIDs      *[]uint
	TagIDs           *[]uint
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Status         string
	CategorySlug   string
	TagSlug        string
	AuthorUsername string
	Search         string
	Page           int
	PerPage        int
}

// PostListResult aggregates paginated list data.
type PostListResult struct {
	Posts      []db.Post
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// Create persists a post with a freshly allocated slug. 唯一约束冲突时
// 用新的快照重新分配并重试,重试耗尽按分配失败处理。
func (s *PostService) Create(input PostCreate) (*db.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrContentRequired
	}

	status := input.Status
	if status == "" {
		status = db.StatusDraft
	}
	if status != db.StatusDraft && status != db.StatusPublished {
		return nil, ErrInvalidStatus
	}

	post := db.Post{
		Title:            title,
		Content:          input.Content,
		Excerpt:          strings.TrimSpace(input.Excerpt),
		FeaturedImageURL: strings.TrimSpace(input.FeaturedImageURL),
		UserID:           input.AuthorID,
		Status:           db.StatusDraft,
	}
	if status == db.StatusPublished {
		post.Publish(s.now())
	}

	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		allocated, err := slug.Allocate(title, s.postSlugTaken(0))
		if err != nil {
			return nil, err
		}
		post.Slug = allocated

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&post).Error; err != nil {
				return err
			}
			return s.replaceAssociations(tx, &post, input.CategoryIDs, input.TagIDs)
		})
		if err == nil {
			return s.Get(post.ID)
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		metrics.SlugCollisionsTotal.WithLabelValues("post").Inc()
		post.ID = 0
	}

	return nil, slug.ErrExhausted
}

// Update applies a partial update. slug 仅在标题真的变化时重新分配,
// 改回原标题不会引起 slug 漂移。
func (s *PostService) Update(id uint, input PostUpdate) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	renamed := false
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if title != post.Title {
			renamed = true
		}
		post.Title = title
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, ErrContentRequired
		}
		post.Content = *input.Content
	}
	if input.Excerpt != nil {
		post.Excerpt = strings.TrimSpace(*input.Excerpt)
	}
	if input.FeaturedImageURL != nil {
		post.FeaturedImageURL = strings.TrimSpace(*input.FeaturedImageURL)
	}
	if input.Status != nil {
		switch *input.Status {
		case db.StatusPublished:
			post.Publish(s.now())
		case db.StatusDraft:
			post.Unpublish()
		default:
			return nil, ErrInvalidStatus
		}
	}

	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		if renamed {
			allocated, err := slug.Allocate(post.Title, s.postSlugTaken(post.ID))
			if err != nil {
				return nil, err
			}
			post.Slug = allocated
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&post).Error; err != nil {
				return err
			}
			return s.replaceAssociations(tx, &post, valueOrNil(input.CategoryIDs), valueOrNil(input.TagIDs))
		})
		if err == nil {
			return s.Get(post.ID)
		}
		if !renamed || !isUniqueViolation(err) {
			return nil, err
		}
		metrics.SlugCollisionsTotal.WithLabelValues("post").Inc()
	}

	return nil, slug.ErrExhausted
}

// Get fetches a post by id with associations preloaded.
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("Categories").Preload("Tags").Preload("User").
		First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetBySlug fetches a post by its slug.
func (s *PostService) GetBySlug(slugValue string) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("Categories").Preload("Tags").Preload("User").
		Where("slug = ?", slugValue).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Publish 在一个事务里完成状态转移与落库。重复发布是幂等空操作,
// 以 already_published 上报而不是错误。
func (s *PostService) Publish(id uint) (*db.Post, db.TransitionOutcome, error) {
	return s.transition(id, func(post *db.Post) db.TransitionOutcome {
		return post.Publish(s.now())
	})
}

// Unpublish 将文章退回草稿并清空发布时间。
func (s *PostService) Unpublish(id uint) (*db.Post, db.TransitionOutcome, error) {
	return s.transition(id, func(post *db.Post) db.TransitionOutcome {
		return post.Unpublish()
	})
}

func (s *PostService) transition(id uint, apply func(*db.Post) db.TransitionOutcome) (*db.Post, db.TransitionOutcome, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrPostNotFound
		}
		return nil, "", err
	}

	outcome := apply(&post)
	switch outcome {
	case db.OutcomeAlreadyPublished, db.OutcomeAlreadyDraft:
		loaded, err := s.Get(post.ID)
		return loaded, outcome, err
	}

	// status 与 published_at 必须一起提交,避免出现只改了一半的行。
	if err := s.db.Model(&db.Post{}).Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"status":       post.Status,
			"published_at": post.PublishedAt,
		}).Error; err != nil {
		return nil, "", err
	}

	metrics.PostsPublishedTotal.WithLabelValues(string(outcome)).Inc()
	loaded, err := s.Get(post.ID)
	return loaded, outcome, err
}

// Delete removes a post together with its autosave buffers and page views.
func (s *PostService) Delete(id uint) error {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("post_id = ?", id).Delete(&db.AutosaveDraft{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("post_id = ?", id).Delete(&db.PageView{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).Association("Categories").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Unscoped().Delete(&post).Error
	})
}

// List provides paginated posts based on filters.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}
	if result.PerPage > 100 {
		result.PerPage = 100
	}

	countQuery := s.applyFilters(s.db.Model(&db.Post{}), filter)
	if err := countQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage

	var posts []db.Post
	dataQuery := s.applyFilters(
		s.db.Model(&db.Post{}).Preload("Categories").Preload("Tags").Preload("User"),
		filter,
	)
	if err := dataQuery.
		Order("posts.published_at IS NULL").
		Order("posts.published_at desc").
		Order("posts.created_at desc").
		Limit(result.PerPage).Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}

	result.Posts = posts
	return result, nil
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("posts.status = ?", filter.Status)
	}

	if filter.CategorySlug != "" {
		sub := s.db.Model(&db.Post{}).
			Select("posts.id").
			Joins("JOIN post_categories ON post_categories.post_id = posts.id").
			Joins("JOIN categories ON categories.id = post_categories.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
		query = query.Where("posts.id IN (?)", sub)
	}

	if filter.TagSlug != "" {
		sub := s.db.Model(&db.Post{}).
			Select("posts.id").
			Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.slug = ?", filter.TagSlug)
		query = query.Where("posts.id IN (?)", sub)
	}

	if filter.AuthorUsername != "" {
		sub := s.db.Model(&db.User{}).
			Select("users.id").
			Where("users.username = ?", filter.AuthorUsername)
		query = query.Where("posts.user_id IN (?)", sub)
	}

	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("(posts.title LIKE ? OR posts.content LIKE ?)", search, search)
	}

	return query
}

// postSlugTaken 返回文章作用域的占用查询,excludeID 非零时排除自身,
// 这样把标题改回原值不会与自己的 slug 误判冲突。
func (s *PostService) postSlugTaken(excludeID uint) slug.Lookup {
	return func(candidate string) (bool, error) {
		var count int64
		query := s.db.Model(&db.Post{}).Where("slug = ?", candidate)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}
}

func (s *PostService) replaceAssociations(tx *gorm.DB, post *db.Post, categoryIDs, tagIDs []uint) error {
	if categoryIDs != nil {
		var categories []db.Category
		if len(categoryIDs) > 0 {
			if err := tx.Where("id IN ?", categoryIDs).Find(&categories).Error; err != nil {
				return err
			}
			if len(categories) != len(categoryIDs) {
				return ErrCategoryNotFound
			}
		}
		if err := tx.Model(post).Association("Categories").Replace(categories); err != nil {
			return err
		}
	}

	if tagIDs != nil {
		var tags []db.Tag
		if len(tagIDs) > 0 {
			if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
				return err
			}
			if len(tags) != len(tagIDs) {
				return ErrTagNotFound
			}
		}
		if err := tx.Model(post).Association("Tags").Replace(tags); err != nil {
			return err
		}
	}

	return nil
}

func valueOrNil(ids *[]uint) []uint {
	if ids == nil {
		return nil
	}
	if *ids == nil {
		return []uint{}
	}
	return *ids
}

// isUniqueViolation 识别存储层唯一约束冲突。gorm 的方言翻译开启时为
// ErrDuplicatedKey,sqlite 驱动原生错误则靠报文判断。
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
