package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/metrics"
	"github.com/pressroom/internal/slug"
)

var (
	ErrTagExists       = errors.New("tag already exists")
	ErrTagNameRequired = errors.New("tag name is required")
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// List returns tags ordered by name.
func (s *TagService) List() ([]db.Tag, error) {
	var tags []db.Tag
	if err := s.db.Preload("Posts").Order("name asc").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// Get fetches a tag by id.
func (s *TagService) Get(id uint) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.Preload("Posts").First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// Create inserts a new tag with unique name and allocated slug.
func (s *TagService) Create(name string) (*db.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTagNameRequired
	}

	var existing db.Tag
	if err := s.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, ErrTagExists
	}

	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		allocated, err := slug.Allocate(name, s.slugTaken(0))
		if err != nil {
			return nil, err
		}

		tag := db.Tag{Name: name, Slug: allocated}
		err = s.db.Create(&tag).Error
		if err == nil {
			return &tag, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		metrics.SlugCollisionsTotal.WithLabelValues("tag").Inc()
	}

	return nil, slug.ErrExhausted
}

// Update changes the tag name while keeping uniqueness. 名称未变时
// 不重新分配 slug,避免外部链接因改名以外的更新而失效。
func (s *TagService) Update(id uint, name string) (*db.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTagNameRequired
	}

	var tag db.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}

	var duplicate db.Tag
	if err := s.db.Where("name = ? AND id <> ?", name, id).First(&duplicate).Error; err == nil {
		return nil, ErrTagExists
	}

	renamed := name != tag.Name
	tag.Name = name

	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		if renamed {
			allocated, err := slug.Allocate(name, s.slugTaken(tag.ID))
			if err != nil {
				return nil, err
			}
			tag.Slug = allocated
		}

		err := s.db.Save(&tag).Error
		if err == nil {
			return &tag, nil
		}
		if !renamed || !isUniqueViolation(err) {
			return nil, err
		}
		metrics.SlugCollisionsTotal.WithLabelValues("tag").Inc()
	}

	return nil, slug.ErrExhausted
}

// Delete removes a tag and its post associations.
func (s *TagService) Delete(id uint) error {
	var tag db.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&tag).Association("Posts").Clear(); err != nil {
			return err
		}
		return tx.Unscoped().Delete(&tag).Error
	})
}

func (s *TagService) slugTaken(excludeID uint) slug.Lookup {
	return func(candidate string) (bool, error) {
		var count int64
		query := s.db.Model(&db.Tag{}).Where("slug = ?", candidate)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}
}
