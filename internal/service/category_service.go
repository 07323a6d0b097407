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
	ErrCategoryExists       = errors.New("category already exists")
	ErrCategoryNameRequired = errors.New("category name is required")
)

// CategoryService wraps category related operations. 分类与标签、文章
// 各自是独立的 slug 作用域,跨作用域允许同名同 slug。
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List returns categories ordered by name.
func (s *CategoryService) List() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Preload("Posts").Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Get fetches a category by id.
func (s *CategoryService) Get(id uint) (*db.Category, error) {
	var category db.Category
	if err := s.db.Preload("Posts").First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create inserts a category with a freshly allocated slug.
func (s *CategoryService) Create(name, description string) (*db.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}

	var existing db.Category
	if err := s.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, ErrCategoryExists
	}

	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		allocated, err := slug.Allocate(name, s.slugTaken(0))
		if err != nil {
			return nil, err
		}

		category := db.Category{Name: name, Slug: allocated, Description: description}
		err = s.db.Create(&category).Error
		if err == nil {
			return &category, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		metrics.SlugCollisionsTotal.WithLabelValues("category").Inc()
	}

	return nil, slug.ErrExhausted
}

// Update renames a category; slug 仅在名称变化时重新分配。
func (s *CategoryService) Update(id uint, name string, description *string) (*db.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}

	var category db.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	var duplicate db.Category
	if err := s.db.Where("name = ? AND id <> ?", name, id).First(&duplicate).Error; err == nil {
		return nil, ErrCategoryExists
	}

	renamed := name != category.Name
	category.Name = name
	if description != nil {
		category.Description = *description
	}

	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		if renamed {
			allocated, err := slug.Allocate(name, s.slugTaken(category.ID))
			if err != nil {
				return nil, err
			}
			category.Slug = allocated
		}

		err := s.db.Save(&category).Error
		if err == nil {
			return &category, nil
		}
		if !renamed || !isUniqueViolation(err) {
			return nil, err
		}
		metrics.SlugCollisionsTotal.WithLabelValues("category").Inc()
	}

	return nil, slug.ErrExhausted
}

// Delete removes a category and its post associations.
func (s *CategoryService) Delete(id uint) error {
	var category db.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&category).Association("Posts").Clear(); err != nil {
			return err
		}
		return tx.Unscoped().Delete(&category).Error
	})
}

func (s *CategoryService) slugTaken(excludeID uint) slug.Lookup {
	return func(candidate string) (bool, error) {
		var count int64
		query := s.db.Model(&db.Category{}).Where("slug = ?", candidate)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}
}
