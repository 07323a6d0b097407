package db

import "gorm.io/gorm"

// Category 定义了分类模型,slug 在分类作用域内唯一。
type Category struct {
	gorm.Model
	Name        string `gorm:"unique;not null"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	Posts       []Post `gorm:"many2many:post_categories;"`
}
