package db

import "gorm.io/gorm"

// Tag 定义了标签模型,slug 在标签作用域内唯一。
type Tag struct {
	gorm.Model
	Name  string `gorm:"unique;not null"`
	Slug  string `gorm:"uniqueIndex;not null"`
	Posts []Post `gorm:"many2many:post_tags;"`
}
