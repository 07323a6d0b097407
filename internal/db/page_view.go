package db

import (
	"time"

	"gorm.io/gorm"
)

// PageView 记录一次已发布文章的浏览,匿名访客的 UserID 为空。
type PageView struct {
	gorm.Model
	PostID    uint      `gorm:"not null;index"`
	UserID    *uint     `gorm:"index"`
	VisitorID string    `gorm:"size:64;index"`
	IPAddress string    `gorm:"size:45"` // 45 字节足够容纳 IPv6
	UserAgent string    `gorm:"type:text"`
	ViewedAt  time.Time `gorm:"not null;index"`
}
