package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/metrics"
)

// AnalyticsService 负责记录已发布文章的浏览。它是授权读取之后才被
// 调用的旁路协作者,不参与授权或生命周期判定。
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates an AnalyticsService instance.
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// PageViewInput 描述一次浏览的请求上下文。
type PageViewInput struct {
	PostID    uint
	UserID    *uint
	VisitorID string
	IPAddress string
	UserAgent string
}

// RecordPostView 插入浏览记录并原子累加文章计数,两步在同一事务里。
func (s *AnalyticsService) RecordPostView(input PageViewInput, now time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		view := db.PageView{
			PostID:    input.PostID,
			UserID:    input.UserID,
			VisitorID: input.VisitorID,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
			ViewedAt:  now,
		}
		if err := tx.Create(&view).Error; err != nil {
			return err
		}

		if err := tx.Model(&db.Post{}).Where("id = ?", input.PostID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
			return err
		}

		metrics.PageViewsTotal.Inc()
		return nil
	})
}

// ViewCount 返回某篇文章已记录的浏览行数。
func (s *AnalyticsService) ViewCount(postID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&db.PageView{}).Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
