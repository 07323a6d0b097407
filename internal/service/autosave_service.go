package service

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/metrics"
)

var ErrAutosaveNotFound = errors.New("autosave draft not found")

// AutosaveService 维护编辑器的恢复缓冲:每个 (post, user) 至多一份,
// 只作为恢复侧信道存在,从不回写正文。
type AutosaveService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAutosaveService creates an AutosaveService instance.
func NewAutosaveService(gdb *gorm.DB) *AutosaveService {
	return &AutosaveService{db: gdb, now: time.Now}
}

// WithClock 允许测试注入固定时钟。
func (s *AutosaveService) WithClock(now func() time.Time) *AutosaveService {
	if now != nil {
		s.now = now
	}
	return s
}

// Save upserts the buffer keyed by (post_id, user_id)。落在唯一索引上的
// ON CONFLICT 更新保证并发自救时也只有一行;title 为 nil 表示本次未带
// 标题,保留此前保存的值。
func (s *AutosaveService) Save(postID, userID uint, content string, title *string) (*db.AutosaveDraft, error) {
	draft := db.AutosaveDraft{
		PostID:  postID,
		UserID:  userID,
		Content: content,
		SavedAt: s.now(),
	}

	assignments := map[string]interface{}{
		"content":  content,
		"saved_at": draft.SavedAt,
	}
	if title != nil {
		draft.Title = *title
		assignments["title"] = *title
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&draft).Error; err != nil {
		return nil, err
	}

	metrics.AutosavesTotal.Inc()
	return s.Get(postID, userID)
}

// Get 返回指定键的缓冲,不存在时报 ErrAutosaveNotFound。
func (s *AutosaveService) Get(postID, userID uint) (*db.AutosaveDraft, error) {
	var draft db.AutosaveDraft
	if err := s.db.Where("post_id = ? AND user_id = ?", postID, userID).
		First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAutosaveNotFound
		}
		return nil, err
	}
	return &draft, nil
}
