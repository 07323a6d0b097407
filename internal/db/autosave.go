package db

import (
	"time"

	"gorm.io/gorm"
)

// AutosaveDraft 记录编辑器的自动保存缓冲。每个 (post_id, user_id)
// 至多一行,由唯一索引兜底,重复保存走覆盖而不是新增。
type AutosaveDraft struct {
	gorm.Model
	PostID  uint `gorm:"not null;uniqueIndex:idx_autosave_post_user"`
	UserID  uint `gorm:"not null;uniqueIndex:idx_autosave_post_user"`
	Title   string
	Content string    `gorm:"type:text;not null"`
	SavedAt time.Time `gorm:"not null"`
}

// TableName 指定自定义表名。
func (AutosaveDraft) TableName() string {
	return "autosave_drafts"
}
