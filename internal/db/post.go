package db

import (
	"time"

	"gorm.io/gorm"

	"github.com/pressroom/internal/authz"
)

// 文章状态只有草稿与已发布两种。
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// TransitionOutcome 描述一次状态机调用的结果,幂等的重复调用
// 返回 already_* 而不是错误。
type TransitionOutcome string

const (
	OutcomePublished        TransitionOutcome = "published"
	OutcomeAlreadyPublished TransitionOutcome = "already_published"
	OutcomeReverted         TransitionOutcome = "reverted_to_draft"
	OutcomeAlreadyDraft     TransitionOutcome = "already_draft"
)

// Post 定义了文章模型
type Post struct {
	gorm.Model
	Title            string `gorm:"not null"`
	Slug             string `gorm:"uniqueIndex;not null"`
	Content          string `gorm:"type:text;not null"`
	Excerpt          string `gorm:"type:text"`
	FeaturedImageURL string
	UserID           uint `gorm:"index;not null"`
	User             User
	Status           string     `gorm:"not null;default:draft;index"`
	PublishedAt      *time.Time `gorm:"index"`
	ViewCount        int64      `gorm:"not null;default:0"`
	Categories       []Category `gorm:"many2many:post_categories;"`
	Tags             []Tag      `gorm:"many2many:post_tags;"`
}

// Resource 把文章映射为授权引擎的资源视图。
func (p *Post) Resource() *authz.Resource {
	return &authz.Resource{OwnerID: p.UserID}
}

// Published reports whether the post is currently published.
func (p *Post) Published() bool {
	return p.Status == StatusPublished
}

// Publish 将草稿置为已发布并同时写入发布时间。已发布的文章不做任何
// 修改,返回 already_published;重新发布总是取新的时间戳。
func (p *Post) Publish(now time.Time) TransitionOutcome {
	if p.Status == StatusPublished {
		return OutcomeAlreadyPublished
	}
	p.Status = StatusPublished
	p.PublishedAt = &now
	return OutcomePublished
}

// Unpublish 将文章退回草稿并清空发布时间,草稿上的调用是幂等空操作。
func (p *Post) Unpublish() TransitionOutcome {
	if p.Status != StatusPublished {
		return OutcomeAlreadyDraft
	}
	p.Status = StatusDraft
	p.PublishedAt = nil
	return OutcomeReverted
}
