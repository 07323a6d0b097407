package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pressroom/internal/authz"
	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/logger"
	"github.com/pressroom/internal/middleware"
	"github.com/pressroom/internal/service"
)

const (
	visitorCookieName   = "pr_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

// ListPosts 获取文章列表。匿名访客只能看到已发布的文章,登录用户
// 可以按状态自由过滤。
func (a *API) ListPosts(c *gin.Context) {
	filter := service.PostFilter{
		Status:         c.Query("status"),
		CategorySlug:   c.Query("category"),
		TagSlug:        c.Query("tag"),
		AuthorUsername: c.Query("author"),
		Search:         strings.TrimSpace(c.Query("search")),
		Page:           parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage:        parsePositiveInt(c.DefaultQuery("per_page", "10"), 10),
	}

	if _, authenticated := a.sessionUser(c); !authenticated && filter.Status == "" {
		filter.Status = db.StatusPublished
	}

	result, err := a.posts.List(filter)
	if err != nil {
		respondServiceError(c, err, "Failed to list posts")
		return
	}

	items := make([]gin.H, 0, len(result.Posts))
	for i := range result.Posts {
		items = append(items, postJSON(&result.Posts[i], false))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":        items,
		"total":        result.Total,
		"pages":        result.TotalPages,
		"current_page": result.Page,
		"per_page":     result.PerPage,
	})
}

// GetPost 按 slug 获取单篇文章。草稿对匿名访客隐藏;已发布文章的
// 成功读取之后才触发浏览记录,记录失败只打日志,不影响响应。
func (a *API) GetPost(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "Failed to load post")
		return
	}

	user, authenticated := a.sessionUser(c)
	if !post.Published() && !authenticated {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}

	if post.Published() {
		input := service.PageViewInput{
			PostID:    post.ID,
			VisitorID: a.ensureVisitorID(c),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if authenticated {
			input.UserID = &user.ID
		}
		if err := a.analytics.RecordPostView(input, time.Now().UTC()); err != nil {
			logger.WithRequestID(middleware.GetRequestID(c)).Warn("failed to record page view",
				"post_id", post.ID, "error", err)
		} else {
			post.ViewCount++
		}
	}

	body := postJSON(post, true)
	body["content_html"] = service.RenderMarkdown(post.Content)
	c.JSON(http.StatusOK, gin.H{"post": body})
}

// CreatePost 创建新文章,任何激活用户都可以创建。
func (a *API) CreatePost(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	if decision := authz.Authorize(user.Actor(), authz.ActionCreateContent, nil); !decision.Allowed {
		respondDenied(c, authz.ActionCreateContent, decision)
		return
	}

	var payload struct {
		Title            string `json:"title"`
		Content          string `json:"content"`
		Excerpt          string `json:"excerpt"`
		FeaturedImageURL string `json:"featured_image_url"`
		Status           string `json:"status"`
		CategoryIDs      []uint `json:"category_ids"`
		TagIDs           []uint `json:"tag_ids"`
	}
	if !bindJSON(c, &payload, "Invalid post payload") {
		return
	}

	post, err := a.posts.Create(service.PostCreate{
		Title:            payload.Title,
		Content:          payload.Content,
		Excerpt:          payload.Excerpt,
		FeaturedImageURL: payload.FeaturedImageURL,
		Status:           payload.Status,
		AuthorID:         user.ID,
		CategoryIDs:      payload.CategoryIDs,
		TagIDs:           payload.TagIDs,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create post")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    postJSON(post, true),
	})
}

// UpdatePost 更新文章。先检查存在性,再走 edit_content 判定。
func (a *API) UpdatePost(c *gin.Context) {
	_, post, ok := a.loadPostForAction(c, authz.ActionEditContent)
	if !ok {
		return
	}

	var payload struct {
		Title            *string `json:"title"`
		Content          *string `json:"content"`
		Excerpt          *string `json:"excerpt"`
		FeaturedImageURL *string `json:"featured_image_url"`
		Status           *string `json:"status"`
		CategoryIDs      *[]uint `json:"category_ids"`
		TagIDs           *[]uint `json:"tag_ids"`
	}
	if !bindJSON(c, &payload, "Invalid post payload") {
		return
	}

	updated, err := a.posts.Update(post.ID, service.PostUpdate{
		Title:            payload.Title,
		Content:          payload.Content,
		Excerpt:          payload.Excerpt,
		FeaturedImageURL: payload.FeaturedImageURL,
		Status:           payload.Status,
		CategoryIDs:      payload.CategoryIDs,
		TagIDs:           payload.TagIDs,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update post")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post updated successfully",
		"post":    postJSON(updated, true),
	})
}

// DeletePost 删除文章。editor 没有越权删除的权限,归属人和 admin 才行。
func (a *API) DeletePost(c *gin.Context) {
	_, post, ok := a.loadPostForAction(c, authz.ActionDeleteContent)
	if !ok {
		return
	}

	if err := a.posts.Delete(post.ID); err != nil {
		respondServiceError(c, err, "Failed to delete post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// PublishPost 发布文章。重复发布按幂等空操作返回 200。
func (a *API) PublishPost(c *gin.Context) {
	_, post, ok := a.loadPostForAction(c, authz.ActionPublishContent)
	if !ok {
		return
	}

	published, outcome, err := a.posts.Publish(post.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to publish post")
		return
	}

	if outcome == db.OutcomeAlreadyPublished {
		c.JSON(http.StatusOK, gin.H{"message": "Post is already published"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post published successfully",
		"post":    postJSON(published, true),
	})
}

// UnpublishPost 将文章退回草稿,与发布走同一张判定表。
func (a *API) UnpublishPost(c *gin.Context) {
	_, post, ok := a.loadPostForAction(c, authz.ActionPublishContent)
	if !ok {
		return
	}

	reverted, outcome, err := a.posts.Unpublish(post.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to unpublish post")
		return
	}

	if outcome == db.OutcomeAlreadyDraft {
		c.JSON(http.StatusOK, gin.H{"message": "Post is already a draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post reverted to draft",
		"post":    postJSON(reverted, true),
	})
}

// AutosavePost 保存编辑缓冲。授权复用 edit_content 判定,针对的是
// 目标文章而不是缓冲本身。
func (a *API) AutosavePost(c *gin.Context) {
	user, post, ok := a.loadPostForAction(c, authz.ActionEditContent)
	if !ok {
		return
	}

	var payload struct {
		Title   *string `json:"title"`
		Content string  `json:"content"`
	}
	if !bindJSON(c, &payload, "Invalid autosave payload") {
		return
	}
	if payload.Content == "" {
		respondError(c, http.StatusBadRequest, "Autosave content is required")
		return
	}

	draft, err := a.autosaves.Save(post.ID, user.ID, payload.Content, payload.Title)
	if err != nil {
		respondServiceError(c, err, "Failed to autosave")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Autosaved successfully",
		"autosave": autosaveJSON(draft),
	})
}

// GetAutosave 读取当前用户在该文章上的编辑缓冲。
func (a *API) GetAutosave(c *gin.Context) {
	user, post, ok := a.loadPostForAction(c, authz.ActionEditContent)
	if !ok {
		return
	}

	draft, err := a.autosaves.Get(post.ID, user.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load autosave")
		return
	}

	c.JSON(http.StatusOK, gin.H{"autosave": autosaveJSON(draft)})
}

// PostStats 返回文章的浏览统计。计数器快照与明细行数并列返回,
// 两者在浏览记录写入失败过的文章上可能不一致。
func (a *API) PostStats(c *gin.Context) {
	_, post, ok := a.loadPostForAction(c, authz.ActionEditContent)
	if !ok {
		return
	}

	recorded, err := a.analytics.ViewCount(post.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load post stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"post_id":        post.ID,
			"view_count":     post.ViewCount,
			"recorded_views": recorded,
		},
	})
}

// loadPostForAction 统一“存在性检查在前,授权在后”的编排:文章不是
// 秘密资源,404 与 403 的区分不构成信息泄露。
func (a *API) loadPostForAction(c *gin.Context, action authz.Action) (*db.User, *db.Post, bool) {
	user, ok := a.requireUser(c)
	if !ok {
		return nil, nil, false
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	post, err := a.posts.Get(id)
	if err != nil {
		respondServiceError(c, err, "Failed to load post")
		return nil, nil, false
	}

	if decision := authz.Authorize(user.Actor(), action, post.Resource()); !decision.Allowed {
		respondDenied(c, action, decision)
		return nil, nil, false
	}

	return user, post, true
}

// ensureVisitorID 读取或播种浏览去重用的访客 Cookie。
func (a *API) ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil && strings.TrimSpace(id) != "" {
		return id
	}

	visitorID := uuid.NewString()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitorID,
		Path:     "/",
		MaxAge:   visitorCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return visitorID
}

func parsePositiveInt(raw string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func postJSON(post *db.Post, includeContent bool) gin.H {
	categories := make([]gin.H, 0, len(post.Categories))
	for _, category := range post.Categories {
		categories = append(categories, gin.H{
			"id":   category.ID,
			"name": category.Name,
			"slug": category.Slug,
		})
	}

	tags := make([]gin.H, 0, len(post.Tags))
	for _, tag := range post.Tags {
		tags = append(tags, gin.H{
			"id":   tag.ID,
			"name": tag.Name,
			"slug": tag.Slug,
		})
	}

	var author gin.H
	if post.User.ID != 0 {
		displayName := post.User.DisplayName
		if displayName == "" {
			displayName = post.User.Username
		}
		author = gin.H{
			"id":           post.User.ID,
			"username":     post.User.Username,
			"display_name": displayName,
		}
	}

	body := gin.H{
		"id":                 post.ID,
		"title":              post.Title,
		"slug":               post.Slug,
		"excerpt":            post.Excerpt,
		"featured_image_url": post.FeaturedImageURL,
		"author":             author,
		"status":             post.Status,
		"view_count":         post.ViewCount,
		"published_at":       post.PublishedAt,
		"created_at":         post.CreatedAt,
		"updated_at":         post.UpdatedAt,
		"categories":         categories,
		"tags":               tags,
	}
	if includeContent {
		body["content"] = post.Content
	}
	return body
}

func autosaveJSON(draft *db.AutosaveDraft) gin.H {
	return gin.H{
		"id":       draft.ID,
		"post_id":  draft.PostID,
		"title":    draft.Title,
		"content":  draft.Content,
		"saved_at": draft.SavedAt,
	}
}
