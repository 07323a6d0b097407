package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressroom/internal/authz"
	"github.com/pressroom/internal/db"
)

// ListTags 获取全部标签(公开)。
func (a *API) ListTags(c *gin.Context) {
	tags, err := a.tags.List()
	if err != nil {
		respondServiceError(c, err, "Failed to list tags")
		return
	}

	items := make([]gin.H, 0, len(tags))
	for i := range tags {
		items = append(items, tagJSON(&tags[i]))
	}
	c.JSON(http.StatusOK, gin.H{"tags": items})
}

// GetTag 获取单个标签(公开)。
func (a *API) GetTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	tag, err := a.tags.Get(id)
	if err != nil {
		respondServiceError(c, err, "Failed to load tag")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": tagJSON(tag)})
}

// CreateTag 创建标签,任何激活用户都可以创建。
func (a *API) CreateTag(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}
	if decision := authz.Authorize(user.Actor(), authz.ActionTaxonomyCreate, nil); !decision.Allowed {
		respondDenied(c, authz.ActionTaxonomyCreate, decision)
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if !bindJSON(c, &payload, "Invalid tag payload") {
		return
	}

	tag, err := a.tags.Create(payload.Name)
	if err != nil {
		respondServiceError(c, err, "Failed to create tag")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tag created successfully",
		"tag":     tagJSON(tag),
	})
}

// UpdateTag 重命名标签,仅限 admin 与 editor。
func (a *API) UpdateTag(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := a.tags.Get(id); err != nil {
		respondServiceError(c, err, "Failed to load tag")
		return
	}

	if decision := authz.Authorize(user.Actor(), authz.ActionTaxonomyUpdate, nil); !decision.Allowed {
		respondDenied(c, authz.ActionTaxonomyUpdate, decision)
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if !bindJSON(c, &payload, "Invalid tag payload") {
		return
	}

	tag, err := a.tags.Update(id, payload.Name)
	if err != nil {
		respondServiceError(c, err, "Failed to update tag")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tag updated successfully",
		"tag":     tagJSON(tag),
	})
}

// DeleteTag 删除标签,仅限 admin。
func (a *API) DeleteTag(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := a.tags.Get(id); err != nil {
		respondServiceError(c, err, "Failed to load tag")
		return
	}

	if decision := authz.Authorize(user.Actor(), authz.ActionTaxonomyDelete, nil); !decision.Allowed {
		respondDenied(c, authz.ActionTaxonomyDelete, decision)
		return
	}

	if err := a.tags.Delete(id); err != nil {
		respondServiceError(c, err, "Failed to delete tag")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted successfully"})
}

func tagJSON(tag *db.Tag) gin.H {
	return gin.H{
		"id":         tag.ID,
		"name":       tag.Name,
		"slug":       tag.Slug,
		"post_count": len(tag.Posts),
		"created_at": tag.CreatedAt,
	}
}
