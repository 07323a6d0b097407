package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressroom/internal/authz"
	"github.com/pressroom/internal/db"
)

// ListCategories 获取全部分类(公开)。
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		respondServiceError(c, err, "Failed to list categories")
		return
	}

	items := make([]gin.H, 0, len(categories))
	for i := range categories {
		items = append(items, categoryJSON(&categories[i]))
	}
	c.JSON(http.StatusOK, gin.H{"categories": items})
}

// GetCategory 获取单个分类(公开)。
func (a *API) GetCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	category, err := a.categories.Get(id)
	if err != nil {
		respondServiceError(c, err, "Failed to load category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": categoryJSON(category)})
}

// CreateCategory 创建分类,任何激活用户都可以创建。
func (a *API) CreateCategory(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}
	if decision := authz.Authorize(user.Actor(), authz.ActionTaxonomyCreate, nil); !decision.Allowed {
		respondDenied(c, authz.ActionTaxonomyCreate, decision)
		return
	}

	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !bindJSON(c, &payload, "Invalid category payload") {
		return
	}

	category, err := a.categories.Create(payload.Name, payload.Description)
	if err != nil {
		respondServiceError(c, err, "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Category created successfully",
		"category": categoryJSON(category),
	})
}

// UpdateCategory 重命名分类,仅限 admin 与 editor。分类没有归属字段,
// 创建者身份不带来任何额外权限。
func (a *API) UpdateCategory(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := a.categories.Get(id); err != nil {
		respondServiceError(c, err, "Failed to load category")
		return
	}

	if decision := authz.Authorize(user.Actor(), authz.ActionTaxonomyUpdate, nil); !decision.Allowed {
		respondDenied(c, authz.ActionTaxonomyUpdate, decision)
		return
	}

	var payload struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if !bindJSON(c, &payload, "Invalid category payload") {
		return
	}

	category, err := a.categories.Update(id, payload.Name, payload.Description)
	if err != nil {
		respondServiceError(c, err, "Failed to update category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Category updated successfully",
		"category": categoryJSON(category),
	})
}

// DeleteCategory 删除分类,仅限 admin。
func (a *API) DeleteCategory(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := a.categories.Get(id); err != nil {
		respondServiceError(c, err, "Failed to load category")
		return
	}

	if decision := authz.Authorize(user.Actor(), authz.ActionTaxonomyDelete, nil); !decision.Allowed {
		respondDenied(c, authz.ActionTaxonomyDelete, decision)
		return
	}

	if err := a.categories.Delete(id); err != nil {
		respondServiceError(c, err, "Failed to delete category")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func categoryJSON(category *db.Category) gin.H {
	return gin.H{
		"id":          category.ID,
		"name":        category.Name,
		"slug":        category.Slug,
		"description": category.Description,
		"post_count":  len(category.Posts),
		"created_at":  category.CreatedAt,
	}
}
