package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pressroom/internal/authz"
	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/metrics"
	"github.com/pressroom/internal/service"
	"github.com/pressroom/internal/slug"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// respondDenied 把授权拒绝翻译为 403 响应。角色不足时附带判定表要求的
// 角色集合与实际角色,保持与前端约定一致的错误契约。
func respondDenied(c *gin.Context, action authz.Action, decision authz.Decision) {
	metrics.AuthzDenialsTotal.WithLabelValues(string(action), string(decision.Reason)).Inc()

	if decision.Reason == authz.ReasonInactive {
		respondError(c, http.StatusForbidden, "Account is inactive")
		return
	}

	body := gin.H{
		"error":  "Insufficient permissions",
		"reason": decision.Reason,
	}
	if len(decision.Required) > 0 {
		body["required_roles"] = decision.Required
		body["your_role"] = decision.Actual
	}
	c.JSON(http.StatusForbidden, body)
}

// respondServiceError 把服务层哨兵错误映射到稳定的状态码。slug 分配
// 耗尽属于服务端故障而不是用户输入问题,按 500 上报。
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "Post not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusNotFound, "Category not found")
	case errors.Is(err, service.ErrTagNotFound):
		respondError(c, http.StatusNotFound, "Tag not found")
	case errors.Is(err, service.ErrAutosaveNotFound):
		respondError(c, http.StatusNotFound, "No autosave found")
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrContentRequired),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrTagNameRequired),
		errors.Is(err, service.ErrCategoryNameRequired),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameInvalid),
		errors.Is(err, service.ErrEmailRequired),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, db.ErrPasswordTooShort):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTagExists):
		respondError(c, http.StatusBadRequest, "Tag already exists")
	case errors.Is(err, service.ErrCategoryExists):
		respondError(c, http.StatusBadRequest, "Category already exists")
	case errors.Is(err, slug.ErrExhausted):
		respondError(c, http.StatusInternalServerError, "Failed to allocate a unique slug")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
