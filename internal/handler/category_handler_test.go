package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTaxonomyAuthorization(t *testing.T) {
	r, gdb, cleanup := setupTestRouter(t)
	defer cleanup()

	seedAccount(t, gdb, "alice", "author")
	seedAccount(t, gdb, "ed", "editor")
	seedAccount(t, gdb, "root", "admin")

	// 任何激活用户都可以创建分类。
	alice := login(t, r, "alice")
	w := doJSON(t, r, http.MethodPost, "/api/admin/categories", gin.H{
		"name": "Engineering",
	}, alice)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	category := decodeBody(t, w)["category"].(map[string]any)
	categoryID := int(category["id"].(float64))
	if category["slug"] != "engineering" {
		t.Fatalf("unexpected category slug: %v", category["slug"])
	}

	// author 无权重命名。
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/admin/categories/%d", categoryID), gin.H{
		"name": "Eng",
	}, alice)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for author update, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["reason"] != "role_insufficient" {
		t.Fatalf("expected deny reason role_insufficient, got %v", body["reason"])
	}

	// editor 可以重命名,但不能删除。
	ed := login(t, r, "ed")
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/admin/categories/%d", categoryID), gin.H{
		"name": "Eng",
	}, ed)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for editor update, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", categoryID), nil, ed)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for editor delete, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["reason"] != "admin_only" {
		t.Fatalf("expected deny reason admin_only, got %v", body["reason"])
	}
	required, _ := body["required_roles"].([]any)
	if len(required) != 1 || required[0] != "admin" {
		t.Fatalf("expected required_roles [admin], got %v", body["required_roles"])
	}

	// admin 可以删除。
	root := login(t, r, "root")
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", categoryID), nil, root)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for admin delete, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateCategoryRejectsDuplicateName(t *testing.T) {
	r, gdb, cleanup := setupTestRouter(t)
	defer cleanup()

	seedAccount(t, gdb, "alice", "author")
	alice := login(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/admin/categories", gin.H{"name": "News"}, alice)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/admin/categories", gin.H{"name": "News"}, alice)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for duplicate name, got %d", w.Code)
	}
}

func TestDeleteMissingTagReturns404(t *testing.T) {
	r, gdb, cleanup := setupTestRouter(t)
	defer cleanup()

	seedAccount(t, gdb, "alice", "author")
	alice := login(t, r, "alice")

	// 存在性检查先于授权:author 收到的是 404 而不是 403。
	w := doJSON(t, r, http.MethodDelete, "/api/admin/tags/42", nil, alice)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
