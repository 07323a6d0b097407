package service

import (
	"errors"
	"testing"
)

func TestSlugScopesAreIndependentAcrossKinds(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	author := seedUser(t, gdb, "alice", "author")
	posts := NewPostService(gdb)
	categories := NewCategoryService(gdb)
	tags := NewTagService(gdb)

	post, err := posts.Create(PostCreate{Title: "Hello World", Content: "body", AuthorID: author.ID})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	category, err := categories.Create("Hello World", "")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	tag, err := tags.Create("Hello World")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	// 三个作用域互不干扰,都可以拿到同一个基底 slug。
	for name, got := range map[string]string{
		"post":     post.Slug,
		"category": category.Slug,
		"tag":      tag.Slug,
	} {
		if got != "hello-world" {
			t.Fatalf("expected hello-world for %s, got %q", name, got)
		}
	}
}

func TestCategoryCreateDuplicateName(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewCategoryService(gdb)
	if _, err := svc.Create("Tech", "technology posts"); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := svc.Create("Tech", ""); !errors.Is(err, ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}
}

func TestCategoryRenameReallocatesSlug(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewCategoryService(gdb)
	category, err := svc.Create("Old Name", "")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	updated, err := svc.Update(category.ID, "New Name", nil)
	if err != nil {
		t.Fatalf("update category: %v", err)
	}
	if updated.Slug != "new-name" {
		t.Fatalf("expected slug new-name, got %q", updated.Slug)
	}

	// 改回原名不会与自己的 slug 冲突,也不会追加后缀。
	back, err := svc.Update(category.ID, "New Name", nil)
	if err != nil {
		t.Fatalf("no-op rename: %v", err)
	}
	if back.Slug != "new-name" {
		t.Fatalf("unchanged name must keep slug, got %q", back.Slug)
	}
}

func TestTagCreateProbesSuffixWithinScope(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewTagService(gdb)
	first, err := svc.Create("Go Lang")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	if first.Slug != "go-lang" {
		t.Fatalf("expected go-lang, got %q", first.Slug)
	}

	// 不同名称、相同规范化结果:slug 冲突靠后缀解决。
	second, err := svc.Create("Go  Lang!")
	if err != nil {
		t.Fatalf("create colliding tag: %v", err)
	}
	if second.Slug != "go-lang-1" {
		t.Fatalf("expected go-lang-1, got %q", second.Slug)
	}
}

func TestTagDeleteRemovesRow(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewTagService(gdb)
	tag, err := svc.Create("Ephemeral")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	if err := svc.Delete(tag.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	if _, err := svc.Get(tag.ID); !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound, got %v", err)
	}
}

func TestTagUpdateDuplicateNameRejected(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewTagService(gdb)
	if _, err := svc.Create("Go"); err != nil {
		t.Fatalf("create tag: %v", err)
	}
	other, err := svc.Create("Rust")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	if _, err := svc.Update(other.ID, "Go"); !errors.Is(err, ErrTagExists) {
		t.Fatalf("expected ErrTagExists, got %v", err)
	}
}
