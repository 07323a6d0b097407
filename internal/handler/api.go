package handler

import (
	"gorm.io/gorm"

	"github.com/pressroom/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	posts      *service.PostService
	categories *service.CategoryService
	tags       *service.TagService
	autosaves  *service.AutosaveService
	analytics  *service.AnalyticsService
	users      *service.UserService
	uploadDir  string
	uploadURL  string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, uploadDir, uploadURL string) *API {
	return &API{
		posts:      service.NewPostService(gdb),
		categories: service.NewCategoryService(gdb),
		tags:       service.NewTagService(gdb),
		autosaves:  service.NewAutosaveService(gdb),
		analytics:  service.NewAnalyticsService(gdb),
		users:      service.NewUserService(gdb),
		uploadDir:  uploadDir,
		uploadURL:  uploadURL,
	}
}
