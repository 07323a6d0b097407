package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/pressroom/internal/config"
	"github.com/pressroom/internal/handler"
	"github.com/pressroom/internal/middleware"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig, gdb *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions("pressroom_session", store))

	// 上传文件的静态服务
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := handler.NewAPI(gdb, cfg.UploadDir, cfg.UploadURLPath)

	// 公开读取接口
	pub := r.Group("/api")
	{
		pub.GET("/posts", api.ListPosts)
		pub.GET("/posts/:slug", api.GetPost)

		pub.GET("/categories", api.ListCategories)
		pub.GET("/categories/:id", api.GetCategory)

		pub.GET("/tags", api.ListTags)
		pub.GET("/tags/:id", api.GetTag)

		pub.POST("/auth/register", api.Register)
		pub.POST("/auth/login", api.Login)
		pub.POST("/auth/logout", api.Logout)
		pub.GET("/auth/me", api.Me)
		pub.PUT("/auth/profile", api.UpdateProfile)
		pub.PUT("/auth/password", api.ChangePassword)
	}

	// 需要认证的管理接口
	admin := r.Group("/api/admin")
	admin.Use(api.AuthRequired())
	{
		admin.POST("/posts", api.CreatePost)
		admin.PUT("/posts/:id", api.UpdatePost)
		admin.DELETE("/posts/:id", api.DeletePost)
		admin.POST("/posts/:id/publish", api.PublishPost)
		admin.POST("/posts/:id/unpublish", api.UnpublishPost)
		admin.GET("/posts/:id/autosave", api.GetAutosave)
		admin.POST("/posts/:id/autosave", api.AutosavePost)
		admin.GET("/posts/:id/stats", api.PostStats)

		admin.POST("/categories", api.CreateCategory)
		admin.PUT("/categories/:id", api.UpdateCategory)
		admin.DELETE("/categories/:id", api.DeleteCategory)

		admin.POST("/tags", api.CreateTag)
		admin.PUT("/tags/:id", api.UpdateTag)
		admin.DELETE("/tags/:id", api.DeleteTag)

		admin.POST("/uploads/image", api.UploadImage)
	}

	return r
}
