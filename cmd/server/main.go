package main

import (
	"github.com/gin-gonic/gin"

	"github.com/pressroom/internal/authz"
	"github.com/pressroom/internal/config"
	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/logger"
	"github.com/pressroom/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}

	// 按需创建初始管理员账号
	if err := db.EnsureUser(db.DB, cfg.AdminUserName, cfg.AdminEmail, cfg.AdminPassword, authz.RoleAdmin); err != nil {
		logger.Fatal("failed to ensure admin user", "error", err)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg, db.DB)
	logger.Info("server starting", "addr", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("failed to run server", "error", err)
	}
}
