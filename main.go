package main

import (
	"fmt"
	"log"

	"github.com/Honahec/CloudBackend/config"
	"github.com/Honahec/CloudBackend/database"
	"github.com/Honahec/CloudBackend/handlers"
	"github.com/Honahec/CloudBackend/middleware"
	"github.com/Honahec/CloudBackend/models"
	"github.com/Honahec/CloudBackend/oss"
	"github.com/Honahec/CloudBackend/repositories"
	"github.com/Honahec/CloudBackend/services"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("starting cloudbackend service")

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	if err := database.InitMySQL(&cfg.Database); err != nil {
		log.Fatalf("init mysql failed: %v", err)
	}

	database.DB.AutoMigrate(
		&models.User{},
		&models.File{},
		&models.Drop{},
	)
	log.Println("database migration completed")

	if err := database.InitRedis(&cfg.Redis); err != nil {
		log.Fatalf("init redis failed: %v", err)
	}

	gateway, err := oss.NewClient(cfg.OSS)
	if err != nil {
		log.Fatalf("init oss client failed: %v", err)
	}

	repoContainer := repositories.NewGormRepositories(database.DB, database.RedisClient).BuildContainer()
	serviceContainer := services.NewContainer(repoContainer, gateway)
	handlers.SetServices(serviceContainer)

	serviceContainer.Cleanup.Start()
	log.Println("cleanup workers started")

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestLogger())
	setupRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}

func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/health", handlers.HealthCheck)

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	// 分享解析对匿名访客开放，登录态只影响 require_login 闸门
	public := api.Group("/drops")
	public.Use(middleware.OptionalAuthMiddleware())
	{
		public.POST("/:code/resolve", handlers.ResolveDrop)
		public.POST("/:code/download", handlers.GetDropFileDownloadURL)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", handlers.GetProfile)
		protected.POST("/auth/change-password", handlers.ChangePassword)

		protected.GET("/user/storage", handlers.GetStorageInfo)
		protected.POST("/user/storage/recalculate", handlers.RecalculateStorage)

		protected.GET("/files", handlers.ListFiles)
		protected.POST("/files/folder", handlers.CreateFolder)
		protected.POST("/files/upload/token", handlers.GetUploadToken)
		protected.POST("/files/upload/complete", handlers.CompleteUpload)
		protected.GET("/files/:id/download", handlers.GetDownloadURL)
		protected.PUT("/files/:id/rename", handlers.RenameFile)
		protected.PUT("/files/:id/move", handlers.MoveFile)
		protected.DELETE("/files/:id", handlers.DeleteFile)

		protected.POST("/drops", handlers.CreateDrop)
		protected.GET("/drops", handlers.ListDrops)
		protected.DELETE("/drops/:id", handlers.DeleteDrop)
	}
}
