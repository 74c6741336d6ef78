package main

import (
	"fmt"
	"log"
	"time"

	"godrive/cluster"
	"godrive/config"
	"godrive/database"
	"godrive/engine"
	"godrive/handlers"
	"godrive/identity"
	"godrive/logger"
	"godrive/middleware"
	"godrive/models"
	"godrive/store"
	"godrive/transport"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("starting godrive service")

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if err := database.InitMySQL(&cfg.Database); err != nil {
		log.Fatalf("init mysql failed: %v", err)
	}

	database.DB.AutoMigrate(
		&models.Folder{},
		&models.File{},
	)
	log.Println("database migration completed")

	if err := database.InitRedis(&cfg.Redis); err != nil {
		log.Fatalf("init redis failed: %v", err)
	}

	recordStore := store.NewGormStore(database.DB, database.RedisClient, store.Options{
		OpTimeout:     time.Duration(cfg.Store.OpTimeoutSeconds) * time.Second,
		ChangeChannel: cfg.Store.ChangeChannel,
	})
	defer recordStore.Close()

	adapter := transport.NewHTTPAdapter(cfg.Transport.NodeURL, time.Duration(cfg.Transport.TimeoutSeconds)*time.Second)
	gateway := cluster.NewGateway(cfg.Cluster.StatusURL, time.Duration(cfg.Transport.TimeoutSeconds)*time.Second)
	poller := cluster.NewPoller(gateway, time.Duration(cfg.Cluster.PollIntervalSeconds)*time.Second)
	poller.Start()
	defer poller.Stop()

	manager := engine.NewManager(recordStore, adapter)
	defer manager.CloseAll()

	handlers.SetDeps(manager, adapter, poller, gateway)

	provider := identity.NewJWTProvider(cfg.Auth.JWTSecret)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger())
	setupRoutes(r, provider)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}

func setupRoutes(r *gin.Engine, provider identity.Provider) {
	api := r.Group("/api")

	api.GET("/health", handlers.HealthCheck)

	protected := api.Group("")
	protected.Use(middleware.Auth(provider))
	{
		protected.POST("/auth/logout", handlers.Logout)

		protected.GET("/drive", handlers.ListDrive)
		protected.GET("/trash", handlers.ListTrash)
		protected.GET("/recents", handlers.ListRecents)
		protected.GET("/starred", handlers.ListStarred)
		protected.GET("/shared", handlers.ListShared)

		protected.POST("/folders", handlers.CreateFolder)
		protected.DELETE("/folders/:id", handlers.DeleteFolder)
		protected.POST("/folders/:id/restore", handlers.RestoreFolder)
		protected.DELETE("/folders/:id/permanent", handlers.PermanentDeleteFolder)
		protected.POST("/folders/:id/share", handlers.ShareFolder)
		protected.PUT("/folders/:id/highlight", handlers.HighlightFolder)

		protected.POST("/files/upload", handlers.UploadFile)
		protected.GET("/download/:name", handlers.DownloadFile)
		protected.PUT("/files/:id/move", handlers.MoveFile)
		protected.DELETE("/files/:id", handlers.DeleteFile)
		protected.POST("/files/:id/restore", handlers.RestoreFile)
		protected.DELETE("/files/:id/permanent", handlers.PermanentDeleteFile)
		protected.POST("/files/:id/share", handlers.ShareFile)
		protected.PUT("/files/:id/highlight", handlers.HighlightFile)

		protected.GET("/cluster/status", handlers.ClusterStatus)
		protected.GET("/cluster/logs", handlers.ClusterLogs)
		protected.POST("/node/toggle", handlers.ToggleNode)
		protected.GET("/admin/stats", handlers.AdminStats)
	}
}
