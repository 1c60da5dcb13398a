package main

import (
	"context"
	"fmt"
	"net/http"
	"orgdirectory/internal/config"
	"orgdirectory/internal/handler"
	"orgdirectory/internal/middleware"
	"orgdirectory/internal/repository"
	"orgdirectory/internal/service"
	"orgdirectory/pkg/database"
	"orgdirectory/pkg/identity"
	"orgdirectory/pkg/log"
	"orgdirectory/pkg/realtime"
	"orgdirectory/pkg/search"
	"orgdirectory/pkg/storage"
	"orgdirectory/pkg/token"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	config.Init("configs/config.yaml")
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	log.Info("Server starting")

	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.RunMigrate(); err != nil {
		log.Fatal("Failed to run migrations", err)
		return
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	store, err := storage.NewMinioStore(storage.Options{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		log.Fatal("Failed to init object storage", err)
		return
	}

	// 搜索索引是可选组件，连接失败时目录搜索退回数据库
	var index search.Index
	if cfg.Search.Enabled {
		index, err = search.NewElasticIndex(cfg.Search.Addresses, cfg.Search.Index)
		if err != nil {
			log.Warnf("Search index disabled: %v", err)
			index = nil
		}
	}

	hub := realtime.NewHub()
	go hub.Run()
	defer hub.Close()

	identityClient := identity.NewClient(cfg.Identity.URL, cfg.Identity.ServiceRoleKey, nil)
	verifier := token.NewVerifier(cfg.JWT.Secret)
	revoker := database.NewTokenRevoker(database.RDB)

	// 仓储
	db := database.DB
	orgRepo := repository.NewOrganizationRepository(db)
	tagRepo := repository.NewTagRepository(db)
	photoRepo := repository.NewFeaturedPhotoRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// 服务
	sessionService := service.NewSessionService(userRepo, roleRepo, adminRepo, orgRepo, invitationRepo, activityRepo, revoker, hub)
	directoryService := service.NewDirectoryService(orgRepo, tagRepo, photoRepo, adminRepo, categoryRepo, index)
	editService := service.NewOrgEditService(service.OrgEditDeps{
		Organizations: orgRepo,
		Tags:          tagRepo,
		Photos:        photoRepo,
		Categories:    categoryRepo,
		Admins:        adminRepo,
		Users:         userRepo,
		Roles:         roleRepo,
		Activity:      activityRepo,
		Store:         store,
		Index:         index,
		Publisher:     hub,
	}, service.EditOptions{
		MaxFeaturedPhotos: cfg.Edit.MaxFeaturedPhotos,
		RedirectDelay:     cfg.Edit.RedirectDelay,
		DateLayout:        cfg.Edit.DateLayout,
	})
	consoleService := service.NewConsoleService(orgRepo, tagRepo, adminRepo, roleRepo, activityRepo, store, index, hub)
	inviteService := service.NewInviteService(identityClient, invitationRepo, cfg.Identity.AdminPlaceholderName)
	deletionService := service.NewUserDeletionService(identityClient, adminRepo, roleRepo, userRepo)

	// 处理器
	orgHandler := handler.NewOrganizationHandler(directoryService)
	editHandler := handler.NewOrgEditHandler(editService)
	consoleHandler := handler.NewConsoleHandler(consoleService, editService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	activityHandler := handler.NewActivityHandler(hub)
	functionHandler := handler.NewFunctionHandler(inviteService, deletionService)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	functionHandler.Register(r.Group("/functions/v1"))

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/organizations", orgHandler.List)
		apiV1.GET("/organizations/:slug", orgHandler.Get)
		apiV1.GET("/categories", orgHandler.Categories)
		apiV1.GET("/tags", orgHandler.Tags)

		auth := apiV1.Group("/", middleware.AuthMiddleware(verifier, revoker, sessionService))
		{
			auth.GET("/session", sessionHandler.Get)
			auth.POST("/session/sign-out", sessionHandler.SignOut)

			auth.PUT("/organizations/:id", middleware.RequireAdmin(), middleware.RequireOrgEditor("id"), editHandler.Update)
		}

		console := apiV1.Group("/console", middleware.AuthMiddleware(verifier, revoker, sessionService), middleware.RequireSuperadmin())
		{
			console.GET("/organizations", consoleHandler.ListOrganizations)
			console.POST("/organizations", consoleHandler.CreateOrganization)
			console.DELETE("/organizations/:id", consoleHandler.DeleteOrganization)
			console.GET("/admins", consoleHandler.ListAdmins)
			console.DELETE("/admins/:id", consoleHandler.RemoveAdmin)
			console.GET("/activity", consoleHandler.ListActivity)
			console.GET("/activity/stream", activityHandler.Stream)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
