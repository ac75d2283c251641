// Package main runs the quote request HTTP API with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-travel/backend/config"
	"github.com/aura-travel/backend/internal/activity"
	"github.com/aura-travel/backend/internal/agencies"
	"github.com/aura-travel/backend/internal/auth"
	"github.com/aura-travel/backend/internal/catalog"
	"github.com/aura-travel/backend/internal/emaillogs"
	"github.com/aura-travel/backend/internal/middleware"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/internal/notifications"
	"github.com/aura-travel/backend/internal/quotes"
	"github.com/aura-travel/backend/pkg/database"
	"github.com/aura-travel/backend/pkg/queue"
	"github.com/aura-travel/backend/pkg/redis"
	"github.com/aura-travel/backend/pkg/response"
	"github.com/aura-travel/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Email is best-effort; without Redis notifications are still written in-app.
	var emailQueue notifications.EmailQueue
	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Warn("redis unavailable; email notifications disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		emailQueue = queue.NewQueue(rdb.Client, logger)
	}

	var (
		quoteObjects quotes.ObjectStorage
		agencyDocs   agencies.Documents
	)
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			DocumentsBucket:      cfg.AWS.DocumentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			quoteObjects, agencyDocs = s3Client, s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Shared collaborators
	authRepo := auth.NewRepository(pool)
	activityRepo := activity.NewRepository(pool)
	activityLogger := activity.NewLogger(activityRepo, logger)
	notificationRepo := notifications.NewRepository(pool)
	dispatcher := notifications.NewDispatcher(notificationRepo, emailQueue, cfg.Server.PublicBaseURL, logger)

	// Auth
	authHandler := auth.NewHandler(authRepo, jwtService, activityLogger,
		auth.SessionCookie{Name: cfg.JWT.CookieName, Secure: cfg.JWT.CookieSecure},
		cfg.Agencies.DocumentWindow, logger)

	// Agencies
	agencyRepo := agencies.NewRepository(pool)
	agencyService := agencies.NewService(agencyRepo, agencyDocs, activityLogger, dispatcher, logger)
	agencyHandler := agencies.NewHandler(agencyService, logger)

	// Quotes
	quoteRepo := quotes.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	quoteService := quotes.NewService(quoteRepo, agencyRepo, catalogRepo, activityLogger, dispatcher, authRepo, logger)
	attachments := quotes.NewAttachments(quoteRepo, quoteService, quoteObjects, activityLogger, logger)
	quoteHandler := quotes.NewHandler(quoteService, attachments, logger)

	activityHandler := activity.NewHandler(activityRepo, quoteRepo, logger)
	notificationHandler := notifications.NewHandler(notificationRepo, cfg.Notifications.PageSize, logger)
	emailLogsHandler := emaillogs.NewHandler(emaillogs.NewRepository(pool), logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Gate(jwtService, authRepo, cfg.JWT.CookieName, logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", middleware.JWT(jwtService, authRepo, cfg.JWT.CookieName, logger), authHandler.Me)
	}

	// Agency area (gated)
	agency := router.Group(middleware.AgencyPrefix)
	{
		agency.GET("/profile", agencyHandler.Me)
		agency.POST("/document/upload-url", agencyHandler.RequestDocumentUpload)
		agency.POST("/document/confirm", agencyHandler.ConfirmDocument)

		mountQuotes(agency, quoteHandler)
		mountNotifications(agency, notificationHandler)
	}

	// Operator area (gated; sections checked per path)
	admin := router.Group(middleware.OperatorPrefix)
	{
		admin.GET("", activityHandler.Dashboard)
		admin.GET("/activity", activityHandler.Feed)

		adminQuotes := mountQuotes(admin, quoteHandler)
		adminQuotes.GET("/:id/activity", activityHandler.EntityHistory(quotes.EntityType))
		adminQuotes.GET("/:id/emails", emailLogsHandler.ListByQuote)

		admin.GET("/agencies", agencyHandler.List)
		admin.GET("/agencies/:id", agencyHandler.Get)
		admin.GET("/agencies/:id/document", agencyHandler.DocumentURL)
		admin.GET("/agencies/:id/activity", activityHandler.EntityHistory(agencies.EntityType))
		admin.POST("/agencies/:id/approve", agencyHandler.Decide(agencies.ActionApprove))
		admin.POST("/agencies/:id/suspend", agencyHandler.Decide(agencies.ActionSuspend))
		admin.POST("/agencies/:id/reject", agencyHandler.Decide(agencies.ActionReject))

		users := admin.Group("/users", middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
		{
			users.GET("", authHandler.List)
			users.GET("/:id/sections", authHandler.Sections)
			users.POST("/:id/sections", authHandler.GrantSection)
			users.DELETE("/:id/sections/:section", authHandler.RevokeSection)
			users.GET("/:id/activity", activityHandler.EntityHistory(auth.EntityType))
		}

		mountNotifications(admin, notificationHandler)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// mountQuotes registers the quote routes shared by both areas. The service scopes by principal.
func mountQuotes(area *gin.RouterGroup, h *quotes.Handler) *gin.RouterGroup {
	g := area.Group("/quotes")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/status", h.Transition)
	g.POST("/:id/attachments/upload-url", h.RequestAttachmentUpload)
	g.POST("/:id/attachments", h.ConfirmAttachment)
	g.GET("/:id/attachments", h.ListAttachments)
	g.GET("/:id/attachments/:attachmentId", h.AttachmentURL)
	return g
}

func mountNotifications(area *gin.RouterGroup, h *notifications.Handler) {
	g := area.Group("/notifications")
	g.GET("", h.List)
	g.GET("/unread-count", h.UnreadCount)
	g.POST("/read-all", h.MarkAllRead)
	g.POST("/:id/read", h.MarkRead)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
