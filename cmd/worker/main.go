// Package main runs the background worker: outbound email delivery and the expired agency sweep.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/aura-travel/backend/config"
	"github.com/aura-travel/backend/internal/activity"
	"github.com/aura-travel/backend/internal/agencies"
	"github.com/aura-travel/backend/internal/email"
	"github.com/aura-travel/backend/internal/emaillogs"
	"github.com/aura-travel/backend/internal/notifications"
	"github.com/aura-travel/backend/internal/worker"
	"github.com/aura-travel/backend/pkg/database"
	"github.com/aura-travel/backend/pkg/queue"
	"github.com/aura-travel/backend/pkg/redis"
	"github.com/aura-travel/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	sender, err := email.NewSender(cfg.Email, logger)
	if err != nil {
		logger.Fatal("smtp", zap.Error(err))
	}

	var docs agencies.Documents
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			DocumentsBucket:      cfg.AWS.DocumentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled; purged agency documents stay in the bucket", zap.Error(err))
		} else {
			docs = s3Client
		}
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(jobQueue, sender, emaillogs.NewRepository(pool), logger)

	agencyService := agencies.NewService(
		agencies.NewRepository(pool),
		docs,
		activity.NewLogger(activity.NewRepository(pool), logger),
		notifications.NewDispatcher(notifications.NewRepository(pool), jobQueue, cfg.Server.PublicBaseURL, logger),
		logger,
	)
	sweeper := worker.NewAgencySweeper(agencyService, cfg.Agencies.PurgeInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return processor.Run(gctx) })
	g.Go(func() error { return sweeper.Run(gctx) })
	logger.Info("worker started", zap.Bool("smtp", sender.Enabled()), zap.Duration("purge_interval", cfg.Agencies.PurgeInterval))

	if err := g.Wait(); err != nil {
		logger.Error("worker exited", zap.Error(err))
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
