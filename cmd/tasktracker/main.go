package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tasktracker/internal/bot"
	"tasktracker/internal/config"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"
)

func main() {
	os.Exit(execute())
}

// execute returns the process exit code once every deferred cleanup has run.
func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Printf("logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("tracker stopped with error", zap.Error(err))
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.ScheduleWithoutChat() {
		logger.Warn("digest schedule is set but REPORT_CHAT_ID is missing, digest disabled",
			zap.String("report_at", cfg.ReportAt),
			zap.Duration("report_interval", cfg.ReportInterval),
		)
	}

	store := repository.NewStore(cfg.DatabaseURL, logger)
	if _, err := store.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	taskRepo := repository.NewTaskRepository(store)
	taskSvc := service.NewTaskService(taskRepo)
	digestSvc := service.NewDigestService(taskRepo)

	telegramBot, err := bot.New(cfg.TelegramToken, taskSvc, digestSvc, logger)
	if err != nil {
		return err
	}

	if cfg.ReportsEnabled() {
		scheduler := service.NewSchedulerService(time.Local, logger)
		job := func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDigest(jobCtx, cfg.ReportChatID); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("send digest", zap.Error(err))
			}
		}

		if cfg.ReportAt != "" {
			_, err = scheduler.ScheduleDaily(cfg.ReportAt, job)
		} else {
			_, err = scheduler.ScheduleInterval(cfg.ReportInterval, job)
		}
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	logger.Info("task tracker started", zap.String("database", cfg.DatabaseURL))
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
