package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/config"
	"github.com/taskflowhq/taskflow/internal/eventbus"
	"github.com/taskflowhq/taskflow/internal/notification"
	notificationrepo "github.com/taskflowhq/taskflow/internal/notification/repositoryimpl"
	"github.com/taskflowhq/taskflow/internal/project"
	projectrepo "github.com/taskflowhq/taskflow/internal/project/repositoryimpl"
	"github.com/taskflowhq/taskflow/internal/pushnotification"
	"github.com/taskflowhq/taskflow/internal/pushsubscription"
	pushsubrepo "github.com/taskflowhq/taskflow/internal/pushsubscription/repositoryimpl"
	"github.com/taskflowhq/taskflow/internal/task"
	taskrepo "github.com/taskflowhq/taskflow/internal/task/repositoryimpl"
	"github.com/taskflowhq/taskflow/internal/tips"
	tipsrepo "github.com/taskflowhq/taskflow/internal/tips/repositoryimpl"
	"github.com/taskflowhq/taskflow/internal/user"
	userrepo "github.com/taskflowhq/taskflow/internal/user/repositoryimpl"
	"github.com/taskflowhq/taskflow/pkg/clog"
	"github.com/taskflowhq/taskflow/pkg/storage"

	server "github.com/taskflowhq/taskflow/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup repositories. The sqlite mode moves the hot entities (tasks,
	// users) into a relational store; the low-churn ones stay on YAML.
	var (
		taskRepo task.Repository
		userRepo user.Repository
	)
	if env.StorageEnv.Type == "sqlite" {
		db, err := gorm.Open(sqlite.Open(env.StorageEnv.SQLitePath), &gorm.Config{TranslateError: true})
		if err != nil {
			slog.Error("failed to open sqlite database", "path", env.StorageEnv.SQLitePath, "error", err)
			os.Exit(1)
		}
		taskRepo, err = taskrepo.NewGormRepository(db)
		if err != nil {
			slog.Error("failed to set up task repository", "error", err)
			os.Exit(1)
		}
		userRepo, err = userrepo.NewGormRepository(db)
		if err != nil {
			slog.Error("failed to set up user repository", "error", err)
			os.Exit(1)
		}
	} else {
		taskRepo = taskrepo.NewYAMLRepository(store)
		userRepo = userrepo.NewYAMLRepository(store)
	}
	projectRepo := projectrepo.NewYAMLRepository(store)
	membershipRepo := projectrepo.NewYAMLMembershipRepository(store)
	notificationRepo := notificationrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)
	savedTipsRepo := tipsrepo.NewYAMLRepository(store)

	// Setup event bus
	bus := eventbus.New()

	// Setup auth
	authEnv := config.AuthEnvFromEnv(env)
	sessionTTL, err := time.ParseDuration(authEnv.SessionTTL)
	if err != nil {
		slog.Error("invalid session TTL", "value", authEnv.SessionTTL, "error", err)
		os.Exit(1)
	}
	sessions := auth.NewSessionManager(authEnv.SessionSecret, sessionTTL)
	authServer := auth.NewServer(userRepo, auth.NewPasswordHasher(), sessions)

	// Setup tips catalog
	catalog := tips.NewCatalog(env.TipsEnv.TipsFile)
	if err := catalog.Load(); err != nil {
		slog.Warn("failed to load tips catalog", "path", env.TipsEnv.TipsFile, "error", err)
	}

	// Setup push notification
	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)

	// Setup servers
	taskServer := task.NewServer(taskRepo, task.NewCreatorOnlyVisibility(taskRepo), userRepo, projectRepo, bus)
	projectServer := project.NewServer(projectRepo, membershipRepo, userRepo, bus)
	notificationServer := notification.NewServer(notificationRepo)
	pushServer := pushsubscription.NewServer(pushSubRepo, vapidEnv.VAPIDPublicKey)
	tipsServer := tips.NewServer(catalog, savedTipsRepo)

	dispatcher := notification.NewDispatcher(notificationRepo, bus, pushSender)

	srv := server.NewServer(
		&env.BaseEnv,
		authServer,
		taskServer,
		projectServer,
		notificationServer,
		pushServer,
		tipsServer,
	)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go func() {
		if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("notification dispatcher stopped", "error", err)
		}
	}()
	go func() {
		if err := catalog.Watch(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("tips catalog watcher stopped", "error", err)
		}
	}()

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after request contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
