package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/tzkusman/live-storefront/internal/config"
	"github.com/tzkusman/live-storefront/internal/database"
	"github.com/tzkusman/live-storefront/internal/domain"
	"github.com/tzkusman/live-storefront/internal/handler"
	"github.com/tzkusman/live-storefront/internal/hub"
	"github.com/tzkusman/live-storefront/internal/log"
	"github.com/tzkusman/live-storefront/internal/middleware"
	"github.com/tzkusman/live-storefront/internal/presence"
	"github.com/tzkusman/live-storefront/internal/pubsub"
	"github.com/tzkusman/live-storefront/internal/repository"
	"github.com/tzkusman/live-storefront/internal/service"
	"github.com/tzkusman/live-storefront/internal/store"
	"github.com/tzkusman/live-storefront/internal/token"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize structured logger
	log.Init(log.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "storefront"})
	logger := log.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting storefront server")

	// Database connection. Catalog tables are operator-provisioned via the
	// setup script; only the users table is migrated here, so a fresh
	// database still reports the catalog schema as missing.
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.UserModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate users table")
	}

	userRepo := repository.NewGormUserRepository(db)
	catalogRepo := repository.NewGormCatalogRepository(db)

	// Token manager
	tokens, err := token.NewManager(cfg.Auth.AccessDuration, cfg.Auth.RefreshDuration, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token manager")
	}

	// Services
	authSvc := service.NewAuthService(userRepo, tokens)
	catalogSvc := service.NewCatalogService(catalogRepo)
	cartSvc := service.NewCartService()
	statusSvc := service.NewStatusService(catalogRepo)

	// Session changes re-drive the readiness probe; sign-out also drops the
	// session's cart and presence record with it.
	authSvc.SubscribeSessionChanges(statusSvc.OnSessionChange)
	authSvc.SubscribeSessionChanges(func(ev service.SessionEvent) {
		if !ev.SignedIn {
			cartSvc.Clear(ev.UserID)
		}
	})

	// Redis store for presence data + cross-instance publish
	presenceStore, err := store.NewRedisStore(store.RedisConfig{
		Address:       cfg.Redis.Address,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		Channel:       cfg.Presence.Channel,
		CursorChannel: cfg.Redis.CursorChannel,
		InstanceID:    cfg.Server.InstanceID,
		StaleAfter:    cfg.Presence.HeartbeatTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create redis store")
	}
	defer presenceStore.Close()

	// Second Redis client for Subscribe (connection in subscriber mode cannot run other commands)
	redisPubSub := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisPubSub.Close()

	// Presence hub + service
	h := hub.NewHub()
	go h.Run()

	presenceSvc := presence.NewService(h, presenceStore, authSvc, presence.Config{
		HeartbeatTimeout: cfg.Presence.HeartbeatTimeout,
		SweepInterval:    cfg.Presence.SweepInterval,
		InstanceID:       cfg.Server.InstanceID,
	})

	ctx, cancel := context.WithCancel(context.Background())

	if err := presenceSvc.Start(ctx); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("failed to start presence service")
	}

	// Start Redis Pub/Sub subscriber for multi-instance cursor sync
	subscriber := pubsub.NewSubscriber(redisPubSub, cfg.Redis.CursorChannel, presenceSvc)
	go subscriber.Run(ctx)

	// Handlers and routes
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	httpHandler := handler.NewHandler(authSvc, catalogSvc, cartSvc, statusSvc, authMiddleware)
	wsHandler := handler.NewWSHandler(h, presenceSvc, cfg.Presence)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(log.GinMiddleware(logger), gin.Recovery())

	httpHandler.RegisterRoutes(router)
	router.GET("/presence", wsHandler.HandleWebSocket)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", addr).Msg("storefront listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down storefront server")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		cancel() // 1. stop pubsub subscriber + presence sweep

		<-subscriber.Done() // 2. wait for pub/sub goroutine to exit

		h.Stop() // 3. close all WS clients, stop Hub.Run()

		presenceSvc.Stop() // 4. wait for sweep loop to exit

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("storefront server stopped")
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("shutdown timed out after 30s")
	}
}
