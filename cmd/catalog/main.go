package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dDxCg/lib-demo/internal/app"
	"github.com/dDxCg/lib-demo/internal/config"
	"github.com/dDxCg/lib-demo/internal/events"
	"github.com/dDxCg/lib-demo/internal/ratelimit"
	"github.com/dDxCg/lib-demo/internal/server"
	"github.com/dDxCg/lib-demo/internal/util"
	"github.com/dDxCg/lib-demo/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataStore, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer dataStore.Close(context.Background())

	publisher := events.Publisher(events.NoopPublisher{})
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("failed to init event publisher: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
		defer limiter.Close()
	}

	appCore, err := app.New(app.Config{Store: dataStore, Events: publisher})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	httpServer, err := server.New(server.Config{
		App:               appCore,
		Limiter:           limiter,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("catalog server listening", "addr", addr, "store", cfg.Driver())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	slog.Info("catalog server stopped")
}

func newStore(ctx context.Context, cfg config.FileConfig) (store.Store, error) {
	switch cfg.Driver() {
	case config.DriverNeo4j:
		return store.NewNeo4jStore(ctx, store.Neo4jConfig{
			URI:      cfg.Neo4jURI,
			Username: cfg.Neo4jUser,
			Password: cfg.Neo4jPassword,
			Database: cfg.Neo4jDatabase,
		})
	case config.DriverPostgres:
		return store.NewGormStore(cfg.DatabaseURL)
	default:
		return store.NewMemoryStore(), nil
	}
}
