// Package app wires the screening server's dependencies together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"devscreen/internal/cache"
	"devscreen/internal/config"
	"devscreen/internal/metrics"
	"devscreen/internal/repository"
	"devscreen/internal/service"
	"devscreen/internal/transport/rest"
	"devscreen/internal/transport/ws"
)

const pingTimeout = 5 * time.Second

// App holds the connected backends and the HTTP handler built on them
type App struct {
	Mongo   *mongo.Client
	Redis   *redis.Client
	Hub     *ws.Hub
	Handler http.Handler

	logger *zap.Logger
}

// New connects to MongoDB and Redis and builds the services and router
func New(ctx context.Context, cfg *config.Config, aiCfg *config.AIConfig, reg *prometheus.Registry, logger *zap.Logger) (*App, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDB))

	db := mongoClient.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(pingCtx, db); err != nil {
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	m := metrics.New(reg)

	var gateway service.Gateway
	if aiCfg.IsEnabled() {
		g, err := service.NewGeminiGateway(ctx, aiCfg)
		if err != nil {
			rdb.Close()
			mongoClient.Disconnect(ctx)
			return nil, fmt.Errorf("create gateway: %w", err)
		}
		gateway = g
		logger.Info("AI gateway configured", zap.String("model", aiCfg.Model), zap.Duration("timeout", aiCfg.Timeout()))
	} else {
		logger.Warn("AI gateway disabled, using deterministic reports only")
	}

	hub := ws.NewHub(logger)

	authSvc := service.NewAuthService(cfg.Auth)
	evaluator := service.NewEvaluatorService(aiCfg, gateway, m, logger)
	screeningSvc := service.NewScreeningService(
		evaluator,
		repository.NewScreeningRepo(db),
		repository.NewEventRepo(db),
		cache.NewIdempotencyCache(rdb, cfg.IdempotencyTTL),
		m,
		logger,
	)

	// hub implements service.Broadcaster
	screeningSvc.SetBroadcaster(hub)

	router := rest.NewRouter(&rest.Container{
		Config:           cfg,
		AuthService:      authSvc,
		ScreeningService: screeningSvc,
		RateLimiter:      cache.NewRateLimitCache(rdb),
		Metrics:          m,
		Gatherer:         reg,
		WSHub:            hub,
		Logger:           logger,
	})

	return &App{
		Mongo:   mongoClient,
		Redis:   rdb,
		Hub:     hub,
		Handler: router,
		logger:  logger,
	}, nil
}

// Close stops the hub and disconnects from the backends
func (a *App) Close(ctx context.Context) error {
	a.Hub.Close()
	return errors.Join(a.Redis.Close(), a.Mongo.Disconnect(ctx))
}
