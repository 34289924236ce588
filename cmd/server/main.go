// @title           MRMS API
// @version         1.0
// @description     Military Resource Management System: accounts, purchase orders and delivery events.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrms/resource-management/internal/api"
	"github.com/mrms/resource-management/internal/core/service"
	mongodb "github.com/mrms/resource-management/internal/infrastructure/db/mongo"
	redisdb "github.com/mrms/resource-management/internal/infrastructure/db/redis"
	"github.com/mrms/resource-management/internal/infrastructure/queue"
	"github.com/mrms/resource-management/internal/pkg/config"
	"github.com/mrms/resource-management/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: "mrms-api"}).Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "mrms-api",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongodb")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("disconnect mongodb")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	userRepo := mongodb.NewAuthRepository(db)
	purchaseRepo := mongodb.NewPurchaseRepository(db)
	eventRepo := mongodb.NewEventRepository(db)
	if err := mongodb.EnsureIndexes(ctx, userRepo, purchaseRepo); err != nil {
		log.Fatal().Err(err).Msg("create indexes")
	}

	revoker := redisdb.NewTokenRevoker(rdb)
	authSvc := service.NewAuthService(userRepo, revoker, cfg.JWTSecret, cfg.JWTTTL, logger.Named("auth"))
	purchaseSvc := service.NewPurchaseService(purchaseRepo, eventRepo, logger.Named("purchases"))
	eventSvc := service.NewEventService(purchaseRepo, eventRepo, redisdb.NewDedupChecker(rdb), logger.Named("events"))

	// Workers run on their own context and stop only after the HTTP server has.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.EventWorkers, eventSvc, logger.Named("dispatcher"))
	dispatcher.Start(workerCtx)

	e := api.NewRouter(api.RouterConfig{
		AuthService:     authSvc,
		PurchaseService: purchaseSvc,
		Dispatcher:      dispatcher,
		Revocation:      revoker,
		JWTSecret:       cfg.JWTSecret,
		Logger:          logger.Named("http"),
		Mongo:           db,
		Redis:           rdb,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Int("event_workers", cfg.EventWorkers).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("server stopped")
}
