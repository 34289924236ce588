package http

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mrms/resource-management/internal/infrastructure/http/handlers"
)

// RegisterProbes mounts the liveness and readiness endpoints. Either client
// may be nil, in which case it is left out of the readiness check.
func RegisterProbes(e *echo.Echo, db *mongo.Database, rdb *redis.Client) {
	deps := make(map[string]handlers.Pinger)
	if db != nil {
		deps["mongodb"] = handlers.PingFunc(func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		})
	}
	if rdb != nil {
		deps["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(deps).Readiness)
}
