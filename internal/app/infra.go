package app

import (
	"context"
	"database/sql"

	"github.com/pxy05/ownMi-websocket/internal/config"
	"github.com/pxy05/ownMi-websocket/internal/db"
	"github.com/pxy05/ownMi-websocket/internal/logger"
	"github.com/pxy05/ownMi-websocket/internal/redis"

	_ "github.com/lib/pq"
)

type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN != "" {
		sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}

		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, err
		}

		if err := db.RunFocusMigration(ctx, sqlDB); err != nil {
			return nil, err
		}

		logger.Info("database ready", nil)
		infra.DB = &db.DB{DB: sqlDB}
	}

	if cfg.RedisAddr != "" {
		redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}

		logger.Info("redis ready", nil)
		infra.Redis = redisClient
	}

	return infra, nil
}
