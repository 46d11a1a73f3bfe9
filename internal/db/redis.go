package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/choirhub/choir-api/internal/config"
)

// OpenRedis returns nil when no address is configured.
func OpenRedis(ctx context.Context, conf *config.RedisConfig) (*redis.Client, error) {
	if conf == nil || conf.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         conf.Addr,
		Password:     conf.Password,
		DB:           conf.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("client.Ping -> %w", err)
	}

	return client, nil
}
