// Package db connects the shared redis used to relay live trip summaries
// between service replicas. Nothing is stored there.
package db

import (
	"context"
	"log"
	"time"

	"travlysis/internal/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil when no address is configured; the stream hub then
// runs in single-replica mode.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis ping failed, relay will retry on use: %v", err)
	}
	return client
}
