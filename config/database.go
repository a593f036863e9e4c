package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB opens a Mongo client and pings it.
func ConnectDB(ctx context.Context, cfg MongoConfig, log *slog.Logger) (*mongo.Client, error) {
	log.Info("connecting to MongoDB", "uri", cfg.URI)

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB is not reachable: %w", err)
	}

	log.Info("connected to MongoDB", "database", cfg.Database)
	return client, nil
}

// ConnectRedis returns a pinged client, or nil when no address is configured.
func ConnectRedis(ctx context.Context, cfg RedisConfig, log *slog.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		log.Info("redis not configured, session queue disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("connected to Redis", "addr", cfg.Addr)
	return rdb, nil
}
