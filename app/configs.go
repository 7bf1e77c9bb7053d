package app

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/graphboard/graphboard/internal/store/sqlite"
	"github.com/graphboard/graphboard/types/config"
)

// initStorageConnections opens the connection the configured preference
// driver needs. Exactly one of the returned handles is non-nil.
func initStorageConnections(cfg *config.GraphboardConfig) (*sql.DB, *redis.Client, error) {
	switch cfg.PreferenceDriver {
	case config.SQLite:
		db, err := sqlite.Open(cfg.SQLiteConfig.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, nil, nil
	case config.Postgres:
		db, err := openPostgresDB(cfg.PostgresConfig.ConnectionUrl)
		if err != nil {
			return nil, nil, err
		}
		return db, nil, nil
	case config.Redis:
		return nil, redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		}), nil
	default:
		return nil, nil, fmt.Errorf("unsupported preference driver: %v", cfg.PreferenceDriver)
	}
}

func openPostgresDB(connectionURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectionURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}
