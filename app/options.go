package app

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/graphboard/graphboard/internal/message_broaker"
	"github.com/graphboard/graphboard/internal/timezone"
)

// ContainerOption configures Container creation. Used for testing and customization.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	// Optional: inject custom connections instead of creating them from config
	db            *sql.DB
	redis         *redis.Client
	messageBroker message_broaker.MessageBroker
	logger        *slog.Logger
	catalogOpts   []timezone.Option
}

// WithDB injects a custom database connection for the SQLite or Postgres
// preference store. Useful for testing.
func WithDB(db *sql.DB) ContainerOption {
	return func(c *containerConfig) {
		c.db = db
	}
}

// WithRedis injects a custom Redis client. Useful for testing.
func WithRedis(redis *redis.Client) ContainerOption {
	return func(c *containerConfig) {
		c.redis = redis
	}
}

// WithMessageBroker replaces the RabbitMQ connection made for the queue writer.
func WithMessageBroker(broker message_broaker.MessageBroker) ContainerOption {
	return func(c *containerConfig) {
		c.messageBroker = broker
	}
}

func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *containerConfig) {
		c.logger = logger
	}
}

// WithTimezoneOptions is passed through to timezone.NewCatalog.
func WithTimezoneOptions(opts ...timezone.Option) ContainerOption {
	return func(c *containerConfig) {
		c.catalogOpts = append(c.catalogOpts, opts...)
	}
}
