package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/graphboard/graphboard/custom_errors"
	"github.com/graphboard/graphboard/internal/message_broaker"
	"github.com/graphboard/graphboard/types"
)

type GraphboardConfig struct {
	Instance string // Name of this process, used in logs and as the AMQP consumer tag

	APIURL         string        // Absolute URL of the job API, e.g. http://localhost:8080/api
	RequestTimeout time.Duration // Upper bound for every API request
	ItemsPerPage   int           // Page size used when the operator does not pick one

	PreferenceDriver PreferenceDriver // Backend holding the preferred timezone

	PostgresConfig PostgresConfig
	RedisConfig    RedisConfig
	SQLiteConfig   SQLiteConfig

	// RefreshSchedule is a cron expression for periodic re-reads of the job
	// list. Empty disables them.
	RefreshSchedule string

	// SubmitConcurrency bounds the create requests of a bulk submission.
	SubmitConcurrency int

	// UseQueueWriter sends drafts to RabbitMQ first. A sync worker then drains
	// the queue into the API in batches.
	UseQueueWriter bool

	MQDriver MessageQueueDriver

	RabbitMQConfig *RabbitMQConfig
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	ConnectionUrl string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string // Redis client address (e.g., "localhost:6379")
	Password string // Password for Redis authentication (optional)
	DB       int    // Redis database number to use (e.g., 0 by default)
}

type SQLiteConfig struct {
	Path string // Database file, created on first use
}

type RabbitMQConfig = message_broaker.RabbitMQConfig

// ContainerOption type for functional options pattern
type ContainerOption func(*GraphboardConfig) error

// NewGraphboardConfig creates a new instance of GraphboardConfig with default values.
// Only the 'Instance' name is required; other fields use predefined defaults.
// All option errors are collected into one custom_errors.ValidationError.
func NewGraphboardConfig(instance string, opts ...ContainerOption) (*GraphboardConfig, error) {
	apiURL, _ := resolveAPIURL(DefaultAPIBaseURL)
	cfg := &GraphboardConfig{
		Instance:          instance,
		APIURL:            apiURL,
		RequestTimeout:    DefaultRequestTimeout,
		ItemsPerPage:      DefaultItemsPerPage,
		PreferenceDriver:  DefaultPreferenceDriver,
		SQLiteConfig:      SQLiteConfig{Path: DefaultSQLitePath},
		SubmitConcurrency: DefaultSubmitConcurrency,
		RabbitMQConfig:    &RabbitMQConfig{Queue: DefaultDraftQueue},
	}
	validationErrs := &custom_errors.ValidationError{}
	if strings.TrimSpace(instance) == "" {
		validationErrs.Add(errors.New("instance name is required"))
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			validationErrs.Add(err)
		}
	}

	if validationErrs.HasError() {
		return nil, validationErrs
	}
	return cfg, nil
}

// WithAPIBaseURL sets where the job API lives. A bare path such as "/api" is
// resolved against DefaultServerURL.
func WithAPIBaseURL(baseURL string) ContainerOption {
	return func(c *GraphboardConfig) error {
		resolved, err := resolveAPIURL(baseURL)
		if err != nil {
			return err
		}
		c.APIURL = resolved
		return nil
	}
}

func resolveAPIURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	ref, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("api base url: %w", err)
	}
	if ref.IsAbs() {
		if ref.Host == "" {
			return "", fmt.Errorf("api base url %q has no host", baseURL)
		}
		return strings.TrimSuffix(ref.String(), "/"), nil
	}
	server, _ := url.Parse(DefaultServerURL)
	return strings.TrimSuffix(server.ResolveReference(ref).String(), "/"), nil
}

func WithRequestTimeout(timeout time.Duration) ContainerOption {
	return func(c *GraphboardConfig) error {
		if timeout <= 0 {
			return errors.New("request timeout must be positive")
		}
		c.RequestTimeout = timeout
		return nil
	}
}

// WithItemsPerPage sets the default page size. The server never returns more
// than types.MaxItemsPerPage rows.
func WithItemsPerPage(n int) ContainerOption {
	return func(c *GraphboardConfig) error {
		if n < 1 || n > types.MaxItemsPerPage {
			return fmt.Errorf("items per page must be between 1 and %d, got %d", types.MaxItemsPerPage, n)
		}
		c.ItemsPerPage = n
		return nil
	}
}

// WithPreferenceDriver selects the preference backend. Pass it before the
// matching With...Config option.
func WithPreferenceDriver(driver PreferenceDriver) ContainerOption {
	return func(c *GraphboardConfig) error {
		if driver.String() == "unknown" {
			return fmt.Errorf("unknown preference driver %d", driver)
		}
		c.PreferenceDriver = driver
		return nil
	}
}

func WithPostgresConfig(pg PostgresConfig) ContainerOption {
	return func(c *GraphboardConfig) error {
		if c.PreferenceDriver != Postgres {
			return fmt.Errorf("cannot set Postgres client when driver is %s", c.PreferenceDriver.String())
		}
		if pg.ConnectionUrl == "" {
			return errors.New("postgres client: connection URL is required")
		}
		c.PostgresConfig = pg
		return nil
	}
}

func WithRedisConfig(rc RedisConfig) ContainerOption {
	return func(c *GraphboardConfig) error {
		if c.PreferenceDriver != Redis {
			return fmt.Errorf("cannot set Redis client when driver is %s", c.PreferenceDriver.String())
		}
		if rc.Address == "" {
			return errors.New("redis client: address is required")
		}
		if rc.DB < 0 {
			return errors.New("redis client: db must not be negative")
		}
		c.RedisConfig = rc
		return nil
	}
}

func WithSQLiteConfig(sc SQLiteConfig) ContainerOption {
	return func(c *GraphboardConfig) error {
		if c.PreferenceDriver != SQLite {
			return fmt.Errorf("cannot set SQLite client when driver is %s", c.PreferenceDriver.String())
		}
		if sc.Path == "" {
			return errors.New("sqlite client: path is required")
		}
		c.SQLiteConfig = sc
		return nil
	}
}

// WithRefreshSchedule enables periodic refreshes, e.g. "@every 30s".
func WithRefreshSchedule(spec string) ContainerOption {
	return func(c *GraphboardConfig) error {
		if strings.TrimSpace(spec) == "" {
			return errors.New("refresh schedule must not be empty")
		}
		c.RefreshSchedule = spec
		return nil
	}
}

func WithSubmitConcurrency(n int) ContainerOption {
	return func(c *GraphboardConfig) error {
		if n < 1 {
			return errors.New("submit concurrency must be positive")
		}
		c.SubmitConcurrency = n
		return nil
	}
}

// UseRabbitMQueueWriter enables or disables writing drafts first to RabbitMQ queue.
// When enabled, drafts are published to RabbitMQ and later consumed in batches
// that are created through the API.
func UseRabbitMQueueWriter(writeToQueue bool) ContainerOption {
	return func(c *GraphboardConfig) error {
		c.UseQueueWriter = writeToQueue
		if writeToQueue {
			c.MQDriver = RabbitMQ
		}
		return nil
	}
}

func WithRabbitMQConfig(cfg RabbitMQConfig) ContainerOption {
	return func(c *GraphboardConfig) error {
		if cfg.URL == "" {
			return errors.New("rabbitmq client: URL is required")
		}
		if cfg.Queue == "" {
			cfg.Queue = DefaultDraftQueue
		}
		c.RabbitMQConfig = &cfg
		c.UseQueueWriter = true
		c.MQDriver = RabbitMQ
		return nil
	}
}
