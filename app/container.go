package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/graphboard/graphboard/client"
	"github.com/graphboard/graphboard/internal/lock"
	"github.com/graphboard/graphboard/internal/message_broaker"
	"github.com/graphboard/graphboard/internal/preference"
	"github.com/graphboard/graphboard/internal/query"
	"github.com/graphboard/graphboard/internal/refresher"
	"github.com/graphboard/graphboard/internal/store"
	"github.com/graphboard/graphboard/internal/store/postgres"
	redisstore "github.com/graphboard/graphboard/internal/store/redis"
	"github.com/graphboard/graphboard/internal/store/sqlite"
	"github.com/graphboard/graphboard/internal/timezone"
	"github.com/graphboard/graphboard/types"
	"github.com/graphboard/graphboard/types/config"
)

// Container holds all application dependencies. It is the single source of truth
// for dependency injection and ensures connections and services are created once.
type Container struct {
	Config *config.GraphboardConfig
	Logger *slog.Logger

	// Storage connections (created once, shared by all stores)
	DB    *sql.DB
	Redis *redis.Client

	PreferenceStore store.PreferenceStore

	// Infrastructure
	LockManager   lock.DistributedLockManager
	MessageBroker message_broaker.MessageBroker

	APIClient    *client.APIClient
	JobSubmitter *client.JobSubmitter

	Timezones         *timezone.Catalog
	PreferredTimezone *preference.PreferredTimezone

	Parameters *query.Parameters
	Engine     *query.Engine
	// Refresher is nil unless a refresh schedule is configured.
	Refresher *refresher.Refresher
}

// NewContainer creates and wires all dependencies. Single entry point for DI.
// Call this once per application lifecycle.
// Pass optional WithDB, WithRedis or WithMessageBroker to inject connections for testing.
func NewContainer(ctx context.Context, cfg *config.GraphboardConfig, opts ...ContainerOption) (*Container, error) {
	opt := &containerConfig{}
	for _, o := range opts {
		o(opt)
	}
	logger := opt.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("instance", cfg.Instance))

	var db *sql.DB
	var redisClient *redis.Client
	var err error

	if opt.db != nil || opt.redis != nil {
		db = opt.db
		redisClient = opt.redis
	} else {
		db, redisClient, err = initStorageConnections(cfg)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Redis:  redisClient,
	}

	c.LockManager, c.PreferenceStore, err = createPreferenceStore(cfg.PreferenceDriver, db, redisClient)
	if err != nil {
		if db != nil {
			db.Close()
		}
		if redisClient != nil {
			redisClient.Close()
		}
		return nil, err
	}
	if err := c.PreferenceStore.Init(ctx); err != nil {
		c.PreferenceStore.Close()
		return nil, fmt.Errorf("init %s preference store: %w", cfg.PreferenceDriver, err)
	}

	c.APIClient, err = client.NewAPIClient(cfg.APIURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(logger),
		client.WithUserAgent("graphboard/"+cfg.Instance),
	)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.UseQueueWriter {
		c.MessageBroker = opt.messageBroker
		if c.MessageBroker == nil {
			mBroker, err := message_broaker.NewRabbitMQ(*cfg.RabbitMQConfig)
			if err != nil {
				c.Close()
				return nil, fmt.Errorf("init rabbitmq: %w", err)
			}
			c.MessageBroker = mBroker
		}
	}
	c.JobSubmitter = client.NewJobSubmitter(
		c.APIClient,
		c.MessageBroker,
		cfg.UseQueueWriter,
		cfg.RabbitMQConfig.Queue,
		cfg.SubmitConcurrency,
		logger,
	)

	c.Timezones = timezone.NewCatalog(opt.catalogOpts...)
	c.PreferredTimezone = preference.NewPreferredTimezone(c.PreferenceStore, c.Timezones, logger)

	itemsPerPage := cfg.ItemsPerPage
	c.Parameters = query.NewParameters(types.QueryParameters{
		Pagination: types.Pagination{ItemsPerPage: &itemsPerPage},
	})
	c.Engine = query.NewEngine(c.APIClient, c.Parameters, query.WithLogger(logger))

	if cfg.RefreshSchedule != "" {
		c.Refresher, err = refresher.New(c.Engine, cfg.RefreshSchedule,
			refresher.WithTimeout(cfg.RequestTimeout),
			refresher.WithLogger(logger),
		)
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	return c, nil
}

func createPreferenceStore(driver config.PreferenceDriver, db *sql.DB, redisClient *redis.Client) (lock.DistributedLockManager, store.PreferenceStore, error) {
	switch driver {
	case config.SQLite:
		if db == nil {
			return nil, nil, errors.New("sqlite preference store needs a database")
		}
		return nil, sqlite.NewSQLitePreferenceStore(db), nil
	case config.Postgres:
		if db == nil {
			return nil, nil, errors.New("postgres preference store needs a database")
		}
		lockMgr := lock.NewPostgresDistributedLockManager(db)
		return lockMgr, postgres.NewPostgresPreferenceStore(db, lockMgr), nil
	case config.Redis:
		if redisClient == nil {
			return nil, nil, errors.New("redis preference store needs a client")
		}
		return nil, redisstore.NewRedisPreferenceStore(redisClient), nil
	default:
		return nil, nil, fmt.Errorf("unsupported preference driver: %v", driver)
	}
}

// Close stops background work and releases every connection. Errors are
// joined; all resources are released regardless.
func (c *Container) Close() error {
	if c.Refresher != nil {
		c.Refresher.Stop()
	}
	if c.Engine != nil {
		c.Engine.Close()
	}
	var errs []error
	if c.MessageBroker != nil {
		errs = append(errs, c.MessageBroker.Close())
	}
	if c.PreferenceStore != nil {
		errs = append(errs, c.PreferenceStore.Close())
	}
	return errors.Join(errs...)
}
