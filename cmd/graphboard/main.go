// Command graphboard is an operator console for a job queue API: it lists,
// filters and pages through jobs, submits new ones and keeps the preferred
// display timezone.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/graphboard/graphboard/app"
	"github.com/graphboard/graphboard/types/config"
)

type command func(ctx context.Context, c *app.Container, args []string, out io.Writer) error

var commands = map[string]command{
	"list":       listCmd,
	"add":        addCmd,
	"add-batch":  addBatchCmd,
	"sync":       syncCmd,
	"complete":   completeCmd,
	"fail":       failCmd,
	"reschedule": rescheduleCmd,
	"remove":     removeCmd,
	"tz":         tzCmd,
	"ping":       pingCmd,
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage(os.Stderr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	logger := newLogger(os.Getenv("GRAPHBOARD_LOG_LEVEL"))
	slog.SetDefault(logger)

	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		stop()
		os.Exit(2)
	}

	container, err := app.NewContainer(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start:", err)
		stop()
		os.Exit(2)
	}

	err = cmd(ctx, container, os.Args[2:], os.Stdout)
	if closeErr := container.Close(); closeErr != nil {
		logger.Warn("shutdown", slog.String("error", closeErr.Error()))
	}
	stop()

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "graphboard - job queue console")
	fmt.Fprintln(w, "usage: graphboard <command> [options]")
	fmt.Fprintln(w, "commands:", strings.Join(names, ", "))
	fmt.Fprintln(w, "environment: GRAPHBOARD_API_URL, GRAPHBOARD_REQUEST_TIMEOUT, GRAPHBOARD_PREFERENCE_DRIVER,")
	fmt.Fprintln(w, "  GRAPHBOARD_PREFERENCE_DSN, GRAPHBOARD_REDIS_PASSWORD, GRAPHBOARD_RABBITMQ_URL,")
	fmt.Fprintln(w, "  GRAPHBOARD_RABBITMQ_QUEUE, GRAPHBOARD_SUBMIT_CONCURRENCY, GRAPHBOARD_REFRESH,")
	fmt.Fprintln(w, "  GRAPHBOARD_INSTANCE, GRAPHBOARD_LOG_LEVEL")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil || level == "" {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// loadConfig builds the configuration from environment variables. Unset
// variables keep the defaults.
func loadConfig(getenv func(string) string) (*config.GraphboardConfig, error) {
	var opts []config.ContainerOption

	if v := getenv("GRAPHBOARD_API_URL"); v != "" {
		opts = append(opts, config.WithAPIBaseURL(v))
	}
	if v := getenv("GRAPHBOARD_REQUEST_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("GRAPHBOARD_REQUEST_TIMEOUT: %w", err)
		}
		opts = append(opts, config.WithRequestTimeout(timeout))
	}

	driver := config.DefaultPreferenceDriver
	if v := getenv("GRAPHBOARD_PREFERENCE_DRIVER"); v != "" {
		d, err := config.ParsePreferenceDriver(v)
		if err != nil {
			return nil, err
		}
		driver = d
		opts = append(opts, config.WithPreferenceDriver(d))
	}
	dsn := getenv("GRAPHBOARD_PREFERENCE_DSN")
	switch {
	case dsn == "" && driver != config.SQLite:
		return nil, fmt.Errorf("GRAPHBOARD_PREFERENCE_DSN is required for the %s driver", driver)
	case dsn == "":
	case driver == config.SQLite:
		opts = append(opts, config.WithSQLiteConfig(config.SQLiteConfig{Path: dsn}))
	case driver == config.Postgres:
		opts = append(opts, config.WithPostgresConfig(config.PostgresConfig{ConnectionUrl: dsn}))
	case driver == config.Redis:
		opts = append(opts, config.WithRedisConfig(config.RedisConfig{
			Address:  dsn,
			Password: getenv("GRAPHBOARD_REDIS_PASSWORD"),
		}))
	}

	if v := getenv("GRAPHBOARD_RABBITMQ_URL"); v != "" {
		opts = append(opts, config.WithRabbitMQConfig(config.RabbitMQConfig{
			URL:   v,
			Queue: getenv("GRAPHBOARD_RABBITMQ_QUEUE"),
		}))
	}
	if v := getenv("GRAPHBOARD_SUBMIT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("GRAPHBOARD_SUBMIT_CONCURRENCY: %w", err)
		}
		opts = append(opts, config.WithSubmitConcurrency(n))
	}
	if v := getenv("GRAPHBOARD_REFRESH"); v != "" {
		opts = append(opts, config.WithRefreshSchedule(v))
	}

	instance := getenv("GRAPHBOARD_INSTANCE")
	if instance == "" {
		instance, _ = os.Hostname()
	}
	if instance == "" {
		instance = "graphboard"
	}
	return config.NewGraphboardConfig(instance, opts...)
}

func pingCmd(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	if err := c.APIClient.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok", c.APIClient.BaseURL())
	return nil
}
