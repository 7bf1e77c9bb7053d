// Package refresher re-reads the job listing on a cron schedule so a watching
// operator sees jobs change without touching the parameters.
package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule refreshes twice a minute.
const DefaultSchedule = "@every 30s"

// Fetcher is what gets refreshed, in practice a query.Engine.
type Fetcher interface {
	Fetch(ctx context.Context) error
}

type Refresher struct {
	fetcher  Fetcher
	schedule cron.Schedule
	spec     string
	timeout  time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

type Option func(*Refresher)

// WithTimeout bounds each fetch. Zero leaves the client timeout alone.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Refresher) { r.timeout = timeout }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) { r.logger = logger }
}

// New parses spec, a standard five field cron expression or a descriptor such
// as "@every 30s" or "@hourly".
func New(fetcher Fetcher, spec string, opts ...Option) (*Refresher, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	r := &Refresher{
		fetcher:  fetcher,
		schedule: schedule,
		spec:     spec,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Next reports when the refresh after from is due.
func (r *Refresher) Next(from time.Time) time.Time {
	return r.schedule.Next(from)
}

// Start runs the schedule until ctx is done or Stop is called. A refresh that
// is still running when the next one is due makes the next one skip.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(r.schedule, cron.FuncJob(func() { r.refresh(ctx) }))
	c.Start()
	r.cron = c
	r.logger.Info("job refresher started", slog.String("schedule", r.spec))

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
}

// Stop halts the schedule and waits for a running refresh to return.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	r.logger.Info("job refresher stopped")
}

func (r *Refresher) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := r.fetcher.Fetch(ctx); err != nil {
		r.logger.Warn("scheduled job refresh failed", slog.String("error", err.Error()))
	}
}
