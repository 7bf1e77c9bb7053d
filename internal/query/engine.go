// Package query keeps a live, paginated view of the remote job collection.
//
// An Engine owns a Parameters value. Any change to it (page, page size, order
// or filters) makes the engine fetch the matching page again; there is no
// separate "apply" step. Consumers read the current state through Snapshot or
// get it pushed through Subscribe.
//
// Fetches started by successive changes are not coalesced and may complete
// out of order. Each fetch takes a sequence number and only the response of
// the most recently issued fetch is applied; older responses are dropped.
package query

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/graphboard/graphboard/internal/parser"
	"github.com/graphboard/graphboard/types"
)

// ErrClosed is returned by Fetch once the engine has been closed.
var ErrClosed = errors.New("query engine closed")

// JobLister is the part of the API client the engine needs.
type JobLister interface {
	ListJobs(ctx context.Context, params types.QueryParameters) (*types.JobList, error)
}

// Snapshot is a consistent view of the engine state.
type Snapshot struct {
	types.PaginationResult[types.Job]
	Parameters types.QueryParameters
	Loading    bool
	// Err is the error of the latest fetch, nil once a fetch succeeds.
	Err error
}

type Engine struct {
	lister JobLister
	params *Parameters
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	jobs     []types.Job
	count    int
	inFlight int
	lastErr  error

	seq atomic.Uint64

	subMu       sync.Mutex
	notifyMu    sync.Mutex
	subscribers map[uint64]func(Snapshot)
	nextSubID   uint64

	closeMu     sync.RWMutex
	closed      bool
	wg          sync.WaitGroup
	unsubscribe func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine builds an engine over params and subscribes to its changes. It does
// not fetch; call Fetch once to load the first page. Close releases the
// subscription.
func NewEngine(lister JobLister, params *Parameters, opts ...Option) *Engine {
	if params == nil {
		params = NewParameters(types.QueryParameters{})
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		lister:      lister,
		params:      params,
		logger:      slog.Default(),
		ctx:         ctx,
		cancel:      cancel,
		jobs:        []types.Job{},
		subscribers: make(map[uint64]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.unsubscribe = params.Subscribe(func(types.QueryParameters) {
		e.Refresh()
	})
	return e
}

// Parameters returns the observed parameter set. Changing it triggers a fetch.
func (e *Engine) Parameters() *Parameters {
	return e.params
}

// Fetch loads the page selected by the current parameters. On success jobs and
// count are replaced together. On failure the previous jobs and count stay in
// place and the error is returned. A response that arrives after a newer fetch
// was issued is discarded: its data and its error are not recorded, but a
// failed request still returns its error.
func (e *Engine) Fetch(ctx context.Context) error {
	e.closeMu.RLock()
	closed := e.closed
	e.closeMu.RUnlock()
	if closed {
		return ErrClosed
	}

	seq := e.seq.Add(1)
	params := e.params.Get()

	e.mu.Lock()
	e.inFlight++
	e.mu.Unlock()
	e.notify()

	list, err := e.lister.ListJobs(ctx, params)
	if err == nil && list == nil {
		list = &types.JobList{}
	}

	var jobs []types.Job
	if err == nil {
		jobs = parser.Jobs(list.Jobs)
	}

	e.mu.Lock()
	e.inFlight--
	latest := seq == e.seq.Load()
	if latest {
		if err != nil {
			e.lastErr = err
		} else {
			e.jobs = jobs
			e.count = list.Count
			e.lastErr = nil
		}
	}
	e.mu.Unlock()
	e.notify()

	if !latest {
		e.logger.Debug("discarding stale job page",
			slog.Uint64("seq", seq),
			slog.Uint64("latest", e.seq.Load()),
		)
		return err
	}
	if err != nil {
		e.logger.Warn("job fetch failed", slog.Uint64("seq", seq), slog.String("error", err.Error()))
		return err
	}
	e.logger.Debug("job page loaded",
		slog.Uint64("seq", seq),
		slog.Int("jobs", len(jobs)),
		slog.Int("count", list.Count),
	)
	return nil
}

// Refresh starts a fetch in the background. Errors are recorded in the
// snapshot and logged.
func (e *Engine) Refresh() {
	e.closeMu.RLock()
	defer e.closeMu.RUnlock()
	if e.closed {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_ = e.Fetch(e.ctx)
	}()
}

// Close unsubscribes from parameter changes, cancels background fetches and
// waits for them to return. Subscribers are dropped.
func (e *Engine) Close() {
	e.closeMu.Lock()
	if e.closed {
		e.closeMu.Unlock()
		return
	}
	e.closed = true
	e.closeMu.Unlock()

	e.unsubscribe()
	e.cancel()
	e.wg.Wait()

	e.subMu.Lock()
	e.subscribers = make(map[uint64]func(Snapshot))
	e.subMu.Unlock()
}

// Subscribe registers fn to receive a snapshot after every state change:
// when a fetch starts and when it completes. It returns the function that
// removes fn.
func (e *Engine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subscribers, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) notify() {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.subMu.Lock()
	subscribers := make([]func(Snapshot), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subscribers = append(subscribers, fn)
	}
	e.subMu.Unlock()
	if len(subscribers) == 0 {
		return
	}

	snapshot := e.Snapshot()
	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// Snapshot returns the current state with derived pagination flags.
func (e *Engine) Snapshot() Snapshot {
	params := e.params.Get()

	e.mu.RLock()
	jobs := make([]types.Job, len(e.jobs))
	copy(jobs, e.jobs)
	count := e.count
	loading := e.inFlight > 0
	lastErr := e.lastErr
	e.mu.RUnlock()

	return Snapshot{
		PaginationResult: types.NewPaginationResult(jobs, count, params.Page(), params.ItemsPerPage()),
		Parameters:       params,
		Loading:          loading,
		Err:              lastErr,
	}
}

// Jobs returns a copy of the loaded page.
func (e *Engine) Jobs() []types.Job {
	e.mu.RLock()
	defer e.mu.RUnlock()
	jobs := make([]types.Job, len(e.jobs))
	copy(jobs, e.jobs)
	return jobs
}

// Count is the number of jobs matching the filters over all pages.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.count
}

// Loading reports whether a fetch is in flight.
func (e *Engine) Loading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inFlight > 0
}

// Err returns the error of the latest fetch.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// Page returns the current page, 1 when unset.
func (e *Engine) Page() int {
	return e.params.Get().Page()
}

// SetPage moves to page, keeping the page size. The server decides what an
// out of range page contains.
func (e *Engine) SetPage(page int) {
	e.params.SetPage(page)
}

// ItemsPerPage returns the page size, 20 when unset.
func (e *Engine) ItemsPerPage() int {
	return e.params.Get().ItemsPerPage()
}

// SetItemsPerPage changes the page size, keeping the page.
func (e *Engine) SetItemsPerPage(itemsPerPage int) {
	e.params.SetItemsPerPage(itemsPerPage)
}

func (e *Engine) HasPreviousPage() bool {
	return e.Page() > 1
}

// HasNextPage is computed from the total count: count > page*itemsPerPage.
func (e *Engine) HasNextPage() bool {
	params := e.params.Get()
	return types.HasNextPage(e.Count(), params.Page(), params.ItemsPerPage())
}

// Next moves one page forward when there is a next page and reports whether it
// did. The check and the move happen under one parameter update, so concurrent
// calls cannot step past the last page.
func (e *Engine) Next() bool {
	count := e.Count()
	return e.params.Update(func(q *types.QueryParameters) {
		if !types.HasNextPage(count, q.Page(), q.ItemsPerPage()) {
			return
		}
		page := q.Page() + 1
		q.Pagination = types.Pagination{Page: &page, ItemsPerPage: q.Pagination.ItemsPerPage}
	})
}

// Previous moves one page back when not on the first page and reports whether
// it did.
func (e *Engine) Previous() bool {
	return e.params.Update(func(q *types.QueryParameters) {
		if q.Page() <= 1 {
			return
		}
		page := q.Page() - 1
		q.Pagination = types.Pagination{Page: &page, ItemsPerPage: q.Pagination.ItemsPerPage}
	})
}
