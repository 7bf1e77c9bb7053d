package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/graphboard/graphboard/internal/message_broaker"
	"github.com/graphboard/graphboard/types"
)

const (
	// DefaultSubmitConcurrency bounds the create requests SubmitAll keeps in flight.
	DefaultSubmitConcurrency = 4

	syncBatchSize     = 100
	syncFlushInterval = 5 * time.Second
)

// JobCreator is the part of the API the submitter needs.
type JobCreator interface {
	CreateJob(ctx context.Context, draft types.JobDraft) (*types.WireJob, error)
}

// SubmitResult reports what happened to one draft. When the queue writer is on,
// Queued is true and Job is nil until the sync worker creates it.
type SubmitResult struct {
	Job    *types.WireJob
	Queued bool
}

// JobSubmitter enqueues drafts either straight through the API or, in queue
// writer mode, by publishing them to the message broker first. A sync worker
// then drains the broker into the API.
type JobSubmitter struct {
	creator     JobCreator
	mBroker     message_broaker.MessageBroker
	useQueue    bool
	queue       string
	concurrency int
	logger      *slog.Logger
}

func NewJobSubmitter(creator JobCreator, messageBroker message_broaker.MessageBroker, useQueueWriter bool, queue string, concurrency int, logger *slog.Logger) *JobSubmitter {
	if concurrency < 1 {
		concurrency = DefaultSubmitConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobSubmitter{
		creator:     creator,
		mBroker:     messageBroker,
		useQueue:    useQueueWriter && messageBroker != nil,
		queue:       queue,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Submit validates and enqueues one draft.
func (s *JobSubmitter) Submit(ctx context.Context, draft types.JobDraft) (SubmitResult, error) {
	if err := draft.Validate(); err != nil {
		return SubmitResult{}, err
	}
	if s.useQueue {
		message, err := json.Marshal(draft)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("marshal draft: %w", err)
		}
		if err := s.mBroker.Publish(ctx, s.queue, message); err != nil {
			return SubmitResult{}, fmt.Errorf("publish draft: %w", err)
		}
		return SubmitResult{Queued: true}, nil
	}

	job, err := s.creator.CreateJob(ctx, draft)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Job: job}, nil
}

// SubmitAll enqueues drafts with at most the configured number of requests in
// flight. Results are in draft order. The first error cancels the remaining
// submissions and is returned with whatever completed.
func (s *JobSubmitter) SubmitAll(ctx context.Context, drafts []types.JobDraft) ([]SubmitResult, error) {
	results := make([]SubmitResult, len(drafts))
	sem := semaphore.NewWeighted(int64(s.concurrency))
	g, gctx := errgroup.WithContext(ctx)

	for i, draft := range drafts {
		i, draft := i, draft
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			result, err := s.Submit(gctx, draft)
			if err != nil {
				return fmt.Errorf("draft %d (%s): %w", i, draft.TaskIdentifier, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// StartQueueSyncWorker drains drafts published in queue writer mode and creates
// them through the API in batches. It returns once consuming has started. The
// worker stops when ctx is done or the broker closes the channel, after the
// pending batch has been flushed; the returned channel is closed then.
//
// A message is acked only after its job was created. Drafts the API rejects
// are requeued, and messages that do not decode are rejected without requeue.
func (s *JobSubmitter) StartQueueSyncWorker(ctx context.Context) (<-chan struct{}, error) {
	done := make(chan struct{})
	if !s.useQueue {
		close(done)
		return done, nil
	}
	msgCh, err := s.mBroker.Consume(ctx, s.queue)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", s.queue, err)
	}
	s.logger.Info("queue sync worker started", slog.String("queue", s.queue))

	go func() {
		defer close(done)
		ticker := time.NewTicker(syncFlushInterval)
		defer ticker.Stop()

		var batch []pendingDraft
		flush := func() {
			// The consumer context may already be cancelled on shutdown, the
			// last batch still gets a chance to reach the API.
			s.flushBatch(context.WithoutCancel(ctx), batch)
			batch = nil
		}

		for {
			select {
			case <-ctx.Done():
				flush()
				return
			case d, ok := <-msgCh:
				if !ok {
					flush()
					return
				}
				var draft types.JobDraft
				if err := json.Unmarshal(d.Body, &draft); err != nil {
					s.logger.Warn("rejecting undecodable draft", slog.String("error", err.Error()))
					s.settle(d.Nack(false))
					continue
				}
				batch = append(batch, pendingDraft{draft: draft, delivery: d})
				if len(batch) >= syncBatchSize {
					flush()
				}
			case <-ticker.C:
				flush()
			}
		}
	}()

	return done, nil
}

type pendingDraft struct {
	draft    types.JobDraft
	delivery message_broaker.Delivery
}

// flushBatch creates every draft of batch independently. A failure does not
// cancel the others.
func (s *JobSubmitter) flushBatch(ctx context.Context, batch []pendingDraft) {
	if len(batch) == 0 {
		return
	}
	var created, requeued atomic.Int32
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, p := range batch {
		p := p
		g.Go(func() error {
			if _, err := s.creator.CreateJob(ctx, p.draft); err != nil {
				s.logger.Warn("requeueing draft",
					slog.String("task", p.draft.TaskIdentifier),
					slog.String("error", err.Error()),
				)
				requeued.Add(1)
				s.settle(p.delivery.Nack(true))
				return nil
			}
			created.Add(1)
			s.settle(p.delivery.Ack())
			return nil
		})
	}
	_ = g.Wait()

	level := slog.LevelInfo
	if requeued.Load() > 0 {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "queue sync batch flushed",
		slog.Int("batch", len(batch)),
		slog.Int("created", int(created.Load())),
		slog.Int("requeued", int(requeued.Load())),
	)
}

func (s *JobSubmitter) settle(err error) {
	if err != nil {
		s.logger.Error("settling queue message", slog.String("error", err.Error()))
	}
}

// UsesQueue reports whether drafts go through the message broker.
func (s *JobSubmitter) UsesQueue() bool {
	return s.useQueue
}
