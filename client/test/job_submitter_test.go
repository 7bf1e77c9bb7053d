package test

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/graphboard/graphboard/client"
	"github.com/graphboard/graphboard/client/test/mocks"
	"github.com/graphboard/graphboard/internal/message_broaker"
	"github.com/graphboard/graphboard/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestJobSubmitter_Submit_DirectMode(t *testing.T) {
	creator := &mocks.MockJobCreator{}
	submitter := client.NewJobSubmitter(creator, nil, false, "", 0, nil)

	result, err := submitter.Submit(context.Background(), types.JobDraft{TaskIdentifier: "send_email"})
	require.NoError(t, err)
	assert.False(t, result.Queued)
	require.NotNil(t, result.Job)
	assert.Equal(t, "send_email", result.Job.TaskIdentifier)
	assert.False(t, submitter.UsesQueue())
}

func TestJobSubmitter_Submit_InvalidDraft(t *testing.T) {
	creator := &mocks.MockJobCreator{}
	submitter := client.NewJobSubmitter(creator, nil, false, "", 0, nil)

	_, err := submitter.Submit(context.Background(), types.JobDraft{MaxAttempts: types.Ptr(0)})
	assert.Error(t, err)
	assert.Empty(t, creator.Drafts())
}

func TestJobSubmitter_Submit_QueueMode(t *testing.T) {
	var publishedQueue string
	var published []byte
	broker := &mocks.MockMessageBroker{
		PublishFunc: func(ctx context.Context, queue string, message []byte) error {
			publishedQueue = queue
			published = message
			return nil
		},
	}
	creator := &mocks.MockJobCreator{}
	submitter := client.NewJobSubmitter(creator, broker, true, "graphboard_drafts", 0, nil)

	result, err := submitter.Submit(context.Background(), types.JobDraft{TaskIdentifier: "send_email"})
	require.NoError(t, err)
	assert.True(t, result.Queued)
	assert.Nil(t, result.Job)
	assert.Equal(t, "graphboard_drafts", publishedQueue)
	assert.Empty(t, creator.Drafts())

	var draft types.JobDraft
	require.NoError(t, json.Unmarshal(published, &draft))
	assert.Equal(t, "send_email", draft.TaskIdentifier)
}

func TestJobSubmitter_Submit_QueueMode_PublishError(t *testing.T) {
	broker := &mocks.MockMessageBroker{
		PublishFunc: func(ctx context.Context, queue string, message []byte) error {
			return errors.New("channel closed")
		},
	}
	submitter := client.NewJobSubmitter(&mocks.MockJobCreator{}, broker, true, "q", 0, nil)

	_, err := submitter.Submit(context.Background(), types.JobDraft{TaskIdentifier: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

func TestJobSubmitter_QueueModeNeedsBroker(t *testing.T) {
	submitter := client.NewJobSubmitter(&mocks.MockJobCreator{}, nil, true, "q", 0, nil)
	assert.False(t, submitter.UsesQueue())
}

func TestJobSubmitter_SubmitAll_KeepsOrderAndBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	creator := &mocks.MockJobCreator{
		CreateJobFunc: func(ctx context.Context, draft types.JobDraft) (*types.WireJob, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			return &types.WireJob{TaskIdentifier: draft.TaskIdentifier}, nil
		},
	}
	submitter := client.NewJobSubmitter(creator, nil, false, "", 2, nil)

	drafts := []types.JobDraft{
		{TaskIdentifier: "a"}, {TaskIdentifier: "b"}, {TaskIdentifier: "c"},
		{TaskIdentifier: "d"}, {TaskIdentifier: "e"},
	}
	results, err := submitter.SubmitAll(context.Background(), drafts)
	require.NoError(t, err)
	require.Len(t, results, len(drafts))
	for i, r := range results {
		require.NotNil(t, r.Job)
		assert.Equal(t, drafts[i].TaskIdentifier, r.Job.TaskIdentifier)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestJobSubmitter_SubmitAll_StopsOnError(t *testing.T) {
	creator := &mocks.MockJobCreator{
		CreateJobFunc: func(ctx context.Context, draft types.JobDraft) (*types.WireJob, error) {
			if draft.TaskIdentifier == "bad" {
				return nil, errors.New("rejected")
			}
			return &types.WireJob{TaskIdentifier: draft.TaskIdentifier}, nil
		},
	}
	submitter := client.NewJobSubmitter(creator, nil, false, "", 1, nil)

	results, err := submitter.SubmitAll(context.Background(), []types.JobDraft{
		{TaskIdentifier: "ok"}, {TaskIdentifier: "bad"}, {TaskIdentifier: "never"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft 1 (bad)")
	require.Len(t, results, 3)
	assert.NotNil(t, results[0].Job)
	assert.Nil(t, results[1].Job)
}

func draftDelivery(t *testing.T, name string) (message_broaker.Delivery, *mocks.MockDelivery) {
	t.Helper()
	body, err := json.Marshal(types.JobDraft{TaskIdentifier: name})
	require.NoError(t, err)
	settled := &mocks.MockDelivery{}
	return settled.Delivery(body), settled
}

func consumeFrom(msgCh chan message_broaker.Delivery) *mocks.MockMessageBroker {
	return &mocks.MockMessageBroker{
		ConsumeFunc: func(ctx context.Context, queue string) (<-chan message_broaker.Delivery, error) {
			return msgCh, nil
		},
	}
}

func TestJobSubmitter_QueueSyncWorker_CreatesConsumedDrafts(t *testing.T) {
	msgCh := make(chan message_broaker.Delivery, 3)
	broker := &mocks.MockMessageBroker{
		ConsumeFunc: func(ctx context.Context, queue string) (<-chan message_broaker.Delivery, error) {
			assert.Equal(t, "drafts", queue)
			return msgCh, nil
		},
	}

	var mu sync.Mutex
	var created []string
	creator := &mocks.MockJobCreator{
		CreateJobFunc: func(ctx context.Context, draft types.JobDraft) (*types.WireJob, error) {
			mu.Lock()
			created = append(created, draft.TaskIdentifier)
			mu.Unlock()
			return &types.WireJob{TaskIdentifier: draft.TaskIdentifier}, nil
		},
	}
	submitter := client.NewJobSubmitter(creator, broker, true, "drafts", 1, nil)
	done, err := submitter.StartQueueSyncWorker(context.Background())
	require.NoError(t, err)

	a, aState := draftDelivery(t, "a")
	b, bState := draftDelivery(t, "b")
	garbage := &mocks.MockDelivery{}
	msgCh <- a
	msgCh <- b
	msgCh <- garbage.Delivery([]byte("not json"))
	close(msgCh)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after the channel closed")
	}

	assert.Equal(t, []string{"a", "b"}, created)
	for _, state := range []*mocks.MockDelivery{aState, bState} {
		acked, nacked, _ := state.State()
		assert.True(t, acked)
		assert.False(t, nacked)
	}
	acked, nacked, requeued := garbage.State()
	assert.False(t, acked)
	assert.True(t, nacked)
	assert.False(t, requeued)
}

func TestJobSubmitter_QueueSyncWorker_FailedCreateIsRequeued(t *testing.T) {
	msgCh := make(chan message_broaker.Delivery, 2)

	var mu sync.Mutex
	var attempted []string
	creator := &mocks.MockJobCreator{
		CreateJobFunc: func(ctx context.Context, draft types.JobDraft) (*types.WireJob, error) {
			mu.Lock()
			attempted = append(attempted, draft.TaskIdentifier)
			mu.Unlock()
			if draft.TaskIdentifier == "a" {
				return nil, errors.New("503 from server")
			}
			return &types.WireJob{TaskIdentifier: draft.TaskIdentifier}, nil
		},
	}
	submitter := client.NewJobSubmitter(creator, consumeFrom(msgCh), true, "drafts", 1, nil)
	done, err := submitter.StartQueueSyncWorker(context.Background())
	require.NoError(t, err)

	a, aState := draftDelivery(t, "a")
	b, bState := draftDelivery(t, "b")
	msgCh <- a
	msgCh <- b
	close(msgCh)
	<-done

	// One failure does not stop the rest of the batch.
	assert.ElementsMatch(t, []string{"a", "b"}, attempted)

	acked, nacked, requeued := aState.State()
	assert.False(t, acked)
	assert.True(t, nacked)
	assert.True(t, requeued)

	acked, nacked, _ = bState.State()
	assert.True(t, acked)
	assert.False(t, nacked)
}

func TestJobSubmitter_QueueSyncWorker_FlushesBeforeDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	msgCh := make(chan message_broaker.Delivery, 1)

	received := make(chan struct{})
	creator := &mocks.MockJobCreator{
		CreateJobFunc: func(ctx context.Context, draft types.JobDraft) (*types.WireJob, error) {
			assert.NoError(t, ctx.Err(), "the last batch must not inherit the cancelled context")
			return &types.WireJob{TaskIdentifier: draft.TaskIdentifier}, nil
		},
	}
	broker := &mocks.MockMessageBroker{
		ConsumeFunc: func(ctx context.Context, queue string) (<-chan message_broaker.Delivery, error) {
			out := make(chan message_broaker.Delivery)
			go func() {
				d := <-msgCh
				out <- d
				close(received)
			}()
			return out, nil
		},
	}
	submitter := client.NewJobSubmitter(creator, broker, true, "drafts", 1, nil)
	done, err := submitter.StartQueueSyncWorker(ctx)
	require.NoError(t, err)

	d, state := draftDelivery(t, "late")
	msgCh <- d
	<-received
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	acked, _, _ := state.State()
	assert.True(t, acked, "pending draft must be created and acked before done closes")
}

func TestJobSubmitter_QueueSyncWorker_DirectModeIsNoop(t *testing.T) {
	broker := &mocks.MockMessageBroker{
		ConsumeFunc: func(ctx context.Context, queue string) (<-chan message_broaker.Delivery, error) {
			t.Fatal("consume must not be called")
			return nil, nil
		},
	}
	submitter := client.NewJobSubmitter(&mocks.MockJobCreator{}, broker, false, "q", 0, nil)
	done, err := submitter.StartQueueSyncWorker(context.Background())
	assert.NoError(t, err)
	_, open := <-done
	assert.False(t, open)
}

func TestJobSubmitter_QueueSyncWorker_ConsumeError(t *testing.T) {
	broker := &mocks.MockMessageBroker{
		ConsumeFunc: func(ctx context.Context, queue string) (<-chan message_broaker.Delivery, error) {
			return nil, errors.New("no channel")
		},
	}
	submitter := client.NewJobSubmitter(&mocks.MockJobCreator{}, broker, true, "q", 0, nil)
	_, err := submitter.StartQueueSyncWorker(context.Background())
	assert.Error(t, err)
}
