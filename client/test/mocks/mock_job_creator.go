package mocks

import (
	"context"
	"sync"

	"github.com/graphboard/graphboard/types"
)

// MockJobCreator is a mock implementation of client.JobCreator for testing.
// It records every draft it receives.
type MockJobCreator struct {
	CreateJobFunc func(ctx context.Context, draft types.JobDraft) (*types.WireJob, error)

	mu     sync.Mutex
	drafts []types.JobDraft
}

func (m *MockJobCreator) CreateJob(ctx context.Context, draft types.JobDraft) (*types.WireJob, error) {
	m.mu.Lock()
	m.drafts = append(m.drafts, draft)
	m.mu.Unlock()
	if m.CreateJobFunc != nil {
		return m.CreateJobFunc(ctx, draft)
	}
	return &types.WireJob{TaskIdentifier: draft.TaskIdentifier}, nil
}

func (m *MockJobCreator) Drafts() []types.JobDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.JobDraft(nil), m.drafts...)
}
