package state

import (
	"testing"
	"time"

	"github.com/graphboard/graphboard/types"
)

func TestJobStatus_String(t *testing.T) {
	tests := []struct {
		name     string
		status   JobStatus
		expected string
	}{
		{name: "Queued status", status: StatusQueued, expected: "queued"},
		{name: "Scheduled status", status: StatusScheduled, expected: "scheduled"},
		{name: "Locked status", status: StatusLocked, expected: "locked"},
		{name: "Retrying status", status: StatusRetrying, expected: "retrying"},
		{name: "Failed status", status: StatusFailed, expected: "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.status.String()
			if result != tt.expected {
				t.Errorf("String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestOf(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	past := types.NewInstant(now.Add(-time.Hour))
	future := types.NewInstant(now.Add(time.Hour))
	lastError := "boom"

	tests := []struct {
		name     string
		job      types.Job
		expected JobStatus
	}{
		{
			name:     "due job",
			job:      types.Job{RunAt: past, MaxAttempts: 25},
			expected: StatusQueued,
		},
		{
			name:     "future job",
			job:      types.Job{RunAt: future, MaxAttempts: 25},
			expected: StatusScheduled,
		},
		{
			name:     "locked job",
			job:      types.Job{RunAt: past, MaxAttempts: 25, LockedAt: &past, LockedBy: types.Ptr("worker-1")},
			expected: StatusLocked,
		},
		{
			name:     "failed once, backing off",
			job:      types.Job{RunAt: future, Attempts: 1, MaxAttempts: 25, LastError: &lastError},
			expected: StatusRetrying,
		},
		{
			name:     "attempts exhausted",
			job:      types.Job{RunAt: past, Attempts: 25, MaxAttempts: 25, LastError: &lastError},
			expected: StatusFailed,
		},
		{
			name:     "unparseable run time",
			job:      types.Job{RunAt: types.InvalidInstant("garbage"), MaxAttempts: 25},
			expected: StatusQueued,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Of(tt.job, now); got != tt.expected {
				t.Errorf("Of() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCountByStatus(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	jobs := []types.Job{
		{RunAt: types.NewInstant(now.Add(-time.Minute)), MaxAttempts: 1},
		{RunAt: types.NewInstant(now.Add(-time.Minute)), MaxAttempts: 1},
		{RunAt: types.NewInstant(now.Add(time.Minute)), MaxAttempts: 1},
	}

	counts := CountByStatus(jobs, now)
	if len(counts) != len(AllStatuses) {
		t.Fatalf("expected every status, got %v", counts)
	}
	if counts[StatusQueued] != 2 || counts[StatusScheduled] != 1 || counts[StatusFailed] != 0 {
		t.Errorf("unexpected counts %v", counts)
	}
}
