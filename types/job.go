package types

import (
	"encoding/json"
	"time"
)

// JobTemporalFields lists the wire fields of a job that carry timestamps.
// They are the only fields the parser converts.
var JobTemporalFields = []string{"runAt", "createdAt", "updatedAt", "lockedAt"}

// Job is the in-memory view of a queued job, as shown to operators.
// It is built only by the parser and is never sent back to the server.
type Job struct {
	ID             int64
	QueueName      *string
	TaskIdentifier string
	Payload        json.RawMessage
	Priority       int
	RunAt          Instant
	Attempts       int
	MaxAttempts    int
	LastError      *string
	CreatedAt      Instant
	UpdatedAt      Instant
	Key            *string
	LockedAt       *Instant
	LockedBy       *string
	Revision       int
	Flags          json.RawMessage
}

// IsLocked reports whether a worker currently holds the job.
func (j Job) IsLocked() bool {
	return j.LockedAt != nil && j.LockedBy != nil
}

// Consistent checks the invariants the server is expected to maintain.
// The client only reports them, it never rejects a job.
func (j Job) Consistent() bool {
	if (j.LockedAt == nil) != (j.LockedBy == nil) {
		return false
	}
	if j.CreatedAt.IsValid() && j.UpdatedAt.IsValid() && j.UpdatedAt.Before(j.CreatedAt.Time) {
		return false
	}
	return j.Attempts <= j.MaxAttempts || j.LockedAt == nil
}

// WireJob is a job exactly as the API serializes it.
type WireJob struct {
	ID             int64           `json:"id"`
	QueueName      *string         `json:"queueName"`
	TaskIdentifier string          `json:"taskIdentifier"`
	Payload        json.RawMessage `json:"payload"`
	Priority       int             `json:"priority"`
	RunAt          string          `json:"runAt"`
	Attempts       int             `json:"attempts"`
	MaxAttempts    int             `json:"maxAttempts"`
	LastError      *string         `json:"lastError"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
	Key            *string         `json:"key"`
	LockedAt       *string         `json:"lockedAt"`
	LockedBy       *string         `json:"lockedBy"`
	Revision       int             `json:"revision"`
	Flags          json.RawMessage `json:"flags"`
}

// JobList is the body of GET /jobs. Count is the number of rows matching the
// filters across all pages.
type JobList struct {
	Jobs  []WireJob `json:"jobs"`
	Count int       `json:"count"`
}

// JobKeyMode tells the server how to resolve a collision on JobDraft.JobKey.
type JobKeyMode string

const (
	JobKeyModeReplace       JobKeyMode = "replace"
	JobKeyModePreserveRunAt JobKeyMode = "preserve_run_at"
	JobKeyModeUnsafeDedupe  JobKeyMode = "unsafe_dedupe"
)

var AllJobKeyModes = []JobKeyMode{
	JobKeyModeReplace,
	JobKeyModePreserveRunAt,
	JobKeyModeUnsafeDedupe,
}

func (m JobKeyMode) String() string {
	return string(m)
}

func (m JobKeyMode) IsValid() bool {
	for _, mode := range AllJobKeyModes {
		if m == mode {
			return true
		}
	}
	return false
}

// JobDraft is what an operator submits to enqueue a job. Nil fields are left
// to the server defaults.
type JobDraft struct {
	TaskIdentifier string          `json:"taskIdentifier"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	QueueName      *string         `json:"queueName,omitempty"`
	RunAt          *time.Time      `json:"runAt,omitempty"`
	MaxAttempts    *int            `json:"maxAttempts,omitempty"`
	JobKey         *string         `json:"jobKey,omitempty"`
	Priority       *int            `json:"priority,omitempty"`
	Flags          []string        `json:"flags,omitempty"`
	JobKeyMode     *JobKeyMode     `json:"jobKeyMode,omitempty"`
}

// RescheduleRequest is the body of POST /jobs/reschedule.
type RescheduleRequest struct {
	JobIDs      []int64    `json:"jobIds"`
	RunAt       *time.Time `json:"runAt,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	Attempts    *int       `json:"attempts,omitempty"`
	MaxAttempts *int       `json:"maxAttempts,omitempty"`
}

// Ptr returns a pointer to v. Handy for the many optional fields.
func Ptr[T any](v T) *T {
	return &v
}
