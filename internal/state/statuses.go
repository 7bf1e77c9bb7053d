// Package state derives a display status for a job from its fields. The
// server stores no status column; what a job is doing follows from its lock,
// attempts and run time.
package state

import (
	"time"

	"github.com/graphboard/graphboard/types"
)

type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusScheduled JobStatus = "scheduled"
	StatusLocked    JobStatus = "locked"
	StatusRetrying  JobStatus = "retrying"
	StatusFailed    JobStatus = "failed"
)

func (s JobStatus) String() string {
	return string(s)
}

var AllStatuses = []JobStatus{
	StatusQueued,
	StatusScheduled,
	StatusLocked,
	StatusRetrying,
	StatusFailed,
}

// Of returns the status of job at now. A lock wins over everything else, then
// exhausted attempts, then a previous error, then a run time in the future.
// A job whose run time could not be parsed counts as queued.
func Of(job types.Job, now time.Time) JobStatus {
	switch {
	case job.LockedAt != nil:
		return StatusLocked
	case job.MaxAttempts > 0 && job.Attempts >= job.MaxAttempts:
		return StatusFailed
	case job.Attempts > 0 && job.LastError != nil:
		return StatusRetrying
	case job.RunAt.IsValid() && job.RunAt.After(now):
		return StatusScheduled
	default:
		return StatusQueued
	}
}

// CountByStatus groups jobs by their status at now. Every status is present
// in the result, with zero when no job has it.
func CountByStatus(jobs []types.Job, now time.Time) map[JobStatus]int {
	counts := make(map[JobStatus]int, len(AllStatuses))
	for _, s := range AllStatuses {
		counts[s] = 0
	}
	for _, job := range jobs {
		counts[Of(job, now)]++
	}
	return counts
}
