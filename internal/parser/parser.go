// Package parser is the boundary between the wire representation of records,
// where timestamps are ISO-8601 strings, and their in-memory form, where they
// are types.Instant. No other package turns wire strings into times.
package parser

import (
	"strings"
	"time"

	"github.com/graphboard/graphboard/types"
)

// layouts are tried in order. The first one covers what the API emits
// (RFC 3339 with or without fractional seconds and a numeric offset).
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Instant parses one wire timestamp. Text that matches no known layout gives an
// invalid Instant instead of an error. Values without a zone are read as UTC.
func Instant(s string) types.Instant {
	text := strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return types.NewInstant(t)
		}
	}
	return types.InvalidInstant(s)
}

// NullableInstant parses an optional wire timestamp. nil stays nil.
func NullableInstant(s *string) *types.Instant {
	if s == nil {
		return nil
	}
	instant := Instant(*s)
	return &instant
}

// Record converts the named keys of a decoded wire record. For each key that
// is present with a string value the value becomes a types.Instant. nil values
// pass through and keys outside keys are copied without being looked at. The
// input map is left untouched, so applying Record twice to the same input gives
// the same output.
func Record(record map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	for _, key := range keys {
		value, ok := out[key]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString {
			out[key] = Instant(s)
		}
	}
	return out
}

// Job converts a wire job to its domain form. Only the fields listed in
// types.JobTemporalFields change representation.
func Job(w types.WireJob) types.Job {
	return types.Job{
		ID:             w.ID,
		QueueName:      w.QueueName,
		TaskIdentifier: w.TaskIdentifier,
		Payload:        w.Payload,
		Priority:       w.Priority,
		RunAt:          Instant(w.RunAt),
		Attempts:       w.Attempts,
		MaxAttempts:    w.MaxAttempts,
		LastError:      w.LastError,
		CreatedAt:      Instant(w.CreatedAt),
		UpdatedAt:      Instant(w.UpdatedAt),
		Key:            w.Key,
		LockedAt:       NullableInstant(w.LockedAt),
		LockedBy:       w.LockedBy,
		Revision:       w.Revision,
		Flags:          w.Flags,
	}
}

// Jobs converts a slice of wire jobs, keeping their order.
func Jobs(wire []types.WireJob) []types.Job {
	jobs := make([]types.Job, 0, len(wire))
	for _, w := range wire {
		jobs = append(jobs, Job(w))
	}
	return jobs
}
