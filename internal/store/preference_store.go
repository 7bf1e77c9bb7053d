package store

import "context"

// PreferenceStore persists small named operator preferences as plain text.
type PreferenceStore interface {
	// Init prepares the backing storage. Calling it again is harmless.
	Init(ctx context.Context) error

	// Get returns the value stored under key, or custom_errors.ErrPreferenceNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	Close() error
}
