// Package preference exposes the operator's durable preferences on top of a
// store.PreferenceStore.
package preference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/graphboard/graphboard/custom_errors"
	"github.com/graphboard/graphboard/internal/store"
	"github.com/graphboard/graphboard/internal/timezone"
)

// TimezoneKey is the slot holding the preferred offset label.
const TimezoneKey = "preferred-timezone"

// PreferredTimezone is the process wide timezone preference. It is created
// once by the application container and lives as long as the process; the
// underlying store is closed by the container.
type PreferredTimezone struct {
	store   store.PreferenceStore
	catalog *timezone.Catalog
	logger  *slog.Logger

	mu     sync.Mutex
	cached string
}

func NewPreferredTimezone(s store.PreferenceStore, catalog *timezone.Catalog, logger *slog.Logger) *PreferredTimezone {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferredTimezone{store: s, catalog: catalog, logger: logger}
}

// Get returns the stored label. On first use, when the slot is empty, the
// slot is initialized with the catalog's current offset. A stored value that
// is no longer supported is replaced the same way.
func (p *PreferredTimezone) Get(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached, nil
	}

	label, err := p.store.Get(ctx, TimezoneKey)
	switch {
	case err == nil && p.catalog.IsSupported(label):
		p.cached = label
		return label, nil
	case err == nil:
		p.logger.Warn("stored timezone is not supported, resetting", slog.String("timezone", label))
	case !errors.Is(err, custom_errors.ErrPreferenceNotFound):
		return "", fmt.Errorf("read %s: %w", TimezoneKey, err)
	}

	label = p.catalog.Current()
	if err := p.store.Set(ctx, TimezoneKey, label); err != nil {
		return "", fmt.Errorf("initialize %s: %w", TimezoneKey, err)
	}
	p.cached = label
	return label, nil
}

// Set stores label after checking it against the catalog.
func (p *PreferredTimezone) Set(ctx context.Context, label string) error {
	if !p.catalog.IsSupported(label) {
		return fmt.Errorf("timezone %q is not supported", label)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Set(ctx, TimezoneKey, label); err != nil {
		return fmt.Errorf("write %s: %w", TimezoneKey, err)
	}
	p.cached = label
	return nil
}

// Location returns the fixed zone of the preferred offset.
func (p *PreferredTimezone) Location(ctx context.Context) (*time.Location, error) {
	label, err := p.Get(ctx)
	if err != nil {
		return nil, err
	}
	return p.catalog.Location(label)
}
