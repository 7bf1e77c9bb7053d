// Package timezone holds the fixed set of UTC offset labels an operator can
// pick to display job times.
//
// Labels are written ±HH:MM but the minute part of the non whole offsets is a
// fraction of an hour in hundredths: "+05:50" is five and a half hours and
// "+05:75" five and three quarters. Location reads them that way. Current on
// the other hand formats real minutes, so a runtime at +05:30 yields a label
// that is not in the list and falls back to UTCLabel.
package timezone

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// UTCLabel is the fallback label.
const UTCLabel = "+00:00"

var supportedLabels = []string{
	"-12:00", "-11:00", "-10:00", "-09:50", "-09:00", "-08:00", "-07:00", "-06:00",
	"-05:00", "-04:50", "-04:00", "-03:50", "-03:00", "-02:00", "-01:00", "+00:00",
	"+01:00", "+02:00", "+03:00", "+03:50", "+04:00", "+04:50", "+05:00", "+05:50",
	"+05:75", "+06:00", "+06:50", "+07:00", "+08:00", "+08:75", "+09:00", "+09:50",
	"+10:00", "+10:50", "+11:00", "+11:50", "+12:00", "+12:75", "+13:00", "+14:00",
}

// Catalog is built once by the application container and shared.
type Catalog struct {
	labels []string
	index  map[string]struct{}
	now    func() time.Time
}

type Option func(*Catalog)

// WithClock replaces time.Now. The zone of the returned time is what Current
// reports.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		labels: slices.Clone(supportedLabels),
		index:  make(map[string]struct{}, len(supportedLabels)),
		now:    time.Now,
	}
	for _, label := range c.labels {
		c.index[label] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the supported labels from the most western offset to the most
// eastern one.
func (c *Catalog) List() []string {
	return slices.Clone(c.labels)
}

func (c *Catalog) IsSupported(label string) bool {
	_, ok := c.index[label]
	return ok
}

// Current returns the label of the local UTC offset, or UTCLabel when that
// label is not supported.
func (c *Catalog) Current() string {
	_, offset := c.now().Zone()
	label := FormatOffset(offset)
	if c.IsSupported(label) {
		return label
	}
	return UTCLabel
}

// Location returns a fixed zone for a supported label.
func (c *Catalog) Location(label string) (*time.Location, error) {
	if !c.IsSupported(label) {
		return nil, fmt.Errorf("timezone %q is not supported", label)
	}
	hours, _ := strconv.Atoi(label[1:3])
	hundredths, _ := strconv.Atoi(label[4:6])
	seconds := hours*3600 + hundredths*36
	if label[0] == '-' {
		seconds = -seconds
	}
	return time.FixedZone("UTC"+label, seconds), nil
}

// FormatOffset renders an offset in seconds east of UTC as ±HH:MM.
func FormatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
	}
	minutes := seconds / 60
	if minutes < 0 {
		minutes = -minutes
	}
	return fmt.Sprintf("%c%02d:%02d", sign, minutes/60, minutes%60)
}
