package types

import "time"

// InvalidInstantText is what an unparsable Instant prints as.
const InvalidInstantText = "Invalid Date"

// Instant is a point in time decoded from the wire. An Instant whose wire text
// could not be parsed holds the zero time, keeps the original text and reports
// IsValid() == false. Consumers decide how to display it.
type Instant struct {
	time.Time
	raw   string
	valid bool
}

// NewInstant wraps an already known time.
func NewInstant(t time.Time) Instant {
	return Instant{Time: t, valid: true}
}

// InvalidInstant records wire text that is not a valid timestamp.
func InvalidInstant(raw string) Instant {
	return Instant{raw: raw}
}

func (i Instant) IsValid() bool {
	return i.valid
}

// Raw returns the wire text an invalid Instant was built from.
func (i Instant) Raw() string {
	return i.raw
}

// In returns the instant expressed in loc. Invalid instants are returned as is.
func (i Instant) In(loc *time.Location) Instant {
	if !i.valid {
		return i
	}
	return Instant{Time: i.Time.In(loc), valid: true}
}

func (i Instant) String() string {
	if !i.valid {
		return InvalidInstantText
	}
	return i.Time.Format(time.RFC3339)
}
