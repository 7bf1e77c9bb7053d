package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// optionalInt is an int flag that stays nil unless given.
type optionalInt struct{ value *int }

func (o *optionalInt) String() string {
	if o.value == nil {
		return ""
	}
	return strconv.Itoa(*o.value)
}

func (o *optionalInt) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	o.value = &n
	return nil
}

// optionalString tells an empty value apart from an absent flag.
type optionalString struct{ value *string }

func (o *optionalString) String() string {
	if o.value == nil {
		return ""
	}
	return *o.value
}

func (o *optionalString) Set(s string) error {
	o.value = &s
	return nil
}

// optionalTime accepts RFC 3339 timestamps or a duration from now, e.g. "+10m".
type optionalTime struct {
	value *time.Time
	now   func() time.Time
}

func (o *optionalTime) String() string {
	if o.value == nil {
		return ""
	}
	return o.value.Format(time.RFC3339)
}

func (o *optionalTime) Set(s string) error {
	if strings.HasPrefix(s, "+") {
		d, err := time.ParseDuration(s[1:])
		if err != nil {
			return err
		}
		now := time.Now
		if o.now != nil {
			now = o.now
		}
		t := now().Add(d)
		o.value = &t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("want RFC 3339 or +duration: %w", err)
	}
	o.value = &t
	return nil
}

// parseIDs reads a comma separated list of job ids.
func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("no job ids given")
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid job id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
