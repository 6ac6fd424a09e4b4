package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

// FlexTime accepts either a YYYY-MM-DD date or an RFC 3339 timestamp on the wire.
type FlexTime struct {
	time.Time
}

// UnmarshalJSON parses a date-only or RFC 3339 string.
func (f *FlexTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	t, err := ParseFlexTime(s)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

// MarshalJSON renders RFC 3339 in UTC.
func (f FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.UTC().Format(time.RFC3339))
}

// ParseFlexTime parses a date-only or RFC 3339 string into UTC.
func ParseFlexTime(s string) (time.Time, error) {
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), nil
}

// TimePtr unwraps an optional FlexTime.
func (f *FlexTime) TimePtr() *time.Time {
	if f == nil || f.IsZero() {
		return nil
	}
	t := f.Time
	return &t
}
