package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status represents the lifecycle state of a company.
// It is stored as an integer and rendered through statusNames.
type Status int

const (
	StatusActive Status = iota
	StatusPending
	StatusClosed
)

var statusNames = map[Status]string{
	StatusActive:  "Active",
	StatusPending: "Pending",
	StatusClosed:  "Closed",
}

// Statuses returns every status in value order.
func Statuses() []Status {
	return []Status{StatusActive, StatusPending, StatusClosed}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus accepts either the numeric value or the display name (any case).
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		s := Status(n)
		if !s.Valid() {
			return 0, fmt.Errorf("unknown status %d", n)
		}
		return s, nil
	}
	for s, name := range statusNames {
		if strings.EqualFold(name, raw) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", raw)
}

// MarshalJSON renders the display name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a display name or a number.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseStatus(name)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("status must be a name or a number: %w", err)
	}
	parsed := Status(n)
	if !parsed.Valid() {
		return fmt.Errorf("unknown status %d", n)
	}
	*s = parsed
	return nil
}
