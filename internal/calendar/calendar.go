// Package calendar is the user's personal schedule consulted before booking.
package calendar

import (
	"context"
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used across the agent.
const DateLayout = "2006-01-02"

// Event is a scheduled commitment on a given date.
type Event struct {
	Date  string `yaml:"date" json:"date"`
	Event string `yaml:"event" json:"event"`
	Time  string `yaml:"time" json:"time"`
}

// Status is the availability of a date.
type Status string

const (
	StatusFree Status = "free"
	StatusBusy Status = "busy"
)

// Availability reports whether a date is free and, when busy, what conflicts.
type Availability struct {
	Date      string  `json:"date"`
	Status    Status  `json:"status"`
	Conflicts []Event `json:"conflicts,omitempty"`
}

// DefaultEvents is the seeded schedule used when no events are configured.
func DefaultEvents() []Event {
	return []Event{
		{Date: "2026-01-23", Event: "Project Presentation", Time: "10:00 AM"},
	}
}

// Store is a read-only, in-memory calendar.
type Store struct {
	events []Event
}

// NewStore returns a store over a copy of events. Events with malformed dates are rejected.
func NewStore(events []Event) (*Store, error) {
	cp := make([]Event, 0, len(events))
	for _, e := range events {
		if _, err := time.Parse(DateLayout, e.Date); err != nil {
			return nil, fmt.Errorf("calendar: event %q has invalid date %q: %w", e.Event, e.Date, err)
		}
		cp = append(cp, e)
	}
	return &Store{events: cp}, nil
}

// Check reports the availability of date, listing every event on it in schedule order.
func (s *Store) Check(ctx context.Context, date string) (Availability, error) {
	if err := ctx.Err(); err != nil {
		return Availability{}, err
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Availability{}, fmt.Errorf("calendar: invalid date %q", date)
	}
	var conflicts []Event
	for _, e := range s.events {
		if e.Date == date {
			conflicts = append(conflicts, e)
		}
	}
	if len(conflicts) == 0 {
		return Availability{Date: date, Status: StatusFree}, nil
	}
	return Availability{Date: date, Status: StatusBusy, Conflicts: conflicts}, nil
}
