package class

import (
	"errors"
	"strings"
	"time"
)

// Status constants for a class occurrence lifecycle.
// Occurrences are never deleted; cancellation is a status change so
// history stays intact.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
)

// Domain errors
var (
	ErrEmptyTitle      = errors.New("class title cannot be empty")
	ErrInvalidCapacity = errors.New("class capacity must be at least 1")
	ErrEmptyStart      = errors.New("class start time must be set")
	ErrEndBeforeStart  = errors.New("class end time must be after start time")
	ErrNotFound        = errors.New("class not found")
	ErrNotRecurring    = errors.New("class is not part of a recurring series")
)

// Class represents one bookable occurrence of a fitness class at a
// specific date and time. Occurrences generated from a recurring
// template share a SeriesID.
type Class struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	Capacity int
	Location string
	Status   string // scheduled, cancelled
	SeriesID string // empty for one-off classes
}

// Validate checks if the Class has valid data.
// PRE: Class struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: End is strictly after Start, Capacity >= 1
func (c *Class) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if c.Capacity < 1 {
		return ErrInvalidCapacity
	}
	if c.Start.IsZero() {
		return ErrEmptyStart
	}
	if !c.End.After(c.Start) {
		return ErrEndBeforeStart
	}
	return nil
}

// IsCancelled returns true if the occurrence has been cancelled.
func (c *Class) IsCancelled() bool {
	return c.Status == StatusCancelled
}

// IsUpcoming returns true if the occurrence starts after now.
// PRE: Start is set
// POST: Returns boolean, cancelled occurrences are never upcoming
func (c *Class) IsUpcoming(now time.Time) bool {
	return !c.IsCancelled() && c.Start.After(now)
}

// Duration returns the length of the occurrence. Series siblings are
// generated with the same duration as their template.
func (c *Class) Duration() time.Duration {
	return c.End.Sub(c.Start)
}

// SpotsLeft returns the remaining seats given the current active
// booking count, floored at zero.
// PRE: booked >= 0
// POST: Returns max(Capacity - booked, 0)
func (c *Class) SpotsLeft(booked int) int {
	left := c.Capacity - booked
	if left < 0 {
		return 0
	}
	return left
}
