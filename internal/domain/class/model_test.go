package class_test

import (
	"testing"
	"time"

	"villagefit/internal/domain/class"
)

var (
	start = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end   = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
)

// TestClass_Validate tests validation of Class.
func TestClass_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cls     class.Class
		wantErr error
	}{
		{
			name:    "valid class",
			cls:     class.Class{ID: "1", Title: "Aqua Aerobics", Start: start, End: end, Capacity: 12, Status: class.StatusScheduled},
			wantErr: nil,
		},
		{
			name:    "empty title",
			cls:     class.Class{ID: "2", Title: "  ", Start: start, End: end, Capacity: 12},
			wantErr: class.ErrEmptyTitle,
		},
		{
			name:    "zero capacity",
			cls:     class.Class{ID: "3", Title: "Chair Yoga", Start: start, End: end, Capacity: 0},
			wantErr: class.ErrInvalidCapacity,
		},
		{
			name:    "missing start",
			cls:     class.Class{ID: "4", Title: "Chair Yoga", End: end, Capacity: 8},
			wantErr: class.ErrEmptyStart,
		},
		{
			name:    "end equals start",
			cls:     class.Class{ID: "5", Title: "Chair Yoga", Start: start, End: start, Capacity: 8},
			wantErr: class.ErrEndBeforeStart,
		},
		{
			name:    "end before start",
			cls:     class.Class{ID: "6", Title: "Chair Yoga", Start: end, End: start, Capacity: 8},
			wantErr: class.ErrEndBeforeStart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cls.Validate(); err != tt.wantErr {
				t.Errorf("Class.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestClass_SpotsLeft tests remaining seat computation.
func TestClass_SpotsLeft(t *testing.T) {
	c := class.Class{Capacity: 3}

	if got := c.SpotsLeft(0); got != 3 {
		t.Errorf("SpotsLeft(0) = %d, want 3", got)
	}
	if got := c.SpotsLeft(3); got != 0 {
		t.Errorf("SpotsLeft(3) = %d, want 0", got)
	}
	// Overbooked data must floor at zero, never go negative.
	if got := c.SpotsLeft(5); got != 0 {
		t.Errorf("SpotsLeft(5) = %d, want 0", got)
	}
}

// TestClass_IsUpcoming tests upcoming detection across status values.
func TestClass_IsUpcoming(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	future := class.Class{Start: start, End: end, Status: class.StatusScheduled}
	if !future.IsUpcoming(now) {
		t.Error("scheduled future class should be upcoming")
	}

	cancelled := class.Class{Start: start, End: end, Status: class.StatusCancelled}
	if cancelled.IsUpcoming(now) {
		t.Error("cancelled class should never be upcoming")
	}

	past := class.Class{Start: now.Add(-2 * time.Hour), End: now.Add(-time.Hour), Status: class.StatusScheduled}
	if past.IsUpcoming(now) {
		t.Error("past class should not be upcoming")
	}
}

// TestClass_Duration verifies series siblings keep their template length.
func TestClass_Duration(t *testing.T) {
	c := class.Class{Start: start, End: end}
	if got := c.Duration(); got != time.Hour {
		t.Errorf("Duration() = %v, want 1h", got)
	}
}
