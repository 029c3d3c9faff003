package services

import (
	"fmt"
	"time"
)

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidateWindow accepts an empty window or two valid clock values.
func ValidateWindow(from, to string) error {
	if from == "" && to == "" {
		return nil
	}
	if from == "" || to == "" {
		return fmt.Errorf("%w: visibility window needs both start and end", ErrInvalidInput)
	}
	if _, err := ParseClock(from); err != nil {
		return err
	}
	_, err := ParseClock(to)
	return err
}

// InWindow reports whether t (already in the restaurant timezone) falls in
// [from, to). A window whose end is before its start wraps midnight. Equal
// bounds and empty windows are always open.
func InWindow(from, to string, t time.Time) bool {
	if from == "" || to == "" {
		return true
	}
	start, err := ParseClock(from)
	if err != nil {
		return true
	}
	end, err := ParseClock(to)
	if err != nil {
		return true
	}
	if start == end {
		return true
	}

	now := t.Hour()*60 + t.Minute()
	if start < end {
		return now >= start && now < end
	}
	return now >= start || now < end
}
