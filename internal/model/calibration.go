package model

import "time"

// CalibrationStatus is derived from a due date and an in-progress flag.
// It is never stored.
type CalibrationStatus int

const (
	StatusOnTrack CalibrationStatus = iota
	StatusDueSoon
	StatusOverdue
	StatusInProgress
)

func (s CalibrationStatus) String() string {
	switch s {
	case StatusOnTrack:
		return "on_track"
	case StatusDueSoon:
		return "due_soon"
	case StatusOverdue:
		return "overdue"
	case StatusInProgress:
		return "in_progress"
	default:
		return "unknown"
	}
}

func (s CalibrationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CalibratableItem is anything with a calibration due date.
type CalibratableItem struct {
	DueDate    time.Time
	InProgress bool
}

// AttentionSummary counts the items that need attention.
type AttentionSummary struct {
	OverdueCount uint `json:"overdue_count"`
	DueSoonCount uint `json:"due_soon_count"`
}

// Active reports whether the attention banner should be shown.
func (s AttentionSummary) Active() bool {
	return s.OverdueCount > 0 || s.DueSoonCount > 0
}
