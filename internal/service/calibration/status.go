// Package calibration derives calibration status from due dates and
// aggregates it into the attention banner decision.
package calibration

import (
	"math"
	"time"

	"github.com/jwalitptl/maintenance-desk/internal/model"
)

// DueSoonWindowDays is the inclusive upper bound of the due-soon window.
const DueSoonWindowDays = 60

const day = 24 * time.Hour

// Classify derives the status of an item at the reference time now.
// In-progress calibration wins over any date. Otherwise the distance to
// the due date is rounded up to whole days: an item due in 23 hours is
// 0 days out and still due soon.
func Classify(dueDate time.Time, inProgress bool, now time.Time) model.CalibrationStatus {
	if inProgress {
		return model.StatusInProgress
	}

	diffDays := math.Ceil(float64(dueDate.Sub(now)) / float64(day))
	switch {
	case diffDays < 0:
		return model.StatusOverdue
	case diffDays <= DueSoonWindowDays:
		return model.StatusDueSoon
	default:
		return model.StatusOnTrack
	}
}

// ClassifyItem is Classify over a CalibratableItem.
func ClassifyItem(item model.CalibratableItem, now time.Time) model.CalibrationStatus {
	return Classify(item.DueDate, item.InProgress, now)
}
