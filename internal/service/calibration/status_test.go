package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/maintenance-desk/internal/model"
)

var now = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		due        time.Time
		inProgress bool
		want       model.CalibrationStatus
	}{
		{"exactly 60 days out", now.AddDate(0, 0, 60), false, model.StatusDueSoon},
		{"61 days out", now.AddDate(0, 0, 61), false, model.StatusOnTrack},
		{"one day late", now.AddDate(0, 0, -1), false, model.StatusOverdue},
		{"due now", now, false, model.StatusDueSoon},
		{"due in 23 hours", now.Add(23 * time.Hour), false, model.StatusDueSoon},
		{"60 days and one hour rounds up to 61", now.AddDate(0, 0, 60).Add(time.Hour), false, model.StatusOnTrack},
		{"in progress and overdue", now.AddDate(-1, 0, 0), true, model.StatusInProgress},
		{"in progress and on track", now.AddDate(1, 0, 0), true, model.StatusInProgress},
		{"in progress and due soon", now.AddDate(0, 0, 10), true, model.StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.due, tt.inProgress, now))
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "due_soon", model.StatusDueSoon.String())
	text, err := model.StatusOverdue.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "overdue", string(text))
}
