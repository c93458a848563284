package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/maintenance-desk/internal/model"
)

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil, now)

	assert.Equal(t, model.AttentionSummary{}, summary)
	assert.False(t, summary.Active())
}

func TestSummarizeMixed(t *testing.T) {
	items := []model.CalibratableItem{
		{DueDate: now.AddDate(0, 0, -3)},
		{DueDate: now.AddDate(0, 0, 20)},
		{DueDate: now.AddDate(0, 0, 200)},
		{DueDate: now.AddDate(0, 0, -30), InProgress: true},
	}

	summary := Summarize(items, now)

	assert.Equal(t, model.AttentionSummary{OverdueCount: 1, DueSoonCount: 1}, summary)
	assert.True(t, summary.Active())
}

func TestSummarizeAnalyzers(t *testing.T) {
	analyzers := []*model.Analyzer{
		{Name: "Cobas 6000", CalibrationDueDate: now.AddDate(0, 0, 45)},
		{Name: "Architect c8000", CalibrationDueDate: now.AddDate(0, 0, 90)},
	}

	summary := SummarizeAnalyzers(analyzers, now)

	assert.Equal(t, uint(0), summary.OverdueCount)
	assert.Equal(t, uint(1), summary.DueSoonCount)
	assert.True(t, summary.Active())
}
