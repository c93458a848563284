package calibration

import (
	"time"

	"github.com/jwalitptl/maintenance-desk/internal/model"
)

// Summarize counts overdue and due-soon items. In-progress and on-track
// items are left out of both counts.
func Summarize(items []model.CalibratableItem, now time.Time) model.AttentionSummary {
	var summary model.AttentionSummary
	for _, item := range items {
		switch ClassifyItem(item, now) {
		case model.StatusOverdue:
			summary.OverdueCount++
		case model.StatusDueSoon:
			summary.DueSoonCount++
		}
	}
	return summary
}

// SummarizeAnalyzers is Summarize over the analyzer collection.
func SummarizeAnalyzers(analyzers []*model.Analyzer, now time.Time) model.AttentionSummary {
	items := make([]model.CalibratableItem, 0, len(analyzers))
	for _, a := range analyzers {
		items = append(items, a.CalibrationItem())
	}
	return Summarize(items, now)
}
