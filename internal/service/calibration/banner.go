package calibration

import (
	"fmt"

	"github.com/jwalitptl/maintenance-desk/internal/model"
)

// BannerLines renders the pt-BR attention banner, overdue line first.
// An inactive summary has no lines.
func BannerLines(s model.AttentionSummary) []string {
	lines := []string{}
	if s.OverdueCount > 0 {
		lines = append(lines, fmt.Sprintf("%d %s com calibração vencida.",
			s.OverdueCount, analyzers(s.OverdueCount)))
	}
	if s.DueSoonCount > 0 {
		lines = append(lines, fmt.Sprintf("%d %s com calibração a vencer nos próximos %d dias.",
			s.DueSoonCount, analyzers(s.DueSoonCount), DueSoonWindowDays))
	}
	return lines
}

func analyzers(n uint) string {
	if n == 1 {
		return "analisador"
	}
	return "analisadores"
}
