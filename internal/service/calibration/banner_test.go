package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/maintenance-desk/internal/model"
)

func TestBannerLines(t *testing.T) {
	tests := []struct {
		name    string
		summary model.AttentionSummary
		want    []string
	}{
		{
			name: "inactive",
			want: []string{},
		},
		{
			name:    "one due soon",
			summary: model.AttentionSummary{DueSoonCount: 1},
			want:    []string{"1 analisador com calibração a vencer nos próximos 60 dias."},
		},
		{
			name:    "plural both",
			summary: model.AttentionSummary{OverdueCount: 2, DueSoonCount: 3},
			want: []string{
				"2 analisadores com calibração vencida.",
				"3 analisadores com calibração a vencer nos próximos 60 dias.",
			},
		},
		{
			name:    "one overdue",
			summary: model.AttentionSummary{OverdueCount: 1},
			want:    []string{"1 analisador com calibração vencida."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BannerLines(tt.summary))
		})
	}
}
