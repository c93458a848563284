package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/maintenance-desk/internal/model"
	"github.com/jwalitptl/maintenance-desk/internal/repository"
)

type analyzerRepository struct {
	BaseRepository
}

func NewAnalyzerRepository(base BaseRepository) repository.AnalyzerRepository {
	return &analyzerRepository{base}
}

func (r *analyzerRepository) ListAnalyzers(ctx context.Context) ([]*model.Analyzer, error) {
	query := `
		SELECT id, name, serial_number, location, calibration_due_date,
			in_calibration, created_by, created_at, updated_at
		FROM analyzers
		ORDER BY calibration_due_date ASC
	`
	var analyzers []*model.Analyzer
	if err := r.db.SelectContext(ctx, &analyzers, query); err != nil {
		return nil, fmt.Errorf("failed to list analyzers: %w", err)
	}
	return analyzers, nil
}
