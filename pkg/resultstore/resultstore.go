// Package resultstore persists the summary of a completed numbering run.
package resultstore

import (
	"context"

	apperrors "github.com/Davknapp/tnodes/pkg/errors"
)

// Repository defines the interface for run-summary persistence. A numbering
// run produces one summary per rank; callers typically save one record per
// rank and later read back the whole run by RunID.
type Repository interface {
	// SaveRun persists one rank's summary of a completed run.
	SaveRun(ctx context.Context, summary *RunSummary) error

	// GetRunSummaries retrieves every rank's summary for a run, ordered by rank.
	GetRunSummaries(ctx context.Context, runID string) ([]*RunSummary, error)

	// Close releases any resources held by the repository.
	Close() error

	// HealthCheck verifies the repository's backing store is reachable.
	HealthCheck(ctx context.Context) error
}

// NewRepository opens a GORM-backed repository for the given database
// configuration.
func NewRepository(cfg *DBConfig) (Repository, error) {
	db, err := NewGormDB(cfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeResultStoreError, "failed to open resultstore", err)
	}
	return NewGormRepository(db), nil
}

var _ Repository = (*GormRepository)(nil)
