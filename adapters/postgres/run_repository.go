package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/study"
	"github.com/andsalazar/FederalBudgetAnalysis/ports"
)

// runRepository persists study runs as JSON documents.
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a run repository.
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

// SaveRun inserts a completed run.
func (r *runRepository) SaveRun(ctx context.Context, run *study.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	query := `INSERT INTO study_runs (id, created_at, payload) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, run.ID.String(), run.CreatedAt, payload); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (r *runRepository) GetRun(ctx context.Context, id core.RunID) (*study.Run, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM study_runs WHERE id = $1`, id.String()).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run study.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]*study.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM study_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*study.Run
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		var run study.Run
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
