package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/sample"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/series"
	"github.com/andsalazar/FederalBudgetAnalysis/ports"
)

// observationRepository reads materialized observations for the analysis
// core. It implements ports.SeriesRepository and ports.SampleRepository.
type observationRepository struct {
	db *sqlx.DB
}

// NewObservationRepository creates a read adapter over the observations and
// microdata tables.
func NewObservationRepository(db *sqlx.DB) *observationRepository {
	return &observationRepository{db: db}
}

var _ ports.SeriesRepository = (*observationRepository)(nil)
var _ ports.SampleRepository = (*observationRepository)(nil)

// GetSeries loads one series ordered by date. The unique (series_id, date)
// constraint in the schema guarantees no duplicate dates reach series.New.
func (r *observationRepository) GetSeries(ctx context.Context, id core.SeriesID, start, end time.Time) (*series.TimeSeries, error) {
	query := `SELECT date, value FROM observations
		WHERE series_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query, id.String(), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query series %s: %w", id, err)
	}
	defer rows.Close()

	var points []series.Point
	for rows.Next() {
		var p series.Point
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrSeriesNotFound, id)
	}

	return series.New(id, points)
}

// ListSeries returns the distinct series identifiers.
func (r *observationRepository) ListSeries(ctx context.Context) ([]core.SeriesID, error) {
	var raw []string
	if err := r.db.SelectContext(ctx, &raw, `SELECT DISTINCT series_id FROM observations ORDER BY series_id`); err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	ids := make([]core.SeriesID, len(raw))
	for i, s := range raw {
		ids[i] = core.SeriesID(s)
	}
	return ids, nil
}

// GetSample loads a named weighted microdata sample.
func (r *observationRepository) GetSample(ctx context.Context, name string) (*sample.Collection, error) {
	query := `SELECT value, weight, COALESCE(cluster_id, '') AS cluster_id
		FROM microdata WHERE sample_name = $1`

	rows, err := r.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample %s: %w", name, err)
	}
	defer rows.Close()

	var obs []sample.Observation
	for rows.Next() {
		var o sample.Observation
		var cluster string
		if err := rows.Scan(&o.Value, &o.Weight, &cluster); err != nil {
			return nil, fmt.Errorf("failed to scan microdata row: %w", err)
		}
		o.Cluster = core.ClusterID(cluster)
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read microdata: %w", err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: sample %s", core.ErrNotFound, name)
	}

	return sample.New(obs)
}
