// Package ports declares the interfaces the analysis core needs from its
// I/O collaborators. The core consumes and produces in-memory structures
// only; adapters translate to and from storage at this boundary.
package ports

import (
	"context"
	"time"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/sample"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/series"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/study"
)

// SeriesRepository reads fully materialized time series. Implementations
// guarantee the returned series has no duplicate dates for one series ID.
type SeriesRepository interface {
	GetSeries(ctx context.Context, id core.SeriesID, start, end time.Time) (*series.TimeSeries, error)
	ListSeries(ctx context.Context) ([]core.SeriesID, error)
}

// SampleRepository reads weighted microdata samples by name.
type SampleRepository interface {
	GetSample(ctx context.Context, name string) (*sample.Collection, error)
}

// RunRepository persists completed study runs.
type RunRepository interface {
	SaveRun(ctx context.Context, run *study.Run) error
	GetRun(ctx context.Context, id core.RunID) (*study.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*study.Run, error)
}

// SeriesSource fetches a series from a remote provider. Implementations are
// thin acquisition clients; the core never calls them mid-computation.
type SeriesSource interface {
	FetchSeries(ctx context.Context, id core.SeriesID, start, end time.Time) (*series.TimeSeries, error)
}

// ResultExporter writes a run's tables for the reporting collaborator.
type ResultExporter interface {
	Export(run *study.Run, path string) error
}
