package series

import (
	"fmt"
	"time"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
)

// Point is one dated observation in a time series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeries is an ordered sequence of dated values with strictly increasing
// dates. Duplicate or out-of-order dates are a loading error, not a runtime
// state, so construction goes through New.
type TimeSeries struct {
	id     core.SeriesID
	points []Point
}

// New validates date ordering and wraps the points.
func New(id core.SeriesID, points []Point) (*TimeSeries, error) {
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Date, points[i].Date
		if cur.Equal(prev) {
			return nil, fmt.Errorf("%w: %s at %s", core.ErrDuplicateDate, id, cur.Format("2006-01-02"))
		}
		if cur.Before(prev) {
			return nil, fmt.Errorf("%w: %s at index %d", core.ErrUnorderedSeries, id, i)
		}
	}
	return &TimeSeries{id: id, points: points}, nil
}

// ID returns the series identifier.
func (ts *TimeSeries) ID() core.SeriesID { return ts.id }

// Len returns the number of points.
func (ts *TimeSeries) Len() int { return len(ts.points) }

// At returns the point at index i.
func (ts *TimeSeries) At(i int) Point { return ts.points[i] }

// Points returns the backing slice. Callers must not mutate it.
func (ts *TimeSeries) Points() []Point { return ts.points }

// Values returns the value column as a fresh slice.
func (ts *TimeSeries) Values() []float64 {
	vals := make([]float64, len(ts.points))
	for i, p := range ts.points {
		vals[i] = p.Value
	}
	return vals
}

// Dates returns the date column as a fresh slice.
func (ts *TimeSeries) Dates() []time.Time {
	dates := make([]time.Time, len(ts.points))
	for i, p := range ts.points {
		dates[i] = p.Date
	}
	return dates
}

// SearchDate returns the index of the first point at or after date, or Len()
// when every point precedes it.
func (ts *TimeSeries) SearchDate(date time.Time) int {
	lo, hi := 0, len(ts.points)
	for lo < hi {
		mid := (lo + hi) / 2
		if ts.points[mid].Date.Before(date) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Slice returns a sub-series over [from, to). The slice shares backing
// storage with the parent.
func (ts *TimeSeries) Slice(from, to int) (*TimeSeries, error) {
	if from < 0 || to > len(ts.points) || from > to {
		return nil, fmt.Errorf("invalid slice bounds [%d, %d) for series of length %d", from, to, len(ts.points))
	}
	return &TimeSeries{id: ts.id, points: ts.points[from:to]}, nil
}

// Window returns the sub-series with dates in [start, end].
func (ts *TimeSeries) Window(start, end time.Time) (*TimeSeries, error) {
	from := ts.SearchDate(start)
	to := ts.SearchDate(end.Add(time.Nanosecond))
	return ts.Slice(from, to)
}

// WithValues returns a series with the same id and dates but new values.
// Used for fitted and counterfactual trajectories aligned to the original.
func (ts *TimeSeries) WithValues(values []float64) (*TimeSeries, error) {
	if len(values) != len(ts.points) {
		return nil, fmt.Errorf("value count %d does not match series length %d", len(values), len(ts.points))
	}
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Date: ts.points[i].Date, Value: v}
	}
	return &TimeSeries{id: ts.id, points: points}, nil
}
