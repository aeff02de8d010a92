// Package deflate converts nominal dollar series to real terms using a price
// index anchored at a base year.
package deflate

import (
	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/series"
)

// Real converts the nominal series to base-year dollars. The base index is
// the mean of the price index over the base year; when the base year is
// absent from the index the latest available value anchors instead. Only
// dates present in both series survive the join.
func Real(nominal, priceIndex *series.TimeSeries, baseYear int) (*series.TimeSeries, error) {
	index := make(map[int64]float64, priceIndex.Len())
	baseSum, baseN := 0.0, 0
	var latest float64
	for _, p := range priceIndex.Points() {
		if p.Value <= 0 {
			return nil, core.NewDegenerateInputError("price index", p.Value)
		}
		index[p.Date.Unix()] = p.Value
		latest = p.Value
		if p.Date.Year() == baseYear {
			baseSum += p.Value
			baseN++
		}
	}
	if priceIndex.Len() == 0 {
		return nil, core.NewInsufficientDataError("price index", 0, 1)
	}

	base := latest
	if baseN > 0 {
		base = baseSum / float64(baseN)
	}

	var points []series.Point
	for _, p := range nominal.Points() {
		idx, ok := index[p.Date.Unix()]
		if !ok {
			continue
		}
		points = append(points, series.Point{Date: p.Date, Value: p.Value * base / idx})
	}
	if len(points) == 0 {
		return nil, core.NewInsufficientDataError("overlapping observations", 0, 1)
	}
	return series.New(nominal.ID(), points)
}
