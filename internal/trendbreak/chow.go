package trendbreak

import (
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/series"
)

// minChowSegment is the minimum observations required on each side of the
// candidate break.
const minChowSegment = 5

// ChowResult reports the F-test for a coefficient change at the break date.
type ChowResult struct {
	FStatistic    float64   `json:"f_statistic"`
	PValue        float64   `json:"p_value"`
	BreakDate     time.Time `json:"break_date"`
	PreN          int       `json:"pre_n"`
	PostN         int       `json:"post_n"`
	IsSignificant bool      `json:"is_significant"` // p < 0.05
}

// ChowTest tests whether the linear trend's coefficients differ before vs.
// at/after breakDate. The regression is value on time index with a constant,
// so k = 2 parameters per segment.
func ChowTest(ts *series.TimeSeries, breakDate time.Time) (*ChowResult, error) {
	n := ts.Len()
	split := ts.SearchDate(breakDate)
	if split < minChowSegment {
		return nil, core.NewInsufficientDataError("chow test pre-break segment", split, minChowSegment)
	}
	if n-split < minChowSegment {
		return nil, core.NewInsufficientDataError("chow test post-break segment", n-split, minChowSegment)
	}

	x := make([]float64, n)
	y := ts.Values()
	for i := range x {
		x[i] = float64(i)
	}

	ssrFull, err := trendSSR(x, y)
	if err != nil {
		return nil, err
	}
	ssrPre, err := trendSSR(x[:split], y[:split])
	if err != nil {
		return nil, err
	}
	ssrPost, err := trendSSR(x[split:], y[split:])
	if err != nil {
		return nil, err
	}

	const k = 2 // intercept + slope
	df2 := float64(n - 2*k)
	fStat := ((ssrFull - (ssrPre + ssrPost)) / k) / ((ssrPre + ssrPost) / df2)

	fDist := distuv.F{D1: k, D2: df2}
	pValue := 1 - fDist.CDF(fStat)

	return &ChowResult{
		FStatistic:    fStat,
		PValue:        pValue,
		BreakDate:     breakDate,
		PreN:          split,
		PostN:         n - split,
		IsSignificant: pValue < 0.05,
	}, nil
}

// trendSSR fits a linear trend and returns the sum of squared residuals.
func trendSSR(x, y []float64) (float64, error) {
	m, err := Fit(x, y)
	if err != nil {
		return 0, err
	}
	ssr := 0.0
	for i := range x {
		resid := y[i] - m.Predict(x[i])
		ssr += resid * resid
	}
	return ssr, nil
}
