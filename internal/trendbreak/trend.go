// Package trendbreak tests whether a held-out observation departs from a
// linear trend fitted on a training window, using the out-of-sample
// prediction-interval standard error.
package trendbreak

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
)

// TrendModel is a fitted linear trend plus the sufficient statistics needed
// to score held-out points. Created per test invocation; not persisted.
type TrendModel struct {
	Slope          float64 `json:"slope"`
	Intercept      float64 `json:"intercept"`
	ResidualStd    float64 `json:"residual_std"` // ddof=2: slope and intercept are estimated
	N              int     `json:"n"`
	XMean          float64 `json:"x_mean"`
	SumSqDeviation float64 `json:"sum_sq_deviation"` // sum of (x_i - x_mean)^2
}

// Fit estimates value = intercept + slope*x by ordinary least squares.
// Fewer than 3 points leaves no residual degrees of freedom; a single
// distinct x value leaves the slope unidentified.
func Fit(x, y []float64) (*TrendModel, error) {
	n := len(x)
	if len(y) != n {
		return nil, core.NewSingularFitError("x and y lengths differ")
	}
	if n < 3 {
		return nil, core.NewInsufficientDataError("trend fit", n, 3)
	}

	xMean := 0.0
	yMean := 0.0
	for i := 0; i < n; i++ {
		xMean += x[i]
		yMean += y[i]
	}
	xMean /= float64(n)
	yMean /= float64(n)

	ssx := 0.0
	sxy := 0.0
	for i := 0; i < n; i++ {
		dx := x[i] - xMean
		ssx += dx * dx
		sxy += dx * (y[i] - yMean)
	}
	if ssx == 0 {
		return nil, core.NewSingularFitError("zero variance in x")
	}

	slope := sxy / ssx
	intercept := yMean - slope*xMean

	sse := 0.0
	for i := 0; i < n; i++ {
		resid := y[i] - (intercept + slope*x[i])
		sse += resid * resid
	}
	residStd := math.Sqrt(sse / float64(n-2))

	return &TrendModel{
		Slope:          slope,
		Intercept:      intercept,
		ResidualStd:    residStd,
		N:              n,
		XMean:          xMean,
		SumSqDeviation: ssx,
	}, nil
}

// Predict extrapolates the fitted trend to x.
func (m *TrendModel) Predict(x float64) float64 {
	return m.Intercept + m.Slope*x
}

// PredictionStdError returns the out-of-sample standard error
//
//	se_pred = s * sqrt(1 + 1/n + (x - x_mean)^2 / ss_x)
//
// The 1 and 1/n terms account for the new observation's own noise and the
// uncertainty of the fitted mean; dropping them understates uncertainty.
// se_pred therefore strictly exceeds the training residual std.
func (m *TrendModel) PredictionStdError(x float64) float64 {
	leverage := (x - m.XMean) * (x - m.XMean) / m.SumSqDeviation
	return m.ResidualStd * math.Sqrt(1+1/float64(m.N)+leverage)
}

// BreakResult scores one held-out point against the trained trend.
type BreakResult struct {
	Predicted float64 `json:"predicted"`
	Actual    float64 `json:"actual"`
	Residual  float64 `json:"residual"`
	StdError  float64 `json:"std_error"` // out-of-sample prediction SE
	Z         float64 `json:"z"`
	PValue    float64 `json:"p_value"` // two-sided, Student's t with n-2 df
	IsBreak   bool    `json:"is_break"`
}

// BreakTest classifies held-out deviations. Threshold defaults to 2.0 via
// DefaultThreshold; classification is strict: |z| exactly at the threshold
// is "within trend".
type BreakTest struct {
	Threshold float64
}

// DefaultThreshold is the standard two-sigma break cutoff.
const DefaultThreshold = 2.0

// Score evaluates the held-out point (x, y). A degenerate residual std with
// zero spread means the training window was exactly linear; the deviation is
// then either exactly zero or infinitely surprising, and we refuse to score
// it rather than return a silent z = 0.
func (bt BreakTest) Score(m *TrendModel, x, y float64) (*BreakResult, error) {
	threshold := bt.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	sePred := m.PredictionStdError(x)
	if sePred == 0 || math.IsNaN(sePred) {
		return nil, core.NewSingularFitError("zero prediction standard error")
	}

	predicted := m.Predict(x)
	residual := y - predicted
	z := residual / sePred

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(m.N - 2)}
	pValue := 2 * (1 - tDist.CDF(math.Abs(z)))

	return &BreakResult{
		Predicted: predicted,
		Actual:    y,
		Residual:  residual,
		StdError:  sePred,
		Z:         z,
		PValue:    pValue,
		IsBreak:   math.Abs(z) > threshold,
	}, nil
}
