package trendbreak

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/series"
)

// noisyTrend generates y = intercept + slope*x + N(0, sigma) with a fixed
// seed so runs are reproducible.
func noisyTrend(n int, intercept, slope, sigma float64, seed int64) (x, y []float64) {
	rng := rand.New(rand.NewSource(seed))
	x = make([]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
		y[i] = intercept + slope*x[i] + rng.NormFloat64()*sigma
	}
	return x, y
}

func TestFitRecoverCoefficients(t *testing.T) {
	x, y := noisyTrend(50, 100, 2.5, 0.1, 1)
	m, err := Fit(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(m.Slope-2.5) > 0.05 {
		t.Errorf("slope = %.4f, want 2.5", m.Slope)
	}
	if math.Abs(m.Intercept-100) > 1 {
		t.Errorf("intercept = %.4f, want 100", m.Intercept)
	}
}

func TestFitErrors(t *testing.T) {
	tests := []struct {
		name  string
		x, y  []float64
		check func(error) bool
	}{
		{
			name:  "too few points",
			x:     []float64{0, 1},
			y:     []float64{1, 2},
			check: core.IsInsufficientData,
		},
		{
			name:  "length mismatch",
			x:     []float64{0, 1, 2},
			y:     []float64{1, 2},
			check: core.IsSingularFit,
		},
		{
			name:  "zero variance in x",
			x:     []float64{3, 3, 3, 3},
			y:     []float64{1, 2, 3, 4},
			check: core.IsSingularFit,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Fit(tt.x, tt.y); !tt.check(err) {
				t.Errorf("Fit() error = %v, wrong type", err)
			}
		})
	}
}

func TestPredictionStdErrorExceedsResidualStd(t *testing.T) {
	x, y := noisyTrend(30, 10, 1, 3, 2)
	m, err := Fit(x, y)
	if err != nil {
		t.Fatal(err)
	}
	for _, xNew := range []float64{m.XMean, 0, 30, 100} {
		se := m.PredictionStdError(xNew)
		if se <= m.ResidualStd {
			t.Errorf("se_pred(%.1f) = %.6f not above residual std %.6f", xNew, se, m.ResidualStd)
		}
	}
	// se_pred grows with distance from the training mean.
	if m.PredictionStdError(100) <= m.PredictionStdError(30) {
		t.Error("se_pred does not grow with extrapolation distance")
	}
}

func TestScoreOnTrendPoint(t *testing.T) {
	x, y := noisyTrend(40, 50, 1.5, 2, 3)
	m, err := Fit(x, y)
	if err != nil {
		t.Fatal(err)
	}
	xNew := 40.0
	res, err := BreakTest{}.Score(m, xNew, m.Predict(xNew))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Z) > 1e-10 {
		t.Errorf("on-trend point scored z = %.6f, want ~0", res.Z)
	}
	if res.IsBreak {
		t.Error("on-trend point classified as break")
	}
	if res.PValue < 0.99 {
		t.Errorf("on-trend p-value = %.4f, want ~1", res.PValue)
	}
}

func TestScoreClassificationBoundary(t *testing.T) {
	x, y := noisyTrend(40, 50, 1.5, 2, 4)
	m, err := Fit(x, y)
	if err != nil {
		t.Fatal(err)
	}
	xNew := 40.0
	predicted := m.Predict(xNew)
	se := m.PredictionStdError(xNew)

	tests := []struct {
		name    string
		z       float64
		isBreak bool
	}{
		{"well within trend", 1.9, false},
		{"exactly at threshold", 2.0, false}, // strict inequality
		{"just above threshold", 2.01, true},
		{"clear break", 2.5, true},
		{"negative break", -2.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := BreakTest{}.Score(m, xNew, predicted+tt.z*se)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(res.Z-tt.z) > 1e-9 {
				t.Errorf("z = %.6f, want %.2f", res.Z, tt.z)
			}
			if res.IsBreak != tt.isBreak {
				t.Errorf("IsBreak = %v, want %v", res.IsBreak, tt.isBreak)
			}
		})
	}
}

func TestScoreZMonotoneInResidual(t *testing.T) {
	x, y := noisyTrend(25, 0, 1, 1, 5)
	m, err := Fit(x, y)
	if err != nil {
		t.Fatal(err)
	}
	xNew := 25.0
	predicted := m.Predict(xNew)
	prev := 0.0
	for _, offset := range []float64{1, 2, 5, 10} {
		res, err := BreakTest{}.Score(m, xNew, predicted+offset)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(res.Z) <= prev {
			t.Errorf("|z| not increasing with residual: %.4f after %.4f", math.Abs(res.Z), prev)
		}
		prev = math.Abs(res.Z)
	}
}

func TestScoreRefusesDegenerateFit(t *testing.T) {
	// Exactly linear training data leaves a zero residual std; scoring must
	// fail loudly instead of returning z = 0.
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{10, 12, 14, 16, 18}
	m, err := Fit(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := (BreakTest{}).Score(m, 5, 25); !core.IsSingularFit(err) {
		t.Errorf("expected singular fit error, got %v", err)
	}
}

func annualSeries(t *testing.T, startYear int, values []float64) *series.TimeSeries {
	t.Helper()
	points := make([]series.Point, len(values))
	for i, v := range values {
		points[i] = series.Point{
			Date:  time.Date(startYear+i, 1, 1, 0, 0, 0, 0, time.UTC),
			Value: v,
		}
	}
	ts, err := series.New("test-series", points)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestChowTestDetectsSlopeChange(t *testing.T) {
	// Slope 1 for 10 years, slope 5 after. The restricted single-trend model
	// fits badly, so the F statistic should be large. Alternating residuals
	// keep the segment SSRs nonzero without randomness.
	values := make([]float64, 20)
	for i := range values {
		noise := 0.2
		if i%2 == 1 {
			noise = -0.2
		}
		if i < 10 {
			values[i] = 100 + float64(i) + noise
		} else {
			values[i] = 110 + 5*float64(i-10) + noise
		}
	}
	ts := annualSeries(t, 2000, values)

	res, err := ChowTest(ts, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsSignificant {
		t.Errorf("slope change not significant: F = %.2f, p = %.4f", res.FStatistic, res.PValue)
	}
	if res.PreN != 10 || res.PostN != 10 {
		t.Errorf("segment sizes %d/%d, want 10/10", res.PreN, res.PostN)
	}
}

func TestChowTestStableTrend(t *testing.T) {
	// One trend throughout, with the same alternating residual pattern in
	// both halves.
	values := make([]float64, 20)
	for i := range values {
		noise := 0.5
		if i%2 == 1 {
			noise = -0.5
		}
		values[i] = 100 + 2*float64(i) + noise
	}
	ts := annualSeries(t, 2000, values)

	res, err := ChowTest(ts, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsSignificant {
		t.Errorf("stable trend flagged as break: F = %.2f, p = %.4f", res.FStatistic, res.PValue)
	}
}

func TestChowTestShortSegments(t *testing.T) {
	ts := annualSeries(t, 2000, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	if _, err := ChowTest(ts, time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC)); !core.IsInsufficientData(err) {
		t.Errorf("expected insufficient data error, got %v", err)
	}
}

func TestPercentChangeAroundEvent(t *testing.T) {
	// 100 for five years, 120 from the event year on.
	values := []float64{100, 100, 100, 100, 100, 120, 120, 120, 120, 120}
	ts := annualSeries(t, 2005, values)
	event := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)

	res, err := PercentChangeAroundEvent(ts, event, 5)
	if err != nil {
		t.Fatal(err)
	}
	if res.PreMean != 100 || res.PostMean != 120 {
		t.Errorf("means %.1f/%.1f, want 100/120", res.PreMean, res.PostMean)
	}
	if math.Abs(res.PercentChange-20) > 1e-9 {
		t.Errorf("percent change = %.4f, want 20", res.PercentChange)
	}
	// The event year itself belongs to the post window.
	if res.PreN != 5 || res.PostN != 5 {
		t.Errorf("window sizes %d/%d, want 5/5", res.PreN, res.PostN)
	}
}

func TestPercentChangeZeroPreMean(t *testing.T) {
	values := []float64{-1, 1, -1, 1, 5, 5}
	ts := annualSeries(t, 2010, values)
	event := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := PercentChangeAroundEvent(ts, event, 4); !core.IsDegenerateInput(err) {
		t.Errorf("expected degenerate input error, got %v", err)
	}
}
