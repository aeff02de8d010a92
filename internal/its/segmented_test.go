package its

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/series"
)

func monthlySeries(t *testing.T, start time.Time, values []float64) *series.TimeSeries {
	t.Helper()
	points := make([]series.Point, len(values))
	for i, v := range values {
		points[i] = series.Point{Date: start.AddDate(0, i, 0), Value: v}
	}
	ts, err := series.New("its-test", points)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

// interventionScenario builds 40 monthly points with a +20 level shift and a
// -2.0 slope change at month 20, plus small seeded noise.
func interventionScenario(t *testing.T, sigma float64) (*series.TimeSeries, time.Time) {
	t.Helper()
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(6))
	values := make([]float64, 40)
	for i := range values {
		values[i] = 50 + 0.5*float64(i)
		if i >= 20 {
			values[i] += 20 - 2.0*float64(i-20)
		}
		values[i] += rng.NormFloat64() * sigma
	}
	return monthlySeries(t, start, values), start.AddDate(0, 20, 0)
}

func TestFitRecoversInterventionEffects(t *testing.T) {
	ts, intervention := interventionScenario(t, 0.5)
	res, err := Fit(ts, Config{InterventionDate: intervention})
	if err != nil {
		t.Fatal(err)
	}

	if effect := res.InterventionEffect(); effect < 10 || effect > 30 {
		t.Errorf("level shift = %.2f, want in (10, 30)", effect)
	}
	if res.PValues[CoefIntervention] >= 0.05 {
		t.Errorf("level shift p = %.4f, want < 0.05", res.PValues[CoefIntervention])
	}
	if change := res.TrendChange(); change >= -1.0 {
		t.Errorf("slope change = %.2f, want < -1.0", change)
	}
	if math.Abs(res.Coefficients[CoefTime]-0.5) > 0.2 {
		t.Errorf("baseline slope = %.3f, want ~0.5", res.Coefficients[CoefTime])
	}
	if res.RSquared < 0.9 {
		t.Errorf("r-squared = %.3f, want > 0.9", res.RSquared)
	}
	if res.PreN != 20 || res.PostN != 20 {
		t.Errorf("windows %d/%d, want 20/20", res.PreN, res.PostN)
	}
}

func TestFitLagTruncation(t *testing.T) {
	ts, intervention := interventionScenario(t, 0.5)
	res, err := Fit(ts, Config{InterventionDate: intervention})
	if err != nil {
		t.Fatal(err)
	}
	// Schwert rule at n=40: floor(0.75 * 40^(1/3)) = 2.
	if res.LagTruncation != 2 {
		t.Errorf("lag truncation = %d, want 2", res.LagTruncation)
	}
}

func TestFitCounterfactualExtendsPreTrend(t *testing.T) {
	ts, intervention := interventionScenario(t, 0.1)
	res, err := Fit(ts, Config{InterventionDate: intervention})
	if err != nil {
		t.Fatal(err)
	}
	if res.Counterfactual.Len() != ts.Len() {
		t.Fatalf("counterfactual length %d, want %d", res.Counterfactual.Len(), ts.Len())
	}
	// Pre-intervention, fitted and counterfactual coincide.
	for i := 0; i < 20; i++ {
		f := res.Fitted.At(i).Value
		c := res.Counterfactual.At(i).Value
		if math.Abs(f-c) > 1e-9 {
			t.Fatalf("fitted and counterfactual diverge pre-intervention at %d: %.6f vs %.6f", i, f, c)
		}
	}
	// Post-intervention, the counterfactual stays on the baseline trend, so
	// the observed values sit well above it right after the level shift.
	gap := ts.At(20).Value - res.Counterfactual.At(20).Value
	if gap < 10 {
		t.Errorf("post-intervention gap = %.2f, want > 10", gap)
	}
}

func TestFitWindowErrors(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ts := monthlySeries(t, start, values)

	tests := []struct {
		name         string
		intervention time.Time
		cfg          Config
	}{
		{
			name:         "intervention too early",
			intervention: start.AddDate(0, 1, 0),
		},
		{
			name:         "intervention too late",
			intervention: start.AddDate(0, 9, 0),
		},
		{
			name:         "caller minimum not met",
			intervention: start.AddDate(0, 4, 0),
			cfg:          Config{MinPre: 6},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.InterventionDate = tt.intervention
			if _, err := Fit(ts, cfg); !core.IsInsufficientData(err) {
				t.Errorf("expected insufficient data error, got %v", err)
			}
		})
	}
}

func TestFitExactSegments(t *testing.T) {
	// Noise-free data: the regression reproduces the generating coefficients
	// almost exactly.
	start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	values := make([]float64, 24)
	for i := range values {
		values[i] = 100 + 1.5*float64(i)
		if i >= 12 {
			values[i] += -8 + 0.75*float64(i-12)
		}
	}
	ts := monthlySeries(t, start, values)

	res, err := Fit(ts, Config{InterventionDate: start.AddDate(0, 12, 0)})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{
		CoefConst:        100,
		CoefTime:         1.5,
		CoefIntervention: -8,
		CoefTimeAfter:    0.75,
	}
	for name, w := range want {
		if got := res.Coefficients[name]; math.Abs(got-w) > 1e-6 {
			t.Errorf("%s = %.8f, want %g", name, got, w)
		}
	}
	if res.RSquared < 0.999 {
		t.Errorf("r-squared = %.6f, want ~1", res.RSquared)
	}
}
