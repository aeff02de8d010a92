package distribution

import (
	"math"
	"math/rand"
	"testing"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/sample"
)

func mustCollection(t *testing.T, obs []sample.Observation) *sample.Collection {
	t.Helper()
	c, err := sample.New(obs)
	if err != nil {
		t.Fatalf("failed to build collection: %v", err)
	}
	return c
}

func randomSample(t *testing.T, n int, seed int64) *sample.Collection {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	obs := make([]sample.Observation, n)
	for i := range obs {
		obs[i] = sample.Observation{
			Value:  math.Exp(rng.NormFloat64()) * 40000,
			Weight: 0.5 + rng.Float64()*2,
		}
	}
	return mustCollection(t, obs)
}

func TestQuintileSharesSumTo100(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 17, 99} {
		ranked := Rank(randomSample(t, 500, seed))
		summaries, err := ranked.BucketSummaries(QuintileBoundaries)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		sum := 0.0
		for _, s := range summaries {
			sum += s.ValueShare
		}
		if math.Abs(sum-100) > 1e-6 {
			t.Errorf("seed %d: quintile shares sum to %.10f, want 100", seed, sum)
		}
	}
}

func TestRankOrderInvariance(t *testing.T) {
	base := randomSample(t, 200, 7)

	// Same observations, shuffled.
	shuffled := make([]sample.Observation, base.Len())
	copy(shuffled, base.Observations())
	rng := rand.New(rand.NewSource(11))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	g1, err := Rank(base).Gini()
	if err != nil {
		t.Fatal(err)
	}
	g2, err := Rank(mustCollection(t, shuffled)).Gini()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g1-g2) > 1e-12 {
		t.Errorf("gini depends on input order: %.15f vs %.15f", g1, g2)
	}

	s1, err := Rank(base).ShareBelow(0.5)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := Rank(mustCollection(t, shuffled)).ShareBelow(0.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s1-s2) > 1e-9 {
		t.Errorf("bottom-50 share depends on input order: %.12f vs %.12f", s1, s2)
	}
}

func TestGiniBounds(t *testing.T) {
	tests := []struct {
		name string
		obs  []sample.Observation
		want func(g float64) bool
	}{
		{
			name: "equal values score zero",
			obs: []sample.Observation{
				{Value: 1000, Weight: 1},
				{Value: 1000, Weight: 2.5},
				{Value: 1000, Weight: 0.7},
				{Value: 1000, Weight: 4},
			},
			want: func(g float64) bool { return math.Abs(g) < 1e-12 },
		},
		{
			name: "extreme concentration approaches one",
			obs: []sample.Observation{
				{Value: 0, Weight: 999},
				{Value: 1e9, Weight: 1},
			},
			want: func(g float64) bool { return g > 0.99 && g <= 1 },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Rank(mustCollection(t, tt.obs)).Gini()
			if err != nil {
				t.Fatal(err)
			}
			if !tt.want(g) {
				t.Errorf("gini = %.6f fails bound check", g)
			}
		})
	}

	for _, seed := range []int64{5, 6, 7} {
		g, err := Rank(randomSample(t, 300, seed)).Gini()
		if err != nil {
			t.Fatal(err)
		}
		if g < 0 || g > 1 {
			t.Errorf("seed %d: gini %.6f outside [0, 1]", seed, g)
		}
	}
}

func TestMembershipPartition(t *testing.T) {
	ranked := Rank(randomSample(t, 250, 13))
	membership, err := ranked.Membership(QuintileBoundaries)
	if err != nil {
		t.Fatal(err)
	}

	// No gaps, no double counting: buckets are non-decreasing along ranks
	// and every bucket index is in range.
	prev := 0
	for i, b := range membership {
		if b < prev {
			t.Fatalf("bucket decreased at rank %d: %d after %d", i, b, prev)
		}
		if b < 0 || b > 4 {
			t.Fatalf("bucket %d out of range at rank %d", b, i)
		}
		prev = b
	}

	// Upper-edge inclusive: a cumulative fraction sitting exactly on 0.2
	// belongs to the first bucket.
	exact := mustCollection(t, []sample.Observation{
		{Value: 1, Weight: 1},
		{Value: 2, Weight: 1},
		{Value: 3, Weight: 1},
		{Value: 4, Weight: 1},
		{Value: 5, Weight: 1},
	})
	m, err := Rank(exact).Membership(QuintileBoundaries)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 2, 3, 4}
	for i := range want {
		if m[i] != want[i] {
			t.Errorf("rank %d: bucket %d, want %d", i, m[i], want[i])
		}
	}
}

func TestShareDegenerateInput(t *testing.T) {
	allZero := mustCollection(t, []sample.Observation{
		{Value: 0, Weight: 1},
		{Value: 0, Weight: 1},
	})
	if _, err := Rank(allZero).ShareBelow(0.5); !core.IsDegenerateInput(err) {
		t.Errorf("expected degenerate input error, got %v", err)
	}
	if _, err := Rank(allZero).Gini(); !core.IsDegenerateInput(err) {
		t.Errorf("expected degenerate input error from gini, got %v", err)
	}
}

func TestValidateBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		boundaries []float64
		wantErr    bool
	}{
		{"quintiles", []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0}, false},
		{"deciles endpoints", []float64{0, 0.5, 1.0}, false},
		{"missing zero", []float64{0.1, 0.5, 1.0}, true},
		{"missing one", []float64{0, 0.5, 0.9}, true},
		{"not increasing", []float64{0, 0.5, 0.5, 1.0}, true},
		{"too short", []float64{0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBoundaries(tt.boundaries)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBoundaries(%v) error = %v, wantErr %v", tt.boundaries, err, tt.wantErr)
			}
		})
	}
}
