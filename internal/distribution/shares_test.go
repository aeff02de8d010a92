package distribution

import (
	"math"
	"testing"
)

func TestSharesPartition(t *testing.T) {
	for _, seed := range []int64{3, 31, 301} {
		report, err := Rank(randomSample(t, 1000, seed)).Shares()
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		// Bottom 50, middle 40 and top 10 partition the distribution.
		sum := report.Bottom50 + report.Middle40 + report.Top10
		if math.Abs(sum-100) > 1e-6 {
			t.Errorf("seed %d: bands sum to %.10f, want 100", seed, sum)
		}
		if report.Top1 > report.Top10 {
			t.Errorf("seed %d: top 1%% share %.4f exceeds top 10%% share %.4f",
				seed, report.Top1, report.Top10)
		}
		if report.Bottom50 < 0 || report.Bottom50 > 100 {
			t.Errorf("seed %d: bottom 50%% share %.4f outside [0, 100]", seed, report.Bottom50)
		}
	}
}
