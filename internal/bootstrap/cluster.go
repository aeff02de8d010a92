// Package bootstrap estimates sampling variance for weighted statistics by
// resampling whole clusters, preserving within-cluster correlation that
// observation-level resampling would wash out.
package bootstrap

import (
	"fmt"
	"math/rand"
	"runtime"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/sample"
)

// Statistic evaluates a scalar statistic on a weighted sample.
type Statistic func(*sample.Collection) (float64, error)

// Config controls one bootstrap run.
type Config struct {
	Replicates int     // default 500
	Seed       int64   // root seed; results are reproducible for a fixed seed
	Confidence float64 // default 0.95
	Workers    int     // default GOMAXPROCS; replicates are independent
}

// Distribution is the ordered sequence of replicate statistic values from a
// single run. Replicate r always occupies index r, so the distribution is
// identical whether replicates ran serially or across workers.
type Distribution struct {
	Replicates []float64
}

// Interval summarizes a bootstrap distribution as a percentile confidence
// interval.
type Interval struct {
	Mean       float64 `json:"mean"`
	StdError   float64 `json:"std_error"`
	Lower      float64 `json:"ci_lower"`
	Upper      float64 `json:"ci_upper"`
	Confidence float64 `json:"confidence"`
	Replicates int     `json:"replicates"`
}

// Run draws cfg.Replicates cluster resamples and evaluates stat on each.
//
// The distinct-cluster universe is enumerated once and every replicate draws
// |clusters| keys with replacement from that same universe; a drawn key
// contributes all of its member rows, so clusters are included whole or not
// at all. Replicate assembly concatenates precomputed row-index slices
// rather than filtering rows per draw.
func Run(c *sample.Collection, stat Statistic, cfg Config) (*Distribution, *Interval, error) {
	replicates := cfg.Replicates
	if replicates <= 0 {
		replicates = 500
	}
	confidence := cfg.Confidence
	if confidence == 0 {
		confidence = 0.95
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, nil, fmt.Errorf("confidence %g outside (0, 1)", confidence)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	clusters := c.Clusters()
	if len(clusters) == 0 {
		return nil, nil, core.NewInsufficientDataError("cluster bootstrap", 0, 1)
	}
	index := c.ClusterIndex()

	// Upper bound on replicate size for slice preallocation.
	maxClusterSize := 0
	for _, rows := range index {
		if len(rows) > maxClusterSize {
			maxClusterSize = len(rows)
		}
	}

	values := make([]float64, replicates)
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for r := 0; r < replicates; r++ {
		r := r
		g.Go(func() error {
			// Each replicate gets its own source derived from the root
			// seed, so the draw sequence is independent of scheduling.
			rng := rand.New(rand.NewSource(cfg.Seed + int64(r)))

			indices := make([]int, 0, len(clusters)*maxClusterSize)
			for d := 0; d < len(clusters); d++ {
				key := clusters[rng.Intn(len(clusters))]
				indices = append(indices, index[key]...)
			}

			replicate, err := c.Subset(indices)
			if err != nil {
				return fmt.Errorf("replicate %d: %w", r, err)
			}
			v, err := stat(replicate)
			if err != nil {
				return fmt.Errorf("replicate %d: %w", r, err)
			}
			values[r] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	dist := &Distribution{Replicates: values}
	interval, err := dist.Interval(confidence)
	if err != nil {
		return nil, nil, err
	}
	return dist, interval, nil
}

// Interval derives the percentile confidence interval from the replicate
// distribution.
func (d *Distribution) Interval(confidence float64) (*Interval, error) {
	mean, err := stats.Mean(d.Replicates)
	if err != nil {
		return nil, fmt.Errorf("bootstrap mean: %w", err)
	}
	stdErr, err := stats.StandardDeviation(d.Replicates)
	if err != nil {
		return nil, fmt.Errorf("bootstrap std: %w", err)
	}
	alpha := (1 - confidence) / 2 * 100
	lower, err := stats.Percentile(d.Replicates, alpha)
	if err != nil {
		return nil, fmt.Errorf("bootstrap lower percentile: %w", err)
	}
	upper, err := stats.Percentile(d.Replicates, 100-alpha)
	if err != nil {
		return nil, fmt.Errorf("bootstrap upper percentile: %w", err)
	}
	return &Interval{
		Mean:       mean,
		StdError:   stdErr,
		Lower:      lower,
		Upper:      upper,
		Confidence: confidence,
		Replicates: len(d.Replicates),
	}, nil
}

// Width returns the interval's upper-lower span.
func (iv *Interval) Width() float64 { return iv.Upper - iv.Lower }
