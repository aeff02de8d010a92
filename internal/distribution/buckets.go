package distribution

import (
	"fmt"
	"math"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
)

// QuintileBoundaries is the standard five-bucket partition.
var QuintileBoundaries = []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0}

// BucketSummary holds weighted aggregates for one bucket of the ranked
// distribution.
type BucketSummary struct {
	Bucket          int     `json:"bucket"`
	Records         int     `json:"records"`
	Population      float64 `json:"population"`       // total weight
	PopulationShare float64 `json:"population_share"` // fraction of total weight
	ValueTotal      float64 `json:"value_total"`      // weighted value sum
	ValueShare      float64 `json:"value_share"`      // percent of total value
	MeanValue       float64 `json:"mean_value"`       // weighted mean
}

// BucketSummaries aggregates the ranked sample per bucket. Value shares over
// the full partition sum to 100% because every observation belongs to exactly
// one bucket.
func (r *Ranked) BucketSummaries(boundaries []float64) ([]BucketSummary, error) {
	membership, err := r.Membership(boundaries)
	if err != nil {
		return nil, err
	}
	if r.totalValue <= 0 {
		return nil, core.NewDegenerateInputError("value", r.totalValue)
	}

	summaries := make([]BucketSummary, len(boundaries)-1)
	for i := range summaries {
		summaries[i].Bucket = i
	}
	for i, o := range r.obs {
		s := &summaries[membership[i]]
		s.Records++
		s.Population += o.Weight
		s.ValueTotal += o.Value * o.Weight
	}
	for i := range summaries {
		s := &summaries[i]
		s.PopulationShare = s.Population / r.totalWeight
		s.ValueShare = s.ValueTotal / r.totalValue * 100
		if s.Population > 0 {
			s.MeanValue = s.ValueTotal / s.Population
		}
	}
	return summaries, nil
}

// Convention names the population-ranking scheme a partial-bucket factor was
// calibrated against. A factor calibrated for one convention captures the
// wrong population fraction under the other, so the two are never
// interchangeable.
type Convention string

const (
	// ConventionPersonEqual ranks persons into equal-population buckets;
	// e.g. bottom 50% = Q1 + Q2 + 0.5 x Q3 on person-equal quintiles.
	ConventionPersonEqual Convention = "person-equal"
	// ConventionConsumerUnit ranks by consumer-unit income, giving buckets
	// unequal person shares; e.g. bottom 50% = Q1 + Q2 + Q3 + 0.414 x Q4 on
	// CEX consumer-unit quintiles.
	ConventionConsumerUnit Convention = "consumer-unit"
)

// PartialBucket describes a fractional-bucket roll-up such as "full Q1-Q2
// plus half of Q3". The factor is always an explicit input, never a
// hard-coded constant at a call site.
type PartialBucket struct {
	Convention     Convention `json:"convention"`
	TargetFraction float64    `json:"target_fraction"` // population fraction the roll-up should cover
	FullBuckets    int        `json:"full_buckets"`    // buckets included whole, counting from the bottom
	Fraction       float64    `json:"fraction"`        // factor applied to the next bucket
}

// Validate checks the roll-up against the actual population shares of the
// buckets: the covered population mass must match TargetFraction within tol.
// This is the convention-mismatch guard; applying a consumer-unit factor to
// person-equal buckets (or vice versa) fails here instead of silently
// capturing the wrong population.
func (pb PartialBucket) Validate(populationShares []float64, tol float64) error {
	if pb.Convention != ConventionPersonEqual && pb.Convention != ConventionConsumerUnit {
		return fmt.Errorf("unknown convention %q", pb.Convention)
	}
	if pb.Fraction < 0 || pb.Fraction > 1 {
		return fmt.Errorf("fraction %g outside [0, 1]", pb.Fraction)
	}
	if pb.FullBuckets < 0 || pb.FullBuckets >= len(populationShares) {
		return fmt.Errorf("full bucket count %d outside partition of %d buckets", pb.FullBuckets, len(populationShares))
	}
	covered := 0.0
	for i := 0; i < pb.FullBuckets; i++ {
		covered += populationShares[i]
	}
	covered += pb.Fraction * populationShares[pb.FullBuckets]
	if math.Abs(covered-pb.TargetFraction) > tol {
		return fmt.Errorf("%w: %s roll-up covers %.4f of population, target %.4f",
			core.ErrConventionMismatch, pb.Convention, covered, pb.TargetFraction)
	}
	return nil
}

// Aggregate rolls up a per-bucket quantity (value totals, burdens, or
// populations) under the partial-bucket rule, validating the convention
// against the supplied population shares first.
func (pb PartialBucket) Aggregate(perBucket, populationShares []float64, tol float64) (float64, error) {
	if len(perBucket) != len(populationShares) {
		return 0, fmt.Errorf("per-bucket length %d does not match population shares length %d",
			len(perBucket), len(populationShares))
	}
	if err := pb.Validate(populationShares, tol); err != nil {
		return 0, err
	}
	total := 0.0
	for i := 0; i < pb.FullBuckets; i++ {
		total += perBucket[i]
	}
	total += pb.Fraction * perBucket[pb.FullBuckets]
	return total, nil
}
