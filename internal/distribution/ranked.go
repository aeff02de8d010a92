// Package distribution computes weighted distributional statistics: quantile
// ranks, bucket membership, income shares, and the Gini coefficient. All
// functions are pure over their inputs.
package distribution

import (
	"fmt"
	"sort"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/sample"
)

// Ranked is a weighted sample sorted ascending by value, with the cumulative
// weight fraction at each rank. The sort is stable, so ties keep their input
// order and aggregate shares do not depend on how ties are broken.
type Ranked struct {
	obs         []sample.Observation
	cumFraction []float64
	totalWeight float64
	totalValue  float64
}

// Rank sorts the sample by value and computes cumulative weight fractions.
func Rank(c *sample.Collection) *Ranked {
	obs := make([]sample.Observation, c.Len())
	copy(obs, c.Observations())
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Value < obs[j].Value })

	total := c.TotalWeight()
	cum := make([]float64, len(obs))
	running := 0.0
	value := 0.0
	for i, o := range obs {
		running += o.Weight
		cum[i] = running / total
		value += o.Value * o.Weight
	}

	return &Ranked{obs: obs, cumFraction: cum, totalWeight: total, totalValue: value}
}

// Len returns the number of observations.
func (r *Ranked) Len() int { return len(r.obs) }

// At returns the observation at sorted rank i.
func (r *Ranked) At(i int) sample.Observation { return r.obs[i] }

// CumulativeFraction returns the cumulative weight fraction at rank i.
func (r *Ranked) CumulativeFraction(i int) float64 { return r.cumFraction[i] }

// TotalWeight returns the total sample weight.
func (r *Ranked) TotalWeight() float64 { return r.totalWeight }

// TotalValue returns the weighted sum of values.
func (r *Ranked) TotalValue() float64 { return r.totalValue }

// ValidateBoundaries checks that fraction boundaries form a partition of
// [0, 1]: first 0, last 1, strictly increasing.
func ValidateBoundaries(boundaries []float64) error {
	if len(boundaries) < 2 {
		return fmt.Errorf("need at least 2 boundaries, got %d", len(boundaries))
	}
	if boundaries[0] != 0 {
		return fmt.Errorf("first boundary must be 0, got %g", boundaries[0])
	}
	if boundaries[len(boundaries)-1] != 1 {
		return fmt.Errorf("last boundary must be 1, got %g", boundaries[len(boundaries)-1])
	}
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] <= boundaries[i-1] {
			return fmt.Errorf("boundaries must be strictly increasing at index %d", i)
		}
	}
	return nil
}

// Membership assigns each ranked observation to a bucket by comparing its
// cumulative fraction to the boundaries. Buckets are inclusive on the upper
// edge: observation i lands in bucket b when
// boundaries[b] < cumFraction[i] <= boundaries[b+1], and the bottom bucket
// also takes fraction 0. Every observation lands in exactly one bucket.
func (r *Ranked) Membership(boundaries []float64) ([]int, error) {
	if err := ValidateBoundaries(boundaries); err != nil {
		return nil, err
	}
	buckets := make([]int, len(r.obs))
	b := 0
	last := len(boundaries) - 2
	for i, cum := range r.cumFraction {
		for b < last && cum > boundaries[b+1] {
			b++
		}
		buckets[i] = b
	}
	return buckets, nil
}

// ShareOf returns the percentage of total weighted value held by the ranked
// observations selected by include. Fails when the sample's total value is
// not positive, since a share is then undefined.
func (r *Ranked) ShareOf(include func(rank int, cumFraction float64) bool) (float64, error) {
	if r.totalValue <= 0 {
		return 0, core.NewDegenerateInputError("value", r.totalValue)
	}
	subset := 0.0
	for i, o := range r.obs {
		if include(i, r.cumFraction[i]) {
			subset += o.Value * o.Weight
		}
	}
	return subset / r.totalValue * 100, nil
}

// ShareBelow returns the value share of observations with cumulative weight
// fraction at or below the given fraction.
func (r *Ranked) ShareBelow(fraction float64) (float64, error) {
	return r.ShareOf(func(_ int, cum float64) bool { return cum <= fraction })
}

// ShareBetween returns the value share of observations with cumulative weight
// fraction in (lo, hi].
func (r *Ranked) ShareBetween(lo, hi float64) (float64, error) {
	return r.ShareOf(func(_ int, cum float64) bool { return cum > lo && cum <= hi })
}

// Gini computes the weighted Gini coefficient from the discretized Lorenz
// curve. The trapezoid accumulation is the finite-sample correction that
// makes a sample of equal values score exactly 0. For non-negative values
// the result is in [0, 1].
func (r *Ranked) Gini() (float64, error) {
	if r.totalValue <= 0 {
		return 0, core.NewDegenerateInputError("value", r.totalValue)
	}
	area := 0.0
	cumValue := 0.0
	prev := 0.0
	for _, o := range r.obs {
		cumValue += o.Value * o.Weight
		cur := cumValue / r.totalValue
		area += (prev + cur) / 2 * (o.Weight / r.totalWeight)
		prev = cur
	}
	return 1 - 2*area, nil
}
