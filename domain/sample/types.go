package sample

import (
	"fmt"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
)

// Observation is one sampled unit: a person, household, or time point with a
// survey/analytic weight. Cluster groups observations that are correlated
// (e.g. persons in the same household) and may be empty for independent units.
type Observation struct {
	Value   float64        `json:"value"`
	Weight  float64        `json:"weight"`
	Cluster core.ClusterID `json:"cluster,omitempty"`
}

// Collection is an immutable weighted sample. Build one with New, which
// validates weights; components treat the backing slice as read-only.
type Collection struct {
	obs         []Observation
	totalWeight float64
}

// New validates and wraps a weighted sample. Weights must be non-negative and
// the total weight must be positive.
func New(obs []Observation) (*Collection, error) {
	total := 0.0
	for i, o := range obs {
		if o.Weight < 0 {
			return nil, fmt.Errorf("%w: observation %d has negative weight %.6g", core.ErrDegenerateInput, i, o.Weight)
		}
		total += o.Weight
	}
	if total <= 0 {
		return nil, core.NewDegenerateInputError("weight", total)
	}
	return &Collection{obs: obs, totalWeight: total}, nil
}

// Len returns the number of observations.
func (c *Collection) Len() int { return len(c.obs) }

// TotalWeight returns the sum of all weights.
func (c *Collection) TotalWeight() float64 { return c.totalWeight }

// At returns the observation at index i.
func (c *Collection) At(i int) Observation { return c.obs[i] }

// Observations returns the backing slice. Callers must not mutate it.
func (c *Collection) Observations() []Observation { return c.obs }

// Clusters returns the distinct cluster keys in first-seen order.
func (c *Collection) Clusters() []core.ClusterID {
	seen := make(map[core.ClusterID]bool, len(c.obs))
	var keys []core.ClusterID
	for _, o := range c.obs {
		if !seen[o.Cluster] {
			seen[o.Cluster] = true
			keys = append(keys, o.Cluster)
		}
	}
	return keys
}

// ClusterIndex maps each cluster key to the row indices of its members.
// Built once per bootstrap run; read-only thereafter.
func (c *Collection) ClusterIndex() map[core.ClusterID][]int {
	index := make(map[core.ClusterID][]int)
	for i, o := range c.obs {
		index[o.Cluster] = append(index[o.Cluster], i)
	}
	return index
}

// Subset returns a new collection containing the rows at the given indices.
// Indices may repeat, as they do in bootstrap replicates.
func (c *Collection) Subset(indices []int) (*Collection, error) {
	obs := make([]Observation, len(indices))
	for i, idx := range indices {
		obs[i] = c.obs[idx]
	}
	return New(obs)
}

// TotalValue returns the weighted sum of values.
func (c *Collection) TotalValue() float64 {
	total := 0.0
	for _, o := range c.obs {
		total += o.Value * o.Weight
	}
	return total
}

// WeightedMean returns the weight-averaged value.
func (c *Collection) WeightedMean() float64 {
	return c.TotalValue() / c.totalWeight
}
