// Package welfare allocates aggregate dollar impacts across population
// strata with externally supplied shares and reweights them under CRRA
// utility for welfare-equivalent comparisons. The allocation shares are
// configuration, not estimates; no causal attribution happens here.
package welfare

import (
	"math"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/distribution"
)

// Stratum is one slice of the population with an externally supplied
// allocation share of the aggregate impact.
type Stratum struct {
	ID         core.StratumID `json:"stratum_id"`
	Population float64        `json:"population"`
	MeanIncome float64        `json:"mean_income"`
	Share      float64        `json:"share"` // fraction of the aggregate impact, a fixed parameter
}

// Params configures the welfare reweighting.
type Params struct {
	// Sigma is the coefficient of relative risk aversion. Zero means the
	// public-finance default of 2.
	Sigma float64
	// ReferenceIncome is the fixed anchor (e.g. the median stratum's mean
	// income); it is supplied once, never recomputed per call.
	ReferenceIncome float64
}

// DefaultSigma is the standard CRRA coefficient in the public-finance
// literature.
const DefaultSigma = 2.0

// AttributionResult is the per-stratum burden estimate.
type AttributionResult struct {
	StratumID               core.StratumID `json:"stratum_id"`
	DollarImpact            float64        `json:"dollar_impact"` // billions, this stratum's slice of the aggregate
	Population              float64        `json:"population"`
	PerCapitaImpact         float64        `json:"per_capita_impact"`
	WelfareWeight           float64        `json:"welfare_weight"`
	WelfareEquivalentImpact float64        `json:"welfare_equivalent_impact"`
	IncomePctImpact         float64        `json:"income_pct_impact"`
}

// StratumError pairs a failed stratum with its reason.
type StratumError struct {
	StratumID core.StratumID
	Err       error
}

func (e StratumError) Error() string { return e.StratumID.String() + ": " + e.Err.Error() }
func (e StratumError) Unwrap() error { return e.Err }

// Attribute distributes aggregateImpact (in billions of dollars) across the
// strata and computes CRRA welfare-equivalent per-capita impacts.
//
// A stratum with non-positive population or income fails on its own; the
// remaining strata still produce results. Callers receive the partial
// results plus per-stratum error reasons.
func Attribute(aggregateImpact float64, strata []Stratum, p Params) ([]AttributionResult, []StratumError) {
	sigma := p.Sigma
	if sigma == 0 {
		sigma = DefaultSigma
	}

	var results []AttributionResult
	var failures []StratumError
	for _, s := range strata {
		if s.Population <= 0 {
			failures = append(failures, StratumError{s.ID, core.NewDegenerateInputError("population", s.Population)})
			continue
		}
		if s.MeanIncome <= 0 {
			failures = append(failures, StratumError{s.ID, core.NewDegenerateInputError("income", s.MeanIncome)})
			continue
		}

		dollarImpact := aggregateImpact * s.Share
		perCapita := dollarImpact * 1e9 / s.Population
		weight := math.Pow(p.ReferenceIncome/s.MeanIncome, sigma)

		results = append(results, AttributionResult{
			StratumID:               s.ID,
			DollarImpact:            dollarImpact,
			Population:              s.Population,
			PerCapitaImpact:         perCapita,
			WelfareWeight:           weight,
			WelfareEquivalentImpact: perCapita * weight,
			IncomePctImpact:         math.Abs(perCapita) / s.MeanIncome * 100,
		})
	}
	return results, failures
}

// RollUp aggregates a per-stratum quantity (welfare-equivalent impacts,
// dollar impacts, populations) across a fractional band of strata, e.g. the
// bottom half of the distribution. It reuses the distribution package's
// partial-bucket rule: the factor and its ranking convention are explicit,
// and the covered population mass is validated against the target fraction.
func RollUp(results []AttributionResult, quantity func(AttributionResult) float64, pb distribution.PartialBucket, tol float64) (float64, error) {
	totalPop := 0.0
	for _, r := range results {
		totalPop += r.Population
	}
	if totalPop <= 0 {
		return 0, core.NewDegenerateInputError("population", totalPop)
	}

	perBucket := make([]float64, len(results))
	popShares := make([]float64, len(results))
	for i, r := range results {
		perBucket[i] = quantity(r)
		popShares[i] = r.Population / totalPop
	}
	return pb.Aggregate(perBucket, popShares, tol)
}
