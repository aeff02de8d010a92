package welfare

import (
	"fmt"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/distribution"
)

// ExpenditureCategory is one consumption category with per-bucket annual
// spending and the tariff-attributable price change observed for it.
type ExpenditureCategory struct {
	Name             string    `json:"name"`
	SpendingPerUnit  []float64 `json:"spending_per_unit"`  // annual $ per consumer unit, per bucket
	PriceChangePct   float64   `json:"price_change_pct"`   // tariff-attributable price increase
	EffectiveRatePct float64   `json:"effective_rate_pct"` // import-weighted tariff rate, for revenue weighting
}

// CategoryBurden is the additional annual cost per consumer unit a single
// category imposes on each bucket.
type CategoryBurden struct {
	Name           string    `json:"name"`
	PriceChangePct float64   `json:"price_change_pct"`
	CostPerUnit    []float64 `json:"cost_per_unit"`
}

// BurdenResult is the consumption-incidence estimate across buckets.
type BurdenResult struct {
	Categories        []CategoryBurden `json:"categories"`
	TotalPerUnit      []float64        `json:"total_per_unit"`     // summed across categories
	PctOfIncome       []float64        `json:"pct_of_income"`      // burden as % of after-tax income
	RegressivityRatio float64          `json:"regressivity_ratio"` // bottom bucket's % / top bucket's %
}

// ComputeBurden estimates the per-bucket cost of observed price changes:
// spending x price-change fraction, summed over categories, then expressed
// against each bucket's after-tax income.
func ComputeBurden(categories []ExpenditureCategory, income []float64) (*BurdenResult, error) {
	nBuckets := len(income)
	if nBuckets == 0 {
		return nil, core.NewInsufficientDataError("incidence buckets", 0, 1)
	}
	for i, inc := range income {
		if inc <= 0 {
			return nil, fmt.Errorf("bucket %d: %w", i, core.NewDegenerateInputError("income", inc))
		}
	}

	total := make([]float64, nBuckets)
	var detail []CategoryBurden
	for _, cat := range categories {
		if len(cat.SpendingPerUnit) != nBuckets {
			return nil, fmt.Errorf("category %s has %d buckets, want %d", cat.Name, len(cat.SpendingPerUnit), nBuckets)
		}
		frac := cat.PriceChangePct / 100
		costs := make([]float64, nBuckets)
		for i, spend := range cat.SpendingPerUnit {
			costs[i] = spend * frac
			total[i] += costs[i]
		}
		detail = append(detail, CategoryBurden{Name: cat.Name, PriceChangePct: cat.PriceChangePct, CostPerUnit: costs})
	}

	pct := make([]float64, nBuckets)
	for i := range pct {
		pct[i] = total[i] / income[i] * 100
	}

	ratio := 0.0
	if pct[nBuckets-1] > 0 {
		ratio = pct[0] / pct[nBuckets-1]
	}

	return &BurdenResult{
		Categories:        detail,
		TotalPerUnit:      total,
		PctOfIncome:       pct,
		RegressivityRatio: ratio,
	}, nil
}

// RevenueShares computes each bucket's share of tariff-weighted spending:
// per-unit spending x effective tariff rate, scaled by the bucket's
// consumer-unit count. The result is the attribution key for splitting
// collected revenue across buckets.
func RevenueShares(categories []ExpenditureCategory, unitCounts []float64) ([]float64, error) {
	nBuckets := len(unitCounts)
	if nBuckets == 0 {
		return nil, core.NewInsufficientDataError("incidence buckets", 0, 1)
	}

	weighted := make([]float64, nBuckets)
	for _, cat := range categories {
		if len(cat.SpendingPerUnit) != nBuckets {
			return nil, fmt.Errorf("category %s has %d buckets, want %d", cat.Name, len(cat.SpendingPerUnit), nBuckets)
		}
		rate := cat.EffectiveRatePct / 100
		for i, spend := range cat.SpendingPerUnit {
			weighted[i] += spend * rate * unitCounts[i]
		}
	}

	grand := 0.0
	for _, w := range weighted {
		grand += w
	}
	if grand <= 0 {
		return nil, core.NewDegenerateInputError("tariff-weighted spending", grand)
	}
	for i := range weighted {
		weighted[i] /= grand
	}
	return weighted, nil
}

// BandRevenueShare rolls revenue shares up to a fractional band of buckets
// under an explicit partial-bucket rule. CEX-style consumer-unit buckets
// have unequal person shares, so the caller must supply the convention the
// factor was calibrated against along with the buckets' population shares.
func BandRevenueShare(shares, populationShares []float64, pb distribution.PartialBucket, tol float64) (float64, error) {
	return pb.Aggregate(shares, populationShares, tol)
}
