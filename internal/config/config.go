// Package config defines the validated study configuration. Every
// recognized key is enumerated here; unknown keys are rejected at load time
// rather than silently ignored.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/andsalazar/FederalBudgetAnalysis/internal/distribution"
)

// StudyParams holds the numeric parameters of one policy-impact study.
type StudyParams struct {
	// ConfidenceLevel for bootstrap intervals; default 0.95.
	ConfidenceLevel float64 `json:"confidence_level"`
	// Sigma is the CRRA coefficient; default 2.
	Sigma float64 `json:"sigma"`
	// ReferenceIncome anchors the welfare weights (e.g. the median
	// stratum's mean income).
	ReferenceIncome float64 `json:"reference_income"`
	// BreakThreshold for |z| classification; default 2.0.
	BreakThreshold float64 `json:"break_threshold"`
	// BootstrapReplicates; default 500.
	BootstrapReplicates int `json:"bootstrap_replicates"`
	// Seed makes bootstrap draws reproducible.
	Seed int64 `json:"seed"`
	// MinTrainingWindow is the minimum training length for trend fits.
	MinTrainingWindow int `json:"min_training_window"`
	// MinPre and MinPost are the segmented-regression window minimums.
	MinPre  int `json:"min_pre"`
	MinPost int `json:"min_post"`
}

// StratumShare is one stratum's externally supplied allocation share.
type StratumShare struct {
	Stratum    string  `json:"stratum"`
	Share      float64 `json:"share"`
	Population float64 `json:"population"`
	MeanIncome float64 `json:"mean_income"`
}

// ExpenditureCategory is one consumption category of the incidence model,
// with per-bucket annual spending.
type ExpenditureCategory struct {
	Name             string    `json:"name"`
	SpendingPerUnit  []float64 `json:"spending_per_unit"`
	PriceChangePct   float64   `json:"price_change_pct"`
	EffectiveRatePct float64   `json:"effective_rate_pct"`
}

// Incidence configures the optional consumption-incidence stage. Bucket
// counts must agree across every slice.
type Incidence struct {
	Categories       []ExpenditureCategory      `json:"categories"`
	IncomePerBucket  []float64                  `json:"income_per_bucket"`
	UnitCounts       []float64                  `json:"unit_counts"`
	PopulationShares []float64                  `json:"population_shares"`
	BottomHalf       distribution.PartialBucket `json:"bottom_half"`
}

// Study is the full configuration surface: numeric parameters, allocation
// shares, and the partial-bucket roll-up rules with their conventions.
type Study struct {
	Params           StudyParams                `json:"params"`
	AllocationShares []StratumShare             `json:"allocation_shares"`
	BottomHalf       distribution.PartialBucket `json:"bottom_half"`
	Boundaries       []float64                  `json:"boundaries,omitempty"`
	Incidence        *Incidence                 `json:"incidence,omitempty"`
}

// shareTolerance bounds how far allocation shares may drift from summing
// to 1.
const shareTolerance = 1e-6

// Load reads and validates a study configuration from a JSON file.
func Load(path string) (*Study, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open study config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a study configuration, rejecting unknown keys.
func Parse(r io.Reader) (*Study, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var s Study
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode study config: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Study) applyDefaults() {
	if s.Params.ConfidenceLevel == 0 {
		s.Params.ConfidenceLevel = 0.95
	}
	if s.Params.Sigma == 0 {
		s.Params.Sigma = 2
	}
	if s.Params.BreakThreshold == 0 {
		s.Params.BreakThreshold = 2.0
	}
	if s.Params.BootstrapReplicates == 0 {
		s.Params.BootstrapReplicates = 500
	}
	if s.Params.MinTrainingWindow == 0 {
		s.Params.MinTrainingWindow = 3
	}
	if len(s.Boundaries) == 0 {
		s.Boundaries = distribution.QuintileBoundaries
	}
}

// Validate enforces the numeric and semantic constraints of every field.
func (s *Study) Validate() error {
	p := s.Params
	if p.ConfidenceLevel <= 0 || p.ConfidenceLevel >= 1 {
		return fmt.Errorf("confidence_level %g outside (0, 1)", p.ConfidenceLevel)
	}
	if p.Sigma < 0 {
		return fmt.Errorf("sigma %g must be non-negative", p.Sigma)
	}
	if p.BreakThreshold <= 0 {
		return fmt.Errorf("break_threshold %g must be positive", p.BreakThreshold)
	}
	if p.BootstrapReplicates < 1 {
		return fmt.Errorf("bootstrap_replicates %d must be positive", p.BootstrapReplicates)
	}
	if err := distribution.ValidateBoundaries(s.Boundaries); err != nil {
		return fmt.Errorf("boundaries: %w", err)
	}

	if len(s.AllocationShares) > 0 {
		sum := 0.0
		for i, a := range s.AllocationShares {
			if a.Stratum == "" {
				return fmt.Errorf("allocation_shares[%d]: stratum name required", i)
			}
			if a.Share < 0 || a.Share > 1 {
				return fmt.Errorf("allocation_shares[%d]: share %g outside [0, 1]", i, a.Share)
			}
			sum += a.Share
		}
		if math.Abs(sum-1) > shareTolerance {
			return fmt.Errorf("allocation shares sum to %.8f, want 1", sum)
		}
	}

	if s.Incidence != nil {
		if err := s.Incidence.validate(); err != nil {
			return fmt.Errorf("incidence: %w", err)
		}
	}
	return nil
}

func (inc *Incidence) validate() error {
	if len(inc.Categories) == 0 {
		return fmt.Errorf("at least one category required")
	}
	nBuckets := len(inc.IncomePerBucket)
	if nBuckets == 0 {
		return fmt.Errorf("income_per_bucket required")
	}
	for i, income := range inc.IncomePerBucket {
		if income <= 0 {
			return fmt.Errorf("income_per_bucket[%d] %g must be positive", i, income)
		}
	}
	if len(inc.UnitCounts) != nBuckets {
		return fmt.Errorf("unit_counts has %d buckets, want %d", len(inc.UnitCounts), nBuckets)
	}
	if len(inc.PopulationShares) != nBuckets {
		return fmt.Errorf("population_shares has %d buckets, want %d", len(inc.PopulationShares), nBuckets)
	}
	for _, c := range inc.Categories {
		if len(c.SpendingPerUnit) != nBuckets {
			return fmt.Errorf("category %s has %d buckets, want %d", c.Name, len(c.SpendingPerUnit), nBuckets)
		}
	}
	return nil
}

// DatabaseURL returns the persistence DSN from the environment; the core
// itself never touches the environment, only this boundary does.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// ServerAddr returns the HTTP listen address, defaulting to :8080.
func ServerAddr() string {
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}
