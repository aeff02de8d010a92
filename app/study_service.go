// Package app orchestrates the analysis stages of one policy-impact study.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/sample"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/series"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/study"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/bootstrap"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/config"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/distribution"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/its"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/logging"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/trendbreak"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/welfare"
	"github.com/andsalazar/FederalBudgetAnalysis/ports"
)

// Section names produced by a study run.
const (
	SectionDistribution = "distribution"
	SectionTrendBreak   = "trend_break"
	SectionITS          = "interrupted_time_series"
	SectionBootstrap    = "bootstrap"
	SectionWelfare      = "welfare"
	SectionIncidence    = "incidence"
)

// StudyRequest carries the fully materialized inputs for one run. The
// service never reaches out to storage or the network mid-computation.
type StudyRequest struct {
	Study            *config.Study
	Sample           *sample.Collection // microdata for distribution, bootstrap, welfare
	Series           *series.TimeSeries // fiscal series for trend-break and ITS
	InterventionDate time.Time
	AggregateImpact  float64 // billions; sign carries direction
}

// StudyService runs the analysis stages and records per-stage partial
// failures: one stage failing never aborts its siblings.
type StudyService struct {
	logger *logging.Logger
	runs   ports.RunRepository // may be nil when persistence is not wired
}

// NewStudyService creates a study service.
func NewStudyService(logger *logging.Logger, runs ports.RunRepository) *StudyService {
	return &StudyService{logger: logger, runs: runs}
}

// Execute runs every stage and assembles the result record. The returned
// run always exists; inspect Section.Error for per-stage failures.
func (s *StudyService) Execute(ctx context.Context, req StudyRequest) (*study.Run, error) {
	if req.Study == nil {
		return nil, fmt.Errorf("study configuration required")
	}
	run := &study.Run{ID: core.NewRunID(), CreatedAt: time.Now().UTC()}

	s.distributionStage(req, run)
	s.trendBreakStage(req, run)
	s.itsStage(req, run)
	s.bootstrapStage(req, run)
	s.welfareStage(req, run)
	s.incidenceStage(req, run)

	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, run); err != nil {
			return run, fmt.Errorf("save run %s: %w", run.ID, err)
		}
	}
	s.logger.Info("study run %s complete: %d sections, %d failed", run.ID, len(run.Sections), run.Failed())
	return run, nil
}

func failSection(run *study.Run, name string, err error) {
	run.Sections = append(run.Sections, study.Section{Name: name, Error: err.Error()})
}

func (s *StudyService) distributionStage(req StudyRequest, run *study.Run) {
	if req.Sample == nil {
		failSection(run, SectionDistribution, fmt.Errorf("no sample supplied"))
		return
	}
	ranked := distribution.Rank(req.Sample)

	shares, err := ranked.Shares()
	if err != nil {
		failSection(run, SectionDistribution, err)
		return
	}
	gini, err := ranked.Gini()
	if err != nil {
		failSection(run, SectionDistribution, err)
		return
	}
	summaries, err := ranked.BucketSummaries(req.Study.Boundaries)
	if err != nil {
		failSection(run, SectionDistribution, err)
		return
	}

	run.Sections = append(run.Sections, study.Section{
		Name: SectionDistribution,
		Values: map[string]float64{
			"gini":            gini,
			"bottom_50_share": shares.Bottom50,
			"middle_40_share": shares.Middle40,
			"top_10_share":    shares.Top10,
			"top_1_share":     shares.Top1,
			"total_value":     shares.Total,
		},
	})

	table := study.Table{
		Name:    SectionDistribution,
		Columns: []string{"population", "population_share", "value_total", "value_share", "mean_value"},
	}
	for _, b := range summaries {
		table.Labels = append(table.Labels, fmt.Sprintf("Q%d", b.Bucket+1))
		table.Rows = append(table.Rows, []float64{b.Population, b.PopulationShare, b.ValueTotal, b.ValueShare, b.MeanValue})
	}
	run.Tables = append(run.Tables, table)
}

// trendBreakStage trains on all but the final observation and scores the
// held-out point against the extrapolated trend.
func (s *StudyService) trendBreakStage(req StudyRequest, run *study.Run) {
	if req.Series == nil {
		failSection(run, SectionTrendBreak, fmt.Errorf("no series supplied"))
		return
	}
	n := req.Series.Len()
	minTrain := req.Study.Params.MinTrainingWindow
	if n < minTrain+1 {
		failSection(run, SectionTrendBreak, core.NewInsufficientDataError("trend-break series", n, minTrain+1))
		return
	}

	x := make([]float64, n-1)
	y := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		x[i] = float64(i)
		y[i] = req.Series.At(i).Value
	}
	model, err := trendbreak.Fit(x, y)
	if err != nil {
		failSection(run, SectionTrendBreak, err)
		return
	}

	test := trendbreak.BreakTest{Threshold: req.Study.Params.BreakThreshold}
	result, err := test.Score(model, float64(n-1), req.Series.At(n-1).Value)
	if err != nil {
		failSection(run, SectionTrendBreak, err)
		return
	}

	isBreak := 0.0
	if result.IsBreak {
		isBreak = 1
	}
	values := map[string]float64{
		"slope":        model.Slope,
		"intercept":    model.Intercept,
		"residual_std": model.ResidualStd,
		"predicted":    result.Predicted,
		"actual":       result.Actual,
		"se_pred":      result.StdError,
		"z":            result.Z,
		"p_value":      result.PValue,
		"is_break":     isBreak,
	}

	// Structural checks around the intervention date are corroborating
	// evidence, not gates; short windows just leave them out.
	if !req.InterventionDate.IsZero() {
		if chow, err := trendbreak.ChowTest(req.Series, req.InterventionDate); err == nil {
			values["chow_f"] = chow.FStatistic
			values["chow_p"] = chow.PValue
		} else {
			s.logger.Debug("trend-break stage: chow test skipped: %v", err)
		}
		if event, err := trendbreak.PercentChangeAroundEvent(req.Series, req.InterventionDate, 2); err == nil {
			values["event_pct_change"] = event.PercentChange
		} else {
			s.logger.Debug("trend-break stage: event window skipped: %v", err)
		}
	}

	run.Sections = append(run.Sections, study.Section{Name: SectionTrendBreak, Values: values})
}

func (s *StudyService) itsStage(req StudyRequest, run *study.Run) {
	if req.Series == nil {
		failSection(run, SectionITS, fmt.Errorf("no series supplied"))
		return
	}
	result, err := its.Fit(req.Series, its.Config{
		InterventionDate: req.InterventionDate,
		MinPre:           req.Study.Params.MinPre,
		MinPost:          req.Study.Params.MinPost,
	})
	if err != nil {
		failSection(run, SectionITS, err)
		return
	}

	values := map[string]float64{
		"r_squared":      result.RSquared,
		"lag_truncation": float64(result.LagTruncation),
		"level_shift":    result.InterventionEffect(),
		"level_shift_p":  result.PValues[its.CoefIntervention],
		"trend_change":   result.TrendChange(),
		"trend_change_p": result.PValues[its.CoefTimeAfter],
		"baseline_slope": result.Coefficients[its.CoefTime],
		"baseline_level": result.Coefficients[its.CoefConst],
	}
	run.Sections = append(run.Sections, study.Section{Name: SectionITS, Values: values})

	table := study.Table{
		Name:    SectionITS,
		Columns: []string{"actual", "fitted", "counterfactual"},
	}
	for i, p := range req.Series.Points() {
		table.Labels = append(table.Labels, p.Date.Format("2006-01-02"))
		table.Rows = append(table.Rows, []float64{p.Value, result.Fitted.At(i).Value, result.Counterfactual.At(i).Value})
	}
	run.Tables = append(run.Tables, table)
}

// bootstrapStage brackets the bottom-50% value share with a cluster
// bootstrap interval.
func (s *StudyService) bootstrapStage(req StudyRequest, run *study.Run) {
	if req.Sample == nil {
		failSection(run, SectionBootstrap, fmt.Errorf("no sample supplied"))
		return
	}
	bottomHalfShare := func(c *sample.Collection) (float64, error) {
		return distribution.Rank(c).ShareBelow(0.50)
	}
	_, interval, err := bootstrap.Run(req.Sample, bottomHalfShare, bootstrap.Config{
		Replicates: req.Study.Params.BootstrapReplicates,
		Seed:       req.Study.Params.Seed,
		Confidence: req.Study.Params.ConfidenceLevel,
	})
	if err != nil {
		failSection(run, SectionBootstrap, err)
		return
	}
	run.Sections = append(run.Sections, study.Section{
		Name: SectionBootstrap,
		Values: map[string]float64{
			"mean":       interval.Mean,
			"std_error":  interval.StdError,
			"ci_lower":   interval.Lower,
			"ci_upper":   interval.Upper,
			"confidence": interval.Confidence,
			"replicates": float64(interval.Replicates),
		},
	})
}

func (s *StudyService) welfareStage(req StudyRequest, run *study.Run) {
	if len(req.Study.AllocationShares) == 0 {
		failSection(run, SectionWelfare, fmt.Errorf("no allocation shares configured"))
		return
	}

	strata := make([]welfare.Stratum, len(req.Study.AllocationShares))
	for i, a := range req.Study.AllocationShares {
		strata[i] = welfare.Stratum{
			ID:         core.StratumID(a.Stratum),
			Population: a.Population,
			MeanIncome: a.MeanIncome,
			Share:      a.Share,
		}
	}

	results, failures := welfare.Attribute(req.AggregateImpact, strata, welfare.Params{
		Sigma:           req.Study.Params.Sigma,
		ReferenceIncome: req.Study.Params.ReferenceIncome,
	})
	for _, f := range failures {
		s.logger.Warn("welfare stage: stratum %s failed: %v", f.StratumID, f.Err)
	}
	if len(results) == 0 {
		failSection(run, SectionWelfare, fmt.Errorf("all %d strata failed", len(failures)))
		return
	}

	values := map[string]float64{
		"strata_computed": float64(len(results)),
		"strata_failed":   float64(len(failures)),
	}
	if rollup, err := welfare.RollUp(results, func(r welfare.AttributionResult) float64 {
		return r.WelfareEquivalentImpact * r.Population
	}, req.Study.BottomHalf, 0.01); err != nil {
		s.logger.Warn("welfare stage: bottom-half roll-up failed: %v", err)
	} else {
		values["bottom_half_welfare_impact"] = rollup
	}
	run.Sections = append(run.Sections, study.Section{Name: SectionWelfare, Values: values})

	table := study.Table{
		Name:    SectionWelfare,
		Columns: []string{"dollar_impact_b", "population", "per_capita_impact", "welfare_weight", "welfare_equivalent_impact", "income_pct_impact"},
	}
	for _, r := range results {
		table.Labels = append(table.Labels, r.StratumID.String())
		table.Rows = append(table.Rows, []float64{
			r.DollarImpact, r.Population, r.PerCapitaImpact, r.WelfareWeight, r.WelfareEquivalentImpact, r.IncomePctImpact,
		})
	}
	run.Tables = append(run.Tables, table)
}

// incidenceStage runs the consumption-incidence model when the study
// configures expenditure categories. Absent configuration means the stage is
// simply not part of this study.
func (s *StudyService) incidenceStage(req StudyRequest, run *study.Run) {
	inc := req.Study.Incidence
	if inc == nil {
		return
	}

	categories := make([]welfare.ExpenditureCategory, len(inc.Categories))
	for i, c := range inc.Categories {
		categories[i] = welfare.ExpenditureCategory{
			Name:             c.Name,
			SpendingPerUnit:  c.SpendingPerUnit,
			PriceChangePct:   c.PriceChangePct,
			EffectiveRatePct: c.EffectiveRatePct,
		}
	}

	burden, err := welfare.ComputeBurden(categories, inc.IncomePerBucket)
	if err != nil {
		failSection(run, SectionIncidence, err)
		return
	}
	revShares, err := welfare.RevenueShares(categories, inc.UnitCounts)
	if err != nil {
		failSection(run, SectionIncidence, err)
		return
	}

	values := map[string]float64{
		"regressivity_ratio": burden.RegressivityRatio,
	}
	if band, err := welfare.BandRevenueShare(revShares, inc.PopulationShares, inc.BottomHalf, 0.01); err != nil {
		s.logger.Warn("incidence stage: band roll-up failed: %v", err)
	} else {
		values["bottom_half_revenue_share"] = band
	}
	run.Sections = append(run.Sections, study.Section{Name: SectionIncidence, Values: values})

	table := study.Table{
		Name:    SectionIncidence,
		Columns: []string{"burden_per_unit", "pct_of_income", "revenue_share"},
	}
	for i := range burden.TotalPerUnit {
		table.Labels = append(table.Labels, fmt.Sprintf("Q%d", i+1))
		table.Rows = append(table.Rows, []float64{burden.TotalPerUnit[i], burden.PctOfIncome[i], revShares[i]})
	}
	run.Tables = append(run.Tables, table)
}
