// Package its fits interrupted-time-series (segmented) regressions around a
// known intervention date, with autocorrelation- and heteroskedasticity-
// robust (Newey-West) standard errors.
package its

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/series"
)

// Regressor names, in design-matrix column order.
const (
	CoefConst        = "const"
	CoefTime         = "time"
	CoefIntervention = "intervention"
	CoefTimeAfter    = "time_after"
)

var coefNames = []string{CoefConst, CoefTime, CoefIntervention, CoefTimeAfter}

// Config controls one segmented-regression fit.
type Config struct {
	InterventionDate time.Time
	// MinPre and MinPost are the caller's minimum window lengths. Zero means
	// the package default of 3, the smallest window that leaves the segment
	// trend identified.
	MinPre  int
	MinPost int
}

// Result is the fitted segmented regression:
//
//	value = b0 + b1*time + b2*intervention + b3*time_after + e
//
// Coefficients b2 (immediate level shift) and b3 (slope change) carry the
// policy content; Fitted and Counterfactual are aligned to the input series'
// timestamps. Counterfactual zeroes intervention and time_after, i.e. the
// pre-trend extrapolated as if the policy had not happened.
type Result struct {
	Coefficients    map[string]float64 `json:"coefficients"`
	RobustStdErrors map[string]float64 `json:"robust_std_errors"`
	PValues         map[string]float64 `json:"p_values"`
	RSquared        float64            `json:"r_squared"`
	LagTruncation   int                `json:"lag_truncation"`
	PreN            int                `json:"pre_n"`
	PostN           int                `json:"post_n"`
	Fitted          *series.TimeSeries `json:"-"`
	Counterfactual  *series.TimeSeries `json:"-"`
}

// InterventionEffect returns b2, the immediate level-shift estimate.
func (r *Result) InterventionEffect() float64 { return r.Coefficients[CoefIntervention] }

// TrendChange returns b3, the post-intervention slope-change estimate.
func (r *Result) TrendChange() float64 { return r.Coefficients[CoefTimeAfter] }

// Fit runs the segmented regression on the full series.
func Fit(ts *series.TimeSeries, cfg Config) (*Result, error) {
	minPre, minPost := cfg.MinPre, cfg.MinPost
	if minPre == 0 {
		minPre = 3
	}
	if minPost == 0 {
		minPost = 3
	}

	n := ts.Len()
	split := ts.SearchDate(cfg.InterventionDate)
	if split < minPre {
		return nil, core.NewInsufficientDataError("pre-intervention window", split, minPre)
	}
	if n-split < minPost {
		return nil, core.NewInsufficientDataError("post-intervention window", n-split, minPost)
	}

	const k = 4
	if n <= k {
		return nil, core.NewInsufficientDataError("segmented regression", n, k+1)
	}

	// Regressors: time is the 0..n-1 index over the whole window;
	// intervention flags observations at/after the intervention date;
	// time_after re-bases the time index at the first post observation and
	// is zero (never negative) before it.
	x := mat.NewDense(n, k, nil)
	y := mat.NewVecDense(n, ts.Values())
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(i))
		if i >= split {
			x.Set(i, 2, 1)
			x.Set(i, 3, float64(i-split))
		}
	}

	// OLS coefficients via the normal equations; (X'X)^-1 is reused in the
	// HAC sandwich below.
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, core.NewSingularFitError("collinear segmented-regression design")
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)
	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	// Residuals and fit quality.
	var fittedVec mat.VecDense
	fittedVec.MulVec(x, &beta)
	resid := make([]float64, n)
	yMean := 0.0
	for i := 0; i < n; i++ {
		yMean += y.AtVec(i)
	}
	yMean /= float64(n)
	ssr, sst := 0.0, 0.0
	for i := 0; i < n; i++ {
		resid[i] = y.AtVec(i) - fittedVec.AtVec(i)
		ssr += resid[i] * resid[i]
		d := y.AtVec(i) - yMean
		sst += d * d
	}
	rSquared := 0.0
	if sst > 0 {
		rSquared = 1 - ssr/sst
	}

	// Newey-West lag truncation per Schwert: L = max(1, floor(0.75 * n^(1/3))).
	lags := int(0.75 * math.Cbrt(float64(n)))
	if lags < 1 {
		lags = 1
	}
	cov := neweyWestCov(x, resid, &xtxInv, lags)

	coefs := make(map[string]float64, k)
	ses := make(map[string]float64, k)
	pvals := make(map[string]float64, k)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - k)}
	for j, name := range coefNames {
		coefs[name] = beta.AtVec(j)
		se := math.Sqrt(cov.At(j, j))
		ses[name] = se
		if se > 0 {
			t := beta.AtVec(j) / se
			pvals[name] = 2 * (1 - tDist.CDF(math.Abs(t)))
		} else {
			pvals[name] = 1
		}
	}

	// Counterfactual: prediction with intervention and time_after zeroed.
	fitted := make([]float64, n)
	counter := make([]float64, n)
	for i := 0; i < n; i++ {
		fitted[i] = fittedVec.AtVec(i)
		counter[i] = beta.AtVec(0) + beta.AtVec(1)*float64(i)
	}
	fittedTS, err := ts.WithValues(fitted)
	if err != nil {
		return nil, err
	}
	counterTS, err := ts.WithValues(counter)
	if err != nil {
		return nil, err
	}

	return &Result{
		Coefficients:    coefs,
		RobustStdErrors: ses,
		PValues:         pvals,
		RSquared:        rSquared,
		LagTruncation:   lags,
		PreN:            split,
		PostN:           n - split,
		Fitted:          fittedTS,
		Counterfactual:  counterTS,
	}, nil
}

// neweyWestCov builds the HAC sandwich covariance
//
//	(X'X)^-1 S (X'X)^-1
//
// where S sums the outer products of residual-scaled regressor rows with
// Bartlett-kernel weights w_l = 1 - l/(L+1) on the autocovariance terms.
func neweyWestCov(x *mat.Dense, resid []float64, xtxInv *mat.Dense, lags int) *mat.Dense {
	n, k := x.Dims()

	s := mat.NewDense(k, k, nil)
	row := func(i int) *mat.VecDense {
		v := mat.NewVecDense(k, nil)
		for j := 0; j < k; j++ {
			v.SetVec(j, x.At(i, j)*resid[i])
		}
		return v
	}

	// Lag-0 (White) term.
	for i := 0; i < n; i++ {
		v := row(i)
		var outer mat.Dense
		outer.Outer(1, v, v)
		s.Add(s, &outer)
	}

	// Autocovariance terms with Bartlett weights.
	for l := 1; l <= lags; l++ {
		w := 1 - float64(l)/float64(lags+1)
		for i := l; i < n; i++ {
			vi := row(i)
			vl := row(i - l)
			var outer, outerT mat.Dense
			outer.Outer(w, vi, vl)
			outerT.Outer(w, vl, vi)
			s.Add(s, &outer)
			s.Add(s, &outerT)
		}
	}

	var tmp, cov mat.Dense
	tmp.Mul(xtxInv, s)
	cov.Mul(&tmp, xtxInv)
	return &cov
}
