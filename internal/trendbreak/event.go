package trendbreak

import (
	"math"
	"time"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/series"
)

// EventWindowResult compares the mean of a series before and after an event
// date within a symmetric window.
type EventWindowResult struct {
	EventDate     time.Time `json:"event_date"`
	WindowYears   int       `json:"window_years"`
	PreMean       float64   `json:"pre_mean"`
	PostMean      float64   `json:"post_mean"`
	PercentChange float64   `json:"pct_change"`
	PreN          int       `json:"pre_n"`
	PostN         int       `json:"post_n"`
}

// PercentChangeAroundEvent computes the percent change in the series mean
// across the event. The event date itself belongs to the post window.
func PercentChangeAroundEvent(ts *series.TimeSeries, eventDate time.Time, windowYears int) (*EventWindowResult, error) {
	preStart := eventDate.AddDate(-windowYears, 0, 0)
	postEnd := eventDate.AddDate(windowYears, 0, 0)

	preFrom := ts.SearchDate(preStart)
	split := ts.SearchDate(eventDate)
	postTo := ts.SearchDate(postEnd.Add(time.Nanosecond))

	preN := split - preFrom
	postN := postTo - split
	if preN == 0 || postN == 0 {
		return nil, core.NewInsufficientDataError("event window", preN+postN, preN+postN+1)
	}

	preMean := windowMean(ts, preFrom, split)
	postMean := windowMean(ts, split, postTo)
	if preMean == 0 {
		return nil, core.NewDegenerateInputError("pre-event mean", preMean)
	}

	return &EventWindowResult{
		EventDate:     eventDate,
		WindowYears:   windowYears,
		PreMean:       preMean,
		PostMean:      postMean,
		PercentChange: (postMean - preMean) / math.Abs(preMean) * 100,
		PreN:          preN,
		PostN:         postN,
	}, nil
}

func windowMean(ts *series.TimeSeries, from, to int) float64 {
	sum := 0.0
	for i := from; i < to; i++ {
		sum += ts.At(i).Value
	}
	return sum / float64(to-from)
}
