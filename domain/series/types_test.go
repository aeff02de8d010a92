package series

import (
	"errors"
	"testing"
	"time"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsBadOrdering(t *testing.T) {
	tests := []struct {
		name    string
		points  []Point
		wantErr error
	}{
		{
			name: "duplicate date",
			points: []Point{
				{Date: day(2020, 1, 1), Value: 1},
				{Date: day(2020, 1, 1), Value: 2},
			},
			wantErr: core.ErrDuplicateDate,
		},
		{
			name: "out of order",
			points: []Point{
				{Date: day(2020, 2, 1), Value: 1},
				{Date: day(2020, 1, 1), Value: 2},
			},
			wantErr: core.ErrUnorderedSeries,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New("s", tt.points); !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func testSeries(t *testing.T) *TimeSeries {
	t.Helper()
	points := []Point{
		{Date: day(2020, 1, 1), Value: 10},
		{Date: day(2021, 1, 1), Value: 20},
		{Date: day(2022, 1, 1), Value: 30},
		{Date: day(2023, 1, 1), Value: 40},
	}
	ts, err := New("gdp", points)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestSearchDate(t *testing.T) {
	ts := testSeries(t)
	tests := []struct {
		date time.Time
		want int
	}{
		{day(2019, 6, 1), 0},
		{day(2020, 1, 1), 0}, // exact match returns its own index
		{day(2020, 6, 1), 1},
		{day(2023, 1, 1), 3},
		{day(2024, 1, 1), 4}, // past the end
	}
	for _, tt := range tests {
		if got := ts.SearchDate(tt.date); got != tt.want {
			t.Errorf("SearchDate(%s) = %d, want %d", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestWindow(t *testing.T) {
	ts := testSeries(t)
	w, err := ts.Window(day(2021, 1, 1), day(2022, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if w.Len() != 2 {
		t.Fatalf("window length = %d, want 2", w.Len())
	}
	if w.At(0).Value != 20 || w.At(1).Value != 30 {
		t.Errorf("window values = %v, want [20 30]", w.Values())
	}
	// Endpoints are inclusive.
	full, err := ts.Window(day(2020, 1, 1), day(2023, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if full.Len() != 4 {
		t.Errorf("full window length = %d, want 4", full.Len())
	}
}

func TestWithValues(t *testing.T) {
	ts := testSeries(t)
	fitted, err := ts.WithValues([]float64{11, 21, 31, 41})
	if err != nil {
		t.Fatal(err)
	}
	if fitted.ID() != ts.ID() {
		t.Errorf("id changed: %s", fitted.ID())
	}
	if !fitted.At(2).Date.Equal(ts.At(2).Date) {
		t.Error("dates not preserved")
	}
	if fitted.At(2).Value != 31 {
		t.Errorf("value = %g, want 31", fitted.At(2).Value)
	}
	if _, err := ts.WithValues([]float64{1, 2}); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestSliceBounds(t *testing.T) {
	ts := testSeries(t)
	if _, err := ts.Slice(-1, 2); err == nil {
		t.Error("expected error for negative from")
	}
	if _, err := ts.Slice(0, 5); err == nil {
		t.Error("expected error for to past end")
	}
	if _, err := ts.Slice(3, 2); err == nil {
		t.Error("expected error for inverted bounds")
	}
}
