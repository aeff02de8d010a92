// Package study defines the plain result records a completed analysis run
// hands to the reporting collaborator: flat numeric maps and tables, nothing
// renderable.
package study

import (
	"time"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
)

// Section is one stage's flat numeric record. A failed stage carries its
// reason in Error and an empty Values map; sibling sections are unaffected.
type Section struct {
	Name   string             `json:"name"`
	Values map[string]float64 `json:"values,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// Table is a flat per-row numeric table (per-stratum or per-category rows).
type Table struct {
	Name    string      `json:"name"`
	Columns []string    `json:"columns"`
	Labels  []string    `json:"labels"` // one label per row
	Rows    [][]float64 `json:"rows"`
}

// Run is one completed study: sections and tables keyed by stage.
type Run struct {
	ID        core.RunID `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Sections  []Section  `json:"sections"`
	Tables    []Table    `json:"tables,omitempty"`
}

// Section returns the named section, or nil.
func (r *Run) Section(name string) *Section {
	for i := range r.Sections {
		if r.Sections[i].Name == name {
			return &r.Sections[i]
		}
	}
	return nil
}

// Failed reports how many sections carry an error.
func (r *Run) Failed() int {
	n := 0
	for _, s := range r.Sections {
		if s.Error != "" {
			n++
		}
	}
	return n
}
