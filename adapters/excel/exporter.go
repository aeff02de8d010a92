// Package excel exports study-run tables as a workbook for the reporting
// collaborator. One sheet per table plus a summary sheet of section values.
package excel

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/study"
	"github.com/andsalazar/FederalBudgetAnalysis/ports"
)

type exporter struct{}

// NewExporter creates a workbook exporter.
func NewExporter() ports.ResultExporter {
	return exporter{}
}

// Export writes the run to path. The workbook carries only plain numeric
// records; no charts or formatted narrative.
func (exporter) Export(run *study.Run, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummary(f, run); err != nil {
		return err
	}
	for _, table := range run.Tables {
		if err := writeTable(f, table); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, run *study.Run) error {
	const sheet = "Sheet1"
	if err := f.SetSheetName(sheet, "summary"); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	row := 1
	setRow := func(values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return f.SetSheetRow("summary", cell, &values)
	}

	if err := setRow([]interface{}{"run_id", run.ID.String()}); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	if err := setRow([]interface{}{"created_at", run.CreatedAt.Format("2006-01-02 15:04:05")}); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}

	for _, section := range run.Sections {
		if section.Error != "" {
			if err := setRow([]interface{}{section.Name, "ERROR", section.Error}); err != nil {
				return fmt.Errorf("failed to write section %s: %w", section.Name, err)
			}
			continue
		}
		keys := make([]string, 0, len(section.Values))
		for k := range section.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := setRow([]interface{}{section.Name, k, section.Values[k]}); err != nil {
				return fmt.Errorf("failed to write section %s: %w", section.Name, err)
			}
		}
	}
	return nil
}

func writeTable(f *excelize.File, table study.Table) error {
	if _, err := f.NewSheet(table.Name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", table.Name, err)
	}

	header := make([]interface{}, 0, len(table.Columns)+1)
	header = append(header, "")
	for _, c := range table.Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(table.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", table.Name, err)
	}

	for i, r := range table.Rows {
		values := make([]interface{}, 0, len(r)+1)
		values = append(values, table.Labels[i])
		for _, v := range r {
			values = append(values, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d of %s: %w", i, table.Name, err)
		}
		if err := f.SetSheetRow(table.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i, table.Name, err)
		}
	}
	return nil
}
