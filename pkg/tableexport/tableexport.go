// Package tableexport writes the shielding grids into an .xlsx workbook.
package tableexport

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"radiography-shield/pkg/shielding"
)

// Sheet names, one per table.
const (
	SheetDoseRate = "DoseRate"
	SheetDistance = "Distance"
)

// Write streams both tables into a workbook on w. A header block echoes the
// calculation inputs above each grid.
func Write(w io.Writer, header [][2]string, doseRate, distance shielding.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDoseRate); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetDistance); err != nil {
		return err
	}

	if err := writeSheet(f, SheetDoseRate, header, doseRate); err != nil {
		return fmt.Errorf("%s: %w", SheetDoseRate, err)
	}
	if err := writeSheet(f, SheetDistance, header, distance); err != nil {
		return fmt.Errorf("%s: %w", SheetDistance, err)
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header [][2]string, t shielding.Table) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	row := 1
	put := func(values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return sw.SetRow(cell, values)
	}

	for _, kv := range header {
		if err := put([]interface{}{kv[0], kv[1]}); err != nil {
			return err
		}
	}
	if len(header) > 0 {
		row++
	}

	head := []interface{}{t.Title}
	for _, c := range t.Columns {
		head = append(head, c)
	}
	if err := put(head); err != nil {
		return err
	}

	for i, label := range t.Rows {
		values := []interface{}{label}
		for j, cell := range t.Cells[i] {
			v := math.NaN()
			if i < len(t.Values) && j < len(t.Values[i]) {
				v = t.Values[i][j]
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				values = append(values, cell)
				continue
			}
			values = append(values, math.Round(v*100)/100)
		}
		if err := put(values); err != nil {
			return err
		}
	}
	return sw.Flush()
}
