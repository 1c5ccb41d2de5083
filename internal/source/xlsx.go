package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/nfhs-dash/internal/dataset"
)

// SheetOptions selects what to read from a workbook
type SheetOptions struct {
	Sheet     string // sheet name; empty selects the first sheet
	HeaderRow int    // zero-based row holding the column names
	MaxSheets int    // ReadWorkbook: read at most this many sheets, 0 for all
}

// ReadXLSX loads one sheet of a workbook as a table named after the sheet
func ReadXLSX(path string, opts SheetOptions) (*dataset.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	return readSheet(f, sheet, opts.HeaderRow)
}

// ReadWorkbook loads every sheet of a workbook in tab order
func ReadWorkbook(path string, opts SheetOptions) ([]*dataset.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if opts.MaxSheets > 0 && len(sheets) > opts.MaxSheets {
		sheets = sheets[:opts.MaxSheets]
	}

	tables := make([]*dataset.Table, 0, len(sheets))
	for _, sheet := range sheets {
		t, err := readSheet(f, sheet, opts.HeaderRow)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func readSheet(f *excelize.File, sheet string, headerRow int) (*dataset.Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("invalid header row %d for sheet %q", headerRow, sheet)
	}
	if headerRow >= len(rows) {
		return nil, &dataset.MalformedError{Source: sheet, Missing: []string{"header"}}
	}

	header := rows[headerRow]
	// trailing cells past the header still need a column
	width := len(header)
	for _, r := range rows[headerRow+1:] {
		if len(r) > width {
			width = len(r)
		}
	}
	padded := make([]string, width)
	copy(padded, header)

	return dataset.FromStrings(sheet, headerNames(padded), rows[headerRow+1:]), nil
}

// WriteXLSX writes tables to a workbook, one sheet per table
func WriteXLSX(path string, tables ...*dataset.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", name, err)
		}

		for j, col := range t.Columns {
			cell, _ := excelize.CoordinatesToCellName(j+1, 1)
			f.SetCellValue(name, cell, col)
		}
		for r, row := range t.Rows {
			for j, c := range row {
				if c.IsNull() {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(j+1, r+2)
				if v, ok := c.Float(); ok {
					f.SetCellValue(name, cell, v)
				} else {
					f.SetCellValue(name, cell, c.Text)
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}
