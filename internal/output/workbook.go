// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/dossier/pkg/types"
)

// Workbook is an .xlsx sink. The file is created with the header row when
// the sink is opened; each Append reopens it, adds one row, and saves.
type Workbook struct {
	path   string
	header []string
}

// NewWorkbook creates (or replaces) the workbook at path with header as its
// first row. Failure here, for example a file locked by a spreadsheet
// application, is fatal to the run.
func NewWorkbook(path string, header []string) (*Workbook, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("creating workbook %s: %w", path, err)
	}
	return &Workbook{path: path, header: append([]string(nil), header...)}, nil
}

// Header returns the workbook's columns.
func (w *Workbook) Header() []string { return append([]string(nil), w.header...) }

// Append writes subj as the next row.
func (w *Workbook) Append(_ context.Context, subj *types.Subject) error {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("opening workbook %s: %w", w.path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("reading workbook %s: %w", w.path, err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("locating next row: %w", err)
	}

	row := Row(w.header, subj)
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("writing row for %s: %w", subj.Name(), err)
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}

// ReadWorkbook returns every row of the first sheet of the workbook at path.
func ReadWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading workbook %s: %w", path, err)
	}
	return rows, nil
}
