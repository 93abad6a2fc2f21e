// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package input reads subject lists. The first row is the header; every
// other non-blank row becomes a Subject keyed by the lower-cased header.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/dossier/pkg/types"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("input is missing a required column")

// ReadSubjects reads path as CSV or XLSX depending on its extension.
func ReadSubjects(path string) ([]*types.Subject, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	case ".csv", ".txt", "":
		rows, err = readCSVFile(path)
	default:
		return nil, fmt.Errorf("unsupported input type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	subjects, err := FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return subjects, nil
}

// ReadCSV reads subjects from CSV data.
func ReadCSV(r io.Reader) ([]*types.Subject, error) {
	rows, err := parseCSV(r)
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// FromRows turns a header row and data rows into subjects. Short rows are
// padded with empty values; blank rows are skipped.
func FromRows(rows [][]string) ([]*types.Subject, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMissingColumn)
	}
	header := make([]string, len(rows[0]))
	present := make(map[string]bool)
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		present[header[i]] = true
	}
	for _, required := range []string{types.FieldName, types.FieldInstitution} {
		if !present[required] {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}

	var subjects []*types.Subject
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		fields := make(map[string]string, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(row) {
				fields[h] = row[i]
			} else {
				fields[h] = ""
			}
		}
		subjects = append(subjects, types.NewSubject(fields))
	}
	return subjects, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", path, err)
	}
	return rows, nil
}
