// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes the records matching q to w as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, q Query, w io.Writer) error {
	records, err := s.Records(ctx, q)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the records matching q to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, q Query, w io.Writer) error {
	records, err := s.Records(ctx, q)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
