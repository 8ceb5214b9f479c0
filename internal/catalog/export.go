// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/refchaser/pkg/types"
)

// ExportBatch holds one batch for export.
type ExportBatch struct {
	Name      string           `json:"name" yaml:"name"`
	Source    string           `json:"source" yaml:"source"`
	Citations []types.Citation `json:"citations" yaml:"citations"`
	Queries   []QueryRecord    `json:"queries,omitempty" yaml:"queries,omitempty"`
}

// ExportYAML writes the named batch, or every batch when name is empty,
// as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, name string) error {
	batches, err := s.exportBatches(ctx, name)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(batches); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the named batch, or every batch when name is empty,
// as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, name string) error {
	batches, err := s.exportBatches(ctx, name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batches); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportBatches(ctx context.Context, name string) ([]ExportBatch, error) {
	infos, err := s.Batches(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing batches for export: %w", err)
	}

	var out []ExportBatch
	for _, info := range infos {
		if name != "" && info.Name != name {
			continue
		}
		citations, err := s.Batch(ctx, info.Name)
		if err != nil {
			return nil, err
		}
		queries, err := s.Queries(ctx, info.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, ExportBatch{
			Name:      info.Name,
			Source:    info.Source,
			Citations: citations,
			Queries:   queries,
		})
	}
	if name != "" && len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, name)
	}
	return out, nil
}
