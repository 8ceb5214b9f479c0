// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibparse

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/refchaser/pkg/types"
)

const defaultWorkers = 4

// FileResult is the outcome of parsing one file.
type FileResult struct {
	Path      string
	Format    Format
	Citations []types.Citation
	Err       error
}

// Batch returns the file stem, used as the batch name for the file's records.
func (r FileResult) Batch() string {
	base := filepath.Base(r.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BatchResult holds per-file outcomes in input order.
type BatchResult struct {
	Files []FileResult
}

// Parsed returns the number of files parsed without error.
func (b BatchResult) Parsed() int {
	n := 0
	for _, f := range b.Files {
		if f.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of files that could not be parsed.
func (b BatchResult) Failed() int {
	return len(b.Files) - b.Parsed()
}

// HasFailures reports whether any file failed.
func (b BatchResult) HasFailures() bool {
	return b.Failed() > 0
}

// Citations returns every parsed record, file by file.
func (b BatchResult) Citations() []types.Citation {
	var all []types.Citation
	for _, f := range b.Files {
		all = append(all, f.Citations...)
	}
	return all
}

// ParseFile reads path and parses it in the format chosen by its extension.
func (p *Parser) ParseFile(path string) ([]types.Citation, Format, error) {
	f, err := FormatFromExtension(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, f, fmt.Errorf("reading %s: %w", path, err)
	}
	citations, err := p.Parse(string(data), f)
	return citations, f, err
}

// ParseFiles parses paths concurrently, at most workers at a time, and
// reports one status line per file to w. A failing file never stops the
// others. Results keep the order of paths.
func (p *Parser) ParseFiles(ctx context.Context, paths []string, workers int, w io.Writer) BatchResult {
	if workers <= 0 {
		workers = defaultWorkers
	}

	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = FileResult{Path: path, Err: err}
				return nil
			}
			citations, f, err := p.ParseFile(path)
			results[i] = FileResult{Path: path, Format: f, Citations: citations, Err: err}
			return nil
		})
	}
	g.Wait()

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", r.Path, r.Err)
			continue
		}
		fmt.Fprintf(w, "parsed  %s (%s, %d records)\n", r.Path, r.Format, len(r.Citations))
	}

	return BatchResult{Files: results}
}

// CollectFiles expands directories in paths to the supported bibliographic
// files they contain (non-recursive, sorted). Plain file paths are kept
// as given so an unsupported extension is reported by ParseFiles.
func CollectFiles(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", p, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, err := FormatFromExtension(e.Name()); err == nil {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
