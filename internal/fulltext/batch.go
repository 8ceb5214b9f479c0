// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/refchaser/pkg/types"
)

// DownloadReport summarizes a batch download.
type DownloadReport struct {
	// Identified is the number of citations handed to the batch.
	Identified int
	// Attempted is the number of citations a download was tried for.
	Attempted int
	// Retrieved counts PDFs now on disk, including ones already present.
	Retrieved int
	// Skipped counts PDFs that were already on disk.
	Skipped int
	// Elapsed is the wall-clock duration of the batch.
	Elapsed time.Duration
	// Missing lists the citations that could not be retrieved, in input order.
	Missing []types.Citation
}

// HasFailures reports whether any citation was not retrieved.
func (r DownloadReport) HasFailures() bool {
	return len(r.Missing) > 0
}

// Render formats the report as plain text for a report file.
func (r DownloadReport) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total number of articles identified from bibliographic file: %d\n", r.Identified)
	fmt.Fprintf(&b, "Number of downloads attempted: %d\n", r.Attempted)
	fmt.Fprintf(&b, "Number of articles successfully retrieved: %d\n", r.Retrieved)
	fmt.Fprintf(&b, "Time taken: %.1f seconds\n", r.Elapsed.Seconds())
	fmt.Fprintf(&b, "\nA total of %d articles were not downloaded. Please manually retrieve them.\n", len(r.Missing))
	for _, c := range r.Missing {
		fmt.Fprintf(&b, "%s DOI: %s\n", c.Title, c.DOI)
	}
	return b.String()
}

// FetchBatch downloads the full text of every citation into dir as
// <slug>.pdf. Citations whose file already exists are counted as retrieved
// without a request. Per-citation failures are recorded in the report and
// never abort the batch; only a failure to create dir or a cancelled ctx
// returns an error.
func (f *Fetcher) FetchBatch(ctx context.Context, citations []types.Citation, dir string, w io.Writer) (DownloadReport, error) {
	start := time.Now()
	report := DownloadReport{Identified: len(citations), Attempted: len(citations)}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return report, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	concurrency := f.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu     sync.Mutex
		failed = make([]bool, len(citations))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, c := range citations {
		g.Go(func() error {
			skipped, err := f.fetchOne(gctx, c, dir)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failed[i] = true
				fmt.Fprintf(w, "failed:  %s (%v)\n", label(c), err)
			case skipped:
				report.Retrieved++
				report.Skipped++
				fmt.Fprintf(w, "skipped: %s (already exists)\n", label(c))
			default:
				report.Retrieved++
				fmt.Fprintf(w, "fetched: %s\n", label(c))
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range citations {
		if failed[i] {
			report.Missing = append(report.Missing, c)
		}
	}
	report.Elapsed = time.Since(start)

	fmt.Fprintf(w, "\nBatch summary: %d retrieved, %d skipped, %d failed (total: %d)\n",
		report.Retrieved-report.Skipped, report.Skipped, len(report.Missing), report.Identified)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// fetchOne downloads a single citation unless its file is already present.
func (f *Fetcher) fetchOne(ctx context.Context, c types.Citation, dir string) (skipped bool, err error) {
	doi, ok := NormalizeDOI(c.DOI)
	if !ok {
		if c.DOI == "" {
			return false, fmt.Errorf("%w: no DOI", ErrInvalidDOI)
		}
		return false, fmt.Errorf("%w: %q", ErrInvalidDOI, c.DOI)
	}

	dest := filepath.Join(dir, Slug(doi)+".pdf")
	if _, err := os.Stat(dest); err == nil {
		return true, nil
	}

	body, err := f.FetchFullText(ctx, doi)
	if err != nil {
		return false, err
	}
	return false, writeFile(dest, body)
}

// writeFile writes data to a temporary file next to dest and renames it
// into place so a partial download never appears under the final name.
func writeFile(dest string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// label names a citation in status lines.
func label(c types.Citation) string {
	if c.DOI != "" {
		return c.DOI
	}
	if c.Title != "" {
		return c.Title
	}
	return "(untitled)"
}
