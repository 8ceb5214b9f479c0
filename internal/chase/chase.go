// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chase turns structured extraction output for a set of index
// articles into forward and backward citation search queries and writes
// them, with a failure report, to an output directory.
package chase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pdiddy/refchaser/internal/cermine"
	"github.com/pdiddy/refchaser/internal/jats"
	"github.com/pdiddy/refchaser/internal/query"
	"github.com/pdiddy/refchaser/internal/report"
	"github.com/pdiddy/refchaser/pkg/types"
)

// Output file names written by Write.
const (
	ForwardFile  = "forw_query.txt"
	BackwardFile = "back_query.txt"
	ReportFile   = "report.txt"
	QueriesFile  = "queries.yaml"
)

// Options selects the databases and forward field.
type Options struct {
	ForwardTarget  query.Target
	BackwardTarget query.Target
	Mode           query.Mode
}

// Result holds the parsed index articles and the queries built from them.
type Result struct {
	Source   string
	Records  []types.Citation
	Failed   []string
	Forward  query.SavedQuery
	Backward query.SavedQuery
}

// References returns the number of references across all records.
func (r Result) References() int {
	n := 0
	for _, rec := range r.Records {
		n += len(rec.RefList)
	}
	return n
}

// HasFailures reports whether any source document was not parsed.
func (r Result) HasFailures() bool {
	return len(r.Failed) > 0
}

// Build parses every document and builds both queries. Documents the
// parser rejects join failed, which holds the PDFs extraction already
// gave up on. Progress lines are written to w.
func Build(ctx context.Context, source string, docs []cermine.Document, failed []string, opts Options, w io.Writer) (Result, error) {
	res := Result{Source: source, Failed: append([]string(nil), failed...)}
	for _, name := range failed {
		fmt.Fprintf(w, "failed  %s: no extraction result\n", name)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec, err := jats.ParseOne(doc.Markup)
		if err != nil {
			if !errors.Is(err, types.ErrUnsupportedFormat) {
				return res, fmt.Errorf("parsing %s: %w", doc.Name, err)
			}
			fmt.Fprintf(w, "failed  %s: %v\n", doc.Name, err)
			res.Failed = append(res.Failed, doc.Name+".pdf")
			continue
		}
		fmt.Fprintf(w, "parsed  %s (%d references)\n", doc.Name, len(rec.RefList))
		res.Records = append(res.Records, rec)
	}

	res.Forward = query.Saved(query.Forward, query.ForwardValues(res.Records, opts.Mode), opts.ForwardTarget, forwardMode(opts.Mode))
	res.Backward = query.Saved(query.Backward, query.BackwardValues(res.Records), opts.BackwardTarget, query.ModeTitles)
	return res, nil
}

// forwardMode resolves mode the way ForwardValues does, so the saved query
// filters its terms with the same field rules that selected them.
func forwardMode(mode query.Mode) query.Mode {
	m, err := query.ParseMode(string(mode))
	if err != nil {
		return query.ModeTitles
	}
	return m
}

// Write saves the forward and backward queries, the query file, and, when
// any document failed, the failure report into dir.
func Write(dir string, res Result) error {
	if err := report.WriteText(filepath.Join(dir, ForwardFile), res.Forward.Query); err != nil {
		return err
	}
	if err := report.WriteText(filepath.Join(dir, BackwardFile), res.Backward.Query); err != nil {
		return err
	}
	if res.HasFailures() {
		if err := report.WriteText(filepath.Join(dir, ReportFile), report.FailureReport(res.Failed)); err != nil {
			return err
		}
	}

	qf := query.QueryFile{
		Source:  res.Source,
		Queries: []query.SavedQuery{res.Forward, res.Backward},
		Summary: query.QuerySummary{
			IndexArticles: len(res.Records),
			References:    res.References(),
			Failed:        res.Failed,
		},
	}
	return query.WriteQueryFile(filepath.Join(dir, QueriesFile), qf)
}
