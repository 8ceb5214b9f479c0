// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/refchaser/pkg/types"
)

const defaultMaxResults = 50

// SearchOptions holds filters for catalog searches. Empty fields do not
// filter.
type SearchOptions struct {
	// Text matches title or abstract, case-insensitively.
	Text string

	// Batch restricts results to one batch.
	Batch string

	// Year matches the publication year exactly.
	Year string

	// DOI matches the identifier exactly, ignoring case.
	DOI string

	// References includes extracted references, not only index records.
	References bool

	// MaxResults limits result count. Zero uses the default (50).
	MaxResults int
}

// SearchResult is a matching citation with the batch that holds it.
type SearchResult struct {
	Batch    string         `json:"batch" yaml:"batch"`
	Citation types.Citation `json:"citation" yaml:"citation"`
}

// Search finds citations across batches. Results are ordered by batch and
// position; references are returned without their own RefList.
func (s *Store) Search(ctx context.Context, opts SearchOptions) ([]SearchResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT batch, id, parent_id, title, article_type, year, authors,
			doi, journal, abstract, keywords, database_id
		FROM citations WHERE 1=1`)

	if !opts.References {
		qb.WriteString(` AND parent_id IS NULL`)
	}
	if opts.Text != "" {
		qb.WriteString(` AND (title LIKE ? ESCAPE '\' OR abstract LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(opts.Text) + "%"
		args = append(args, pattern, pattern)
	}
	if opts.Batch != "" {
		qb.WriteString(` AND batch = ?`)
		args = append(args, opts.Batch)
	}
	if opts.Year != "" {
		qb.WriteString(` AND year = ?`)
		args = append(args, opts.Year)
	}
	if opts.DOI != "" {
		qb.WriteString(` AND lower(doi) = lower(?)`)
		args = append(args, opts.DOI)
	}

	qb.WriteString(` ORDER BY batch, parent_id IS NOT NULL, parent_id, position LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			batch  string
			id     int64
			parent sql.NullInt64
		)
		c, err := scanCitation(prefixed{rows, &batch}, &id, &parent)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Batch: batch, Citation: c})
	}
	return results, rows.Err()
}

// prefixed scans one leading column into dest before the citation columns.
type prefixed struct {
	row  scanner
	dest *string
}

func (p prefixed) Scan(dest ...any) error {
	return p.row.Scan(append([]any{p.dest}, dest...)...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
