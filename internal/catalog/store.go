// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists parsed citation batches and the queries built
// from them in a SQLite database. A batch is the set of records parsed from
// one bibliographic file or one extraction directory; references extracted
// from full texts are stored as children of their citing article.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/refchaser/pkg/types"
)

const defaultPath = "refchaser.db"

// ErrBatchNotFound is returned when a named batch has never been saved.
var ErrBatchNotFound = errors.New("batch not found")

// Store manages the catalog SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.CatalogConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			name TEXT PRIMARY KEY,
			source TEXT,
			saved_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS citations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch TEXT NOT NULL REFERENCES batches(name) ON DELETE CASCADE,
			parent_id INTEGER REFERENCES citations(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT,
			article_type TEXT,
			year TEXT,
			authors TEXT,
			first_author TEXT,
			doi TEXT,
			journal TEXT,
			abstract TEXT,
			keywords TEXT,
			database_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_batch ON citations(batch)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_parent ON citations(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_doi ON citations(doi)`,
		`CREATE TABLE IF NOT EXISTS queries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch TEXT NOT NULL,
			direction TEXT NOT NULL,
			target TEXT,
			mode TEXT,
			terms INTEGER,
			query TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queries_batch ON queries(batch)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BatchInfo describes a saved batch.
type BatchInfo struct {
	Name       string    `json:"name" yaml:"name"`
	Source     string    `json:"source" yaml:"source"`
	Records    int       `json:"records" yaml:"records"`
	References int       `json:"references" yaml:"references"`
	SavedAt    time.Time `json:"saved_at" yaml:"saved_at"`
}

// SaveBatch stores citations under name, replacing any batch of the same
// name. Each citation's RefList is stored as child rows of that citation.
func (s *Store) SaveBatch(ctx context.Context, name, source string, citations []types.Citation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM citations WHERE batch = ?`, name); err != nil {
		return fmt.Errorf("deleting old citations: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (name, source, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET source=excluded.source, saved_at=excluded.saved_at`,
		name, source, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO citations (batch, parent_id, position, title, article_type, year,
			authors, first_author, doi, journal, abstract, keywords, database_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	insert := func(c types.Citation, parent sql.NullInt64, pos int) (int64, error) {
		authorsJSON, _ := json.Marshal(c.Authors)
		keywordsJSON, _ := json.Marshal(c.Keywords)
		res, err := stmt.ExecContext(ctx,
			name, parent, pos, c.Title, c.ArticleType, c.Year,
			string(authorsJSON), c.FirstAuthor, c.DOI, c.Journal, c.Abstract,
			string(keywordsJSON), c.DatabaseID,
		)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}

	for i, c := range citations {
		id, err := insert(c, sql.NullInt64{}, i)
		if err != nil {
			return fmt.Errorf("inserting citation %d: %w", i, err)
		}
		for j, ref := range c.RefList {
			if _, err := insert(ref, sql.NullInt64{Int64: id, Valid: true}, j); err != nil {
				return fmt.Errorf("inserting reference %d of citation %d: %w", j, i, err)
			}
		}
	}

	return tx.Commit()
}

// Batch returns the citations saved under name in their original order,
// with references reattached to their citing article.
func (s *Store) Batch(ctx context.Context, name string) ([]types.Citation, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM batches WHERE name = ?`, name,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("looking up batch: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, name)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, title, article_type, year, authors,
			doi, journal, abstract, keywords, database_id
		 FROM citations WHERE batch = ?
		 ORDER BY parent_id IS NOT NULL, parent_id, position`, name)
	if err != nil {
		return nil, fmt.Errorf("querying batch: %w", err)
	}
	defer rows.Close()

	var (
		citations []types.Citation
		index     = make(map[int64]int)
	)
	for rows.Next() {
		var (
			id     int64
			parent sql.NullInt64
		)
		c, err := scanCitation(rows, &id, &parent)
		if err != nil {
			return nil, err
		}
		if !parent.Valid {
			index[id] = len(citations)
			citations = append(citations, c)
			continue
		}
		if i, ok := index[parent.Int64]; ok {
			citations[i].RefList = append(citations[i].RefList, c)
		}
	}
	return citations, rows.Err()
}

// Batches lists every saved batch ordered by name.
func (s *Store) Batches(ctx context.Context) ([]BatchInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.name, b.source, b.saved_at,
			(SELECT count(*) FROM citations c WHERE c.batch = b.name AND c.parent_id IS NULL),
			(SELECT count(*) FROM citations c WHERE c.batch = b.name AND c.parent_id IS NOT NULL)
		 FROM batches b ORDER BY b.name`)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var infos []BatchInfo
	for rows.Next() {
		var (
			info    BatchInfo
			source  sql.NullString
			savedAt string
		)
		if err := rows.Scan(&info.Name, &source, &savedAt, &info.Records, &info.References); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		info.Source = source.String
		if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
			info.SavedAt = t
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteBatch removes a batch with its citations and recorded queries.
func (s *Store) DeleteBatch(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, name)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM citations WHERE batch = ?`, name); err != nil {
		return fmt.Errorf("deleting citations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM queries WHERE batch = ?`, name); err != nil {
		return fmt.Errorf("deleting queries: %w", err)
	}
	return tx.Commit()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCitation(row scanner, id *int64, parent *sql.NullInt64) (types.Citation, error) {
	var (
		title, articleType, year  sql.NullString
		authorsJSON, keywordsJSON sql.NullString
		doi, journal, abstract    sql.NullString
		databaseID                sql.NullString
	)
	if err := row.Scan(id, parent, &title, &articleType, &year, &authorsJSON,
		&doi, &journal, &abstract, &keywordsJSON, &databaseID); err != nil {
		return types.Citation{}, fmt.Errorf("scanning row: %w", err)
	}

	c := types.NewCitation()
	c.Title = title.String
	c.ArticleType = articleType.String
	c.Year = year.String
	c.DOI = doi.String
	c.Journal = journal.String
	c.Abstract = abstract.String
	c.DatabaseID = databaseID.String

	var authors, keywords []string
	if authorsJSON.Valid {
		json.Unmarshal([]byte(authorsJSON.String), &authors)
	}
	if keywordsJSON.Valid {
		json.Unmarshal([]byte(keywordsJSON.String), &keywords)
	}
	c.SetAuthors(authors)
	c.SetKeywords(keywords)
	return c, nil
}
