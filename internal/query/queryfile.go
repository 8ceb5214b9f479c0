// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// QueryFile is the on-disk record of one chase run's queries. It keeps the
// parameters beside each query string so a search can be rerun or audited
// without reparsing the source documents.
type QueryFile struct {
	Source  string       `yaml:"source"`
	Queries []SavedQuery `yaml:"queries"`
	Summary QuerySummary `yaml:"summary"`
}

// SavedQuery is one built query with the parameters that produced it.
type SavedQuery struct {
	Direction Direction `json:"direction" yaml:"direction"`
	Target    Target    `json:"target" yaml:"target"`
	Mode      Mode      `json:"mode" yaml:"mode"`
	Terms     int       `json:"terms" yaml:"terms"`
	Query     string    `json:"query" yaml:"query"`
}

// QuerySummary stores input statistics and a timestamp.
type QuerySummary struct {
	IndexArticles int       `yaml:"index_articles"`
	References    int       `yaml:"references"`
	Failed        []string  `yaml:"failed,omitempty"`
	Timestamp     time.Time `yaml:"timestamp"`
}

// Saved builds a SavedQuery, counting the terms that survived filtering.
func Saved(dir Direction, values []string, target Target, mode Mode) SavedQuery {
	t, _ := ParseTarget(string(target))
	m, err := ParseMode(string(mode))
	if err != nil {
		m = ModeFirstAuthor
	}
	ts := terms(values, m)
	return SavedQuery{
		Direction: dir,
		Target:    t,
		Mode:      m,
		Terms:     len(ts),
		Query:     envelope(t, ts),
	}
}

// WriteQueryFile saves a query file as YAML.
func WriteQueryFile(path string, qf QueryFile) error {
	if qf.Summary.Timestamp.IsZero() {
		qf.Summary.Timestamp = time.Now()
	}
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
