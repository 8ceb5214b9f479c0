// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes plain-text artifacts: built queries, parse failure
// lists, and download reports.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteText writes content to path, creating parent directories. The file
// is written to a temporary name and renamed so readers never see a
// partial report.
func WriteText(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.WriteString(content)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// FailureReport lists items that could not be parsed, one per line. It
// returns an empty string when nothing failed.
func FailureReport(failed []string) string {
	if len(failed) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "failed to parse the following %d items:\n", len(failed))
	for _, f := range failed {
		b.WriteString(f)
		b.WriteByte('\n')
	}
	return b.String()
}
