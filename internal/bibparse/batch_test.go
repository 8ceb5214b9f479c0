// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibparse

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/refchaser/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	ris := writeFile(t, dir, "wos.ris", sampleRIS)
	nbib := writeFile(t, dir, "pubmed.nbib", sampleNBIB)
	txt := writeFile(t, dir, "notes.txt", "nothing to see here at all")
	missing := filepath.Join(dir, "gone.ciw")

	var buf bytes.Buffer
	result := NewParser().ParseFiles(context.Background(), []string{ris, txt, nbib, missing}, 2, &buf)

	require.Len(t, result.Files, 4)
	assert.Equal(t, 2, result.Parsed())
	assert.Equal(t, 2, result.Failed())
	assert.True(t, result.HasFailures())

	assert.Equal(t, ris, result.Files[0].Path)
	assert.Equal(t, FormatRIS, result.Files[0].Format)
	assert.Len(t, result.Files[0].Citations, 2)
	assert.True(t, errors.Is(result.Files[1].Err, types.ErrUnsupportedFormat))
	assert.Equal(t, FormatNBIB, result.Files[2].Format)
	assert.True(t, errors.Is(result.Files[3].Err, os.ErrNotExist))

	assert.Len(t, result.Citations(), 4)

	out := buf.String()
	assert.Contains(t, out, "parsed  "+ris+" (ris, 2 records)")
	assert.Contains(t, out, "failed  "+txt)
	assert.Contains(t, out, "parsed  "+nbib+" (nbib, 2 records)")
}

func TestParseFilesCanceled(t *testing.T) {
	dir := t.TempDir()
	ris := writeFile(t, dir, "wos.ris", sampleRIS)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	result := NewParser().ParseFiles(ctx, []string{ris}, 0, &buf)
	require.Len(t, result.Files, 1)
	assert.ErrorIs(t, result.Files[0].Err, context.Canceled)
}

func TestFileResultBatch(t *testing.T) {
	assert.Equal(t, "savedrecs", FileResult{Path: "/tmp/exports/savedrecs.ciw"}.Batch())
	assert.Equal(t, "pubmed-2024", FileResult{Path: "pubmed-2024.nbib"}.Batch())
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.nbib", sampleNBIB)
	writeFile(t, dir, "a.ris", sampleRIS)
	writeFile(t, dir, "readme.md", "# exports")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.ris"), 0o755))

	extra := writeFile(t, t.TempDir(), "single.txt", "kept as given")

	got, err := CollectFiles([]string{dir, extra})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.ris"),
		filepath.Join(dir, "b.nbib"),
		extra,
	}, got)

	_, err = CollectFiles([]string{filepath.Join(dir, "absent")})
	assert.Error(t, err)
}
