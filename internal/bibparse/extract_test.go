// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTagged(t *testing.T) {
	r, err := Lookup(FormatRIS)
	require.NoError(t, err)
	record := r.Split(sampleRIS)[0]

	tests := []struct {
		name      string
		tag       string
		multi     bool
		want      []string
		wantFound bool
	}{
		{"single", "TI", false, []string{"Effects of exercise on sleep quality in adults"}, true},
		{"single takes first occurrence", "AU", false, []string{"Smith, John"}, true},
		{"multi keeps order", "AU", true, []string{"Smith, John", "Doe, Jane", "Brown, Alice"}, true},
		{"missing", "N1", false, nil, false},
		{"missing multi", "A2", true, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := r.Extract(record, tt.tag, tt.multi)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractMultiKeepsDuplicates(t *testing.T) {
	r, err := Lookup(FormatRIS)
	require.NoError(t, err)

	got, found := r.ExtractMulti("KW  - sleep\nKW  - sleep\nKW  - rest\n", "KW")
	assert.True(t, found)
	assert.Equal(t, []string{"sleep", "sleep", "rest"}, got)
}

func TestExtractMultiMissIsEmptyDefault(t *testing.T) {
	r, err := Lookup(FormatNBIB)
	require.NoError(t, err)

	got, found := r.ExtractMulti("PMID- 42\nTI  - Only a title\n", "FAU")
	assert.False(t, found)
	assert.Equal(t, []string{""}, got)
}

func TestExtractSingle(t *testing.T) {
	r, err := Lookup(FormatNBIB)
	require.NoError(t, err)

	v, found := r.ExtractSingle(sampleNBIB, "JT")
	assert.True(t, found)
	assert.Equal(t, "Sleep medicine", v)

	v, found = r.ExtractSingle(sampleNBIB, "VI")
	assert.False(t, found)
	assert.Equal(t, "", v)
}

func TestExtractCIWContinuationAuthors(t *testing.T) {
	r, err := Lookup(FormatCIW)
	require.NoError(t, err)

	raw := "AF Smith, John\n   Doe, Jane\n   Roe, Richard\nTI Title\n"
	got, found := r.Extract(raw, "AF", true)
	assert.True(t, found)
	assert.Equal(t, []string{"Smith, John", "Doe, Jane", "Roe, Richard"}, got)
}

func TestExtractCIWKeywordSeparator(t *testing.T) {
	r, err := Lookup(FormatCIW)
	require.NoError(t, err)

	got, found := r.Extract("DE sleep;exercise ;  adults\n", "DE", false)
	assert.True(t, found)
	assert.Equal(t, []string{"sleep", "exercise", "adults"}, got)
}

func TestExtractBibTeX(t *testing.T) {
	r, err := Lookup(FormatBibTeX)
	require.NoError(t, err)
	record := r.Split(sampleBibTeX)[0]

	v, found := r.ExtractSingle(record, "Journal")
	assert.True(t, found, "field names are case-insensitive")
	assert.Equal(t, "Sleep Research", v)

	v, found = r.ExtractSingle(`@book{k, title = "Quoted title value"}`, "title")
	assert.True(t, found)
	assert.Equal(t, "Quoted title value", v)

	_, found = r.ExtractSingle(record, "publisher")
	assert.False(t, found)
}

func TestExtractBibTeXMultilineValue(t *testing.T) {
	r, err := Lookup(FormatBibTeX)
	require.NoError(t, err)

	raw := "@article{k,\n  title = {A title that\n    wraps onto a second line},\n}\n"
	v, found := r.ExtractSingle(raw, "title")
	assert.True(t, found)
	assert.Equal(t, "A title that wraps onto a second line", v)
}
