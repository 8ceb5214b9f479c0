// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chase

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/refchaser/internal/cermine"
	"github.com/pdiddy/refchaser/internal/query"
)

func article(title, doi string, refs ...string) string {
	s := `<article article-type="research-article"><front><article-meta>` +
		`<article-id pub-id-type="doi">` + doi + `</article-id>` +
		`<article-title>` + title + `</article-title>` +
		`</article-meta></front><back><ref-list>`
	for i, r := range refs {
		s += `<ref id="ref` + string(rune('1'+i)) + `"><mixed-citation><article-title>` + r + `</article-title></mixed-citation></ref>`
	}
	return s + `</ref-list></back></article>`
}

func sampleDocs() []cermine.Document {
	return []cermine.Document{
		{Name: "doe2021", Markup: article("Exercise and sleep quality in older adults", "10.1111/jsr.1",
			"Physical activity and insomnia in the elderly",
			"Short")},
		{Name: "broken", Markup: "<html>not jats</html>"},
		{Name: "roe2020", Markup: article("Sleep hygiene education for shift workers", "10.1111/jsr.2",
			"Physical activity and insomnia in the elderly",
			"Circadian misalignment in night shift nurses")},
	}
}

func TestBuild(t *testing.T) {
	var out bytes.Buffer
	opts := Options{ForwardTarget: query.TargetWOS, BackwardTarget: query.TargetPubMed, Mode: query.ModeTitles}

	res, err := Build(context.Background(), "pdfs", sampleDocs(), []string{"missing.pdf"}, opts, &out)
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, 4, res.References())
	assert.Equal(t, []string{"missing.pdf", "broken.pdf"}, res.Failed)
	assert.True(t, res.HasFailures())

	assert.Equal(t,
		`TI=("Exercise and sleep quality in older adults" OR "Sleep hygiene education for shift workers")`,
		res.Forward.Query)
	assert.Equal(t, query.Forward, res.Forward.Direction)
	assert.Equal(t, 2, res.Forward.Terms)

	assert.Equal(t,
		`("Physical activity and insomnia in the elderly"[Title]) OR ("Circadian misalignment in night shift nurses"[Title])`,
		res.Backward.Query, "short titles dropped, duplicates merged")
	assert.Equal(t, query.TargetPubMed, res.Backward.Target)

	assert.Contains(t, out.String(), "failed  missing.pdf: no extraction result")
	assert.Contains(t, out.String(), "failed  broken:")
	assert.Contains(t, out.String(), "parsed  doe2021 (2 references)")
}

func TestBuildForwardDOIs(t *testing.T) {
	opts := Options{ForwardTarget: query.TargetScopus, BackwardTarget: query.TargetWOS, Mode: "doi"}
	res, err := Build(context.Background(), "pdfs", sampleDocs()[:1], nil, opts, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, query.ModeDOIs, res.Forward.Mode)
	assert.Equal(t, "TITLE()", res.Forward.Query, "short DOIs fail the segment filter")
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, "pdfs", sampleDocs(), nil, Options{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "queries")
	opts := Options{ForwardTarget: query.TargetWOS, BackwardTarget: query.TargetWOS, Mode: query.ModeTitles}
	res, err := Build(context.Background(), "pdfs", sampleDocs(), nil, opts, &bytes.Buffer{})
	require.NoError(t, err)

	require.NoError(t, Write(dir, res))

	forw, err := os.ReadFile(filepath.Join(dir, ForwardFile))
	require.NoError(t, err)
	assert.Equal(t, res.Forward.Query, string(forw))

	back, err := os.ReadFile(filepath.Join(dir, BackwardFile))
	require.NoError(t, err)
	assert.Equal(t, res.Backward.Query, string(back))

	rep, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	assert.Equal(t, "failed to parse the following 1 items:\nbroken.pdf\n", string(rep))

	qf, err := query.ReadQueryFile(filepath.Join(dir, QueriesFile))
	require.NoError(t, err)
	assert.Equal(t, "pdfs", qf.Source)
	require.Len(t, qf.Queries, 2)
	assert.Equal(t, res.Forward, qf.Queries[0])
	assert.Equal(t, 2, qf.Summary.IndexArticles)
	assert.Equal(t, 4, qf.Summary.References)
	assert.False(t, qf.Summary.Timestamp.IsZero())
}

func TestWriteWithoutFailuresSkipsReport(t *testing.T) {
	dir := t.TempDir()
	res, err := Build(context.Background(), "pdfs", sampleDocs()[:1], nil, Options{}, &bytes.Buffer{})
	require.NoError(t, err)

	require.NoError(t, Write(dir, res))
	assert.NoFileExists(t, filepath.Join(dir, ReportFile))
	assert.FileExists(t, filepath.Join(dir, ForwardFile))
}
