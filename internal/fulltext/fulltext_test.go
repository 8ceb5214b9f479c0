// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/refchaser/pkg/types"
)

// minimalPDF builds a one-page PDF with a correct cross-reference table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func testConfig() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "refchaser-test/0.1",
		},
		MaxRetries:  1,
		Concurrency: 2,
	}
}

// withBases points the resolver URLs at ts for the duration of the test.
func withBases(t *testing.T, ts *httptest.Server) {
	t.Helper()
	origOA, origDOI := openAlexAPIBase, doiBase
	openAlexAPIBase = ts.URL + "/works/"
	doiBase = ts.URL + "/doi/"
	t.Cleanup(func() {
		openAlexAPIBase = origOA
		doiBase = origDOI
	})
}

// library serves OpenAlex records, open-access PDFs, and DOI landings.
// oa maps a DOI to the open-access path it advertises; doi maps a DOI to
// the body served by the resolver.
type library struct {
	oa  map[string]string
	doi map[string][]byte
}

func (l library) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/works/"):
		doi := strings.TrimPrefix(r.URL.Path, "/works/https://doi.org/")
		path, ok := l.oa[doi]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"best_oa_location": {"pdf_url": "http://%s%s"}}`, r.Host, path)
	case r.URL.Path == "/oa/good.pdf":
		w.Write(minimalPDF())
	case strings.HasPrefix(r.URL.Path, "/doi/"):
		body, ok := l.doi[strings.TrimPrefix(r.URL.Path, "/doi/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(body)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"10.1145/1234567.1234568", "10.1145/1234567.1234568", true},
		{"  10.1038/s41586-024-07487-w ", "10.1038/s41586-024-07487-w", true},
		{"https://doi.org/10.1016/j.x.2020.01.001", "10.1016/j.x.2020.01.001", true},
		{"https://dx.doi.org/10.1016/abc", "10.1016/abc", true},
		{"doi:10.1016/abc", "10.1016/abc", true},
		{"DOI: 10.1016/abc", "10.1016/abc", true},
		{"not-a-doi", "not-a-doi", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDOI(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeDOI(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		doi  string
		want string
	}{
		{"10.1145/1234567.1234568", "10.1145-1234567.1234568"},
		{"10.1002/(SICI)1097:AID<1>", "10.1002-(SICI)1097-AID1"},
	}
	for _, tt := range tests {
		if got := Slug(tt.doi); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.doi, got, tt.want)
		}
	}
}

func TestFetchFullTextPrefersOpenAccess(t *testing.T) {
	var gotMailto string
	lib := library{oa: map[string]string{"10.1000/oa": "/oa/good.pdf"}}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/works/") {
			gotMailto = r.URL.Query().Get("mailto")
		}
		lib.ServeHTTP(w, r)
	}))
	defer ts.Close()
	withBases(t, ts)

	cfg := testConfig()
	cfg.Mailto = "me@example.org"
	body, err := NewFetcher(cfg, WithHTTPClient(ts.Client())).FetchFullText(context.Background(), "https://doi.org/10.1000/oa")
	require.NoError(t, err)
	assert.Equal(t, minimalPDF(), body)
	assert.Equal(t, "me@example.org", gotMailto)
}

func TestFetchFullTextFallsBackToResolver(t *testing.T) {
	ts := httptest.NewServer(library{doi: map[string][]byte{"10.1000/closed": minimalPDF()}})
	defer ts.Close()
	withBases(t, ts)

	body, err := NewFetcher(testConfig(), WithHTTPClient(ts.Client())).FetchFullText(context.Background(), "10.1000/closed")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-1.4")))
}

func TestFetchFullTextRejectsNonPDF(t *testing.T) {
	ts := httptest.NewServer(library{doi: map[string][]byte{"10.1000/html": []byte("<html>paywall</html>")}})
	defer ts.Close()
	withBases(t, ts)

	_, err := NewFetcher(testConfig(), WithHTTPClient(ts.Client())).FetchFullText(context.Background(), "10.1000/html")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestFetchFullTextInvalidDOI(t *testing.T) {
	_, err := NewFetcher(testConfig()).FetchFullText(context.Background(), "Smith 2020")
	assert.ErrorIs(t, err, ErrInvalidDOI)
}

func TestFetchFullTextNotFound(t *testing.T) {
	ts := httptest.NewServer(library{})
	defer ts.Close()
	withBases(t, ts)

	_, err := NewFetcher(testConfig(), WithHTTPClient(ts.Client())).FetchFullText(context.Background(), "10.1000/none")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.False(t, errors.Is(err, ErrNotPDF))
}

func TestFetchBatch(t *testing.T) {
	ts := httptest.NewServer(library{
		oa: map[string]string{"10.1000/a": "/oa/good.pdf"},
		doi: map[string][]byte{
			"10.1000/b": minimalPDF(),
			"10.1000/c": []byte("not a pdf"),
		},
	})
	defer ts.Close()
	withBases(t, ts)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10.1000-d.pdf"), minimalPDF(), 0o644))

	citations := []types.Citation{
		{Title: "Alpha", DOI: "10.1000/a"},
		{Title: "Bravo", DOI: "10.1000/b"},
		{Title: "Charlie", DOI: "10.1000/c"},
		{Title: "Delta", DOI: "10.1000/d"},
		{Title: "Echo"},
	}

	var out bytes.Buffer
	report, err := NewFetcher(testConfig(), WithHTTPClient(ts.Client())).FetchBatch(context.Background(), citations, dir, &out)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Identified)
	assert.Equal(t, 5, report.Attempted)
	assert.Equal(t, 3, report.Retrieved)
	assert.Equal(t, 1, report.Skipped)
	assert.True(t, report.HasFailures())
	require.Len(t, report.Missing, 2)
	assert.Equal(t, "Charlie", report.Missing[0].Title)
	assert.Equal(t, "Echo", report.Missing[1].Title)

	for _, name := range []string{"10.1000-a.pdf", "10.1000-b.pdf"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.NoFileExists(t, filepath.Join(dir, "10.1000-c.pdf"))

	tmps, _ := filepath.Glob(filepath.Join(dir, ".fetch-*"))
	assert.Empty(t, tmps, "temp files are cleaned up")

	assert.Contains(t, out.String(), "skipped: 10.1000/d (already exists)")
	assert.Contains(t, out.String(), "failed:  Echo")
	assert.Contains(t, out.String(), "Batch summary: 2 retrieved, 1 skipped, 2 failed (total: 5)")
}

func TestFetchBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewFetcher(testConfig()).FetchBatch(ctx, []types.Citation{{DOI: "10.1000/a"}}, t.TempDir(), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, report.Missing, 1)
}

func TestDownloadReportRender(t *testing.T) {
	r := DownloadReport{
		Identified: 3,
		Attempted:  3,
		Retrieved:  1,
		Elapsed:    2500 * time.Millisecond,
		Missing: []types.Citation{
			{Title: "Paper one", DOI: "10.1/one"},
			{Title: "Paper two"},
		},
	}
	want := "Total number of articles identified from bibliographic file: 3\n" +
		"Number of downloads attempted: 3\n" +
		"Number of articles successfully retrieved: 1\n" +
		"Time taken: 2.5 seconds\n" +
		"\nA total of 2 articles were not downloaded. Please manually retrieve them.\n" +
		"Paper one DOI: 10.1/one\n" +
		"Paper two DOI: \n"
	assert.Equal(t, want, r.Render())
}
