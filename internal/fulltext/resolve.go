// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/refchaser/internal/httputil"
)

// Base URLs for DOI resolution. Declared as vars so tests can substitute
// httptest servers.
var (
	openAlexAPIBase = "https://api.openalex.org/works/"
	doiBase         = "https://doi.org/"
)

// doiPattern matches a bare DOI: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// doiPrefixes are resolver and label prefixes stripped by NormalizeDOI.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// NormalizeDOI strips resolver URLs and a "doi:" label from s and reports
// whether the remainder is a DOI.
func NormalizeDOI(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, p := range doiPrefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	return s, doiPattern.MatchString(s)
}

// openAlexResponse captures the fields we need from an OpenAlex work record.
type openAlexResponse struct {
	BestOALocation *openAlexLocation `json:"best_oa_location"`
}

// openAlexLocation represents an open-access location in the OpenAlex response.
type openAlexLocation struct {
	PDFURL     string `json:"pdf_url"`
	LandingURL string `json:"landing_page_url"`
}

// resolveOpenAlex queries OpenAlex for a DOI and returns the open-access PDF
// URL if one exists. It returns an empty string when the work has no
// open-access PDF.
func (f *Fetcher) resolveOpenAlex(ctx context.Context, doi string) (string, error) {
	apiURL := openAlexAPIBase + "https://doi.org/" + doi
	if f.cfg.Mailto != "" {
		apiURL += "?mailto=" + url.QueryEscape(f.cfg.Mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating OpenAlex request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries, httputil.WithLogger(f.logger))
	if err != nil {
		return "", fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oa openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oa); err != nil {
		return "", fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	if oa.BestOALocation == nil {
		return "", nil
	}
	return oa.BestOALocation.PDFURL, nil
}

// slugReplacer maps characters that are unsafe in file names.
var slugReplacer = strings.NewReplacer(
	"/", "-", `\`, "-", ":", "-", "*", "", "?", "", `"`, "", "<", "", ">", "", "|", "",
)

// Slug returns a filesystem-safe file stem for a DOI.
func Slug(doi string) string {
	return slugReplacer.Replace(strings.TrimSpace(doi))
}
