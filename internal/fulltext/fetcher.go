// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fulltext downloads the full-text PDFs of citations by DOI.
// Open-access copies found through OpenAlex are preferred; the DOI resolver
// is the fallback. Every body is checked to be a readable PDF before it is
// accepted.
package fulltext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/refchaser/internal/httputil"
	"github.com/pdiddy/refchaser/pkg/types"
)

var (
	// ErrInvalidDOI is returned for identifiers that are not DOIs.
	ErrInvalidDOI = errors.New("not a DOI")

	// ErrNotPDF is returned when a download is not a readable PDF.
	ErrNotPDF = errors.New("response is not a PDF")
)

// maxBodySize bounds a single download.
const maxBodySize = 100 << 20

// Fetcher retrieves full texts over HTTP. It is safe for concurrent use;
// all requests share one rate limiter.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     types.FetchConfig
	logger  *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithLogger sets the logger for retries and fallbacks.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a Fetcher. A non-positive RequestsPerSecond disables
// pacing.
func NewFetcher(cfg types.FetchConfig, opts ...Option) *Fetcher {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	f := &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		cfg:     cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchFullText returns the PDF bytes for a DOI. The identifier may carry a
// resolver prefix. Each candidate URL is tried in turn and the combined
// errors are returned when none yields a PDF.
func (f *Fetcher) FetchFullText(ctx context.Context, identifier string) ([]byte, error) {
	doi, ok := NormalizeDOI(identifier)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDOI, identifier)
	}

	var candidates []string
	oaURL, err := f.resolveOpenAlex(ctx, doi)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Debug("openalex lookup failed", zap.String("doi", doi), zap.Error(err))
	case oaURL != "":
		candidates = append(candidates, oaURL)
	}
	candidates = append(candidates, doiBase+doi)

	var errs []error
	for _, u := range candidates {
		body, err := f.download(ctx, u)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Debug("candidate failed", zap.String("doi", doi), zap.String("url", u), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", u, err))
	}
	return nil, fmt.Errorf("fetching %s: %w", doi, errors.Join(errs...))
}

// download fetches url and verifies the body is a PDF.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries, httputil.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if err := validatePDF(body); err != nil {
		return nil, err
	}
	return body, nil
}

// validatePDF parses the document structure and requires at least one page.
func validatePDF(body []byte) error {
	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	if r.NumPage() < 1 {
		return fmt.Errorf("%w: no pages", ErrNotPDF)
	}
	return nil
}
