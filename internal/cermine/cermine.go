// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cermine runs the CERMINE content extractor over a directory of
// PDFs and collects the JATS documents it writes beside them.
package cermine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/pdiddy/refchaser/internal/container"
	"github.com/pdiddy/refchaser/pkg/types"
)

const (
	// resultExt is the extension CERMINE gives its JATS output.
	resultExt = ".cermxml"
	// mountPoint is where the PDF directory appears inside the container.
	mountPoint = "/data"
)

// ErrNoPDFs is returned when the input directory holds no PDF files.
var ErrNoPDFs = errors.New("no PDF files found")

// Document is one CERMINE result: the source PDF's stem and its JATS markup.
type Document struct {
	Name   string
	Path   string
	Markup string
}

// Extractor invokes CERMINE through a container runtime.
type Extractor struct {
	rt      container.Runtime
	image   string
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Extractor that runs cfg.Image on rt.
func New(rt container.Runtime, cfg types.CermineConfig, opts ...Option) *Extractor {
	e := &Extractor{
		rt:      rt,
		image:   cfg.Image,
		timeout: cfg.Timeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractStructure runs CERMINE over every PDF in pdfDir and returns the
// parsed documents together with the file names of PDFs that produced no
// result. The container is not started when every PDF already has a result
// from an earlier run. A failed run is an error only when it leaves no
// documents at all.
func (e *Extractor) ExtractStructure(ctx context.Context, pdfDir string) ([]Document, []string, error) {
	pdfs, err := listPDFs(pdfDir)
	if err != nil {
		return nil, nil, err
	}
	if len(pdfs) == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoPDFs, pdfDir)
	}

	var runErr error
	if pending := missingResults(pdfDir, pdfs); len(pending) > 0 {
		e.logger.Info("running cermine",
			zap.String("runtime", e.rt.Name()),
			zap.String("image", e.image),
			zap.Int("pdfs", len(pdfs)),
			zap.Int("pending", len(pending)),
		)
		runErr = e.run(ctx, pdfDir)
		if runErr != nil {
			e.logger.Warn("cermine run failed", zap.Error(runErr))
		}
	} else {
		e.logger.Info("cermine results already present", zap.Int("pdfs", len(pdfs)))
	}

	docs, failed, err := collect(pdfDir, pdfs)
	if err != nil {
		return nil, nil, err
	}
	if runErr != nil && len(docs) == 0 {
		return nil, failed, runErr
	}
	return docs, failed, nil
}

func (e *Extractor) run(ctx context.Context, pdfDir string) error {
	args := []string{"-path", mountPoint, "-outputs", "jats"}
	if e.timeout > 0 {
		args = append(args, "-timeout", strconv.Itoa(int(e.timeout.Seconds())))
	}

	var out bytes.Buffer
	err := e.rt.Run(ctx, container.RunSpec{
		Image:  e.image,
		Mounts: []container.Mount{{Host: pdfDir, Container: mountPoint}},
		Args:   args,
	}, &out)
	if out.Len() > 0 {
		e.logger.Debug("cermine output", zap.String("output", out.String()))
	}
	return err
}

// ReadDocuments loads existing CERMINE results from pdfDir without running
// the extractor. The second result lists PDFs with no result file.
func ReadDocuments(pdfDir string) ([]Document, []string, error) {
	pdfs, err := listPDFs(pdfDir)
	if err != nil {
		return nil, nil, err
	}
	return collect(pdfDir, pdfs)
}

// collect reads the result for each PDF. A PDF whose stem has no result
// file is reported as failed.
func collect(dir string, pdfs []string) ([]Document, []string, error) {
	var docs []Document
	var failed []string
	for _, pdf := range pdfs {
		stem := strings.TrimSuffix(pdf, filepath.Ext(pdf))
		path := filepath.Join(dir, stem+resultExt)
		markup, err := readLatin1(path)
		if errors.Is(err, os.ErrNotExist) {
			failed = append(failed, pdf)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, Document{Name: stem, Path: path, Markup: markup})
	}
	return docs, failed, nil
}

func missingResults(dir string, pdfs []string) []string {
	var missing []string
	for _, pdf := range pdfs {
		stem := strings.TrimSuffix(pdf, filepath.Ext(pdf))
		if _, err := os.Stat(filepath.Join(dir, stem+resultExt)); err != nil {
			missing = append(missing, pdf)
		}
	}
	return missing
}

// listPDFs returns the names of PDF files directly inside dir, sorted.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading PDF directory %s: %w", dir, err)
	}
	var pdfs []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		pdfs = append(pdfs, e.Name())
	}
	sort.Strings(pdfs)
	return pdfs, nil
}

// readLatin1 reads a CERMINE result, which is written in ISO-8859-1.
func readLatin1(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return string(decoded), nil
}
