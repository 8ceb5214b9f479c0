// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/refchaser/internal/catalog"
	"github.com/pdiddy/refchaser/internal/cermine"
	"github.com/pdiddy/refchaser/internal/chase"
	"github.com/pdiddy/refchaser/internal/container"
	"github.com/pdiddy/refchaser/internal/query"
)

var chaseCmd = &cobra.Command{
	Use:   "chase <pdf-dir>",
	Short: "Build forward and backward citation queries from full-text PDFs",
	Long: `Chase runs CERMINE over the PDFs in a directory, reads each article's
title, DOI and reference list, and writes a forward query (works citing the
articles) and a backward query (the articles' references):

  forw_query.txt   forward query for --forward-db
  back_query.txt   backward query for --backward-db
  report.txt       PDFs that could not be parsed (only when some failed)
  queries.yaml     both queries with their parameters

CERMINE runs in a container (docker or podman). Results already beside the
PDFs are reused; --no-extract skips the container entirely.`,
	Args: cobra.ExactArgs(1),
	RunE: runChase,
}

func init() {
	chaseCmd.Flags().String("to", "", "directory for query files (default: the PDF directory)")
	chaseCmd.Flags().String("forward-db", "", "database for the forward query (default from config)")
	chaseCmd.Flags().String("backward-db", "", "database for the backward query (default from config)")
	chaseCmd.Flags().String("mode", "", "forward field: titles, dois, or first_author (default from config)")
	chaseCmd.Flags().String("image", "", "CERMINE container image (default from config)")
	chaseCmd.Flags().Bool("no-extract", false, "use existing CERMINE results without running the container")
	chaseCmd.Flags().Bool("catalog", false, "store the articles and queries in the catalog")

	rootCmd.AddCommand(chaseCmd)
}

func runChase(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	pdfDir := args[0]

	to, _ := cmd.Flags().GetString("to")
	if to == "" {
		to = pdfDir
	}
	if v, _ := cmd.Flags().GetString("forward-db"); v != "" {
		cfg.Query.ForwardDatabase = v
	}
	if v, _ := cmd.Flags().GetString("backward-db"); v != "" {
		cfg.Query.BackwardDatabase = v
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.Query.Mode = v
	}
	if v, _ := cmd.Flags().GetString("image"); v != "" {
		cfg.Cermine.Image = v
	}
	noExtract, _ := cmd.Flags().GetBool("no-extract")
	toCatalog, _ := cmd.Flags().GetBool("catalog")

	opts, err := chaseOptions(cfg.Query.ForwardDatabase, cfg.Query.BackwardDatabase, cfg.Query.Mode)
	if err != nil {
		return err
	}

	var (
		docs   []cermine.Document
		failed []string
	)
	if noExtract {
		docs, failed, err = cermine.ReadDocuments(pdfDir)
	} else {
		rt, rtErr := container.DetectRuntime(ctx)
		if rtErr != nil {
			return rtErr
		}
		if err := rt.ImageExists(ctx, cfg.Cermine.Image); err != nil {
			return err
		}
		docs, failed, err = cermine.New(rt, cfg.Cermine, cermine.WithLogger(logger)).ExtractStructure(ctx, pdfDir)
	}
	if err != nil {
		return err
	}

	res, err := chase.Build(ctx, pdfDir, docs, failed, opts, os.Stderr)
	if err != nil {
		return err
	}
	if err := chase.Write(to, res); err != nil {
		return err
	}
	logger.Info("queries written", zap.String("dir", to),
		zap.Int("forward_terms", res.Forward.Terms), zap.Int("backward_terms", res.Backward.Terms))

	if toCatalog {
		store, err := catalog.Open(cfg.Catalog)
		if err != nil {
			return err
		}
		defer store.Close()

		batch := filepath.Base(filepath.Clean(pdfDir))
		if err := store.SaveBatch(ctx, batch, pdfDir, res.Records); err != nil {
			return err
		}
		for _, q := range []query.SavedQuery{res.Forward, res.Backward} {
			if err := store.RecordQuery(ctx, batch, q); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "stored  %s as batch %q\n", pdfDir, batch)
	}

	fmt.Fprintf(os.Stderr, "\narticles: %d, references: %d, failed: %d\n",
		len(res.Records), res.References(), len(res.Failed))
	fmt.Fprintf(os.Stderr, "wrote %s and %s to %s\n", chase.ForwardFile, chase.BackwardFile, to)
	return nil
}

// chaseOptions resolves database and mode names, accepting the numeric
// menu aliases.
func chaseOptions(forward, backward, mode string) (chase.Options, error) {
	ft, ok := query.ParseTarget(forward)
	if !ok {
		return chase.Options{}, fmt.Errorf("unknown forward database %q", forward)
	}
	bt, ok := query.ParseTarget(backward)
	if !ok {
		return chase.Options{}, fmt.Errorf("unknown backward database %q", backward)
	}
	m, err := query.ParseMode(mode)
	if err != nil {
		return chase.Options{}, err
	}
	return chase.Options{ForwardTarget: ft, BackwardTarget: bt, Mode: m}, nil
}
