// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refchaser/internal/bibparse"
	"github.com/pdiddy/refchaser/internal/catalog"
	"github.com/pdiddy/refchaser/internal/fulltext"
	"github.com/pdiddy/refchaser/internal/report"
	"github.com/pdiddy/refchaser/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [files or directories...]",
	Short: "Download full-text PDFs for the records in bibliographic files",
	Long: `Fetch downloads the full text of every record with a DOI. Open-access
copies located through OpenAlex are tried first, then the DOI resolver. Every
download is checked to be a readable PDF. Files are named after the DOI, and
files already present are skipped.

For each input file a <name>_report.txt lists totals and the records that
could not be retrieved. With --separate each file's PDFs go into their own
subdirectory of --to. With --batch records come from the catalog instead.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("to", "", "directory to save PDFs to (required)")
	fetchCmd.Flags().Bool("separate", false, "save each file's PDFs in a subdirectory named after the file")
	fetchCmd.Flags().Bool("no-report", false, "do not write download reports")
	fetchCmd.Flags().String("batch", "", "fetch the records of this catalog batch")
	fetchCmd.Flags().Duration("timeout", 0, "per-request timeout (default from config)")
	fetchCmd.Flags().String("mailto", "", "contact address for OpenAlex (default from config)")
	fetchCmd.Flags().Int("concurrency", 0, "parallel downloads (default from config)")

	rootCmd.AddCommand(fetchCmd)
}

// fetchJob is one set of records downloaded and reported together.
type fetchJob struct {
	name      string
	citations []types.Citation
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	to, _ := cmd.Flags().GetString("to")
	if to == "" {
		return fmt.Errorf("--to is required")
	}
	separate, _ := cmd.Flags().GetBool("separate")
	noReport, _ := cmd.Flags().GetBool("no-report")
	batchName, _ := cmd.Flags().GetString("batch")
	if v, _ := cmd.Flags().GetDuration("timeout"); v > 0 {
		cfg.Fetch.Timeout = v
	}
	if v, _ := cmd.Flags().GetString("mailto"); v != "" {
		cfg.Fetch.Mailto = v
	}
	if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
		cfg.Fetch.Concurrency = v
	}

	var jobs []fetchJob
	switch {
	case batchName != "":
		store, err := catalog.Open(cfg.Catalog)
		if err != nil {
			return err
		}
		citations, err := store.Batch(ctx, batchName)
		store.Close()
		if err != nil {
			return err
		}
		jobs = append(jobs, fetchJob{name: batchName, citations: citations})
	case len(args) > 0:
		paths, err := bibparse.CollectFiles(args)
		if err != nil {
			return err
		}
		result := bibparse.NewParser(bibparse.WithLogger(logger)).ParseFiles(ctx, paths, cfg.Parse.Workers, os.Stderr)
		for _, f := range result.Files {
			if f.Err == nil {
				jobs = append(jobs, fetchJob{name: f.Batch(), citations: f.Citations})
			}
		}
	default:
		return fmt.Errorf("provide bibliographic files or --batch")
	}

	fetcher := fulltext.NewFetcher(cfg.Fetch, fulltext.WithLogger(logger))
	missing := 0
	for _, job := range jobs {
		dir := to
		if separate {
			dir = filepath.Join(to, job.name)
		}
		fmt.Fprintf(os.Stderr, "\nfetching %d records from %s into %s\n", len(job.citations), job.name, dir)

		rep, err := fetcher.FetchBatch(ctx, job.citations, dir, os.Stderr)
		missing += len(rep.Missing)
		if !noReport && rep.Identified > 0 {
			path := filepath.Join(dir, job.name+"_report.txt")
			if werr := report.WriteText(path, rep.Render()); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "retrieved %d of %d in %s\n",
			rep.Retrieved, rep.Identified, rep.Elapsed.Round(time.Second))
	}

	if missing > 0 {
		return fmt.Errorf("%d record(s) could not be retrieved", missing)
	}
	return nil
}
