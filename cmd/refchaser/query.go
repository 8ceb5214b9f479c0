// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refchaser/internal/bibparse"
	"github.com/pdiddy/refchaser/internal/catalog"
	"github.com/pdiddy/refchaser/internal/query"
	"github.com/pdiddy/refchaser/internal/report"
	"github.com/pdiddy/refchaser/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query [files or directories...]",
	Short: "Build a boolean search query from citation records",
	Long: `Query builds a database search query from the titles, DOIs, or first
authors of parsed citation records. Records come from bibliographic files or,
with --batch, from the catalog. Forward queries use the records themselves;
backward queries use the references stored with them, so they need a batch
saved by chase.

Databases: WOS (1), PubMed (2), EMBASE (3), Scopus (4), GS (5).`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("db", "", "target database (default from config)")
	queryCmd.Flags().String("mode", "", "forward field: titles, dois, or first_author (default from config)")
	queryCmd.Flags().String("direction", "forward", "forward or backward")
	queryCmd.Flags().String("batch", "", "read records from this catalog batch")
	queryCmd.Flags().String("out", "", "also write the query to this file")
	queryCmd.Flags().Bool("catalog", false, "record the query in the catalog")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	dirName, _ := cmd.Flags().GetString("direction")
	dir, ok := query.ParseDirection(dirName)
	if !ok {
		return fmt.Errorf("unknown direction %q: use forward or backward", dirName)
	}
	db, _ := cmd.Flags().GetString("db")
	if db == "" {
		db = cfg.Query.ForwardDatabase
		if dir == query.Backward {
			db = cfg.Query.BackwardDatabase
		}
	}
	target, ok := query.ParseTarget(db)
	if !ok {
		logger.Warn("unknown database, using plain OR syntax")
	}
	modeName, _ := cmd.Flags().GetString("mode")
	if modeName == "" {
		modeName = cfg.Query.Mode
	}
	mode, err := query.ParseMode(modeName)
	if err != nil {
		return err
	}
	batchName, _ := cmd.Flags().GetString("batch")
	out, _ := cmd.Flags().GetString("out")
	record, _ := cmd.Flags().GetBool("catalog")

	var store *catalog.Store
	if batchName != "" || record {
		store, err = catalog.Open(cfg.Catalog)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var records []types.Citation
	switch {
	case batchName != "" && len(args) > 0:
		return fmt.Errorf("use either --batch or files, not both")
	case batchName != "":
		records, err = store.Batch(ctx, batchName)
		if err != nil {
			return err
		}
	case len(args) > 0:
		paths, err := bibparse.CollectFiles(args)
		if err != nil {
			return err
		}
		result := bibparse.NewParser(bibparse.WithLogger(logger)).ParseFiles(ctx, paths, cfg.Parse.Workers, os.Stderr)
		if result.HasFailures() {
			return fmt.Errorf("%d file(s) failed parsing", result.Failed())
		}
		records = result.Citations()
		batchName = batchFromFiles(result)
	default:
		return fmt.Errorf("provide bibliographic files or --batch")
	}

	var saved query.SavedQuery
	if dir == query.Backward {
		saved = query.Saved(dir, query.BackwardValues(records), target, query.ModeTitles)
	} else {
		saved = query.Saved(dir, query.ForwardValues(records, mode), target, mode)
	}
	if saved.Terms == 0 {
		fmt.Fprintln(os.Stderr, "warning: no values passed the filters; the query is empty")
	}

	fmt.Println(saved.Query)

	if out != "" {
		if err := report.WriteText(out, saved.Query); err != nil {
			return err
		}
	}
	if record {
		if err := store.RecordQuery(ctx, batchName, saved); err != nil {
			return err
		}
	}
	return nil
}

// batchFromFiles names a query's source when records come from files.
func batchFromFiles(result bibparse.BatchResult) string {
	names := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		names = append(names, f.Batch())
	}
	return strings.Join(names, "+")
}
