// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/refchaser/internal/bibparse"
	"github.com/pdiddy/refchaser/internal/catalog"
	"github.com/pdiddy/refchaser/internal/csl"
	"github.com/pdiddy/refchaser/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse [files or directories...]",
	Short: "Parse bibliographic exports into citation records",
	Long: `Parse reads RIS (.ris), Web of Science (.ciw), PubMed (.nbib) and BibTeX
(.bib) exports, chosen by file extension, and prints the normalized citation
records as YAML or JSON, or as CSL items for Pandoc and reference managers. Directories are expanded to the supported files they
contain. With --catalog each file is stored as a catalog batch named after the
file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("format", "yaml", "output format: yaml, json, csl-yaml, csl-json, or none")
	parseCmd.Flags().Int("workers", 0, "files parsed concurrently (default from config)")
	parseCmd.Flags().Bool("catalog", false, "store each file as a catalog batch")

	rootCmd.AddCommand(parseCmd)
}

// parsedFile is the output shape for one input file.
type parsedFile struct {
	File      string           `json:"file" yaml:"file"`
	Format    bibparse.Format  `json:"format" yaml:"format"`
	Citations []types.Citation `json:"citations" yaml:"citations"`
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml", "json", "csl-yaml", "csl-json", "none":
	default:
		return fmt.Errorf("unsupported output format %q: use yaml, json, csl-yaml, csl-json, or none", format)
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = cfg.Parse.Workers
	}
	toCatalog, _ := cmd.Flags().GetBool("catalog")

	paths, err := bibparse.CollectFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no supported bibliographic files found")
	}

	parser := bibparse.NewParser(bibparse.WithLogger(logger))
	result := parser.ParseFiles(cmd.Context(), paths, workers, os.Stderr)

	switch format {
	case "csl-yaml":
		err = csl.WriteYAML(os.Stdout, csl.FromCitations(result.Citations()))
	case "csl-json":
		err = csl.WriteJSON(os.Stdout, csl.FromCitations(result.Citations()))
	default:
		var out []parsedFile
		for _, f := range result.Files {
			if f.Err == nil {
				out = append(out, parsedFile{File: f.Path, Format: f.Format, Citations: f.Citations})
			}
		}
		err = writeOutput(os.Stdout, format, out)
	}
	if err != nil {
		return err
	}

	if toCatalog {
		store, err := catalog.Open(cfg.Catalog)
		if err != nil {
			return err
		}
		defer store.Close()
		for _, f := range result.Files {
			if f.Err != nil {
				continue
			}
			if err := store.SaveBatch(cmd.Context(), f.Batch(), f.Path, f.Citations); err != nil {
				return fmt.Errorf("saving %s: %w", f.Path, err)
			}
			fmt.Fprintf(os.Stderr, "stored  %s as batch %q\n", f.Path, f.Batch())
		}
	}

	fmt.Fprintf(os.Stderr, "\nparsed: %d, failed: %d, records: %d\n",
		result.Parsed(), result.Failed(), len(result.Citations()))
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed parsing", result.Failed())
	}
	return nil
}

// writeOutput encodes v to w as yaml or json; "none" writes nothing.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return nil
}
