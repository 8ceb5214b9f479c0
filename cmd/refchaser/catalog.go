// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refchaser/internal/catalog"
	"github.com/pdiddy/refchaser/internal/report"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and export the citation catalog",
	Long: `Catalog manages the local SQLite catalog of parsed citation batches and
the queries built from them. Batches are added by parse --catalog and
chase --catalog.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved batches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		infos, err := store.Batches(cmd.Context())
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No batches.")
			return nil
		}
		fmt.Printf("%-30s  %7s  %10s  %-20s  %s\n", "Batch", "Records", "References", "Saved", "Source")
		fmt.Println(strings.Repeat("-", 100))
		for _, b := range infos {
			fmt.Printf("%-30s  %7d  %10d  %-20s  %s\n",
				truncate(b.Name, 30), b.Records, b.References, b.SavedAt.Local().Format("2006-01-02 15:04"), b.Source)
		}
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <batch>",
	Short: "Print the records of a batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		citations, err := store.Batch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return writeOutput(os.Stdout, format, citations)
	},
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search titles and abstracts across batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		opts := catalog.SearchOptions{Text: strings.Join(args, " ")}
		opts.Batch, _ = cmd.Flags().GetString("batch")
		opts.Year, _ = cmd.Flags().GetString("year")
		opts.DOI, _ = cmd.Flags().GetString("doi")
		opts.References, _ = cmd.Flags().GetBool("references")
		opts.MaxResults, _ = cmd.Flags().GetInt("limit")

		results, err := store.Search(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		for i, r := range results {
			fmt.Printf("%3d  %-20s  %-4s  %-60s  %s\n",
				i+1, truncate(r.Batch, 20), r.Citation.Year, truncate(r.Citation.Title, 60), r.Citation.DOI)
		}
		fmt.Printf("\n%d results\n", len(results))
		return nil
	},
}

var catalogQueriesCmd = &cobra.Command{
	Use:   "queries [batch]",
	Short: "List recorded queries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		batch := ""
		if len(args) == 1 {
			batch = args[0]
		}
		records, err := store.Queries(cmd.Context(), batch)
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Printf("%s  %s  %s %s (%s, %d terms)\n%s\n\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Batch, r.Direction, r.Target, r.Mode, r.Terms, r.Query)
		}
		return nil
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export [batch]",
	Short: "Export batches with their queries to YAML or JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		batch := ""
		if len(args) == 1 {
			batch = args[0]
		}
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		var buf bytes.Buffer
		switch format {
		case "yaml", "":
			err = store.ExportYAML(cmd.Context(), &buf, batch)
		case "json":
			err = store.ExportJSON(cmd.Context(), &buf, batch)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}

		if out == "" {
			_, err = os.Stdout.Write(buf.Bytes())
			return err
		}
		if err := report.WriteText(out, buf.String()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
		return nil
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <batch>",
	Short: "Remove a batch and its queries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.DeleteBatch(cmd.Context(), args[0])
	},
}

// openCatalog opens the catalog at --db or the configured path.
func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		cfg.Catalog.Path = path
	}
	return catalog.Open(cfg.Catalog)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	catalogCmd.PersistentFlags().String("db", "", "catalog database file (default from config)")

	catalogShowCmd.Flags().String("format", "yaml", "output format: yaml or json")

	catalogSearchCmd.Flags().String("batch", "", "restrict to one batch")
	catalogSearchCmd.Flags().String("year", "", "publication year")
	catalogSearchCmd.Flags().String("doi", "", "exact DOI")
	catalogSearchCmd.Flags().Bool("references", false, "include extracted references")
	catalogSearchCmd.Flags().Int("limit", 0, "maximum results (0 = default)")

	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	catalogExportCmd.Flags().String("out", "", "write to this file instead of stdout")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogQueriesCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	catalogCmd.AddCommand(catalogDeleteCmd)

	rootCmd.AddCommand(catalogCmd)
}
