// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the refchaser CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/refchaser/internal/secrets"
	"github.com/pdiddy/refchaser/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is built in PersistentPreRunE from --verbose.
	logger = zap.NewNop()

	// loadedSecrets holds key files loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets
)

// rootCmd is the base command for the refchaser CLI.
var rootCmd = &cobra.Command{
	Use:   "refchaser",
	Short: "Citation chasing for systematic reviews",
	Long: `refchaser supports forward and backward citation chasing. It parses
bibliographic exports (RIS, CIW, NBIB, BibTeX) and CERMINE output for full-text
PDFs, builds boolean search queries for WOS, PubMed, EMBASE, Scopus and Google
Scholar, downloads open-access full texts, and keeps a local citation catalog.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		logger = l

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", zap.Strings("keys", s.Keys()))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./refchaser.yaml or ~/.config/refchaser/refchaser.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
}

func initConfig() {
	if err := secrets.LoadEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("refchaser")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "refchaser"))
		}
	}

	viper.SetEnvPrefix("REFCHASER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every configuration key so environment variables
// are seen by Unmarshal even when no config file sets them.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("parse.workers", d.Parse.Workers)
	v.SetDefault("query.forward_database", d.Query.ForwardDatabase)
	v.SetDefault("query.backward_database", d.Query.BackwardDatabase)
	v.SetDefault("query.mode", d.Query.Mode)
	v.SetDefault("cermine.image", d.Cermine.Image)
	v.SetDefault("cermine.timeout", d.Cermine.Timeout)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("fetch.mailto", d.Fetch.Mailto)
	v.SetDefault("fetch.max_retries", d.Fetch.MaxRetries)
	v.SetDefault("fetch.requests_per_second", d.Fetch.RequestsPerSecond)
	v.SetDefault("fetch.concurrency", d.Fetch.Concurrency)
	v.SetDefault("catalog.path", d.Catalog.Path)
}

// loadConfig returns the merged configuration: defaults, config file,
// then environment.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.Fetch.Mailto = loadedSecrets.Get(secrets.OpenAlexEmail, cfg.Fetch.Mailto)
	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
