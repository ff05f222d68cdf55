// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-affiliations CLI. It searches
// PubMed for a query, fetches every matching record, keeps the authors whose
// affiliations look like companies, and exports the result.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-affiliations/internal/classify"
	"github.com/pdiddy/paper-affiliations/internal/export"
	"github.com/pdiddy/paper-affiliations/internal/logging"
	"github.com/pdiddy/paper-affiliations/internal/metrics"
	"github.com/pdiddy/paper-affiliations/internal/papers"
	"github.com/pdiddy/paper-affiliations/internal/pubmed"
	"github.com/pdiddy/paper-affiliations/internal/secrets"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	secretsDir = ".secrets/"
	envPrefix  = "PAPER_AFFILIATIONS"
)

// loadedSecrets holds credentials read from .secrets/ at startup.
var loadedSecrets *secrets.Store

var rootCmd = &cobra.Command{
	Use:   "paper-affiliations [flags] <query...>",
	Short: "Find PubMed papers with pharmaceutical or biotech authors",
	Long: `paper-affiliations searches PubMed for the query, fetches each matching
record and reports the authors whose affiliations name a company rather than a
university, hospital or institute.

The query is every positional argument joined with spaces. Results print as a
table unless --file is given; the file extension picks the format (.csv,
.json, .yaml, .db). Rate-limited requests are retried with exponential backoff.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := secrets.LoadDotenv(".env"); err != nil {
			return err
		}
		s, err := secrets.Load(secretsDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
	RunE: runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-affiliations.yaml or ~/.config/paper-affiliations/config.yaml)")
	pf.BoolP("debug", "d", false, "print debug information during execution")
	pf.String("log-format", logging.FormatConsole, "log format: console or json")

	f := rootCmd.Flags()
	f.StringP("file", "f", "", "write results to this file instead of printing a table")
	f.Int("workers", 1, "number of records fetched concurrently")
	f.Int("max-results", pubmed.DefaultMaxResults, "maximum number of identifiers the search returns")
	f.Bool("include-academic", false, "keep papers without any non-academic author")
	f.String("metrics-file", "", "write run metrics in Prometheus text format to this file")

	bindFlags(viper.GetViper(), rootCmd)
	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-affiliations")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-affiliations"))
		}
	}

	configureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	log := logging.New(cmd.ErrOrStderr(), logging.Options{
		Debug:  v.GetBool("debug"),
		Format: v.GetString("log_format"),
		RunID:  uuid.NewString(),
	})

	if loadedSecrets != nil {
		if n := loadedSecrets.Len(); n > 0 {
			log.Debug().Int("count", n).Msg("loaded secrets")
		}
		for _, name := range loadedSecrets.Skipped {
			log.Warn().Str("secret", name).Msg("could not read secret")
		}
	}

	cfg, err := loadRunConfig(v, strings.Join(args, " "), loadedSecrets)
	if err != nil {
		return err
	}
	return execute(cmd.Context(), cfg, log, cmd.OutOrStdout())
}

// execute runs one query end to end and writes the table preview, if any,
// to stdout. Only export failures are returned.
func execute(ctx context.Context, cfg types.RunConfig, log zerolog.Logger, stdout io.Writer) error {
	m := metrics.New()
	client := pubmed.New(cfg.PubMed, cfg.Retry)
	p := papers.New(client,
		classify.New(cfg.Classify),
		papers.Observers{papers.LogObserver{Log: log}, m},
		cfg.Workers)

	log.Info().Str("query", cfg.Query).Msg("searching PubMed")
	res := p.Run(ctx, cfg.Query)

	out := res.Papers
	if !cfg.IncludeAcademic {
		out = papers.FilterNonAcademic(out)
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn().Err(err).Msg("metrics not written")
		}
	}

	if res.Identifiers == 0 {
		fmt.Fprintf(stdout, "No papers found for query: %s\n", cfg.Query)
		return nil
	}

	log.Info().
		Int("identifiers", res.Identifiers).
		Int("fetched", len(res.Papers)).
		Int("dropped", res.Dropped).
		Int("exported", len(out)).
		Msg("run complete")

	if cfg.OutputPath == "" {
		export.FormatTable(out, stdout)
		return nil
	}
	if err := export.WriteFile(cfg.OutputPath, out); err != nil {
		log.Error().Err(err).Str("path", cfg.OutputPath).Msg("export failed")
		return err
	}
	log.Info().
		Str("path", cfg.OutputPath).
		Str("format", string(export.FormatFor(cfg.OutputPath))).
		Int("papers", len(out)).
		Msg("results saved")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
