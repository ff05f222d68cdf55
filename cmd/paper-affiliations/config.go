// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-affiliations/internal/httputil"
	"github.com/pdiddy/paper-affiliations/internal/logging"
	"github.com/pdiddy/paper-affiliations/internal/pubmed"
	"github.com/pdiddy/paper-affiliations/internal/secrets"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

const defaultUserAgent = "paper-affiliations/0.1"

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"file":             "output",
	"debug":            "debug",
	"log-format":       "log_format",
	"workers":          "workers",
	"max-results":      "pubmed.max_results",
	"include-academic": "include_academic",
	"metrics-file":     "metrics_file",
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(flag)
		}
		if f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", 1)
	v.SetDefault("log_format", logging.FormatConsole)
	v.SetDefault("pubmed.base_url", pubmed.DefaultBaseURL)
	v.SetDefault("pubmed.max_results", pubmed.DefaultMaxResults)
	v.SetDefault("pubmed.tool", "paper-affiliations")
	v.SetDefault("pubmed.user_agent", defaultUserAgent)
	v.SetDefault("retry.max_attempts", httputil.DefaultMaxAttempts)
	v.SetDefault("retry.base_delay", httputil.DefaultBaseDelay)
}

// configureEnv maps PAPER_AFFILIATIONS_<KEY> variables onto configuration
// keys, with dots as underscores. PUBMED_API_KEY is also honoured.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("pubmed.api_key", envPrefix+"_PUBMED_API_KEY", "PUBMED_API_KEY")
}

// secretDefault returns explicit if set, otherwise the stored secret.
func secretDefault(store *secrets.Store, key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return store.Get(key, "")
}

// loadRunConfig assembles and validates the run configuration.
func loadRunConfig(v *viper.Viper, query string, store *secrets.Store) (types.RunConfig, error) {
	cfg := types.RunConfig{
		Query:           strings.TrimSpace(query),
		OutputPath:      v.GetString("output"),
		Debug:           v.GetBool("debug"),
		Workers:         v.GetInt("workers"),
		IncludeAcademic: v.GetBool("include_academic"),
		MetricsFile:     v.GetString("metrics_file"),
		PubMed: types.PubMedConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("pubmed.timeout"),
				UserAgent: v.GetString("pubmed.user_agent"),
			},
			BaseURL:     v.GetString("pubmed.base_url"),
			APIKey:      secretDefault(store, secrets.APIKey, v.GetString("pubmed.api_key")),
			Email:       secretDefault(store, secrets.Email, v.GetString("pubmed.email")),
			Tool:        v.GetString("pubmed.tool"),
			SearchField: v.GetString("pubmed.search_field"),
			MaxResults:  v.GetInt("pubmed.max_results"),
			RateLimit:   v.GetFloat64("pubmed.rate_limit"),
		},
		Retry: types.RetryConfig{
			MaxAttempts: v.GetInt("retry.max_attempts"),
			BaseDelay:   v.GetDuration("retry.base_delay"),
		},
		Classify: types.ClassifyConfig{
			UnknownIsNonAcademic: v.GetBool("classify.unknown_is_non_academic"),
			CompanyKeywords:      v.GetStringSlice("classify.company_keywords"),
			AcademicKeywords:     v.GetStringSlice("classify.academic_keywords"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return types.RunConfig{}, err
	}
	return cfg, nil
}
