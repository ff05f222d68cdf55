package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout. Zero means no timeout; the retry
	// ceiling bounds how long a single identifier can take.
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-affiliations/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PubMedConfig holds settings for the NCBI E-utilities endpoints.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the E-utilities base (esearch.fcgi and efetch.fcgi live below it).
	BaseURL string `json:"base_url" yaml:"base_url" validate:"required,url"`

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email and Tool identify the caller to NCBI, as its usage policy asks.
	Email string `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	Tool  string `json:"tool,omitempty" yaml:"tool,omitempty"`

	// SearchField restricts the term to one field, e.g. "Title" sends
	// "<query>[Title]". Empty searches all fields.
	SearchField string `json:"search_field,omitempty" yaml:"search_field,omitempty"`

	// MaxResults is the esearch retmax (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" validate:"min=1,max=10000"`

	// RateLimit is the client-side request rate in requests per second.
	// Zero picks 3/s, or 10/s when APIKey is set.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
}

// RetryConfig controls backoff on HTTP 429 responses.
type RetryConfig struct {
	// MaxAttempts is the total number of requests made for one identifier
	// before it is abandoned (default 5).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" validate:"min=1,max=20"`

	// BaseDelay is the wait after the first 429; it doubles after each
	// further one (default 500ms, at most 1m).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" validate:"gt=0,lte=1m"`
}

// ClassifyConfig extends the affiliation classifier.
type ClassifyConfig struct {
	// UnknownIsNonAcademic decides affiliations that match neither keyword
	// set. Defaults to false.
	UnknownIsNonAcademic bool `json:"unknown_is_non_academic" yaml:"unknown_is_non_academic"`

	// CompanyKeywords and AcademicKeywords are appended to the built-in sets.
	CompanyKeywords  []string `json:"company_keywords,omitempty" yaml:"company_keywords,omitempty"`
	AcademicKeywords []string `json:"academic_keywords,omitempty" yaml:"academic_keywords,omitempty"`
}

// RunConfig is everything one run needs, assembled once from flags, config
// file, environment and secrets, then passed down explicitly.
type RunConfig struct {
	// Query is the free-text PubMed search.
	Query string `json:"query" yaml:"query" validate:"required"`

	// OutputPath is the export destination. Empty prints a table preview.
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	Debug bool `json:"debug" yaml:"debug"`

	// Workers bounds concurrent detail fetches (default 1, sequential).
	Workers int `json:"workers" yaml:"workers" validate:"min=1,max=10"`

	// IncludeAcademic keeps papers that have no non-academic author.
	IncludeAcademic bool `json:"include_academic" yaml:"include_academic"`

	// MetricsFile, when set, receives run metrics in Prometheus text format.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`

	PubMed   PubMedConfig   `json:"pubmed" yaml:"pubmed"`
	Retry    RetryConfig    `json:"retry" yaml:"retry"`
	Classify ClassifyConfig `json:"classify" yaml:"classify"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports the first offending field.
func (c RunConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid configuration: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("invalid configuration: %w", err)
}
