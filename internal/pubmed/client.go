// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed is a client for the NCBI E-utilities search (esearch) and
// fetch (efetch) endpoints.
// See https://www.ncbi.nlm.nih.gov/books/NBK25499/.
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paper-affiliations/internal/httputil"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

const (
	// DefaultBaseURL is the E-utilities base URL.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultMaxResults matches the esearch default retmax.
	DefaultMaxResults = 20

	maxBodyBytes = 10 << 20
)

// ErrMalformed is matched by errors for bodies that cannot be decoded.
var ErrMalformed = errors.New("malformed response")

// StatusError reports a non-200 answer from an endpoint.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client talks to one E-utilities deployment. It is safe for concurrent use.
type Client struct {
	doer  httputil.Doer
	cfg   types.PubMedConfig
	retry httputil.RetryPolicy
}

// New builds a client whose requests share one client-side rate limiter:
// cfg.RateLimit per second, or the NCBI ceiling for keyed/anonymous use.
func New(cfg types.PubMedConfig, retry types.RetryConfig) *Client {
	rps := cfg.RateLimit
	if rps == 0 {
		rps = httputil.AnonymousRate
		if cfg.APIKey != "" {
			rps = httputil.KeyedRate
		}
	}
	hc := &http.Client{Timeout: cfg.Timeout}
	return NewWithDoer(httputil.NewLimitedClient(hc, rps, int(rps)), cfg, retry)
}

// NewWithDoer builds a client over an arbitrary Doer, as tests do with
// httptest servers.
func NewWithDoer(doer httputil.Doer, cfg types.PubMedConfig, retry types.RetryConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	return &Client{
		doer: doer,
		cfg:  cfg,
		retry: httputil.RetryPolicy{
			MaxAttempts: retry.MaxAttempts,
			BaseDelay:   retry.BaseDelay,
		},
	}
}

// Search runs esearch for query and returns the matching PMIDs in the order
// the service lists them. It makes exactly one request.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	term := strings.TrimSpace(query)
	if term == "" {
		return nil, errors.New("empty query")
	}
	if c.cfg.SearchField != "" {
		term = fmt.Sprintf("%s[%s]", term, c.cfg.SearchField)
	}

	params := c.baseParams()
	params.Set("term", term)
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(c.cfg.MaxResults))

	req, err := c.newRequest(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("esearch", resp)
	}

	var body esearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: parsing esearch response: %v", ErrMalformed, err)
	}
	if body.Result == nil {
		return nil, fmt.Errorf("%w: esearch response has no esearchresult", ErrMalformed)
	}
	if body.Result.Error != "" {
		return nil, fmt.Errorf("esearch error: %s", body.Result.Error)
	}

	ids := make([]string, 0, len(body.Result.IDList))
	for _, id := range body.Result.IDList {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Fetch runs efetch for one PMID. HTTP 429 answers are retried with
// exponential backoff; onRetry, if non-nil, observes each wait. A document
// without a PubmedArticle yields (nil, nil).
func (c *Client) Fetch(ctx context.Context, pmid string, onRetry func(attempt int, delay time.Duration)) (*Article, error) {
	params := c.baseParams()
	params.Set("id", pmid)
	params.Set("retmode", "xml")

	req, err := c.newRequest(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}

	policy := c.retry
	policy.OnRetry = onRetry

	resp, err := httputil.DoWithRetry(ctx, c.doer, req, policy)
	if err != nil {
		return nil, fmt.Errorf("efetch %s: %w", pmid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("efetch", resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading efetch response: %w", err)
	}

	var set ArticleSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: parsing efetch response: %v", ErrMalformed, err)
	}
	if set.XMLName.Local != "PubmedArticleSet" || len(set.Articles) == 0 {
		return nil, nil
	}
	return &set.Articles[0], nil
}

// MaxAttempts reports the retry ceiling applied to Fetch.
func (c *Client) MaxAttempts() int {
	return c.retry.Attempts()
}

func (c *Client) baseParams() url.Values {
	params := url.Values{"db": {"pubmed"}}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}
	if c.cfg.Tool != "" {
		params.Set("tool", c.cfg.Tool)
	}
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	return params
}

func (c *Client) newRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	reqURL := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	return req, nil
}

func statusError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
