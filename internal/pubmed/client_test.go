// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-affiliations/internal/httputil"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

const sampleArticleXML = `<?xml version="1.0" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2024//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_240101.dtd">
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">111</PMID>
      <Article PubModel="Print">
        <Journal>
          <JournalIssue CitedMedium="Internet">
            <Volume>12</Volume>
            <PubDate><Year>2023</Year><Month>Mar</Month></PubDate>
          </JournalIssue>
        </Journal>
        <ArticleTitle>Checkpoint inhibitors in <i>vivo</i> &amp; in vitro.</ArticleTitle>
        <AuthorList CompleteYN="Y">
          <Author ValidYN="Y">
            <LastName>Smith</LastName>
            <ForeName>Jane</ForeName>
            <AffiliationInfo><Affiliation>Pfizer Inc, New York, NY, USA.</Affiliation></AffiliationInfo>
            <AffiliationInfo><Affiliation>Second affiliation.</Affiliation></AffiliationInfo>
          </Author>
          <Author ValidYN="Y">
            <LastName>Doe</LastName>
            <ForeName>John</ForeName>
          </Author>
          <Author ValidYN="Y">
            <CollectiveName>Immunotherapy Consortium</CollectiveName>
          </Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	cfg := types.PubMedConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "test/0.1"},
		BaseURL:    ts.URL,
		APIKey:     "k123",
		Email:      "dev@example.com",
		Tool:       "paper-affiliations",
		MaxResults: 50,
	}
	retry := types.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}
	return NewWithDoer(ts.Client(), cfg, retry), ts
}

// --- Search ---

func TestSearch_ReturnsIDsInOrder(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/esearch.fcgi", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "pubmed", q.Get("db"))
		assert.Equal(t, "cancer immunotherapy", q.Get("term"))
		assert.Equal(t, "json", q.Get("retmode"))
		assert.Equal(t, "50", q.Get("retmax"))
		assert.Equal(t, "k123", q.Get("api_key"))
		assert.Equal(t, "dev@example.com", q.Get("email"))
		assert.Equal(t, "paper-affiliations", q.Get("tool"))
		assert.Equal(t, "test/0.1", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"header":{"type":"esearch"},"esearchresult":{"count":"3","retmax":"3","idlist":["333","111"," 222 "]}}`)
	})

	ids, err := c.Search(context.Background(), "  cancer immunotherapy ")
	require.NoError(t, err)
	assert.Equal(t, []string{"333", "111", "222"}, ids)
}

func TestSearch_SameQuerySameOrder(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"esearchresult":{"idlist":["9","3","7"]}}`)
	})

	first, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	second, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearch_SearchField(t *testing.T) {
	var term string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		term = r.URL.Query().Get("term")
		fmt.Fprint(w, `{"esearchresult":{"idlist":[]}}`)
	})
	c.cfg.SearchField = "Title"

	ids, err := c.Search(context.Background(), "crispr")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, "crispr[Title]", term)
}

func TestSearch_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		malformed bool
	}{
		{"server error", http.StatusInternalServerError, "boom", false},
		{"rate limited is not retried", http.StatusTooManyRequests, "", false},
		{"invalid json", http.StatusOK, "{not json", true},
		{"missing esearchresult", http.StatusOK, `{"header":{}}`, true},
		{"service error field", http.StatusOK, `{"esearchresult":{"ERROR":"Invalid query"}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			ids, err := c.Search(context.Background(), "q")
			require.Error(t, err)
			assert.Nil(t, ids)
			assert.Equal(t, tt.malformed, errors.Is(err, ErrMalformed))
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestSearch_StatusError(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Search(context.Background(), "q")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "esearch", se.Endpoint)
}

func TestSearch_EmptyQuery(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.Search(context.Background(), "   ")
	assert.Error(t, err)
}

// --- Fetch ---

func TestFetch_ParsesArticle(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/efetch.fcgi", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "111", q.Get("id"))
		assert.Equal(t, "xml", q.Get("retmode"))
		assert.Equal(t, "k123", q.Get("api_key"))
		fmt.Fprint(w, sampleArticleXML)
	})

	art, err := c.Fetch(context.Background(), "111", nil)
	require.NoError(t, err)
	require.NotNil(t, art)

	assert.Equal(t, "111", art.Citation.PMID)
	assert.Equal(t, "Checkpoint inhibitors in vivo & in vitro.", art.Title())
	assert.Equal(t, "2023", art.Year())

	authors := art.Authors()
	require.Len(t, authors, 3)
	assert.Equal(t, types.Author{LastName: "Smith", ForeName: "Jane", Affiliation: "Pfizer Inc, New York, NY, USA."}, authors[0])
	assert.Equal(t, "", authors[1].Affiliation)
	assert.Equal(t, "Immunotherapy Consortium", authors[2].DisplayName())
}

func TestFetch_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, sampleArticleXML)
	})

	var waits []int
	art, err := c.Fetch(context.Background(), "111", func(attempt int, _ time.Duration) {
		waits = append(waits, attempt)
	})
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []int{1, 2}, waits)
}

func TestFetch_RateLimitExhausted(t *testing.T) {
	var calls int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	art, err := c.Fetch(context.Background(), "111", nil)
	assert.Nil(t, art)
	assert.ErrorIs(t, err, httputil.ErrRateLimited)
	assert.Equal(t, int32(c.MaxAttempts()), atomic.LoadInt32(&calls))
	assert.Equal(t, 3, c.MaxAttempts())
}

func TestFetch_ServerErrorNotRetried(t *testing.T) {
	var calls int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Fetch(context.Background(), "111", nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_MissingRecord(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty article set", `<?xml version="1.0"?><PubmedArticleSet></PubmedArticleSet>`},
		{"error document", `<?xml version="1.0"?><eFetchResult><ERROR>Empty id list</ERROR></eFetchResult>`},
		{"book article only", `<PubmedArticleSet><PubmedBookArticle></PubmedBookArticle></PubmedArticleSet>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			art, err := c.Fetch(context.Background(), "999", nil)
			assert.NoError(t, err)
			assert.Nil(t, art)
		})
	}
}

func TestFetch_MalformedXML(t *testing.T) {
	var calls int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `<PubmedArticleSet><PubmedArticle>`)
	})

	_, err := c.Fetch(context.Background(), "111", nil)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// --- Article accessors ---

func TestArticleDefaults(t *testing.T) {
	var a Article
	assert.Equal(t, types.UnknownTitle, a.Title())
	assert.Equal(t, types.UnknownDate, a.Year())
	assert.Empty(t, a.Authors())
}

func TestArticleYear(t *testing.T) {
	tests := []struct {
		name string
		date PubDate
		want string
	}{
		{"structured year", PubDate{Year: "2021"}, "2021"},
		{"medline date", PubDate{MedlineDate: "1998 Dec-1999 Jan"}, "1998"},
		{"medline date without year", PubDate{MedlineDate: "Spring"}, types.UnknownDate},
		{"year wins over medline date", PubDate{Year: "2020", MedlineDate: "2019"}, "2020"},
		{"nothing", PubDate{}, types.UnknownDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Article
			a.Citation.Article.Journal.JournalIssue.PubDate = tt.date
			assert.Equal(t, tt.want, a.Year())
		})
	}
}

func TestFlattenMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Plain title", "Plain title"},
		{"  spaced\n  title ", "spaced title"},
		{"IL-2<sup>+</sup> cells", "IL-2+ cells"},
		{"A &amp; B", "A & B"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, flattenMarkup(tt.in), "flattenMarkup(%q)", tt.in)
	}
}
