// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// Title returns the article title with inline markup removed, or
// types.UnknownTitle when absent.
func (a Article) Title() string {
	if t := flattenMarkup(a.Citation.Article.Title.Inner); t != "" {
		return t
	}
	return types.UnknownTitle
}

// Year returns the issue's publication year. A MedlineDate that starts with a
// four-digit year is used when Year is missing; otherwise types.UnknownDate.
func (a Article) Year() string {
	pd := a.Citation.Article.Journal.JournalIssue.PubDate
	if y := strings.TrimSpace(pd.Year); y != "" {
		return y
	}
	if y := leadingYear(pd.MedlineDate); y != "" {
		return y
	}
	return types.UnknownDate
}

// Authors returns the author list in document order. Each author keeps only
// the first affiliation.
func (a Article) Authors() []types.Author {
	list := a.Citation.Article.AuthorList
	if list == nil {
		return nil
	}
	authors := make([]types.Author, 0, len(list.Authors))
	for _, au := range list.Authors {
		author := types.Author{
			LastName:       strings.TrimSpace(au.LastName),
			ForeName:       strings.TrimSpace(au.ForeName),
			CollectiveName: strings.TrimSpace(au.CollectiveName),
		}
		if len(au.AffiliationInfo) > 0 {
			author.Affiliation = strings.TrimSpace(au.AffiliationInfo[0].Affiliation)
		}
		authors = append(authors, author)
	}
	return authors
}

// flattenMarkup returns the character data of an inner-XML fragment with
// whitespace collapsed. Undecodable fragments are returned trimmed as-is.
func flattenMarkup(inner string) string {
	if !strings.Contains(inner, "<") && !strings.Contains(inner, "&") {
		return strings.Join(strings.Fields(inner), " ")
	}

	dec := xml.NewDecoder(strings.NewReader("<t>" + inner + "</t>"))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return strings.TrimSpace(inner)
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func leadingYear(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return ""
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return ""
		}
	}
	return s[:4]
}
