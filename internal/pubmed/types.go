// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import "encoding/xml"

// esearchResponse is the retmode=json body of esearch.fcgi.
type esearchResponse struct {
	Result *esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	IDList []string `json:"idlist"`
	Error  string   `json:"ERROR,omitempty"`
}

// ArticleSet is the efetch.fcgi XML document. XMLName records the root
// element so other roots (eFetchResult error pages) can be told apart.
type ArticleSet struct {
	XMLName  xml.Name
	Articles []Article `xml:"PubmedArticle"`
}

// Article is one PubmedArticle.
type Article struct {
	Citation MedlineCitation `xml:"MedlineCitation"`
}

// MedlineCitation holds the bibliographic fields used downstream.
type MedlineCitation struct {
	PMID    string      `xml:"PMID"`
	Article ArticleBody `xml:"Article"`
}

// ArticleBody is the MedlineCitation/Article element.
type ArticleBody struct {
	Journal    Journal     `xml:"Journal"`
	Title      markupText  `xml:"ArticleTitle"`
	AuthorList *AuthorList `xml:"AuthorList"`
}

// Journal carries the issue and its publication date.
type Journal struct {
	JournalIssue JournalIssue `xml:"JournalIssue"`
}

// JournalIssue carries the publication date.
type JournalIssue struct {
	PubDate PubDate `xml:"PubDate"`
}

// PubDate is either structured (Year/Month/Day) or a free-form MedlineDate
// such as "1998 Dec-1999 Jan".
type PubDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	MedlineDate string `xml:"MedlineDate"`
}

// AuthorList wraps the Author elements.
type AuthorList struct {
	Authors []Author `xml:"Author"`
}

// Author is one Author element.
type Author struct {
	LastName        string            `xml:"LastName"`
	ForeName        string            `xml:"ForeName"`
	CollectiveName  string            `xml:"CollectiveName"`
	AffiliationInfo []AffiliationInfo `xml:"AffiliationInfo"`
}

// AffiliationInfo holds one affiliation string.
type AffiliationInfo struct {
	Affiliation string `xml:"Affiliation"`
}

// markupText captures an element that may contain inline markup
// (<i>, <sup>, ...) in titles.
type markupText struct {
	Inner string `xml:",innerxml"`
}
