// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the refchaser pipeline:
// the normalized citation record, stage configuration, and sentinel errors.
package types

import "errors"

// ErrUnsupportedFormat is returned when a bibliographic file extension, a
// format name, or a structured-extraction document is not recognized. It is
// fatal for the single file or document being parsed, never for a batch.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Citation is one bibliographic entry normalized from any source format.
//
// Authors and Keywords are never empty: an unknown value is represented by a
// single empty string. FirstAuthor always equals Authors[0]. RefList is only
// populated for records built from structured extraction output, and its
// elements never carry a RefList of their own.
type Citation struct {
	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// ArticleType is the source format's document type (e.g. "JOUR", "Journal Article", "article").
	ArticleType string `json:"article_type" yaml:"article_type"`

	// Year is the publication year, normally four digits. May be empty.
	Year string `json:"year" yaml:"year"`

	// Authors lists authors in "Surname, Given" form, in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// FirstAuthor is Authors[0].
	FirstAuthor string `json:"first_author" yaml:"first_author"`

	// DOI is the digital object identifier without resolver prefix. May be empty.
	DOI string `json:"doi" yaml:"doi"`

	// Journal is the journal or source title.
	Journal string `json:"journal" yaml:"journal"`

	// Abstract is the article abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Keywords lists author or indexer keywords.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// DatabaseID is the exporting database's accession number (PMID, WOS UT, ...).
	DatabaseID string `json:"database_id" yaml:"database_id"`

	// RefList holds the references cited by this article.
	RefList []Citation `json:"ref_list,omitempty" yaml:"ref_list,omitempty"`
}

// NewCitation returns an empty Citation whose Authors and Keywords are
// freshly allocated single-empty-string slices. Every parser starts from
// NewCitation so no two records ever share a backing array.
func NewCitation() Citation {
	return Citation{
		Authors:  []string{""},
		Keywords: []string{""},
	}
}

// SetAuthors replaces Authors with a copy of authors, substituting [""] for
// an empty list, and keeps FirstAuthor in sync.
func (c *Citation) SetAuthors(authors []string) {
	if len(authors) == 0 {
		c.Authors = []string{""}
	} else {
		c.Authors = append(make([]string, 0, len(authors)), authors...)
	}
	c.FirstAuthor = c.Authors[0]
}

// SetKeywords replaces Keywords with a copy of keywords. A list with no
// non-empty keyword collapses to [""].
func (c *Citation) SetKeywords(keywords []string) {
	var kept []string
	for _, k := range keywords {
		if k != "" {
			kept = append(kept, k)
		}
	}
	if len(kept) == 0 {
		c.Keywords = []string{""}
		return
	}
	c.Keywords = kept
}

// IsEmpty reports whether the citation carries no bibliographic data at all.
func (c Citation) IsEmpty() bool {
	return c.Title == "" && c.ArticleType == "" && c.Year == "" &&
		c.FirstAuthor == "" && c.DOI == "" && c.Journal == "" &&
		c.Abstract == "" && c.DatabaseID == "" && len(c.RefList) == 0
}
