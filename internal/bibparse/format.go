// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibparse reads bibliographic export files (RIS, CIW, NBIB, BibTeX)
// into normalized citation records.
//
// format.go holds the format registry: per-format tag mappings and record
// splitting rules. extract.go pulls field values out of one record's text.
// parser.go assembles records and applies per-format derivations.
package bibparse

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/refchaser/pkg/types"
)

// Format identifies a bibliographic export format.
type Format string

const (
	FormatRIS    Format = "ris"
	FormatCIW    Format = "ciw"
	FormatNBIB   Format = "nbib"
	FormatBibTeX Format = "bibtex"
)

// Formats lists the supported formats in registry order.
var Formats = []Format{FormatRIS, FormatCIW, FormatNBIB, FormatBibTeX}

// formatAliases maps lowercased names and extensions (without the dot) to formats.
var formatAliases = map[string]Format{
	"ris":    FormatRIS,
	"ciw":    FormatCIW,
	"nbib":   FormatNBIB,
	"bib":    FormatBibTeX,
	"bibtex": FormatBibTeX,
}

// ParseFormat resolves a format name or extension such as "RIS", ".nbib",
// or "BibTeX".
func ParseFormat(name string) (Format, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, name)
}

// FormatFromExtension selects the format from a file path's extension.
func FormatFromExtension(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", types.ErrUnsupportedFormat, filepath.Base(path))
	}
	return ParseFormat(ext)
}

// Field names a semantic Citation field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldArticleType Field = "article_type"
	FieldYear        Field = "year"
	FieldAuthors     Field = "authors"
	FieldDOI         Field = "doi"
	FieldJournal     Field = "journal"
	FieldAbstract    Field = "abstract"
	FieldKeywords    Field = "keywords"
	FieldDatabaseID  Field = "database_id"
)

// FieldMapping binds a format tag to a semantic field.
//
// A single-valued mapping takes the first occurrence of the tag; a
// multi-valued mapping collects every occurrence in document order,
// duplicates included. An empty Tag is a placeholder that never matches.
type FieldMapping struct {
	Tag   string
	Field Field
	Multi bool

	// SplitLines makes every continuation line of an occurrence its own value.
	SplitLines bool

	// Separator, when set, splits each extracted value into several.
	Separator *regexp.Regexp
}

// Syntax distinguishes line-tagged formats from brace-delimited BibTeX.
type Syntax int

const (
	SyntaxTagged Syntax = iota
	SyntaxBrace
)

// Rules is the registry entry for one format.
type Rules struct {
	Format   Format
	Syntax   Syntax
	Mappings []FieldMapping

	// splitter separates records; an empty-line split is used when nil.
	splitter *regexp.Regexp

	// tagLine matches the first line of a tagged field, capturing tag and value.
	tagLine *regexp.Regexp

	// derive applies format-specific cleanup after every mapping is extracted.
	derive func(c *types.Citation, raw string, fs fieldSet)
}

// minFragmentLen is the length at or below which a split fragment is
// treated as blank trailing text rather than a record.
const minFragmentLen = 10

var (
	erSplitter = regexp.MustCompile(`\nER.*\n`)

	risTagLine  = regexp.MustCompile(`^([A-Z][A-Z0-9])  -(?: (.*))?$`)
	ciwTagLine  = regexp.MustCompile(`^([A-Z][A-Z0-9])(?: (.*))?$`)
	nbibTagLine = regexp.MustCompile(`^([A-Z]{2,4}) {0,2}-(?: (.*))?$`)

	semicolonSep = regexp.MustCompile(`\s*;\s*`)
	bibAndSep    = regexp.MustCompile(`\s+and\s+`)
)

var registry = map[Format]*Rules{
	FormatRIS: {
		Format:   FormatRIS,
		Syntax:   SyntaxTagged,
		splitter: erSplitter,
		tagLine:  risTagLine,
		Mappings: []FieldMapping{
			{Tag: "TI", Field: FieldTitle},
			{Tag: "TY", Field: FieldArticleType},
			{Tag: "PY", Field: FieldYear},
			{Tag: "AU", Field: FieldAuthors, Multi: true},
			{Tag: "DO", Field: FieldDOI},
			{Tag: "JF", Field: FieldJournal},
			{Tag: "AB", Field: FieldAbstract},
			{Tag: "KW", Field: FieldKeywords, Multi: true},
			{Tag: "AN", Field: FieldDatabaseID},
		},
	},
	FormatCIW: {
		Format:   FormatCIW,
		Syntax:   SyntaxTagged,
		splitter: erSplitter,
		tagLine:  ciwTagLine,
		Mappings: []FieldMapping{
			{Tag: "TI", Field: FieldTitle},
			{Tag: "DT", Field: FieldArticleType},
			{Tag: "PY", Field: FieldYear},
			{Tag: "AF", Field: FieldAuthors, Multi: true, SplitLines: true},
			{Tag: "DI", Field: FieldDOI},
			{Tag: "SO", Field: FieldJournal},
			{Tag: "AB", Field: FieldAbstract},
			{Tag: "DE", Field: FieldKeywords, Separator: semicolonSep},
			{Tag: "UT", Field: FieldDatabaseID},
		},
	},
	FormatNBIB: {
		Format:  FormatNBIB,
		Syntax:  SyntaxTagged,
		tagLine: nbibTagLine,
		derive:  deriveNBIB,
		Mappings: []FieldMapping{
			{Tag: "TI", Field: FieldTitle},
			{Tag: "PT", Field: FieldArticleType},
			{Tag: "DP", Field: FieldYear},
			{Tag: "FAU", Field: FieldAuthors, Multi: true},
			{Tag: "LID", Field: FieldDOI},
			{Tag: "JT", Field: FieldJournal},
			{Tag: "AB", Field: FieldAbstract},
			{Tag: "OT", Field: FieldKeywords, Multi: true},
			{Tag: "PMID", Field: FieldDatabaseID},
		},
	},
	FormatBibTeX: {
		Format: FormatBibTeX,
		Syntax: SyntaxBrace,
		derive: deriveBibTeX,
		Mappings: []FieldMapping{
			{Tag: "title", Field: FieldTitle},
			{Tag: "type", Field: FieldArticleType},
			{Tag: "year", Field: FieldYear},
			{Tag: "author", Field: FieldAuthors, Separator: bibAndSep},
			{Tag: "DOI", Field: FieldDOI},
			{Tag: "journal", Field: FieldJournal},
			// Placeholders: no extraction rule is defined for these yet.
			{Field: FieldAbstract},
			{Field: FieldKeywords},
			{Field: FieldDatabaseID},
		},
	},
}

// Lookup returns the registry entry for f.
func Lookup(f Format) (*Rules, error) {
	r, ok := registry[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, string(f))
	}
	return r, nil
}

// Split separates raw file text into record fragments. Fragments of ten
// characters or fewer are dropped.
func (r *Rules) Split(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var parts []string
	if r.splitter != nil {
		parts = r.splitter.Split(raw, -1)
	} else {
		parts = strings.Split(raw, "\n\n")
	}

	fragments := make([]string, 0, len(parts))
	for _, p := range parts {
		if utf8.RuneCountInString(p) > minFragmentLen {
			fragments = append(fragments, p)
		}
	}
	return fragments
}

// mapping returns the registered mapping for tag, or a plain mapping when
// the tag is not part of the format's registry.
func (r *Rules) mapping(tag string) FieldMapping {
	for _, m := range r.Mappings {
		if m.Tag != "" && r.sameTag(m.Tag, tag) {
			return m
		}
	}
	return FieldMapping{Tag: tag}
}

// sameTag compares tags; BibTeX field names are case-insensitive.
func (r *Rules) sameTag(a, b string) bool {
	if r.Syntax == SyntaxBrace {
		return strings.EqualFold(a, b)
	}
	return a == b
}
