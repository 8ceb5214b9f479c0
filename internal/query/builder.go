// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query turns citation field values into boolean search strings for
// literature databases. builder.go filters, cleans, and envelopes values;
// chase.go collects the values for forward and backward searches;
// queryfile.go persists built queries.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Target is a literature database whose query syntax Build emits.
type Target string

const (
	TargetWOS           Target = "WOS"
	TargetPubMed        Target = "PubMed"
	TargetEMBASE        Target = "EMBASE"
	TargetScopus        Target = "Scopus"
	TargetGoogleScholar Target = "GS"

	// TargetGeneric joins terms with OR and no envelope.
	TargetGeneric Target = ""
)

// Targets lists the named databases in menu order (1-5).
var Targets = []Target{TargetWOS, TargetPubMed, TargetEMBASE, TargetScopus, TargetGoogleScholar}

var targetAliases = map[string]Target{
	"1": TargetWOS, "wos": TargetWOS, "web of science": TargetWOS,
	"2": TargetPubMed, "pubmed": TargetPubMed, "pm": TargetPubMed,
	"3": TargetEMBASE, "embase": TargetEMBASE, "em": TargetEMBASE,
	"4": TargetScopus, "scopus": TargetScopus,
	"5": TargetGoogleScholar, "gs": TargetGoogleScholar, "google scholar": TargetGoogleScholar,
}

// ParseTarget resolves a database name, short code, or menu number,
// ignoring case. Unknown names resolve to TargetGeneric with ok == false.
func ParseTarget(name string) (t Target, ok bool) {
	t, ok = targetAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return TargetGeneric, false
	}
	return t, true
}

// Mode selects which citation field a query is built from and how its
// values are filtered.
type Mode string

const (
	ModeTitles      Mode = "titles"
	ModeDOIs        Mode = "dois"
	ModeFirstAuthor Mode = "first_author"
)

var modeAliases = map[string]Mode{
	"title": ModeTitles, "titles": ModeTitles,
	"doi": ModeDOIs, "dois": ModeDOIs,
	"first_author": ModeFirstAuthor, "firstauthor": ModeFirstAuthor, "first author": ModeFirstAuthor,
	"1st author": ModeFirstAuthor, "1st_author": ModeFirstAuthor, "1stauthor": ModeFirstAuthor,
}

// ErrUnknownMode is returned by ParseMode for an unrecognized mode name.
var ErrUnknownMode = errors.New("unknown query mode")

// ParseMode resolves a mode name such as "Titles", "DOI", or "1st author".
func ParseMode(name string) (Mode, error) {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (want titles, dois or first_author)", ErrUnknownMode, name)
}

// minTitleLen is the length at or below which a title is treated as a
// placeholder and left out of a titles query.
const minTitleLen = 20

// minDOISegments is the dot-separated segment count a DOI must exceed to be
// kept in a dois query.
// NOTE: almost no real DOI passes this; kept for compatibility with
// existing query files.
const minDOISegments = 10

var doiRe = regexp.MustCompile(`10\.\d{4,9}/(\S+\.)?(\S+)`)

// Build deduplicates values, filters and cleans them for mode, and joins
// the quoted terms in target's syntax. Target and mode accept any alias
// understood by ParseTarget and ParseMode. A mode that is not recognized
// gets the first_author treatment. When no value survives, the envelope is
// returned with an empty body.
func Build(values []string, target Target, mode Mode) string {
	t, _ := ParseTarget(string(target))
	m, err := ParseMode(string(mode))
	if err != nil {
		m = ModeFirstAuthor
	}
	return envelope(t, terms(values, m))
}

// terms returns the quoted terms for values in first-occurrence order with
// duplicates removed.
func terms(values []string, m Mode) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = norm.NFC.String(v)
		if !keep(v, m) {
			continue
		}
		term := clean(v, m)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		out = append(out, `"`+term+`"`)
	}
	return out
}

// keep applies the per-mode filter to a raw value.
func keep(v string, m Mode) bool {
	switch m {
	case ModeTitles:
		return utf8.RuneCountInString(v) > minTitleLen
	case ModeDOIs:
		return doiRe.MatchString(v) && len(strings.Split(v, ".")) > minDOISegments
	default:
		return true
	}
}

// clean removes newlines and embedded double quotes, then trims slashes,
// quote or backslash characters, and spaces from both ends in that order.
func clean(v string, m Mode) string {
	v = strings.ReplaceAll(v, "\n", "")
	v = strings.ReplaceAll(v, "\r", "")
	v = strings.ReplaceAll(v, `"`, "")
	v = strings.Trim(v, "/")
	if m == ModeTitles {
		v = strings.Trim(v, "'")
	} else {
		v = strings.Trim(v, `\`)
	}
	return strings.Trim(v, " ")
}

// envelope joins terms in the target database's syntax.
func envelope(t Target, terms []string) string {
	switch t {
	case TargetWOS:
		return "TI=(" + strings.Join(terms, " OR ") + ")"
	case TargetPubMed:
		return "(" + strings.Join(terms, "[Title]) OR (") + "[Title])"
	case TargetEMBASE:
		return strings.Join(terms, ":ti OR ") + ":ti"
	case TargetScopus:
		return "TITLE(" + strings.Join(terms, " OR ") + ")"
	default:
		return strings.Join(terms, " OR ")
	}
}
