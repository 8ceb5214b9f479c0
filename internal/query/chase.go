// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import "github.com/pdiddy/refchaser/pkg/types"

// Direction says whether a query looks for works citing the index articles
// (forward) or for the works they cite (backward).
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// ParseDirection resolves "forward"/"forw" and "backward"/"back".
func ParseDirection(name string) (Direction, bool) {
	switch name {
	case "forward", "forw", "f":
		return Forward, true
	case "backward", "back", "b":
		return Backward, true
	}
	return "", false
}

// ForwardValues returns the field of every index article selected by mode:
// titles, DOIs, or first authors. An unrecognized mode selects titles.
func ForwardValues(records []types.Citation, mode Mode) []string {
	m, err := ParseMode(string(mode))
	if err != nil {
		m = ModeTitles
	}
	values := make([]string, 0, len(records))
	for _, r := range records {
		switch m {
		case ModeDOIs:
			values = append(values, r.DOI)
		case ModeFirstAuthor:
			values = append(values, r.FirstAuthor)
		default:
			values = append(values, r.Title)
		}
	}
	return values
}

// BackwardValues returns the title of every reference of every index article.
func BackwardValues(records []types.Citation) []string {
	var values []string
	for _, r := range records {
		for _, ref := range r.RefList {
			values = append(values, ref.Title)
		}
	}
	return values
}

// BuildForward builds a query for works citing the index articles.
func BuildForward(records []types.Citation, target Target, mode Mode) string {
	m, err := ParseMode(string(mode))
	if err != nil {
		m = ModeTitles
	}
	return Build(ForwardValues(records, m), target, m)
}

// BuildBackward builds a titles query for the works the index articles cite.
func BuildBackward(records []types.Citation, target Target) string {
	return Build(BackwardValues(records), target, ModeTitles)
}
