// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibparse

import (
	"regexp"
	"strings"
)

// field is one tag occurrence in a record with its value lines. lines[0] is
// the text on the tag line; later elements are continuation lines.
type field struct {
	tag   string
	lines []string
}

// joined returns the value with embedded newlines removed. An indented
// continuation line contributes a single separating space in place of its
// indentation.
func (f field) joined() string {
	var b strings.Builder
	b.WriteString(f.lines[0])
	for _, l := range f.lines[1:] {
		t := strings.TrimLeft(l, " \t")
		if t != l && t != "" && b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return strings.TrimSpace(b.String())
}

// split returns every non-blank line of the value as its own element.
func (f field) split() []string {
	var out []string
	for _, l := range f.lines {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// fieldSet is a record's tag occurrences in document order.
type fieldSet []field

// fields tokenizes one record fragment according to the format syntax.
func (r *Rules) fields(raw string) fieldSet {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if r.Syntax == SyntaxBrace {
		return braceFields(raw)
	}
	return taggedFields(raw, r.tagLine)
}

// taggedFields groups lines into tag occurrences. A line matching tagLine
// starts a new occurrence; any other line continues the current one. Lines
// before the first tag are ignored.
func taggedFields(raw string, tagLine *regexp.Regexp) fieldSet {
	var fs fieldSet
	for _, line := range strings.Split(raw, "\n") {
		if m := tagLine.FindStringSubmatch(line); m != nil {
			fs = append(fs, field{tag: m[1], lines: []string{m[2]}})
			continue
		}
		if len(fs) == 0 {
			continue
		}
		last := &fs[len(fs)-1]
		last.lines = append(last.lines, line)
	}
	return fs
}

// braceNameRe finds "name =" at a field boundary inside a BibTeX entry.
var braceNameRe = regexp.MustCompile(`(?:^|[\s,{])([A-Za-z][\w-]*)\s*=\s*`)

// braceFields scans "name = {value}", "name = "value"" and "name = 123"
// pairs. Braces nest; a match that starts inside a previous value is skipped.
func braceFields(raw string) fieldSet {
	var fs fieldSet
	pos := 0
	for _, m := range braceNameRe.FindAllStringSubmatchIndex(raw, -1) {
		if m[0] < pos {
			continue
		}
		name := raw[m[2]:m[3]]
		value, end, ok := readBraceValue(raw, m[1])
		if !ok {
			continue
		}
		pos = end
		fs = append(fs, field{tag: name, lines: strings.Split(value, "\n")})
	}
	return fs
}

// readBraceValue reads the value starting at i and returns it with the
// offset just past it.
func readBraceValue(raw string, i int) (string, int, bool) {
	if i >= len(raw) {
		return "", i, false
	}
	switch c := raw[i]; {
	case c == '{':
		depth := 0
		for j := i; j < len(raw); j++ {
			switch raw[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return raw[i+1 : j], j + 1, true
				}
			}
		}
		return "", i, false
	case c == '"':
		for j := i + 1; j < len(raw); j++ {
			if raw[j] == '"' && raw[j-1] != '\\' {
				return raw[i+1 : j], j + 1, true
			}
		}
		return "", i, false
	case c >= '0' && c <= '9':
		j := i
		for j < len(raw) && raw[j] >= '0' && raw[j] <= '9' {
			j++
		}
		return raw[i:j], j, true
	default:
		return "", i, false
	}
}

// all returns every occurrence of tag.
func (r *Rules) all(fs fieldSet, tag string) []field {
	var out []field
	for _, f := range fs {
		if r.sameTag(f.tag, tag) {
			out = append(out, f)
		}
	}
	return out
}

// Extract returns the values recorded under tag in one record's raw text.
//
// A single-valued lookup reads the first occurrence; a multi-valued lookup
// reads every occurrence in order. Registry quirks for the tag (continuation
// line splitting, separators) are applied. When the tag is absent Extract
// returns found == false and callers substitute the empty default.
func (r *Rules) Extract(raw, tag string, multi bool) (values []string, found bool) {
	m := r.mapping(tag)
	m.Multi = multi
	return r.extract(r.fields(raw), m)
}

// ExtractSingle is Extract for a single-valued tag, collapsed to one string.
func (r *Rules) ExtractSingle(raw, tag string) (string, bool) {
	values, ok := r.Extract(raw, tag, false)
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// ExtractMulti is Extract for a multi-valued tag. A miss yields [""].
func (r *Rules) ExtractMulti(raw, tag string) ([]string, bool) {
	values, ok := r.Extract(raw, tag, true)
	if !ok || len(values) == 0 {
		return []string{""}, false
	}
	return values, true
}

func (r *Rules) extract(fs fieldSet, m FieldMapping) ([]string, bool) {
	if m.Tag == "" {
		return nil, false
	}
	matches := r.all(fs, m.Tag)
	if len(matches) == 0 {
		return nil, false
	}
	if !m.Multi {
		matches = matches[:1]
	}

	var values []string
	for _, f := range matches {
		if m.SplitLines {
			values = append(values, f.split()...)
			continue
		}
		v := f.joined()
		if m.Separator == nil {
			values = append(values, v)
			continue
		}
		for _, part := range m.Separator.Split(v, -1) {
			values = append(values, strings.TrimSpace(part))
		}
	}
	return values, true
}
