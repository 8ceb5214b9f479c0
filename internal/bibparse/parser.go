// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibparse

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/refchaser/pkg/types"
)

// Parser builds Citation records from bibliographic file text. A Parser holds
// no per-call state and may be shared across goroutines.
type Parser struct {
	logger *zap.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger makes the parser report missing fields at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser creates a Parser. Without options it logs nothing.
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse is shorthand for NewParser().Parse.
func Parse(raw string, f Format) ([]types.Citation, error) {
	return defaultParser.Parse(raw, f)
}

// Parse splits raw into records according to the format's rules and returns
// one Citation per record in file order. A record without any recognizable
// tag is still returned, with every field empty. The only error is an
// unsupported format.
func (p *Parser) Parse(raw string, f Format) ([]types.Citation, error) {
	rules, err := Lookup(f)
	if err != nil {
		return nil, err
	}

	fragments := rules.Split(raw)
	citations := make([]types.Citation, 0, len(fragments))
	for i, frag := range fragments {
		citations = append(citations, p.parseRecord(rules, frag, i))
	}
	return citations, nil
}

// parseRecord extracts every mapping of rules from one fragment.
func (p *Parser) parseRecord(rules *Rules, raw string, index int) types.Citation {
	c := types.NewCitation()
	fs := rules.fields(raw)

	for _, m := range rules.Mappings {
		values, ok := rules.extract(fs, m)
		if !ok && m.Tag != "" {
			p.logger.Debug("field missing",
				zap.String("format", string(rules.Format)),
				zap.Int("record", index),
				zap.String("tag", m.Tag),
				zap.String("field", string(m.Field)),
			)
		}
		assign(&c, m.Field, values)
	}

	if rules.derive != nil {
		rules.derive(&c, raw, fs)
	}
	c.SetAuthors(c.Authors)
	c.SetKeywords(c.Keywords)
	return c
}

// assign stores extracted values on the citation field.
func assign(c *types.Citation, f Field, values []string) {
	first := ""
	if len(values) > 0 {
		first = values[0]
	}

	switch f {
	case FieldTitle:
		c.Title = first
	case FieldArticleType:
		c.ArticleType = first
	case FieldYear:
		c.Year = first
	case FieldAuthors:
		c.SetAuthors(values)
	case FieldDOI:
		c.DOI = first
	case FieldJournal:
		c.Journal = first
	case FieldAbstract:
		c.Abstract = first
	case FieldKeywords:
		c.SetKeywords(values)
	case FieldDatabaseID:
		c.DatabaseID = first
	}
}

var (
	yearRe     = regexp.MustCompile(`\d{4}`)
	bibTypeRe  = regexp.MustCompile(`@([^{]*)\{`)
	doiSuffix  = "[doi]"
	nbibIDTags = map[string]bool{"LID": true, "AID": true}
)

// deriveNBIB reduces the year to its four-digit run and resolves the DOI
// from an identifier line marked [doi].
func deriveNBIB(c *types.Citation, _ string, fs fieldSet) {
	if y := yearRe.FindString(c.Year); y != "" {
		c.Year = y
	}
	c.DOI = nbibDOI(c.DOI, fs)
}

// nbibDOI returns primary without its [doi] marker when it has one,
// otherwise the first LID/AID value that has one.
func nbibDOI(primary string, fs fieldSet) string {
	if v, ok := strings.CutSuffix(primary, doiSuffix); ok {
		return strings.TrimSpace(v)
	}
	for _, f := range fs {
		if !nbibIDTags[f.tag] {
			continue
		}
		if v, ok := strings.CutSuffix(f.joined(), doiSuffix); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// deriveBibTeX falls back to the entry type marker (the text between @ and
// the opening brace) when no explicit type field is present.
func deriveBibTeX(c *types.Citation, raw string, _ fieldSet) {
	if c.ArticleType != "" {
		return
	}
	if m := bibTypeRe.FindStringSubmatch(raw); m != nil {
		c.ArticleType = strings.TrimSpace(m[1])
	}
}
