// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jats reads the JATS markup that CERMINE emits for one PDF and
// builds a citation for the index article with its reference list.
// Elements are located by pattern search rather than a full XML decode
// because extraction output is frequently not well-formed.
package jats

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/refchaser/pkg/types"
)

var (
	articleRe      = regexp.MustCompile(`<article[\s>]`)
	articleTypeRe  = regexp.MustCompile(`<article\s[^>]*article-type="([^"]*)"`)
	articleTitleRe = regexp.MustCompile(`(?s)<article-title>(.*?)</article-title>`)
	articleIDRe    = regexp.MustCompile(`<article-id.*?>(.*?)</article-id>`)

	refRe        = regexp.MustCompile(`(?s)<ref id="ref\d{1,3}">(.*?)</ref>`)
	stringNameRe = regexp.MustCompile(`(?s)<string-name>(.*?)</string-name>`)
	givenNamesRe = regexp.MustCompile(`(?s)<given-names>(.*?)</given-names>`)
	surnameRe    = regexp.MustCompile(`(?s)<surname>(.*?)</surname>`)
	yearRe       = regexp.MustCompile(`<year>(\d{4})</year>`)
	sourceRe     = regexp.MustCompile(`(?s)<source>(.*?)</source>`)

	// Front matter only.
	journalTitleRe  = regexp.MustCompile(`(?s)<journal-title>(.*?)</journal-title>`)
	pubDateRe       = regexp.MustCompile(`(?s)<pub-date[^>]*>(.*?)</pub-date>`)
	authorContribRe = regexp.MustCompile(`(?s)<contrib[^>]*contrib-type="author"[^>]*>(.*?)</contrib>`)
	abstractRe      = regexp.MustCompile(`(?s)<abstract[^>]*>(.*?)</abstract>`)
	kwdRe           = regexp.MustCompile(`(?s)<kwd>(.*?)</kwd>`)
	tagRe           = regexp.MustCompile(`<[^>]+>`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

// nameReplacer strips separators from one author name component.
var nameReplacer = strings.NewReplacer(",", "", ";", "", " ", "", "\n", "")

// refTitleReplacer strips characters that break downstream query syntax.
var refTitleReplacer = strings.NewReplacer("\n", "", "?", "", "*", "", ":", "", ">", "", "<", "", "|", "")

// ParseOne builds the index article citation from one document's JATS
// markup. Missing elements leave their fields empty; the only error is
// markup that does not contain an article element at all.
func ParseOne(markup string) (types.Citation, error) {
	if !articleRe.MatchString(markup) {
		return types.Citation{}, fmt.Errorf("%w: no <article> element in markup", types.ErrUnsupportedFormat)
	}

	article := types.NewCitation()
	article.Title = firstGroup(articleTitleRe, markup)
	article.DOI = firstGroup(articleIDRe, markup)
	article.ArticleType = firstGroup(articleTypeRe, markup)

	front := frontMatter(markup)
	article.Journal = strings.TrimSpace(firstGroup(journalTitleRe, front))
	article.Year = firstGroup(yearRe, firstGroup(pubDateRe, front))
	article.Abstract = plainText(firstGroup(abstractRe, front))
	article.SetAuthors(frontAuthors(front))

	var keywords []string
	for _, m := range kwdRe.FindAllStringSubmatch(front, -1) {
		keywords = append(keywords, plainText(m[1]))
	}
	article.SetKeywords(keywords)

	for _, m := range refRe.FindAllStringSubmatch(markup, -1) {
		article.RefList = append(article.RefList, parseRef(m[1]))
	}
	return article, nil
}

// parseRef builds one reference citation from the body of a <ref> element.
func parseRef(ref string) types.Citation {
	c := types.NewCitation()

	var authors []string
	for _, m := range stringNameRe.FindAllStringSubmatch(ref, -1) {
		if name, ok := pairedName(m[1]); ok {
			authors = append(authors, name)
		}
	}
	c.SetAuthors(authors)

	c.Year = firstGroup(yearRe, ref)
	c.Title = refTitleReplacer.Replace(firstGroup(articleTitleRe, ref))
	c.Journal = firstGroup(sourceRe, ref)
	return c
}

// pairedName formats a <string-name> that carries both <given-names> and
// <surname> as "Surname, Given".
func pairedName(block string) (string, bool) {
	given := givenNamesRe.FindStringSubmatch(block)
	surname := surnameRe.FindStringSubmatch(block)
	if given == nil || surname == nil {
		return "", false
	}
	return nameReplacer.Replace(surname[1]) + ", " + nameReplacer.Replace(given[1]), true
}

// frontAuthors reads the index article's authors. CERMINE writes front
// matter names as plain "Given Surname" text, so a name without structured
// parts is split at its last space.
func frontAuthors(front string) []string {
	var authors []string
	for _, contrib := range authorContribRe.FindAllStringSubmatch(front, -1) {
		m := stringNameRe.FindStringSubmatch(contrib[1])
		if m == nil {
			continue
		}
		if name, ok := pairedName(m[1]); ok {
			authors = append(authors, name)
			continue
		}
		name := plainText(m[1])
		if name == "" {
			continue
		}
		if i := strings.LastIndexByte(name, ' '); i > 0 {
			name = name[i+1:] + ", " + name[:i]
		}
		authors = append(authors, name)
	}
	return authors
}

// frontMatter returns the markup preceding the back matter so that index
// article lookups never pick up a reference's elements.
func frontMatter(markup string) string {
	end := len(markup)
	for _, marker := range []string{"<back>", "<ref-list"} {
		if i := strings.Index(markup, marker); i >= 0 && i < end {
			end = i
		}
	}
	return markup[:end]
}

// plainText drops nested tags and collapses whitespace.
func plainText(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
