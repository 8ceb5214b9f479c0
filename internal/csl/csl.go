// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package csl converts citations to CSL (Citation Style Language) items so
// parsed exports can be handed to Pandoc or a reference manager.
package csl

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/refchaser/pkg/types"
)

// Item is a bibliographic entry in CSL-JSON/CSL-YAML form.
type Item struct {
	ID             string `json:"id" yaml:"id"`
	Type           string `json:"type" yaml:"type"`
	Title          string `json:"title,omitempty" yaml:"title,omitempty"`
	Author         []Name `json:"author,omitempty" yaml:"author,omitempty"`
	ContainerTitle string `json:"container-title,omitempty" yaml:"container-title,omitempty"`
	Abstract       string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Keyword        string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Issued         *Date  `json:"issued,omitempty" yaml:"issued,omitempty"`
	DOI            string `json:"DOI,omitempty" yaml:"DOI,omitempty"`
}

// Name is a person's name in CSL form.
type Name struct {
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Given   string `json:"given,omitempty" yaml:"given,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// Date is a CSL date using date-parts.
type Date struct {
	DateParts [][]int `json:"date-parts" yaml:"date-parts"`
}

// typeMap maps source document types, lower-cased, to CSL types.
var typeMap = map[string]string{
	"jour":              "article-journal",
	"journal article":   "article-journal",
	"article":           "article-journal",
	"j":                 "article-journal",
	"review":            "article-journal",
	"research-article":  "article-journal",
	"review-article":    "article-journal",
	"book":              "book",
	"b":                 "book",
	"chap":              "chapter",
	"incollection":      "chapter",
	"inbook":            "chapter",
	"conf":              "paper-conference",
	"cpaper":            "paper-conference",
	"inproceedings":     "paper-conference",
	"proceedings paper": "paper-conference",
	"s":                 "paper-conference",
	"thes":              "thesis",
	"phdthesis":         "thesis",
	"mastersthesis":     "thesis",
	"rprt":              "report",
	"techreport":        "report",
	"elec":              "webpage",
	"misc":              "document",
}

// FromCitations converts citations to CSL items. Items are identified by
// database ID, then DOI, then position.
func FromCitations(citations []types.Citation) []Item {
	items := make([]Item, len(citations))
	for i, c := range citations {
		items[i] = toItem(c, i)
	}
	return items
}

func toItem(c types.Citation, index int) Item {
	item := Item{
		ID:             itemID(c, index),
		Type:           cslType(c.ArticleType),
		Title:          c.Title,
		ContainerTitle: c.Journal,
		Abstract:       c.Abstract,
		DOI:            c.DOI,
	}
	for _, a := range c.Authors {
		if a = strings.TrimSpace(a); a != "" {
			item.Author = append(item.Author, ParseName(a))
		}
	}
	var kws []string
	for _, k := range c.Keywords {
		if k != "" {
			kws = append(kws, k)
		}
	}
	item.Keyword = strings.Join(kws, ", ")
	if year, err := strconv.Atoi(strings.TrimSpace(c.Year)); err == nil && year > 0 {
		item.Issued = &Date{DateParts: [][]int{{year}}}
	}
	return item
}

func itemID(c types.Citation, index int) string {
	switch {
	case c.DatabaseID != "":
		return c.DatabaseID
	case c.DOI != "":
		return c.DOI
	}
	return "item-" + strconv.Itoa(index+1)
}

func cslType(articleType string) string {
	if t, ok := typeMap[strings.ToLower(strings.TrimSpace(articleType))]; ok {
		return t
	}
	return "article"
}

// ParseName splits an author string into CSL parts. "Surname, Given" splits
// at the first comma; otherwise the last space separates given names from
// the family name. A single token becomes a literal name.
func ParseName(name string) Name {
	name = strings.TrimSpace(name)
	if family, given, ok := strings.Cut(name, ","); ok {
		return Name{Family: strings.TrimSpace(family), Given: strings.TrimSpace(given)}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return Name{Literal: name}
	}
	return Name{Given: name[:idx], Family: name[idx+1:]}
}

// WriteYAML writes items as a CSL-YAML list.
func WriteYAML(w io.Writer, items []Item) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding CSL-YAML: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes items as a CSL-JSON array.
func WriteJSON(w io.Writer, items []Item) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding CSL-JSON: %w", err)
	}
	return nil
}
