// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package csl

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pdiddy/refchaser/pkg/types"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		in   string
		want Name
	}{
		{"Smith, John A", Name{Family: "Smith", Given: "John A"}},
		{"van der Berg, C", Name{Family: "van der Berg", Given: "C"}},
		{"Jane Q Doe", Name{Given: "Jane Q", Family: "Doe"}},
		{"Aristotle", Name{Literal: "Aristotle"}},
	}
	for _, tt := range tests {
		if got := ParseName(tt.in); got != tt.want {
			t.Errorf("ParseName(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestFromCitations(t *testing.T) {
	a := types.NewCitation()
	a.Title = "Exercise and sleep"
	a.ArticleType = "JOUR"
	a.Year = "2021"
	a.SetAuthors([]string{"Doe, Jane", "Smith, J"})
	a.DOI = "10.1111/jsr.1"
	a.Journal = "Journal of Sleep Research"
	a.SetKeywords([]string{"sleep", "exercise"})
	a.DatabaseID = "31234567"

	b := types.NewCitation()
	b.Title = "Untyped record"
	b.Year = "n.d."

	c := types.NewCitation()
	c.ArticleType = "inproceedings"
	c.DOI = "10.1/c"

	items := FromCitations([]types.Citation{a, b, c})
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}

	got := items[0]
	if got.ID != "31234567" || got.Type != "article-journal" || got.ContainerTitle != "Journal of Sleep Research" {
		t.Errorf("items[0] = %+v", got)
	}
	if len(got.Author) != 2 || got.Author[0] != (Name{Family: "Doe", Given: "Jane"}) {
		t.Errorf("items[0].Author = %+v", got.Author)
	}
	if got.Keyword != "sleep, exercise" {
		t.Errorf("items[0].Keyword = %q", got.Keyword)
	}
	if got.Issued == nil || got.Issued.DateParts[0][0] != 2021 {
		t.Errorf("items[0].Issued = %+v", got.Issued)
	}

	if items[1].ID != "item-2" || items[1].Type != "article" {
		t.Errorf("items[1] = %+v", items[1])
	}
	if items[1].Issued != nil {
		t.Error("non-numeric year should leave Issued unset")
	}
	if items[1].Author != nil {
		t.Error("empty author placeholder should not produce a CSL name")
	}

	if items[2].ID != "10.1/c" || items[2].Type != "paper-conference" {
		t.Errorf("items[2] = %+v", items[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	items := []Item{{ID: "x", Type: "article", DOI: "10.1/x", Issued: &Date{DateParts: [][]int{{2020}}}}}
	if err := WriteJSON(&buf, items); err != nil {
		t.Fatal(err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if raw[0]["DOI"] != "10.1/x" {
		t.Errorf("DOI key = %v", raw[0]["DOI"])
	}
	if _, ok := raw[0]["issued"].(map[string]any)["date-parts"]; !ok {
		t.Error("issued should carry date-parts")
	}
	if _, ok := raw[0]["title"]; ok {
		t.Error("empty title should be omitted")
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, []Item{{ID: "x", Type: "book", ContainerTitle: "Series"}}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"- id: x", "type: book", "container-title: Series"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
