package dsl_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/cartotext/dsl"
)

const sampleDSL = `
layout CityMap v1 {
  meta {
    title: "Cities"
    keywords: [
      "map"
      "labels"
    ]
  }

  resources {
    font Title {
      family: "Go"
      style: "bold"
    }

    color Accent = #0F62FE
  }

  labels cities "testdata/cities.geojson" {
    category Big {
      expression: "[NAME] ([POP])"
      filter: "[POP] > 100000"
      offset: [0, -4pt]
      halo: true
    }
  }

  page A4 landscape {
    text Title at 20mm 20mm angle -15deg color Accent { "Population of [NAME]" }

    // 沿圆弧排列
    text Title at 100mm 80mm radius 30mm start 90deg { "AROUND" }

    frame at 10mm 10mm size 50mm 20mm width 0.5pt
    labels cities
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "CityMap" {
		t.Fatalf("expected document name CityMap, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}

	if len(doc.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(doc.Sections))
	}
	kinds := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		kinds = append(kinds, s.Kind())
	}
	if got := strings.Join(kinds, ","); got != "meta,resources,labels,page" {
		t.Fatalf("unexpected section kinds %s", got)
	}

	meta := doc.Sections[0].Meta
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	if got := string(*title.Value.String); got != "Cities" {
		t.Fatalf("expected title Cities, got %s", got)
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil || len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected keywords array with 2 values")
	}

	labels := doc.Sections[2].Labels
	if labels.Name != "cities" || labels.Source == nil || string(*labels.Source) != "testdata/cities.geojson" {
		t.Fatalf("unexpected labels header %+v", labels)
	}
	category := labels.Block.Statements[0].Command
	if category == nil || category.Name != "category" || category.Args[0].Value != "Big" {
		t.Fatalf("expected category command, got %+v", labels.Block.Statements[0])
	}
	if len(category.Block.Statements) != 4 {
		t.Fatalf("expected 4 category settings, got %d", len(category.Block.Statements))
	}
	offset := category.Block.Statements[2].Assignment
	if offset == nil || offset.Value.Array == nil || *offset.Value.Array.Values[1].Number != "-4pt" {
		t.Fatalf("negative lengths should lex as numbers: %+v", offset)
	}
	halo := category.Block.Statements[3].Assignment
	if halo == nil || halo.Value.Expr == nil || tokensToString(halo.Value.Expr.Parts) != "true" {
		t.Fatalf("halo should be a bare expression, got %+v", halo)
	}

	page := doc.Sections[3].Page
	if page.Spec.Size != "A4" || len(page.Spec.Params) != 1 || page.Spec.Params[0].Value != "landscape" {
		t.Fatalf("unexpected page spec %+v", page.Spec)
	}
	if len(page.Block.Statements) != 4 {
		t.Fatalf("expected 4 page statements, got %d", len(page.Block.Statements))
	}

	text := page.Block.Statements[0].Command
	if text == nil || text.Name != "text" || text.Args[0].Value != "Title" {
		t.Fatalf("expected text command, got %+v", page.Block.Statements[0])
	}
	if got := tokensToString(text.Args[1:6]); got != "at 20mm 20mm angle -15deg" {
		t.Fatalf("unexpected text args: %s", got)
	}
	if text.Block == nil || text.Block.Statements[0].Text == nil {
		t.Fatalf("text command missing literal content")
	}
	if got := string(text.Block.Statements[0].Text.Value); !strings.Contains(got, "[NAME]") {
		t.Fatalf("expected field token in text literal, got %s", got)
	}

	curved := page.Block.Statements[1].Command
	if got := tokensToString(curved.Args); got != "Title at 100mm 80mm radius 30mm start 90deg" {
		t.Fatalf("unexpected curved text args: %s", got)
	}

	frame := page.Block.Statements[2].Command
	if frame == nil || frame.Name != "frame" || frame.Block != nil {
		t.Fatalf("expected frame command, got %+v", page.Block.Statements[2])
	}
	draw := page.Block.Statements[3].Command
	if draw == nil || draw.Name != "labels" || draw.Args[0].Value != "cities" {
		t.Fatalf("expected labels command, got %+v", page.Block.Statements[3])
	}
}

func TestParseRejectsUnknownRoot(t *testing.T) {
	_, err := dsl.ParseString(`doc Old v1 { }`)
	var perr *dsl.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a ParseError, got %v", err)
	}
	if perr.Pos.Line != 1 || perr.Pos.Column != 1 {
		t.Fatalf("unexpected error position %s", perr.Pos)
	}
	if !strings.HasPrefix(err.Error(), "第 1 行第 1 列") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := dsl.ParseString("layout T v1 {\n  page A4 {\n    frame at 1mm 1mm\n  }\n")
	var perr *dsl.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a ParseError, got %v", err)
	}
	if perr.Pos.Line < 4 {
		t.Fatalf("expected the error near the end of input, got line %d", perr.Pos.Line)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.carto")
	if err := os.WriteFile(path, []byte(sampleDSL), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := dsl.ParseFile(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Pages()) != 1 {
		t.Fatalf("expected one page, got %d", len(doc.Pages()))
	}

	if err := os.WriteFile(path, []byte("layout T {"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = dsl.ParseFile(path)
	var perr *dsl.ParseError
	if !errors.As(err, &perr) || !strings.HasPrefix(err.Error(), path) {
		t.Fatalf("expected a ParseError naming %s, got %v", path, err)
	}

	if _, err := dsl.ParseFile(filepath.Join(t.TempDir(), "missing.carto")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestColorTokenKeepsFullHex(t *testing.T) {
	doc, err := dsl.ParseString(`layout T v1 { meta { a: #FFFBE6; b: #abc; c: #11223344 } }`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var got []string
	for _, a := range doc.MetaBlocks()[0].Assignments() {
		got = append(got, a.Value.Text())
	}
	if strings.Join(got, " ") != "#FFFBE6 #abc #11223344" {
		t.Fatalf("unexpected colors %v", got)
	}
}

func tokensToString(parts []*dsl.Lexeme) string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
	}
	return strings.Join(values, " ")
}
