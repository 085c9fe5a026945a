package dsl_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/cartotext/dsl"
)

func TestDocumentSectionIterators(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if n := len(doc.Pages()); n != 1 {
		t.Fatalf("expected 1 page, got %d", n)
	}
	if n := len(doc.LabelSections()); n != 1 {
		t.Fatalf("expected 1 labels section, got %d", n)
	}
	if n := len(doc.MetaBlocks()); n != 1 {
		t.Fatalf("expected 1 meta block, got %d", n)
	}

	var names []string
	for _, block := range doc.ResourceBlocks() {
		for _, cmd := range block.Commands() {
			names = append(names, cmd.Name+" "+cmd.Args[0].Value)
		}
	}
	if diff := cmp.Diff([]string{"font Title", "color Accent"}, names); diff != "" {
		t.Fatalf("resources mismatch (-want +got):\n%s", diff)
	}
}

func TestValueText(t *testing.T) {
	doc, err := dsl.ParseString(`layout T v1 {
  meta {
    title: "Hello \"map\""
    size: 12pt
    color: #0F62FE
    halo: true
    priority: POP
    keywords: ["a", "", "b"]
    single: "one"
    box: { a: 1 }
  }
}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := map[string]string{}
	texts := map[string][]string{}
	for _, a := range doc.MetaBlocks()[0].Assignments() {
		got[a.Key] = a.Value.Text()
		texts[a.Key] = a.Value.Texts()
	}

	want := map[string]string{
		"title":    `Hello "map"`,
		"size":     "12pt",
		"color":    "#0F62FE",
		"halo":     "true",
		"priority": "POP",
		"keywords": "",
		"single":   "one",
		"box":      "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Text mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, texts["keywords"]); diff != "" {
		t.Fatalf("Texts(keywords) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"one"}, texts["single"]); diff != "" {
		t.Fatalf("Texts(single) mismatch (-want +got):\n%s", diff)
	}
	if texts["box"] != nil {
		t.Fatalf("objects have no texts, got %v", texts["box"])
	}
}

func TestBlockAccessors(t *testing.T) {
	doc, err := dsl.ParseString(`layout T v1 {
  page A4 {
    label Title at 10mm 10mm {
      halo: true
      "Lyon"
      " "
      "2024"
    }
  }
}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	label := doc.Pages()[0].Block.Commands()[0]
	if got := label.Block.Text(); got != "Lyon 2024" {
		t.Fatalf("Text() = %q", got)
	}
	if as := label.Block.Assignments(); len(as) != 1 || as[0].Key != "halo" {
		t.Fatalf("unexpected assignments %+v", as)
	}
	if cmds := label.Block.Commands(); len(cmds) != 0 {
		t.Fatalf("expected no nested commands, got %d", len(cmds))
	}

	var nilBlock *dsl.Block
	if nilBlock.Text() != "" || nilBlock.Assignments() != nil || nilBlock.Commands() != nil {
		t.Fatalf("nil block accessors should be empty")
	}
	var nilValue *dsl.Value
	if nilValue.Text() != "" || nilValue.Texts() != nil {
		t.Fatalf("nil value accessors should be empty")
	}
}
