package binding

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFields(t *testing.T) {
	cases := map[string][]string{
		"":                           nil,
		"plain":                      nil,
		"[NAME]":                     {"NAME"},
		"[A] - [B] ([A])":            {"A", "B", "A"},
		"x] [Y]":                     {"Y"},
		"[open":                      nil,
		"[]":                         {""},
		"def Main():\n return [POP]": {"POP"},
	}
	for in, want := range cases {
		if diff := cmp.Diff(want, Fields(in)); diff != "" {
			t.Fatalf("Fields(%q) mismatch (-want +got):\n%s", in, diff)
		}
	}
}

func TestSubstitute(t *testing.T) {
	row := map[string]any{
		"NAME": "Lyon",
		"POP":  float64(513275),
		"CAP":  false,
		"NIL":  nil,
		"geo":  map[string]any{"code": "69"},
		"tags": []any{"a", "b"},
	}
	cases := map[string]string{
		"[NAME] ([POP])":       "Lyon (513275)",
		"[NAME]/[NAME]":        "Lyon/Lyon",
		"[MISSING] [NAME]":     "[MISSING] Lyon",
		"[NIL]":                "[NIL]",
		"[CAP]":                "false",
		"[geo.code]-[tags(1)]": "69-b",
		"no tokens":            "no tokens",
	}
	for in, want := range cases {
		if got := Substitute(in, row); got != want {
			t.Fatalf("Substitute(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Substitute("[NAME]", nil); got != "[NAME]" {
		t.Fatalf("nil data should leave tokens, got %q", got)
	}
	if got := SubstituteQuoted("x = [NAME] + [POP]", row); got != `x = "Lyon" + 513275` {
		t.Fatalf("SubstituteQuoted = %q", got)
	}
}

func TestIsComplex(t *testing.T) {
	if !IsComplex(ComplexTemplate) {
		t.Fatalf("template should be complex")
	}
	if IsComplex(" def Main():") || IsComplex("[NAME]") || IsComplex("") {
		t.Fatalf("only a leading def Main(): is complex")
	}
}

type rows struct {
	names []string
	data  []map[string]any
}

func (r rows) FieldNames() []string     { return r.names }
func (r rows) Len() int                 { return len(r.data) }
func (r rows) Row(i int) map[string]any { return r.data[i] }

func TestEditorModes(t *testing.T) {
	src := rows{names: []string{"NAME", "POP"}, data: []map[string]any{{"NAME": "Nice", "POP": 342669}}}
	e := NewEditor(src)
	var last string
	e.OnChange = func(expr string) { last = expr }

	e.SetExpression("[NAME]")
	if e.Mode() != Simple || e.Expression() != "[NAME]" {
		t.Fatalf("simple expression not loaded")
	}
	e.InsertField("POP", -1)
	if last != "[NAME][POP]" {
		t.Fatalf("OnChange got %q", last)
	}
	if got := e.Preview(); got != "Nice342669" {
		t.Fatalf("Preview = %q", got)
	}

	e.SetMode(Advanced)
	if e.Expression() != ComplexTemplate {
		t.Fatalf("advanced mode should start from the template")
	}
	e.SetText("def Main():\n  return [NAME]")
	if got := e.Preview(); got != "def Main():\n  return \"Nice\"" {
		t.Fatalf("advanced Preview = %q", got)
	}

	e.SetExpression("def Main():\n  return 1")
	if e.Mode() != Advanced {
		t.Fatalf("script should switch to advanced mode")
	}
	if diff := cmp.Diff([]string{"[NAME]", "[POP]"}, e.FieldList()); diff != "" {
		t.Fatalf("FieldList (-want +got):\n%s", diff)
	}
}

func TestEditorInsertAtCursor(t *testing.T) {
	e := NewEditor(nil)
	e.SetText("Name: !")
	e.InsertField("[NAME]", 6)
	if got := e.Expression(); got != "Name: [NAME]!" {
		t.Fatalf("InsertField = %q", got)
	}
}

func TestEditorPreviewWithoutFeatures(t *testing.T) {
	e := NewEditor(rows{names: []string{"A"}})
	e.SetExpression("[A]")
	if got := e.Preview(); got != NoFeatureMessage {
		t.Fatalf("Preview = %q", got)
	}
}

func TestEditorImportExport(t *testing.T) {
	e := NewEditor(nil)
	if err := e.Import(strings.NewReader("def Main():\n  return 2")); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if e.Mode() != Advanced {
		t.Fatalf("Import should select advanced mode")
	}
	var buf bytes.Buffer
	if err := e.Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if buf.String() != "def Main():\n  return 2" {
		t.Fatalf("exported %q", buf.String())
	}
}
