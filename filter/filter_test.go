package filter

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var city = map[string]any{
	"NAME":    "Saint-Étienne",
	"POP":     171924,
	"TYPE":    "city",
	"CAPITAL": false,
	"CODE":    "42",
	"NOTE":    nil,
}

func TestMatch(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{"", true},
		{"[POP] > 100000", true},
		{"[POP] >= 171924 AND [POP] <= 171924", true},
		{"[POP] < 1000 OR [TYPE] = 'city'", true},
		{"NOT [TYPE] = 'city'", false},
		{"not not [type] = 'CITY'", true},
		{"[NAME] LIKE 'saint%'", true},
		{"[NAME] like 'Saint-_tienne'", true},
		{"[NAME] LIKE 'Paris%'", false},
		{"[CODE] = 42", true},
		{"[CODE] <> '42'", false},
		{"[CAPITAL] = FALSE", true},
		{"[CAPITAL]", false},
		{"[NOTE] IS NULL", true},
		{"[NOTE] IS NOT NULL", false},
		{"[NOTE] = 'x'", false},
		{"([POP] > 1 AND ([TYPE] = 'town' OR [TYPE] = 'city'))", true},
		{`[NAME] = "Saint-Étienne"`, true},
		{"[NAME] = 'Saint''s'", false},
	}
	for _, c := range cases {
		src, want := c.src, c.want
		f, err := Compile(src)
		if err != nil {
			t.Fatalf("Compile(%q): %v", src, err)
		}
		got, err := f.Match(city)
		if err != nil {
			t.Fatalf("Match(%q): %v", src, err)
		}
		if got != want {
			t.Fatalf("Match(%q) = %v, want %v", src, got, want)
		}
	}
}

func TestUnknownField(t *testing.T) {
	f := MustCompile("[MISSING] = 1")
	if _, err := f.Match(city); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestFieldCaseFolding(t *testing.T) {
	row := map[string]any{"Pop": 10, "name": "a"}
	if ok, err := MustCompile("[POP] = 10 AND [NAME] = 'a'").Match(row); err != nil || !ok {
		t.Fatalf("case-insensitive match failed: %v, %v", ok, err)
	}

	clash := map[string]any{"Pop": 10, "POP": 20}
	if ok, err := MustCompile("[POP] = 20").Match(clash); err != nil || !ok {
		t.Fatalf("exact name should win: %v, %v", ok, err)
	}
	for i := 0; i < 20; i++ {
		if _, err := MustCompile("[pop] > 0").Match(clash); !errors.Is(err, ErrAmbiguousField) {
			t.Fatalf("expected ErrAmbiguousField, got %v", err)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{"[POP] >", "AND", "([POP] = 1", "'open"} {
		if _, err := Compile(src); err == nil {
			t.Fatalf("Compile(%q) should fail", src)
		}
	}
}

func TestFields(t *testing.T) {
	f := MustCompile("[POP] > 1 AND ([TYPE] = 'city' OR NOT [POP] = 2) AND NAME LIKE 'a%'")
	if diff := cmp.Diff([]string{"POP", "TYPE", "NAME"}, f.Fields()); diff != "" {
		t.Fatalf("Fields (-want +got):\n%s", diff)
	}
	if MustCompile(" ").Fields() != nil {
		t.Fatalf("empty filter has no fields")
	}
}
