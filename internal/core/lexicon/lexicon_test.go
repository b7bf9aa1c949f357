package lexicon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Embedded(t *testing.T) {
	lx, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lx.Version != 1 {
		t.Fatalf("version = %d", lx.Version)
	}
	for name, m := range map[string]*Matcher{
		"hot": lx.Hot, "warm": lx.Warm, "quantity": lx.Quantity, "specs": lx.Specs,
		"deadline": lx.Deadline, "contact": lx.Contact, "vague": lx.Vague,
	} {
		if m.Empty() {
			t.Fatalf("%s matcher is empty", name)
		}
	}
}

func TestMatcher_TokenBoundaries(t *testing.T) {
	m, err := Compile(Set{Phrases: []string{"bid", "RFQ", "due", "due by"}})
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		in   string
		want []string
	}{
		{"open bid for pallets", []string{"bid"}},
		{"the bidder list", nil},
		{"forbidden", nil},
		{"rfq: mailer boxes", []string{"rfq"}},
		{"quotes due by friday", []string{"due by"}},
		{"overdue invoices", nil},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got := texts(m.FindAll(c.in))
			if strings.Join(got, "|") != strings.Join(c.want, "|") {
				t.Fatalf("FindAll(%q) = %v want %v", c.in, got, c.want)
			}
			if m.Any(c.in) != (len(c.want) > 0) {
				t.Fatalf("Any(%q) disagrees with FindAll", c.in)
			}
		})
	}
}

func TestMatcher_PatternsInTextOrder(t *testing.T) {
	m, err := Compile(Set{
		Phrases:  []string{"quote for"},
		Patterns: []string{`\b\d{1,3}(?:,\d{3})+\b`},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := texts(m.FindAll("need 5,000 units, quote for 10,000 too"))
	want := []string{"5,000", "quote for", "10,000"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSpecs_ShortUnitsNeedDimension(t *testing.T) {
	lx := MustLoad()
	cases := []struct {
		in   string
		want bool
	}{
		{"1 in 5 customers asked", false},
		{"ready in 2 weeks", false},
		{"pick up 2 m rolls", false},
		{"12x10 in mailers", true},
		{"12 x 10 x 4 in", true},
		{"350 gsm board", true},
		{"wrap 2 meters wide", true},
		{"6 inch tubes", true},
	}
	for _, c := range cases {
		if got := lx.Specs.Any(c.in); got != c.want {
			t.Fatalf("Specs.Any(%q) = %v want %v", c.in, got, c.want)
		}
	}
}

func TestCompile_BadPattern(t *testing.T) {
	if _, err := Compile(Set{Patterns: []string{"(unclosed"}}); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestParse_Rejects(t *testing.T) {
	if _, err := Parse([]byte("version: 2\n")); err == nil {
		t.Fatalf("wrong version should fail")
	}
	if _, err := Parse([]byte("version: 1\n")); err == nil {
		t.Fatalf("missing hot tier should fail")
	}
	if _, err := Parse([]byte("version: [")); err == nil {
		t.Fatalf("bad yaml should fail")
	}
}

func TestQuality_Boost(t *testing.T) {
	lx := MustLoad()
	cases := map[string]int{
		"sam.gov":               10,
		"SAM.GOV/opportunities": 10,
		"ThomasNet":             8,
		"reddit:r/packaging":    3,
		"unknown-board":         lx.Quality.Default,
		"":                      lx.Quality.Default,
	}
	for platform, want := range cases {
		if got := lx.Quality.Boost(platform); got != want {
			t.Fatalf("Boost(%q) = %d want %d", platform, got, want)
		}
	}
}

func TestLoadQualityFile(t *testing.T) {
	dir := t.TempDir()

	bare := filepath.Join(dir, "bare.yaml")
	if err := os.WriteFile(bare, []byte("default: 1\nrules:\n  - match: ACME\n    boost: 9\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	q, err := LoadQualityFile(bare)
	if err != nil {
		t.Fatalf("bare: %v", err)
	}
	if q.Boost("acme-board") != 9 || q.Boost("other") != 1 {
		t.Fatalf("bare table = %+v", q)
	}

	wrapped := filepath.Join(dir, "wrapped.yaml")
	if err := os.WriteFile(wrapped, []byte("quality:\n  default: 2\n  rules:\n    - match: gov\n      boost: 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	q, err = LoadQualityFile(wrapped)
	if err != nil {
		t.Fatalf("wrapped: %v", err)
	}
	lx := MustLoad().WithQuality(q)
	if lx.Quality.Boost("sam.gov") != 7 {
		t.Fatalf("override not applied")
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("default: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadQualityFile(empty); err == nil {
		t.Fatalf("table without rules should fail")
	}
	if _, err := LoadQualityFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("missing file should fail")
	}
}

func texts(ms []Match) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Text)
	}
	return out
}
