package normalize

import (
	"testing"
	"unicode/utf8"
)

func TestFold_Table(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"identity ascii", "rfq for boxes", "rfq for boxes"},
		{"utf8 repair drops invalid bytes", string([]byte{0xff, 'r', 'f', 'q', 0x80, ' ', 'n', 'o', 'w'}), "rfq now"},
		{"case fold", "Request For QUOTE", "request for quote"},
		{"remove zero-widths", "r\u200Bf\u200Dq", "rfq"},
		{"remove combining marks", "q\u0301uote", "quote"},
		{"width fold fullwidth", "ＲＦＱ boxes", "rfq boxes"},
		{"nfkc ligature", "oﬃce chairs", "office chairs"},
		{"digits survive", "MOQ 5,000 pcs", "moq 5,000 pcs"},
		{"collapse whitespace", "a\t\tb\nc   d", "a b c d"},
		{"controls dropped", "due\x00 \x07friday\x7f", "due friday"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Fold(tc.in)
			if got != tc.out {
				t.Fatalf("Fold(%q) = %q, want %q", tc.in, got, tc.out)
			}
			if again := n.Fold(got); again != got {
				t.Fatalf("Fold not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestDisplay_KeepsCase(t *testing.T) {
	n := New()
	got := n.Display("  RFQ:\u200B Custom\n\nMailer   Boxes ")
	if got != "RFQ: Custom Mailer Boxes" {
		t.Fatalf("Display = %q", got)
	}
	if n.Display("") != "" || n.Fold("") != "" {
		t.Fatalf("empty input should stay empty")
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<p>RFQ</p><p>5,000 boxes</p>", "RFQ  5,000 boxes"},
		{"<b>R&amp;D</b> samples", " R&D samples"},
		{"A&B packaging", "A&B packaging"},
		{"<script>alert(1)</script>need quote", " need quote"},
	}
	n := New()
	for _, c := range cases {
		got := StripHTML(c.in)
		if n.Display(got) != n.Display(c.want) {
			t.Fatalf("StripHTML(%q) = %q want %q", c.in, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo world", 5); got != "héllo" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("hello world", 6); got != "hello" {
		t.Fatalf("trailing space should be trimmed, got %q", got)
	}
	if got := Truncate("short", 320); got != "short" {
		t.Fatalf("short input changed: %q", got)
	}
	if Truncate("x", 0) != "" {
		t.Fatalf("zero bound should be empty")
	}
	long := Truncate(string(make([]rune, 400)), 320)
	if utf8.RuneCountInString(long) > 320 {
		t.Fatalf("bound exceeded")
	}
}

func TestSanitize(t *testing.T) {
	clean := "tabs\tand\nnewlines ok"
	if got := Sanitize(clean); got != clean {
		t.Fatalf("clean input changed: %q", got)
	}
	if got := Sanitize("a\x00b\u0085c\x1bd"); got != "abcd" {
		t.Fatalf("Sanitize = %q", got)
	}
	if got := Sanitize(string([]byte{'o', 0xfe, 'k'})); got != "ok" {
		t.Fatalf("invalid utf8 not dropped: %q", got)
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := collapseSpaces(" \t a \n b   c \r\n "); got != "a b c" {
		t.Fatalf("collapseSpaces = %q", got)
	}
}
