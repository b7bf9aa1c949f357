// Package lexicon loads the lead signal vocabulary from the embedded lexicon.yaml
// it compiles intent tiers, evidence detail markers, vague markers and the source quality table
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var embedded []byte

// Set is a raw phrase and pattern list as written in yaml
type Set struct {
	Phrases  []string `yaml:"phrases"`
	Patterns []string `yaml:"patterns"`
}

// QualityRule maps a platform substring to a boost
type QualityRule struct {
	Match string `yaml:"match"`
	Boost int    `yaml:"boost"`
}

// Quality is the ordered source quality table
type Quality struct {
	Default int           `yaml:"default"`
	Rules   []QualityRule `yaml:"rules"`
}

// Boost returns the first matching rule boost for platform, else Default
func (q Quality) Boost(platform string) int {
	p := strings.ToLower(strings.TrimSpace(platform))
	if p == "" {
		return q.Default
	}
	for _, r := range q.Rules {
		if r.Match != "" && strings.Contains(p, r.Match) {
			return r.Boost
		}
	}
	return q.Default
}

type rawFile struct {
	Version int `yaml:"version"`
	Intent  struct {
		Hot  Set `yaml:"hot"`
		Warm Set `yaml:"warm"`
	} `yaml:"intent"`
	Detail struct {
		Quantity Set `yaml:"quantity"`
		Specs    Set `yaml:"specs"`
		Deadline Set `yaml:"deadline"`
		Contact  Set `yaml:"contact"`
	} `yaml:"detail"`
	Vague   Set      `yaml:"vague"`
	Quality *Quality `yaml:"quality"`
}

// Lexicon is the compiled vocabulary shared by the signal normalizer and the scorer
type Lexicon struct {
	Version int

	Hot  *Matcher
	Warm *Matcher

	Quantity *Matcher
	Specs    *Matcher
	Deadline *Matcher
	Contact  *Matcher

	Vague *Matcher

	Quality Quality
}

// Load compiles the embedded lexicon
func Load() (*Lexicon, error) { return Parse(embedded) }

// MustLoad is Load for package init and tests
func MustLoad() *Lexicon {
	lx, err := Load()
	if err != nil {
		panic(err)
	}
	return lx
}

// Parse compiles a lexicon document
func Parse(b []byte) (*Lexicon, error) {
	var raw rawFile
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("lexicon: parse: %w", err)
	}
	if raw.Version != 1 {
		return nil, fmt.Errorf("lexicon: unsupported version %d (want 1)", raw.Version)
	}

	lx := &Lexicon{Version: raw.Version}
	sets := []struct {
		name string
		in   Set
		dst  **Matcher
	}{
		{"intent.hot", raw.Intent.Hot, &lx.Hot},
		{"intent.warm", raw.Intent.Warm, &lx.Warm},
		{"detail.quantity", raw.Detail.Quantity, &lx.Quantity},
		{"detail.specs", raw.Detail.Specs, &lx.Specs},
		{"detail.deadline", raw.Detail.Deadline, &lx.Deadline},
		{"detail.contact", raw.Detail.Contact, &lx.Contact},
		{"vague", raw.Vague, &lx.Vague},
	}
	for _, s := range sets {
		m, err := Compile(s.in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		*s.dst = m
	}
	if lx.Hot.Empty() {
		return nil, fmt.Errorf("lexicon: intent.hot is empty")
	}

	if raw.Quality != nil {
		lx.Quality = normalizeQuality(*raw.Quality)
	}
	return lx, nil
}

// LoadQualityFile reads a standalone quality table, either a bare table or a full lexicon's quality block
func LoadQualityFile(path string) (Quality, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Quality{}, fmt.Errorf("lexicon: read quality table: %w", err)
	}
	var wrapped struct {
		Quality *Quality `yaml:"quality"`
	}
	if err := yaml.Unmarshal(b, &wrapped); err == nil && wrapped.Quality != nil {
		return normalizeQuality(*wrapped.Quality), nil
	}
	var q Quality
	if err := yaml.Unmarshal(b, &q); err != nil {
		return Quality{}, fmt.Errorf("lexicon: parse quality table: %w", err)
	}
	if len(q.Rules) == 0 {
		return Quality{}, fmt.Errorf("lexicon: quality table %s has no rules", path)
	}
	return normalizeQuality(q), nil
}

// WithQuality returns a shallow copy carrying q
func (lx *Lexicon) WithQuality(q Quality) *Lexicon {
	c := *lx
	c.Quality = q
	return &c
}

func normalizeQuality(q Quality) Quality {
	out := Quality{Default: q.Default, Rules: make([]QualityRule, 0, len(q.Rules))}
	for _, r := range q.Rules {
		m := strings.ToLower(strings.TrimSpace(r.Match))
		if m == "" {
			continue
		}
		out.Rules = append(out.Rules, QualityRule{Match: m, Boost: r.Boost})
	}
	return out
}
