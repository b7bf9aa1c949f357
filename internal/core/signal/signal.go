// Package signal turns raw evidence text into an intent class, matched phrases,
// a posted timestamp and a bounded display snippet
package signal

import (
	"time"

	"galactly/internal/core/lexicon"
	"galactly/internal/core/normalize"
)

// Defaults for Options
const (
	DefaultSnippetMax = 320
	DefaultMaxPhrases = 12
)

// Options tunes the normalizer
type Options struct {
	SnippetMax int
	MaxPhrases int
}

// Input is one raw harvested item
type Input struct {
	Text        string
	Platform    string
	Link        string
	GeneratedAt time.Time
	// PostedAt is kept when non zero
	PostedAt time.Time
}

// Result is the normalized signal
type Result struct {
	Intent   Intent
	Phrases  []string
	PostedAt time.Time
	Snippet  string
	DedupKey string
}

// Normalizer classifies evidence against a compiled lexicon
// safe for concurrent use
type Normalizer struct {
	lx   *lexicon.Lexicon
	n    *normalize.Normalizer
	opts Options
}

// New builds a Normalizer; zero options take the defaults
func New(lx *lexicon.Lexicon, opts Options) *Normalizer {
	if lx == nil {
		lx = lexicon.MustLoad()
	}
	if opts.SnippetMax <= 0 {
		opts.SnippetMax = DefaultSnippetMax
	}
	if opts.MaxPhrases <= 0 {
		opts.MaxPhrases = DefaultMaxPhrases
	}
	return &Normalizer{lx: lx, n: normalize.New(), opts: opts}
}

// Normalize runs the full pipeline on in
func (s *Normalizer) Normalize(in Input) Result {
	plain := normalize.StripHTML(in.Text)
	display := s.n.Display(plain)
	folded := s.n.Fold(plain)

	intent, phrases := s.Classify(folded)

	posted := in.PostedAt
	if posted.IsZero() {
		posted = InferPostedAt(folded, in.GeneratedAt)
	}

	return Result{
		Intent:   intent,
		Phrases:  phrases,
		PostedAt: posted.UTC(),
		Snippet:  normalize.Truncate(display, s.opts.SnippetMax),
		DedupKey: DedupKey(in.Link, in.Platform, folded),
	}
}

// Classify applies the HOT over WARM over OK precedence to folded text
// phrases collects hits from both tiers, hot first, deduplicated and bounded
func (s *Normalizer) Classify(folded string) (Intent, []string) {
	hot := s.lx.Hot.FindAll(folded)
	warm := s.lx.Warm.FindAll(folded)

	intent := IntentOK
	switch {
	case len(hot) > 0:
		intent = IntentHot
	case len(warm) > 0:
		intent = IntentWarm
	}

	phrases := make([]string, 0, len(hot)+len(warm))
	seen := make(map[string]struct{}, len(hot)+len(warm))
	for _, group := range [][]lexicon.Match{hot, warm} {
		for _, m := range group {
			if len(phrases) == s.opts.MaxPhrases {
				return intent, phrases
			}
			if _, dup := seen[m.Text]; dup {
				continue
			}
			seen[m.Text] = struct{}{}
			phrases = append(phrases, m.Text)
		}
	}
	return intent, phrases
}

// Fold exposes the matching form used by Classify
func (s *Normalizer) Fold(text string) string { return s.n.Fold(normalize.StripHTML(text)) }
