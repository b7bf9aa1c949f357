package lexicon

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"galactly/internal/core/normalize"
)

// Matcher finds literal phrases and structured patterns in folded text
// safe for concurrent use once built
type Matcher struct {
	phrases []string
	ac      *automaton
	res     []*regexp.Regexp
}

// Match is one hit inside the scanned text
type Match struct {
	Text  string
	Start int
	End   int
}

// Compile folds the phrases, builds the automaton and compiles the patterns
func Compile(s Set) (*Matcher, error) {
	n := normalize.New()
	m := &Matcher{ac: newAutomaton()}

	seen := make(map[string]struct{}, len(s.Phrases))
	for _, p := range s.Phrases {
		f := n.Fold(p)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		m.ac.add(f, len(m.phrases))
		m.phrases = append(m.phrases, f)
	}
	m.ac.build()

	for i, p := range s.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("lexicon: pattern %d %q: %w", i, p, err)
		}
		m.res = append(m.res, re)
	}
	return m, nil
}

// Empty reports whether the matcher can never match
func (m *Matcher) Empty() bool {
	return m == nil || (len(m.phrases) == 0 && len(m.res) == 0)
}

// Any reports whether folded contains at least one phrase or pattern
func (m *Matcher) Any(folded string) bool {
	if m.Empty() || folded == "" {
		return false
	}
	hit := false
	m.ac.scan(folded, func(end, id int) bool {
		if bounded(folded, end-len(m.phrases[id]), end) {
			hit = true
			return false
		}
		return true
	})
	if hit {
		return true
	}
	for _, re := range m.res {
		if re.MatchString(folded) {
			return true
		}
	}
	return false
}

// FindAll returns every match in text order
// phrase hits that overlap a longer phrase hit are dropped
func (m *Matcher) FindAll(folded string) []Match {
	if m.Empty() || folded == "" {
		return nil
	}
	var out []Match
	m.ac.scan(folded, func(end, id int) bool {
		start := end - len(m.phrases[id])
		if bounded(folded, start, end) {
			out = append(out, Match{Text: m.phrases[id], Start: start, End: end})
		}
		return true
	})
	out = dropShadowed(out)

	for _, re := range m.res {
		for _, loc := range re.FindAllStringIndex(folded, -1) {
			txt := strings.TrimSpace(folded[loc[0]:loc[1]])
			if txt == "" {
				continue
			}
			out = append(out, Match{Text: txt, Start: loc[0], End: loc[1]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// dropShadowed keeps the longest phrase among overlapping hits
func dropShadowed(in []Match) []Match {
	if len(in) < 2 {
		return in
	}
	sort.Slice(in, func(i, j int) bool {
		if in[i].Start != in[j].Start {
			return in[i].Start < in[j].Start
		}
		return in[i].End > in[j].End
	})
	out := in[:0]
	lastEnd := -1
	for _, h := range in {
		if h.Start < lastEnd {
			continue
		}
		out = append(out, h)
		lastEnd = h.End
	}
	return out
}
