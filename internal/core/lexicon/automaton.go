package lexicon

import (
	"unicode"
	"unicode/utf8"
)

// automaton is a byte-level Aho-Corasick trie over folded UTF-8 phrases
// every node carries a dense 256-way transition table so scans never touch a map
type automaton struct {
	nodes []node
}

type node struct {
	next [256]int32 // -1 when the edge is absent
	fail int32
	out  []int // phrase ids that end here, including those inherited via fail links
}

func newNode() node {
	var n node
	for i := range n.next {
		n.next[i] = -1
	}
	return n
}

func newAutomaton() *automaton {
	return &automaton{nodes: []node{newNode()}}
}

func (a *automaton) add(pat string, id int) {
	if pat == "" {
		return
	}
	s := int32(0)
	for i := 0; i < len(pat); i++ {
		b := pat[i]
		nx := a.nodes[s].next[b]
		if nx == -1 {
			nx = int32(len(a.nodes))
			a.nodes[s].next[b] = nx
			a.nodes = append(a.nodes, newNode())
		}
		s = nx
	}
	a.nodes[s].out = append(a.nodes[s].out, id)
}

// build wires failure links breadth first
func (a *automaton) build() {
	queue := make([]int32, 0, len(a.nodes))
	for b := 0; b < 256; b++ {
		if s := a.nodes[0].next[b]; s != -1 {
			a.nodes[s].fail = 0
			queue = append(queue, s)
		}
	}
	for qi := 0; qi < len(queue); qi++ {
		r := queue[qi]
		for b := 0; b < 256; b++ {
			s := a.nodes[r].next[b]
			if s == -1 {
				continue
			}
			queue = append(queue, s)

			f := a.nodes[r].fail
			for f != 0 && a.nodes[f].next[b] == -1 {
				f = a.nodes[f].fail
			}
			if nx := a.nodes[f].next[b]; nx != -1 && nx != s {
				a.nodes[s].fail = nx
			} else {
				a.nodes[s].fail = 0
			}
			a.nodes[s].out = append(a.nodes[s].out, a.nodes[a.nodes[s].fail].out...)
		}
	}
}

// scan reports every (end, id) pair found in text, stopping when fn returns false
func (a *automaton) scan(text string, fn func(end, id int) bool) {
	s := int32(0)
	for i := 0; i < len(text); i++ {
		b := text[i]
		for s != 0 && a.nodes[s].next[b] == -1 {
			s = a.nodes[s].fail
		}
		if nx := a.nodes[s].next[b]; nx != -1 {
			s = nx
		}
		for _, id := range a.nodes[s].out {
			if !fn(i+1, id) {
				return
			}
		}
	}
}

// isWord treats letters, digits, combining marks and connector punctuation as word runes
// hyphens and other punctuation separate tokens
func isWord(r rune) bool {
	if r == utf8.RuneError || r == 0 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.In(r, unicode.Mn, unicode.Pc)
}

// bounded reports whether text[start:end] sits on token boundaries
func bounded(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWord(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWord(r) {
			return false
		}
	}
	return true
}
