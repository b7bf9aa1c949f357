package service

import (
	"math/rand"
	"testing"
	"time"

	"galactly/internal/services/allocator/domain"
	claims "galactly/internal/services/claims/domain"
)

var t0 = time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)

func TestSuccessRate(t *testing.T) {
	cases := []struct {
		wins, pulls int
		want        float64
	}{
		{0, 0, 0.5},
		{5, 0, 0.5},
		{3, 10, 0.3},
		{0, 4, 0},
		{12, 10, 1},
		{-1, 3, 0},
	}
	for _, c := range cases {
		if got := SuccessRate(c.wins, c.pulls); got != c.want {
			t.Fatalf("SuccessRate(%d, %d) = %v want %v", c.wins, c.pulls, got, c.want)
		}
	}
}

func TestAllocate_RankAndCutoff(t *testing.T) {
	srcs := []domain.Source{
		{ID: "c", Priority: 0.9},
		{ID: "a"},
		{ID: "b"},
		{ID: "untested"},
		{ID: "dud", Active: true},
	}
	pulls := map[string]int{"a": 4, "b": 4, "c": 10, "dud": 6}
	outcomes := map[string]claims.Outcome{
		"a": {Wins: 2, LastWin: t0.Add(-time.Hour)},
		"b": {Wins: 2, LastWin: t0.Add(-2 * time.Hour)},
		"c": {Wins: 1, LastWin: t0.Add(-time.Minute)},
	}

	next, activated := Allocate(srcs, pulls, outcomes, 3, t0)
	order := ""
	for _, s := range next {
		order += s.ID + " "
	}
	// a and b tie on 0.5 with untested; the later success wins, untested has none
	if order != "a b untested c dud " {
		t.Fatalf("order = %q", order)
	}
	if activated != 3 || !next[2].Active || next[3].Active || next[4].Active {
		t.Fatalf("cutoff wrong: %+v", next)
	}
	if next[3].Priority != 0.1 || next[4].Priority != 0 || next[0].SuccessCount != 2 {
		t.Fatalf("priorities %+v", next)
	}
	if srcs[0].Priority != 0.9 || !srcs[4].Active {
		t.Fatalf("input mutated")
	}
}

func TestAllocate_ZeroPullsKeepPrior(t *testing.T) {
	srcs := []domain.Source{{ID: "fresh", Priority: 0.5}, {ID: "stale", Priority: 0.5, LastSuccess: t0.Add(-30 * 24 * time.Hour)}}
	for i := 0; i < 3; i++ {
		srcs, _ = Allocate(srcs, nil, nil, 60, t0)
		for _, s := range srcs {
			if s.Priority != domain.NeutralPrior || !s.Active {
				t.Fatalf("pass %d: %+v", i, s)
			}
		}
	}
	if !srcs[0].LastSuccess.Equal(t0.Add(-30*24*time.Hour)) {
		t.Fatalf("last success lost: %+v", srcs[0])
	}
}

func TestAllocate_DeterministicOrder(t *testing.T) {
	var srcs []domain.Source
	for _, id := range []string{"e", "d", "c", "b", "a", "f", "g"} {
		srcs = append(srcs, domain.Source{ID: id})
	}
	pulls := map[string]int{"a": 2, "b": 2, "c": 2}
	outcomes := map[string]claims.Outcome{"a": {Wins: 1}, "b": {Wins: 1}, "c": {Wins: 1}}

	first, _ := Allocate(srcs, pulls, outcomes, 4, t0)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(srcs), func(a, b int) { srcs[a], srcs[b] = srcs[b], srcs[a] })
		got, _ := Allocate(srcs, pulls, outcomes, 4, t0)
		for j := range got {
			if got[j].ID != first[j].ID {
				t.Fatalf("shuffle %d: position %d = %s want %s", i, j, got[j].ID, first[j].ID)
			}
		}
	}
}
