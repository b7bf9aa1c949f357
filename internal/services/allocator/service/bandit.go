package service

import (
	"sort"
	"time"

	"galactly/internal/services/allocator/domain"
	claims "galactly/internal/services/claims/domain"
)

// SuccessRate is wins over pulls clamped to [0, 1]
// a source without pulls gets the neutral prior
func SuccessRate(wins, pulls int) float64 {
	if pulls <= 0 {
		return domain.NeutralPrior
	}
	r := float64(wins) / float64(pulls)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// Rank orders sources by priority desc, last success desc, id asc
func Rank(ss []domain.Source) {
	sort.Slice(ss, func(i, j int) bool {
		a, b := ss[i], ss[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.LastSuccess.Equal(b.LastSuccess) {
			return a.LastSuccess.After(b.LastSuccess)
		}
		return a.ID < b.ID
	})
}

// Allocate computes the next source table from pulls and outcomes in the window
// srcs is not modified; the result is in rank order with the first topN active
func Allocate(srcs []domain.Source, pulls map[string]int, outcomes map[string]claims.Outcome, topN int, now time.Time) ([]domain.Source, int) {
	next := make([]domain.Source, len(srcs))
	for i, s := range srcs {
		o := outcomes[s.ID]
		s.Priority = SuccessRate(o.Wins, pulls[s.ID])
		s.SuccessCount = int64(o.Wins)
		if o.LastWin.After(s.LastSuccess) {
			s.LastSuccess = o.LastWin
		}
		s.UpdatedAt = now
		next[i] = s
	}
	Rank(next)

	activated := 0
	for i := range next {
		next[i].Active = i < topN
		if next[i].Active {
			activated++
		}
	}
	return next, activated
}
