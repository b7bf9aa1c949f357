// Package scoring computes the bounded lead score
// the score is a pure function of intent, posted time, platform, region, snippet and now
package scoring

import (
	"math"
	"strings"
	"time"

	"galactly/internal/core/lexicon"
	"galactly/internal/core/normalize"
	"galactly/internal/core/signal"
)

// Weights of the additive terms
const (
	BaseHot  = 42
	BaseWarm = 26
	BaseOK   = 12

	RecencyMax      = 30
	RecencyHalfLife = 168 * time.Hour

	RegionBonus = 4

	DetailQuantity = 6
	DetailSpecs    = 4
	DetailDeadline = 3
	DetailContact  = 2
	DetailCap      = 12

	VaguePenalty = -8

	MinScore = 0
	MaxScore = 99
)

// Region is the buyer geography
type Region string

// Regions
const (
	RegionUS     Region = "US"
	RegionCanada Region = "Canada"
	RegionOther  Region = "Other"
)

// ParseRegion maps common spellings, unknown values become Other
func ParseRegion(s string) Region {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us", "usa", "united states", "u.s.":
		return RegionUS
	case "ca", "can", "canada":
		return RegionCanada
	default:
		return RegionOther
	}
}

// Input is everything the score depends on
type Input struct {
	Intent   signal.Intent
	PostedAt time.Time
	Platform string
	Region   Region
	Snippet  string
}

// Breakdown is the per term contribution, Total is clamped
type Breakdown struct {
	Base    int `json:"base"`
	Recency int `json:"recency"`
	Quality int `json:"quality"`
	Region  int `json:"region"`
	Detail  int `json:"detail"`
	Penalty int `json:"penalty"`
	Total   int `json:"total"`
}

// Scorer evaluates Input against a lexicon
// safe for concurrent use
type Scorer struct {
	lx *lexicon.Lexicon
	n  *normalize.Normalizer
}

// New builds a Scorer; nil loads the embedded lexicon
func New(lx *lexicon.Lexicon) *Scorer {
	if lx == nil {
		lx = lexicon.MustLoad()
	}
	return &Scorer{lx: lx, n: normalize.New()}
}

// Score returns the clamped score for in at now
func (s *Scorer) Score(in Input, now time.Time) int { return s.Explain(in, now).Total }

// Explain returns every term and the clamped total
func (s *Scorer) Explain(in Input, now time.Time) Breakdown {
	folded := s.n.Fold(in.Snippet)

	b := Breakdown{
		Base:    Base(in.Intent),
		Recency: Recency(in.PostedAt, now),
		Quality: s.lx.Quality.Boost(in.Platform),
		Region:  regionBonus(in.Region),
		Detail:  s.detail(folded),
	}
	if s.lx.Vague.Any(folded) {
		b.Penalty = VaguePenalty
	}
	b.Total = Clamp(b.Base + b.Recency + b.Quality + b.Region + b.Detail + b.Penalty)
	return b
}

// Base is the intent term, OK for anything unknown
func Base(i signal.Intent) int {
	switch i {
	case signal.IntentHot:
		return BaseHot
	case signal.IntentWarm:
		return BaseWarm
	default:
		return BaseOK
	}
}

// Recency is round(30 * 0.5^(age/168h)) with age floored at zero
// a zero posted time contributes nothing
func Recency(posted, now time.Time) int {
	if posted.IsZero() {
		return 0
	}
	age := now.Sub(posted)
	if age < 0 {
		age = 0
	}
	halfLives := age.Hours() / RecencyHalfLife.Hours()
	return int(math.Round(RecencyMax * math.Pow(0.5, halfLives)))
}

// Clamp bounds v to [MinScore, MaxScore]
func Clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

func regionBonus(r Region) int {
	if r == RegionUS || r == RegionCanada {
		return RegionBonus
	}
	return 0
}

// detail sums the independent evidence bonuses then caps the total
func (s *Scorer) detail(folded string) int {
	if folded == "" {
		return 0
	}
	sum := 0
	if s.lx.Quantity.Any(folded) {
		sum += DetailQuantity
	}
	if s.lx.Specs.Any(folded) {
		sum += DetailSpecs
	}
	if s.lx.Deadline.Any(folded) {
		sum += DetailDeadline
	}
	if s.lx.Contact.Any(folded) {
		sum += DetailContact
	}
	if sum > DetailCap {
		sum = DetailCap
	}
	return sum
}
