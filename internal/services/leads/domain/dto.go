package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScoreInput is the raw item accepted over HTTP
type ScoreInput struct {
	Platform  string     `json:"platform" validate:"required,max=64" example:"sam.gov"`
	SourceID  string     `json:"source_id" validate:"omitempty,max=128" example:"src-sam-packaging"`
	Text      string     `json:"evidence_text" validate:"required,max=20000" example:"RFQ for 5,000 custom mailer boxes, due 2025-11-01"`
	Link      string     `json:"link" validate:"omitempty,url,max=2048" example:"https://sam.gov/opp/123"`
	Timestamp time.Time  `json:"timestamp" example:"2025-10-20T12:00:00Z"`
	Region    string     `json:"region" validate:"omitempty,max=32" example:"US"`
	PostedAt  *time.Time `json:"posted_at,omitempty"`
}

// Raw maps the input to a RawItem
func (in ScoreInput) Raw() RawItem {
	r := RawItem{
		Platform:  in.Platform,
		SourceID:  in.SourceID,
		Text:      in.Text,
		Link:      in.Link,
		Timestamp: in.Timestamp,
		Region:    in.Region,
	}
	if in.PostedAt != nil {
		r.PostedAt = *in.PostedAt
	}
	return r
}

// LeadDTO is the lead record returned over HTTP
// State is the effective state at response time
type LeadDTO struct {
	ID          uuid.UUID  `json:"id"`
	SourceID    string     `json:"source_id,omitempty"`
	Platform    string     `json:"platform" example:"sam.gov"`
	Region      string     `json:"region" example:"US"`
	Link        string     `json:"link,omitempty"`
	Snippet     string     `json:"evidence_snippet"`
	Phrases     []string   `json:"phrases"`
	Intent      string     `json:"intent_type" example:"HOT"`
	Score       int        `json:"score" example:"95"`
	GeneratedAt time.Time  `json:"generated_at"`
	PostedAt    time.Time  `json:"posted_at"`
	State       string     `json:"lifecycle_state" example:"Available"`
	Owner       string     `json:"owner,omitempty"`
	OwnedAt     *time.Time `json:"owned_at,omitempty"`
	HideUntil   *time.Time `json:"hide_until,omitempty"`
}

// LeadFrom maps a Lead to its DTO at now
func LeadFrom(l Lead, now time.Time) LeadDTO {
	phrases := l.Phrases
	if phrases == nil {
		phrases = []string{}
	}
	d := LeadDTO{
		ID:          l.ID,
		SourceID:    l.SourceID,
		Platform:    l.Platform,
		Region:      string(l.Region),
		Link:        l.Link,
		Snippet:     l.Snippet,
		Phrases:     phrases,
		Intent:      string(l.Intent),
		Score:       l.Score,
		GeneratedAt: l.GeneratedAt.UTC(),
		PostedAt:    l.PostedAt.UTC(),
		State:       string(l.StateAt(now)),
		Owner:       l.Owner,
	}
	if !l.OwnedAt.IsZero() {
		t := l.OwnedAt.UTC()
		d.OwnedAt = &t
	}
	if l.HiddenAt(now) {
		t := l.HideUntil.UTC()
		d.HideUntil = &t
	}
	return d
}

// LeadsFrom maps a slice
func LeadsFrom(ls []Lead, now time.Time) []LeadDTO {
	out := make([]LeadDTO, len(ls))
	for i, l := range ls {
		out[i] = LeadFrom(l, now)
	}
	return out
}
