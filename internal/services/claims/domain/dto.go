package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClaimInput is the optional claim body
type ClaimInput struct {
	Hide bool `json:"hide" example:"true"`
	Cost int  `json:"cost" validate:"omitempty,min=1,max=100" example:"1"`
}

// QuotaDTO is the claim bucket after the charge
type QuotaDTO struct {
	Remaining int       `json:"remaining" example:"24"`
	Limit     int       `json:"limit" example:"25"`
	ResetAt   time.Time `json:"reset_at"`
}

// ClaimDTO is a successful claim
type ClaimDTO struct {
	OK              bool       `json:"ok" example:"true"`
	LeadID          uuid.UUID  `json:"lead_id"`
	Owner           string     `json:"owner" example:"buyer@acme.test"`
	Hidden          bool       `json:"hidden"`
	HideGranted     bool       `json:"hide_granted"`
	HideUntil       *time.Time `json:"hide_until,omitempty"`
	CompetitorCount int        `json:"competitor_count" example:"1"`
	Quota           QuotaDTO   `json:"quota"`
}

// StatusDTO is the claim status of a lead
type StatusDTO struct {
	LeadID          uuid.UUID  `json:"lead_id"`
	State           string     `json:"lifecycle_state" example:"Hidden"`
	Owner           string     `json:"owner,omitempty"`
	Hidden          bool       `json:"hidden"`
	HideUntil       *time.Time `json:"hide_until,omitempty"`
	ClaimedByCount  int        `json:"claimed_by_count" example:"2"`
	CompetitorCount int        `json:"competitor_count" example:"1"`
}

// SweepInput asks for a TTL sweep
type SweepInput struct {
	MaxAge string `json:"max_age" validate:"required" example:"720h"`
}

// SweepDTO reports a sweep
type SweepDTO struct {
	Expired int `json:"expired" example:"12"`
}

// ClaimFrom maps a Result
func ClaimFrom(r Result) ClaimDTO {
	d := ClaimDTO{
		OK:              true,
		LeadID:          r.LeadID,
		Owner:           r.Owner,
		Hidden:          r.Hidden,
		HideGranted:     r.HideGranted,
		CompetitorCount: r.CompetitorCount,
		Quota:           QuotaDTO{Remaining: r.Quota.Remaining, Limit: r.Quota.Limit, ResetAt: r.Quota.ResetAt.UTC()},
	}
	if r.Hidden {
		t := r.HideUntil.UTC()
		d.HideUntil = &t
	}
	return d
}

// StatusFrom maps a Status
func StatusFrom(s Status) StatusDTO {
	d := StatusDTO{
		LeadID:          s.LeadID,
		State:           s.State,
		Owner:           s.Owner,
		Hidden:          s.Hidden,
		ClaimedByCount:  s.ClaimedByCount,
		CompetitorCount: s.CompetitorCount,
	}
	if s.Hidden {
		t := s.HideUntil.UTC()
		d.HideUntil = &t
	}
	return d
}
