package domain

import "time"

// StatusDTO is the quota status returned over HTTP
type StatusDTO struct {
	Identity  string    `json:"identity" example:"buyer@acme.test"`
	Bucket    string    `json:"bucket" example:"claim"`
	Used      int       `json:"used" example:"2"`
	Limit     int       `json:"limit" example:"25"`
	Remaining int       `json:"remaining" example:"23"`
	ResetAt   time.Time `json:"reset_at" example:"2025-10-21T00:00:00Z"`
}

// ConsumeInput charges a bucket
type ConsumeInput struct {
	Cost int `json:"cost" validate:"omitempty,min=1,max=1000" example:"1"`
}

// DecisionDTO is the result of a consume call
type DecisionDTO struct {
	Allowed   bool      `json:"allowed" example:"true"`
	Bypassed  bool      `json:"bypassed,omitempty"`
	Used      int       `json:"used" example:"3"`
	Limit     int       `json:"limit" example:"25"`
	Remaining int       `json:"remaining" example:"22"`
	ResetAt   time.Time `json:"reset_at" example:"2025-10-21T00:00:00Z"`
}

// StatusFrom maps a Status to its DTO
func StatusFrom(s Status) StatusDTO {
	return StatusDTO{
		Identity:  s.Identity,
		Bucket:    s.Bucket,
		Used:      s.Used,
		Limit:     s.Limit,
		Remaining: s.Remaining,
		ResetAt:   s.ResetAt.UTC(),
	}
}

// DecisionFrom maps a Decision to its DTO
func DecisionFrom(d Decision) DecisionDTO {
	return DecisionDTO{
		Allowed:   d.Allowed,
		Bypassed:  d.Bypassed,
		Used:      d.Used,
		Limit:     d.Limit,
		Remaining: d.Remaining,
		ResetAt:   d.ResetAt.UTC(),
	}
}
