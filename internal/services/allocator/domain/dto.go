package domain

import "time"

// SourceInput defines one source
type SourceInput struct {
	ID    string `json:"id" validate:"required,max=128" example:"sam-gov-packaging"`
	Kind  string `json:"kind" validate:"required,oneof=search feed jobs social directory" example:"feed"`
	Value string `json:"value" validate:"required,max=2048" example:"https://sam.gov/api/opportunities?q=packaging"`
}

// Definition maps the input
func (in SourceInput) Definition() Definition {
	return Definition{ID: in.ID, Kind: ParseKind(in.Kind), Value: in.Value}
}

// PutSourcesInput replaces or adds source definitions in bulk
type PutSourcesInput struct {
	Sources []SourceInput `json:"sources" validate:"required,min=1,max=500,dive"`
}

// SourceDTO is a source over HTTP
type SourceDTO struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Value        string     `json:"value"`
	Active       bool       `json:"active"`
	Priority     float64    `json:"priority" example:"0.5"`
	PullCount    int64      `json:"pull_count"`
	SuccessCount int64      `json:"success_count"`
	LastPull     *time.Time `json:"last_pull,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
}

// PutSourcesDTO reports a bulk upsert
type PutSourcesDTO struct {
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Sources []SourceDTO `json:"sources"`
}

// ResultDTO is the outcome of a reallocation pass
type ResultDTO struct {
	UpdatedSources int       `json:"updated_sources" example:"140"`
	ActivatedCount int       `json:"activated_count" example:"60"`
	At             time.Time `json:"at"`
	Since          time.Time `json:"since"`
}

// SourceFrom maps a Source
func SourceFrom(s Source) SourceDTO {
	d := SourceDTO{
		ID:           s.ID,
		Kind:         string(s.Kind),
		Value:        s.Value,
		Active:       s.Active,
		Priority:     s.Priority,
		PullCount:    s.PullCount,
		SuccessCount: s.SuccessCount,
	}
	if !s.LastPull.IsZero() {
		t := s.LastPull.UTC()
		d.LastPull = &t
	}
	if !s.LastSuccess.IsZero() {
		t := s.LastSuccess.UTC()
		d.LastSuccess = &t
	}
	return d
}

// SourcesFrom maps a slice
func SourcesFrom(ss []Source) []SourceDTO {
	out := make([]SourceDTO, len(ss))
	for i, s := range ss {
		out[i] = SourceFrom(s)
	}
	return out
}

// ResultFrom maps a Result
func ResultFrom(r Result) ResultDTO {
	return ResultDTO{
		UpdatedSources: r.UpdatedSources,
		ActivatedCount: r.ActivatedCount,
		At:             r.At.UTC(),
		Since:          r.Since.UTC(),
	}
}
