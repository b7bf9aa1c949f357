package repo

import (
	"context"
	"time"

	"galactly/internal/platform/store"
	"galactly/internal/services/claims/domain"
)

// MirrorTable is the ClickHouse copy of claim_events
const MirrorTable = "claim_events"

// CH mirrors claim events into ClickHouse for outcome analytics
type CH struct{ ch store.Clickhouse }

// NewCH wraps the ClickHouse seam, nil ch yields nil
func NewCH(ch store.Clickhouse) *CH {
	if ch == nil {
		return nil
	}
	return &CH{ch: ch}
}

// Mirror inserts events in table column order
func (c *CH) Mirror(ctx context.Context, es ...domain.Event) error {
	if len(es) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(es))
	for _, e := range es {
		hide := uint8(0)
		if e.HideRequested {
			hide = 1
		}
		rows = append(rows, []any{
			e.LeadID, e.Seq, e.Identity, string(e.Kind), hide, e.At.UTC(), e.SourceID,
		})
	}
	return c.ch.Insert(ctx, MirrorTable, rows)
}

// Outcomes implements domain.OutcomePort over the mirror
// FINAL collapses rows a retried mirror insert duplicated
func (c *CH) Outcomes(ctx context.Context, since time.Time) (map[string]domain.Outcome, error) {
	rows, err := c.ch.Query(ctx, `
		SELECT source_id, toInt64(count()) AS n, max(at) AS last
		FROM claim_events FINAL
		WHERE kind = 'claim' AND at >= ? AND source_id != ''
		GROUP BY source_id`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]domain.Outcome{}
	for rows.Next() {
		var (
			src  string
			n    int64
			last time.Time
		)
		if err := rows.Scan(&src, &n, &last); err != nil {
			return nil, err
		}
		out[src] = domain.Outcome{Wins: int(n), LastWin: last.UTC()}
	}
	return out, rows.Err()
}
