package schema

import (
	"context"
	"errors"
	"strings"
	"testing"

	"galactly/internal/platform/store"
)

func TestStatements_Order(t *testing.T) {
	pg, err := Statements("pg")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"leads", "claim_events", "quota_windows", "sources", "source_pulls", "allocator_runs"}
	at := 0
	for _, s := range pg {
		if at < len(want) && strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS "+want[at]+" ") {
			at++
		}
	}
	if at != len(want) {
		t.Fatalf("tables out of order, matched %d of %v", at, want)
	}

	ch, err := Statements("ch")
	if err != nil || len(ch) != 1 || !strings.Contains(ch[0], "ReplacingMergeTree") {
		t.Fatalf("ch statements = %v %v", ch, err)
	}
}

type recTx struct {
	sqls []string
	fail int
}

func (r *recTx) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	r.sqls = append(r.sqls, sql)
	if r.fail > 0 && len(r.sqls) == r.fail {
		return nil, errors.New("syntax error")
	}
	return nil, nil
}
func (r *recTx) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (r *recTx) QueryRow(context.Context, string, ...any) store.Row        { return nil }
func (r *recTx) Tx(_ context.Context, fn func(store.RowQuerier) error) error {
	return fn(r)
}

func TestApplyPG(t *testing.T) {
	rec := &recTx{}
	if err := ApplyPG(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	all, _ := Statements("pg")
	if len(rec.sqls) != len(all) {
		t.Fatalf("ran %d of %d", len(rec.sqls), len(all))
	}

	bad := &recTx{fail: 2}
	err := ApplyPG(context.Background(), bad)
	if err == nil || !strings.Contains(err.Error(), "statement 2") || len(bad.sqls) != 2 {
		t.Fatalf("err = %v after %d", err, len(bad.sqls))
	}
}
