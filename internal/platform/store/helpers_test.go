package store

import (
	"context"
	"errors"
	"testing"

	perr "galactly/internal/platform/errors"
)

type fakeTag int64

func (t fakeTag) String() string      { return "UPDATE" }
func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeRows struct {
	data [][]any
	i    int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	for i := range dest {
		switch d := dest[i].(type) {
		case *string:
			*d = row[i].(string)
		case *int:
			*d = row[i].(int)
		default:
			return errors.New("unsupported dest")
		}
	}
	return nil
}
func (r *fakeRows) Err() error        { return r.err }
func (r *fakeRows) Close()            {}
func (r *fakeRows) Columns() []string { return nil }

type fakeQ struct {
	rows     [][]any
	affected int64
	err      error
}

func (q *fakeQ) Exec(context.Context, string, ...any) (CommandTag, error) {
	return fakeTag(q.affected), q.err
}
func (q *fakeQ) Query(context.Context, string, ...any) (Rows, error) {
	if q.err != nil {
		return nil, q.err
	}
	return &fakeRows{data: q.rows}, nil
}
func (q *fakeQ) QueryRow(context.Context, string, ...any) Row {
	return &fakeRows{data: q.rows, i: 1}
}

type lead struct {
	ID    string
	Score int
}

func scanLead(r Row) (lead, error) {
	var l lead
	err := r.Scan(&l.ID, &l.Score)
	return l, err
}

func TestExecOne(t *testing.T) {
	ctx := context.Background()
	if err := ExecOne(ctx, &fakeQ{affected: 1}, "UPDATE"); err != nil {
		t.Fatalf("one row: %v", err)
	}
	for _, n := range []int64{0, 2} {
		if err := ExecOne(ctx, &fakeQ{affected: n}, "UPDATE"); err == nil {
			t.Fatalf("%d rows should fail", n)
		}
	}
	boom := errors.New("boom")
	if err := ExecOne(ctx, &fakeQ{err: boom}, "UPDATE"); !errors.Is(err, boom) {
		t.Fatalf("exec error not propagated: %v", err)
	}
}

func TestScalar(t *testing.T) {
	n, err := Scalar[int](context.Background(), &fakeQ{rows: [][]any{{7}}}, "SELECT")
	if err != nil || n != 7 {
		t.Fatalf("Scalar = %d, %v", n, err)
	}
}

func TestOne(t *testing.T) {
	ctx := context.Background()
	got, err := One(ctx, &fakeQ{rows: [][]any{{"L1", 95}}}, scanLead, "SELECT")
	if err != nil || got != (lead{"L1", 95}) {
		t.Fatalf("One = %+v, %v", got, err)
	}
	if _, err := One(ctx, &fakeQ{}, scanLead, "SELECT"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("no rows should be not found, got %v", err)
	}
	if _, err := One(ctx, &fakeQ{rows: [][]any{{"L1", 1}, {"L2", 2}}}, scanLead, "SELECT"); err == nil {
		t.Fatalf("two rows should fail")
	}
}

func TestMany(t *testing.T) {
	ctx := context.Background()
	got, err := Many(ctx, &fakeQ{rows: [][]any{{"L1", 1}, {"L2", 2}}}, scanLead, "SELECT")
	if err != nil || len(got) != 2 || got[1].ID != "L2" {
		t.Fatalf("Many = %+v, %v", got, err)
	}
	empty, err := Many(ctx, &fakeQ{}, scanLead, "SELECT")
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty Many = %+v, %v", empty, err)
	}
	if _, err := Many(ctx, &fakeQ{err: errors.New("down")}, scanLead, "SELECT"); err == nil {
		t.Fatalf("query error should propagate")
	}
}
