package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"galactly/internal/core/signal"
	"galactly/internal/modkit/repokit"
	"galactly/internal/modkit/repokit/repotest"
	perr "galactly/internal/platform/errors"
	"galactly/internal/platform/testkit"
	dom "galactly/internal/services/leads/domain"
	"galactly/internal/services/leads/repo"
)

var t0 = time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)

type memRepo struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]dom.Lead
	scores int
	err    error
}

func newMemRepo() *memRepo { return &memRepo{rows: map[uuid.UUID]dom.Lead{}} }

func (m *memRepo) binder() repokit.Binder[repo.Storage] {
	return repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage { return m })
}

func (m *memRepo) Insert(_ context.Context, l dom.Lead) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.rows[l.ID]; ok {
		return false, nil
	}
	m.rows[l.ID] = l
	return true, nil
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (dom.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return dom.Lead{}, perr.ErrNotFound
	}
	return l, nil
}

func (m *memRepo) List(context.Context) ([]dom.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dom.Lead, 0, len(m.rows))
	for _, l := range m.rows {
		out = append(out, l)
	}
	return out, m.err
}

func (m *memRepo) SaveScore(_ context.Context, id uuid.UUID, score int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	l := m.rows[id]
	l.Score, l.ScoredAt = score, at
	m.rows[id] = l
	m.scores++
	return nil
}

func (m *memRepo) SaveLifecycle(_ context.Context, l dom.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[l.ID] = l
	return m.err
}

func samGov() dom.RawItem {
	return dom.RawItem{
		Platform: "sam.gov",
		SourceID: "src-sam",
		Text:     "RFQ for 5,000 custom mailer boxes, due 2025-11-01",
		Link:     "https://sam.gov/opp/123?utm_source=feed",
		Region:   "US",
	}
}

func TestScore_SamGovScenario(t *testing.T) {
	clk := testkit.NewClock(t0)
	s := New(nil, nil, nil, nil, Config{Now: clk.Now})

	l, created, err := s.Score(context.Background(), samGov())
	if err != nil || !created {
		t.Fatalf("score: %v created=%v", err, created)
	}
	if l.Intent != signal.IntentHot || l.Score != 95 || l.State != dom.StateAvailable {
		t.Fatalf("lead = %+v", l)
	}
	if !l.PostedAt.Equal(t0) {
		t.Fatalf("deadline date must not become postedAt: %v", l.PostedAt)
	}
	if l.Link != "https://sam.gov/opp/123" || l.ID != signal.LeadID("link:https://sam.gov/opp/123") {
		t.Fatalf("identity fields %q %s", l.Link, l.ID)
	}
}

func TestScore_Idempotent(t *testing.T) {
	clk := testkit.NewClock(t0)
	s := New(nil, nil, nil, nil, Config{Now: clk.Now})
	ctx := context.Background()

	first, _, err := s.Score(ctx, samGov())
	if err != nil {
		t.Fatal(err)
	}
	clk.Advance(48 * time.Hour)
	again := samGov()
	again.Link = "http://www.sam.gov/opp/123/"
	second, created, err := s.Score(ctx, again)
	if err != nil || created {
		t.Fatalf("second score created=%v err=%v", created, err)
	}
	if second.ID != first.ID || second.Score != first.Score || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("second = %+v first = %+v", second, first)
	}
}

func TestScore_ConcurrentSameItemCreatesOnce(t *testing.T) {
	mem := newMemRepo()
	s := New(repotest.New(), mem.binder(), nil, nil, Config{Now: testkit.NewClock(t0).Now})

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, c, err := s.Score(context.Background(), samGov())
			if err != nil {
				t.Error(err)
			}
			if c {
				created.Add(1)
			}
		}()
	}
	wg.Wait()
	if created.Load() != 1 || len(mem.rows) != 1 || len(s.All()) != 1 {
		t.Fatalf("created %d rows %d", created.Load(), len(mem.rows))
	}
}

func TestScore_RowFromOtherInstance(t *testing.T) {
	mem := newMemRepo()
	other := New(repotest.New(), mem.binder(), nil, nil, Config{Now: testkit.NewClock(t0).Now})
	l, _, err := other.Score(context.Background(), samGov())
	if err != nil {
		t.Fatal(err)
	}

	s := New(repotest.New(), mem.binder(), nil, nil, Config{Now: testkit.NewClock(t0.Add(time.Hour)).Now})
	got, created, err := s.Score(context.Background(), samGov())
	if err != nil || created || got.ID != l.ID || !got.CreatedAt.Equal(t0) {
		t.Fatalf("got %+v created=%v err=%v", got, created, err)
	}
}

func TestScore_Rejects(t *testing.T) {
	s := New(nil, nil, nil, nil, Config{})
	for _, raw := range []dom.RawItem{{Platform: "x", Text: "  "}, {Text: "rfq"}} {
		if _, _, err := s.Score(context.Background(), raw); perr.CodeOf(err) != perr.ErrorCodeValidation {
			t.Fatalf("%+v: %v", raw, err)
		}
	}

	mem := newMemRepo()
	mem.err = errors.New("down")
	db := New(repotest.New(), mem.binder(), nil, nil, Config{})
	if _, _, err := db.Score(context.Background(), samGov()); perr.ReasonOf(err) != perr.ReasonStorage {
		t.Fatalf("storage err = %v", err)
	}
	if len(db.All()) != 0 {
		t.Fatalf("failed insert must not be visible")
	}
}

func TestGetAndList(t *testing.T) {
	clk := testkit.NewClock(t0)
	s := New(nil, nil, nil, nil, Config{Now: clk.Now})
	ctx := context.Background()

	hot, _, _ := s.Score(ctx, samGov())
	warm, _, _ := s.Score(ctx, dom.RawItem{Platform: "reddit", Text: "Looking for a supplier of kraft bags"})
	ok, _, _ := s.Score(ctx, dom.RawItem{Platform: "linkedin", Text: "Our brand story"})

	if _, err := s.Get(ctx, uuid.New()); perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("unknown id err = %v", err)
	}
	if got, err := s.Get(ctx, warm.ID); err != nil || got.ID != warm.ID {
		t.Fatalf("get = %+v %v", got, err)
	}

	all, _ := s.List(ctx, dom.Filter{})
	if len(all) != 3 || all[0].ID != hot.ID || all[2].ID != ok.ID {
		t.Fatalf("order = %v", ids(all))
	}
	if hotOnly, _ := s.List(ctx, dom.Filter{Intent: signal.IntentHot}); len(hotOnly) != 1 {
		t.Fatalf("intent filter = %v", ids(hotOnly))
	}
	if top, _ := s.List(ctx, dom.Filter{MinScore: warm.Score}); len(top) != 2 {
		t.Fatalf("min score filter = %v", ids(top))
	}
	if one, _ := s.List(ctx, dom.Filter{Limit: 1}); len(one) != 1 {
		t.Fatalf("limit = %d", len(one))
	}

	// hidden by alice: alice still sees it, bob does not
	h := hot
	h.State, h.Owner, h.HideUntil = dom.StateHidden, "alice", t0.Add(time.Hour)
	s.Replace(h)
	if l, _ := s.List(ctx, dom.Filter{Viewer: "alice"}); len(l) != 3 {
		t.Fatalf("owner feed = %v", ids(l))
	}
	if l, _ := s.List(ctx, dom.Filter{Viewer: "bob"}); len(l) != 2 {
		t.Fatalf("competitor feed = %v", ids(l))
	}
	clk.Advance(2 * time.Hour)
	if l, _ := s.List(ctx, dom.Filter{Viewer: "bob"}); len(l) != 3 {
		t.Fatalf("lapsed hide should reappear: %v", ids(l))
	}

	x := ok
	x.State = dom.StateExpired
	s.Replace(x)
	if l, _ := s.List(ctx, dom.Filter{}); len(l) != 2 {
		t.Fatalf("expired leads are not in the feed")
	}
}

func TestRescore_OnlyScoreFields(t *testing.T) {
	clk := testkit.NewClock(t0)
	mem := newMemRepo()
	s := New(repotest.New(), mem.binder(), nil, nil, Config{Now: clk.Now})
	ctx := context.Background()

	l, _, _ := s.Score(ctx, samGov())
	owned := l
	owned.State, owned.Owner, owned.OwnedAt, owned.ClaimSeq = dom.StateClaimed, "alice", t0, 1
	s.Replace(owned)

	if n, err := s.Rescore(ctx); err != nil || n != 0 {
		t.Fatalf("no time passed: n=%d err=%v", n, err)
	}

	clk.Advance(7 * 24 * time.Hour)
	n, err := s.Rescore(ctx)
	if err != nil || n != 1 || mem.scores != 1 {
		t.Fatalf("rescore n=%d saves=%d err=%v", n, mem.scores, err)
	}
	got, _ := s.Get(ctx, l.ID)
	if got.Score != 80 || !got.ScoredAt.Equal(clk.Now()) {
		t.Fatalf("score %d scored_at %v", got.Score, got.ScoredAt)
	}
	if got.State != dom.StateClaimed || got.Owner != "alice" || got.ClaimSeq != 1 {
		t.Fatalf("rescore touched lifecycle: %+v", got)
	}

	mem.err = errors.New("down")
	clk.Advance(7 * 24 * time.Hour)
	if _, err := s.Rescore(ctx); perr.ReasonOf(err) != perr.ReasonStorage {
		t.Fatalf("err = %v", err)
	}
	if after, _ := s.Get(ctx, l.ID); after.Score != 80 {
		t.Fatalf("failed save must keep the old score, got %d", after.Score)
	}
}

func TestLoad(t *testing.T) {
	mem := newMemRepo()
	first := New(repotest.New(), mem.binder(), nil, nil, Config{Now: testkit.NewClock(t0).Now})
	l, _, _ := first.Score(context.Background(), samGov())

	warm := New(repotest.New(), mem.binder(), nil, nil, Config{})
	if err := warm.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got, err := warm.Get(context.Background(), l.ID); err != nil || got.Score != l.Score {
		t.Fatalf("warm get = %+v %v", got, err)
	}
}

func ids(ls []dom.Lead) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Platform
	}
	return out
}
