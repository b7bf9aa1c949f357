//go:build integration_pg

package service

import (
	"context"
	"testing"
	"time"

	"galactly/internal/platform/store"
	"galactly/internal/platform/store/schema"
	"galactly/internal/platform/testkit"
	dom "galactly/internal/services/claims/domain"
	"galactly/internal/services/claims/repo"
	leads "galactly/internal/services/leads/domain"
	leadsvc "galactly/internal/services/leads/service"
	quotasvc "galactly/internal/services/quota/service"
)

func TestPG_ClaimSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: testkit.StartPostgres(t), MaxConns: 4}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	if err := schema.ApplyPG(ctx, st.PG); err != nil {
		t.Fatal(err)
	}

	clk := testkit.NewClock(t0)
	boot := func() (*leadsvc.Store, *Coordinator) {
		ls := leadsvc.New(st.PG, nil, nil, nil, leadsvc.Config{Now: clk.Now})
		ledger := quotasvc.New(st.PG, nil, nil, quotasvc.Config{Now: clk.Now})
		c := New(st.PG, nil, ls, ledger, nil, Config{Now: clk.Now})
		for _, l := range []interface{ Load(context.Context) error }{ls, ledger, c} {
			if err := l.Load(ctx); err != nil {
				t.Fatal(err)
			}
		}
		return ls, c
	}

	ls, c := boot()
	lead, _, err := ls.Score(ctx, leads.RawItem{Platform: "sam.gov", SourceID: "src-sam", Text: "RFQ for 5,000 custom mailer boxes"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Claim(ctx, dom.Request{LeadID: lead.ID, Identity: "vera", Plan: "vip", Hide: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Claim(ctx, dom.Request{LeadID: lead.ID, Identity: "bob", Plan: "free"}); err == nil {
		t.Fatal("bob claimed a hidden lead")
	}

	clk.Advance(time.Hour)
	_, c = boot()
	s, err := c.Status(ctx, lead.ID, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Hidden || s.Owner != "vera" || s.ClaimedByCount != 1 {
		t.Fatalf("status after restart = %+v", s)
	}
	if evs := c.Events(lead.ID); len(evs) != 1 || evs[0].Seq != 1 {
		t.Fatalf("events = %+v", evs)
	}

	out, err := repo.OutcomeReader(st.PG).Outcomes(ctx, t0.Add(-time.Hour))
	if err != nil || out["src-sam"].Wins != 1 {
		t.Fatalf("outcomes = %v %v", out, err)
	}
}

func TestPG_TwoCoordinatorsShareOneLog(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: testkit.StartPostgres(t), MaxConns: 4}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	if err := schema.ApplyPG(ctx, st.PG); err != nil {
		t.Fatal(err)
	}

	clk := testkit.NewClock(t0)
	ls := leadsvc.New(st.PG, nil, nil, nil, leadsvc.Config{Now: clk.Now})
	lead, _, err := ls.Score(ctx, leads.RawItem{Platform: "sam.gov", SourceID: "src-sam", Text: "RFQ for 5,000 custom mailer boxes"})
	if err != nil {
		t.Fatal(err)
	}

	boot := func() *Coordinator {
		ls := leadsvc.New(st.PG, nil, nil, nil, leadsvc.Config{Now: clk.Now})
		ledger := quotasvc.New(st.PG, nil, nil, quotasvc.Config{Now: clk.Now})
		c := New(st.PG, nil, ls, ledger, nil, Config{Now: clk.Now})
		for _, l := range []interface{ Load(context.Context) error }{ls, ledger, c} {
			if err := l.Load(ctx); err != nil {
				t.Fatal(err)
			}
		}
		return c
	}
	a, b := boot(), boot()

	if _, err := a.Claim(ctx, dom.Request{LeadID: lead.ID, Identity: "alice", Plan: "free"}); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Minute)
	res, err := b.Claim(ctx, dom.Request{LeadID: lead.ID, Identity: "bob", Plan: "free"})
	if err != nil {
		t.Fatalf("stale coordinator claim: %v", err)
	}
	if res.Seq != 2 || res.Owner != "alice" || res.CompetitorCount != 1 {
		t.Fatalf("claim after reload = %+v", res)
	}

	fresh := boot()
	if evs := fresh.Events(lead.ID); len(evs) != 2 || evs[1].Identity != "bob" {
		t.Fatalf("events = %+v", evs)
	}
	q := quotasvc.New(st.PG, nil, nil, quotasvc.Config{Now: clk.Now})
	if err := q.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if s, _ := q.Status(ctx, "bob", "claim", 3); s.Used != 1 {
		t.Fatalf("bob charged %d times", s.Used)
	}
}
