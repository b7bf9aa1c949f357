package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dom "galactly/internal/services/quota/domain"
)

func TestDefaultPlans(t *testing.T) {
	c := MustDefaultPlans()
	if got := strings.Join(c.Names(), ","); got != "free,pro,vip" {
		t.Fatalf("names = %s", got)
	}

	free := c.Plan("free")
	if free.CanHide || free.Limit(dom.BucketClaim) != 3 || free.Limit("export") != 10 {
		t.Fatalf("free = %+v", free)
	}
	vip := c.Plan(" VIP ")
	if !vip.CanHide || vip.HideTTL != 72*time.Hour || vip.Limit("export") != -1 {
		t.Fatalf("vip = %+v", vip)
	}
	if c.Plan("enterprise").Name != "free" {
		t.Fatalf("unknown plan should fall back to the default")
	}
}

func TestParsePlans_Rejects(t *testing.T) {
	cases := map[string]string{
		"version":     "version: 2\ndefault: a\nplans: {a: {}}",
		"empty":       "version: 1\ndefault: a\nplans: {}",
		"default":     "version: 1\ndefault: b\nplans: {a: {}}",
		"hide no ttl": "version: 1\ndefault: a\nplans: {a: {hide: true}}",
		"bad ttl":     "version: 1\ndefault: a\nplans: {a: {hide: true, hide_ttl: soon}}",
		"not yaml":    "plans: [",
	}
	for name, src := range cases {
		if _, err := ParsePlans([]byte(src)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadPlansFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	src := "version: 1\ndefault: team\nplans:\n  team:\n    default_limit: 7\n    limits: {Claim: 9}\n"
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadPlansFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p := c.Plan("anything"); p.Name != "team" || p.Limit("claim") != 9 || p.Limit("x") != 7 {
		t.Fatalf("plan = %+v", p)
	}
	if _, err := LoadPlansFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file should fail")
	}
}
