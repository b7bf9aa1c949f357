package service

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	dom "galactly/internal/services/quota/domain"
)

//go:embed plans.yaml
var embeddedPlans []byte

type planFile struct {
	Version int                 `yaml:"version"`
	Default string              `yaml:"default"`
	Plans   map[string]planSpec `yaml:"plans"`
}

type planSpec struct {
	DefaultLimit int            `yaml:"default_limit"`
	Limits       map[string]int `yaml:"limits"`
	Hide         bool           `yaml:"hide"`
	HideTTL      string         `yaml:"hide_ttl"`
}

// Catalog resolves plan names, unknown names fall back to the default plan
type Catalog struct {
	plans   map[string]dom.Plan
	def     string
	buckets map[string]struct{}
}

// DefaultPlans parses the embedded catalog
func DefaultPlans() (*Catalog, error) { return ParsePlans(embeddedPlans) }

// MustDefaultPlans panics when the embedded catalog is broken
func MustDefaultPlans() *Catalog {
	c, err := DefaultPlans()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadPlansFile reads a catalog override from disk
func LoadPlansFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans %s: %w", path, err)
	}
	return ParsePlans(b)
}

// ParsePlans validates and builds a catalog
func ParsePlans(b []byte) (*Catalog, error) {
	var f planFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("plans: %w", err)
	}
	if f.Version != 1 {
		return nil, fmt.Errorf("plans: unsupported version %d", f.Version)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("plans: empty catalog")
	}

	c := &Catalog{
		plans:   make(map[string]dom.Plan, len(f.Plans)),
		def:     strings.ToLower(f.Default),
		buckets: map[string]struct{}{dom.BucketClaim: {}, dom.BucketConsume: {}},
	}
	for name, ps := range f.Plans {
		name = strings.ToLower(strings.TrimSpace(name))
		p := dom.Plan{
			Name:         name,
			Limits:       make(map[string]int, len(ps.Limits)),
			DefaultLimit: ps.DefaultLimit,
			CanHide:      ps.Hide,
		}
		for bucket, n := range ps.Limits {
			bucket = dom.NormalizeBucket(bucket)
			p.Limits[bucket] = n
			c.buckets[bucket] = struct{}{}
		}
		if ps.HideTTL != "" {
			d, err := time.ParseDuration(ps.HideTTL)
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("plans: %s hide_ttl %q", name, ps.HideTTL)
			}
			p.HideTTL = d
		}
		if p.CanHide && p.HideTTL == 0 {
			return nil, fmt.Errorf("plans: %s can hide without hide_ttl", name)
		}
		c.plans[name] = p
	}
	if _, ok := c.plans[c.def]; !ok {
		return nil, fmt.Errorf("plans: default %q not in catalog", f.Default)
	}
	return c, nil
}

// Plan returns the named plan or the default one
func (c *Catalog) Plan(name string) dom.Plan {
	if p, ok := c.plans[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return c.plans[c.def]
}

// Names lists the catalog in sorted order
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.plans))
	for n := range c.plans {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// HasBucket reports whether any plan names bucket, claim and consume always exist
func (c *Catalog) HasBucket(name string) bool {
	_, ok := c.buckets[dom.NormalizeBucket(name)]
	return ok
}
