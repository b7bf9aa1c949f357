package module

import (
	"time"

	"galactly/internal/core/signal"
	"galactly/internal/platform/config"
)

// Options holds LEADS_* settings
type Options struct {
	SnippetMax   int
	MaxPhrases   int
	RescoreEvery time.Duration
	QualityFile  string
}

// FromConfig reads LEADS_* settings
func FromConfig(cfg config.Conf) Options {
	lc := cfg.Prefix("LEADS_")
	return Options{
		SnippetMax:   lc.MayInt("SNIPPET_MAX", signal.DefaultSnippetMax),
		MaxPhrases:   lc.MayInt("MAX_PHRASES", signal.DefaultMaxPhrases),
		RescoreEvery: lc.MayDuration("RESCORE_EVERY", time.Hour),
		QualityFile:  lc.MayString("QUALITY_FILE", ""),
	}
}
