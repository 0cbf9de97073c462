package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunnerConfig controls orchestration pacing and filtering.
type RunnerConfig struct {
	// SourceDelay is the pause applied after every source, success or not.
	SourceDelay time.Duration
	// DateFrom, when set (YYYY-MM-DD), drops records published before it.
	DateFrom string
	// KeepUndated keeps records whose date is absent or unparseable instead
	// of dropping them. Off by default: an undated record cannot be
	// confirmed recent.
	KeepUndated bool
}

// Runner drives the adapters over the configured targets, one source at a
// time, in order. Sources are isolated: a failing adapter contributes zero
// records and the run continues.
type Runner struct {
	registry Registry
	clock    Clock
	sleep    func(time.Duration)
	cfg      RunnerConfig
	logger   *zap.Logger
}

// NewRunner constructs a Runner. A nil sleep falls back to time.Sleep.
func NewRunner(registry Registry, clock Clock, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if cfg.SourceDelay <= 0 {
		cfg.SourceDelay = 1200 * time.Millisecond
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Runner{
		registry: registry,
		clock:    clock,
		sleep:    time.Sleep,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run collects records from every target in configured order, preserving
// within-source listing order, then applies the recency filter.
func (r *Runner) Run(ctx context.Context, rc *RunContext, targets []Target) []ListItem {
	var all []ListItem

	for _, t := range targets {
		adapter, ok := r.registry.Lookup(t.Site)
		if !ok {
			r.logger.Warn("no adapter registered, skipping source",
				zap.String("run_id", rc.RunID),
				zap.String("site", t.Site),
				zap.String("party", t.Party),
				zap.String("category", t.Category),
			)
			r.sleep(r.cfg.SourceDelay)
			continue
		}

		items, err := adapter.List(ctx, t)
		if err != nil {
			r.logger.Error("source failed",
				zap.String("run_id", rc.RunID),
				zap.String("site", t.Site),
				zap.String("party", t.Party),
				zap.String("category", t.Category),
				zap.Error(err),
			)
		} else {
			r.logger.Info("source collected",
				zap.String("run_id", rc.RunID),
				zap.String("site", t.Site),
				zap.String("party", t.Party),
				zap.String("category", t.Category),
				zap.Int("items", len(items)),
			)
			all = append(all, items...)
		}

		r.sleep(r.cfg.SourceDelay)
	}

	return r.filterByDate(all)
}

func (r *Runner) filterByDate(items []ListItem) []ListItem {
	if r.cfg.DateFrom == "" {
		return items
	}
	cutoff, err := time.Parse("2006-01-02", r.cfg.DateFrom)
	if err != nil {
		r.logger.Warn("invalid date_from, skipping recency filter",
			zap.String("date_from", r.cfg.DateFrom))
		return items
	}

	kept := items[:0:0]
	dropped := 0
	for _, it := range items {
		d, perr := time.Parse("2006-01-02", it.Date)
		switch {
		case it.Date == "" || perr != nil:
			if r.cfg.KeepUndated {
				kept = append(kept, it)
			} else {
				dropped++
			}
		case !d.Before(cutoff):
			kept = append(kept, it)
		default:
			dropped++
		}
	}
	r.logger.Info("recency filter applied",
		zap.String("cutoff", r.cfg.DateFrom),
		zap.Int("kept", len(kept)),
		zap.Int("dropped", dropped),
		zap.Bool("keep_undated", r.cfg.KeepUndated),
	)
	return kept
}

// SetSleep overrides the pacing sleeper. Tests use this to run instantly.
func (r *Runner) SetSleep(fn func(time.Duration)) {
	if fn != nil {
		r.sleep = fn
	}
}

// FilterTargets applies the CLI run filters to the configured target list.
// Empty filter values match everything.
func FilterTargets(targets []Target, onlySite string, excludeSites []string, onlyCategory, onlyID string) []Target {
	excluded := make(map[string]struct{}, len(excludeSites))
	for _, s := range excludeSites {
		if s != "" {
			excluded[s] = struct{}{}
		}
	}

	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if onlySite != "" && t.Site != onlySite {
			continue
		}
		if _, ok := excluded[t.Site]; ok {
			continue
		}
		if onlyCategory != "" && t.Category != onlyCategory {
			continue
		}
		if onlyID != "" && t.ID != onlyID {
			continue
		}
		out = append(out, t)
	}
	return out
}
