// Package scrape defines the core types and interfaces for the announcement
// collection pipeline: source descriptors, extracted records, and the
// contracts between the orchestrator, the site adapters, and the transports.
package scrape

import "time"

// Target identifies one (site, category) crawl origin. Targets are loaded
// once at startup and never mutated; a Target lives for exactly one run.
type Target struct {
	ID       string `mapstructure:"id" json:"id"`
	Party    string `mapstructure:"party" json:"party"`
	Site     string `mapstructure:"site" json:"site"`
	Category string `mapstructure:"category" json:"category"`
	ListURL  string `mapstructure:"list_url" json:"list_url"`
}

// ListItem is one extracted announcement. Items are immutable values:
// enrichment and category remapping always build a replacement, never
// mutate in place.
//
// Invariants: Title is non-empty after trimming, URL is absolute, and Date,
// when set, is YYYY-MM-DD.
type ListItem struct {
	Party    string
	Category string
	Title    string
	URL      string
	Date     string
	Body     []string
}

// WithDate returns a copy of the item with the date filled in.
func (it ListItem) WithDate(date string) ListItem {
	it.Date = date
	return it
}

// WithCategory returns a copy of the item with the category replaced.
func (it ListItem) WithCategory(category string) ListItem {
	it.Category = category
	return it
}

// Clock supplies the current time. Extracted so date inference and the
// recency filter are deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// RunContext carries the per-run mutable state that the pipeline shares:
// the run id, the diagnostics site set, and nothing else. It replaces what
// would otherwise be ambient globals.
type RunContext struct {
	RunID      string
	DebugSites map[string]struct{}
}

// DebugEnabled reports whether diagnostics were requested for a site.
func (rc *RunContext) DebugEnabled(site string) bool {
	if rc == nil {
		return false
	}
	_, ok := rc.DebugSites[site]
	return ok
}

// NewRunContext builds a RunContext for one run.
func NewRunContext(runID string, debugSites []string) *RunContext {
	set := make(map[string]struct{}, len(debugSites))
	for _, s := range debugSites {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return &RunContext{RunID: runID, DebugSites: set}
}
