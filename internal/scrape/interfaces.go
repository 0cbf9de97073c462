package scrape

import (
	"context"
	"time"
)

// FetchOptions adjusts a single listing or detail fetch.
type FetchOptions struct {
	// Headers are merged over the session defaults for this request only.
	Headers map[string]string
	// Encoding selects the decode mode. The empty string trusts the
	// server-declared charset; "auto" routes the raw bytes through the
	// charset-voting decoder.
	Encoding string
}

// Fetcher is the plain transport collaborator: session-based GET/POST with
// header overrides, per-request timeout, and a declarative decode mode.
type Fetcher interface {
	// HTML performs a GET and returns the decoded body. Timeouts and
	// connection failures are retried with backoff; a non-2xx status fails
	// immediately.
	HTML(ctx context.Context, url string, opts FetchOptions) (string, error)
	// PostJSON performs a POST with a JSON body and decodes the JSON
	// response into out. Non-2xx fails immediately, no retry.
	PostJSON(ctx context.Context, url string, payload any, headers map[string]string, out any) error
}

// Renderer is the headless render surface for script-rendered pages. A
// wait-selector timeout is non-fatal: whatever HTML rendered is returned.
type Renderer interface {
	Render(ctx context.Context, url, waitSelector string, waitTimeout time.Duration) (string, error)
}

// Adapter turns one listing page into candidate records. Implementations are
// pure with respect to run state: everything they need arrives as arguments.
type Adapter interface {
	// Site returns the type tag the adapter is registered under.
	Site() string
	// List fetches and parses the target's listing page.
	List(ctx context.Context, t Target) ([]ListItem, error)
}

// Registry resolves adapters by site tag. A missing tag is an explicit
// no-op for the orchestrator, not an error.
type Registry map[string]Adapter

// Register adds an adapter under its own site tag.
func (r Registry) Register(a Adapter) {
	r[a.Site()] = a
}

// Lookup returns the adapter for a site tag, if any.
func (r Registry) Lookup(site string) (Adapter, bool) {
	a, ok := r[site]
	return a, ok
}

// Enricher recovers a publish date and body paragraphs from a detail page.
// Disallowed hosts yield an empty result, never an error.
type Enricher interface {
	Enrich(ctx context.Context, rawURL string) (date string, paragraphs []string, err error)
}
