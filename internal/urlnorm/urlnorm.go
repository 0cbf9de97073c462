// Package urlnorm computes canonical deduplication keys for announcement
// URLs. Sites link the same post under http/https, with and without www.,
// with pagination state baked into the query. Canonicalizing strips that
// noise so one post maps to one key. The canonical form is used only for
// lookup; the original URL is what gets stored and displayed.
package urlnorm

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultIgnoredParams are query keys that never identify a post:
// pagination, search state, and tracking tags.
var DefaultIgnoredParams = []string{
	"page", "nPage", "nPageSize", "pageid", "page_id", "pg",
	"keyword", "search", "searchKey", "searchVal", "sword",
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"fbclid",
}

// Normalizer rewrites URLs into canonical form.
type Normalizer struct {
	ignored map[string]struct{}
}

// New builds a Normalizer dropping the given query parameters. A nil list
// uses DefaultIgnoredParams.
func New(ignoredParams []string) *Normalizer {
	if ignoredParams == nil {
		ignoredParams = DefaultIgnoredParams
	}
	set := make(map[string]struct{}, len(ignoredParams))
	for _, p := range ignoredParams {
		set[p] = struct{}{}
	}
	return &Normalizer{ignored: set}
}

// Normalize returns the canonical form of raw. Two URLs are duplicates iff
// their canonical forms are byte-equal. Normalize is idempotent.
func (n *Normalizer) Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Host = strings.TrimPrefix(u.Host, "www.")

	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	q := u.Query()
	for key := range q {
		if _, drop := n.ignored[key]; drop {
			q.Del(key)
		}
	}
	// Values.Encode sorts by key, giving a stable parameter order.
	u.RawQuery = q.Encode()
	u.Fragment = ""

	return u.String(), nil
}
