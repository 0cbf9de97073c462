// Package adapters holds one listing-page extraction strategy per party
// site. Adapters share a small toolkit of fallback chains: title selector
// cascades, link candidate chains, and node-local date cascades. Each chain
// is an ordered list of rules tried until one succeeds, so per-site quirks
// stay declarative instead of nesting conditionals.
package adapters

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jinwoo-dev/partywatch/internal/dates"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// Inline click handlers carry the real destination on several sites:
	// location.href='/news/briefing/123', window.location="...". Prefer a
	// quoted URL-like substring, fall back to a bare one.
	onclickQuotedRe = regexp.MustCompile(`['"]((?:https?://|/)[^'"]+)['"]`)
	onclickBareRe   = regexp.MustCompile(`(https?://[^\s'"]+|/[^\s'"]+)`)
)

// cleanTitle collapses whitespace and strips embedded registration-date
// stamps from title text.
func cleanTitle(s string) string {
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	return strings.TrimSpace(dates.StripStamp(s))
}

// urlFromOnclick extracts a navigation target from an inline JS handler.
// Returns "" when nothing URL-like is present.
func urlFromOnclick(onclick string) string {
	if onclick == "" {
		return ""
	}
	if m := onclickQuotedRe.FindStringSubmatch(onclick); m != nil {
		return m[1]
	}
	if m := onclickBareRe.FindStringSubmatch(onclick); m != nil {
		return m[1]
	}
	return ""
}

// linkAttrKeys are attributes that carry a navigation target directly.
var linkAttrKeys = []string{"href", "data-href", "data-url", "data-link"}

// idAttrKeys are attributes that carry a numeric post id which, combined
// with a path template, yields a detail URL.
var idAttrKeys = []string{"data-no", "data-idx", "data-id", "data-seq"}

var digitsRe = regexp.MustCompile(`^\d+$`)

// linkFromAttrs returns the first link-bearing attribute value, or a detail
// URL synthesized from a numeric id attribute via pathTemplate (a
// fmt-style pattern with one %s). Empty template disables id synthesis.
func linkFromAttrs(sel *goquery.Selection, pathTemplate string) string {
	for _, key := range linkAttrKeys {
		if v, ok := sel.Attr(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if pathTemplate == "" {
		return ""
	}
	for _, key := range idAttrKeys {
		if v, ok := sel.Attr(key); ok && digitsRe.MatchString(strings.TrimSpace(v)) {
			return strings.Replace(pathTemplate, "%s", strings.TrimSpace(v), 1)
		}
	}
	return ""
}

// titleFromNode tries selectors in specificity order and returns the first
// non-empty cleaned title, falling back to the node's own text.
func titleFromNode(node *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		el := node.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if title := cleanTitle(el.Text()); title != "" {
			return title
		}
	}
	return cleanTitle(node.Text())
}

// dateFromNode tries node-local date selectors first, then falls back to
// the whole node's text. Only the explicit recognizer applies: listing rows
// may contain stray clock times that must not be read as "today".
func dateFromNode(extract *dates.Extractor, node *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		el := node.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if d := extract.Extract(strings.TrimSpace(el.Text())); d != "" {
			return d
		}
	}
	return extract.ExtractExplicit(node.Text())
}

// resolveURL resolves href against the listing URL.
func resolveURL(listURL, href string) (string, *url.URL, bool) {
	base, err := url.Parse(listURL)
	if err != nil {
		return "", nil, false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", nil, false
	}
	abs := base.ResolveReference(ref)
	return abs.String(), abs, true
}

// sameListPage reports whether abs points back at the listing page itself.
func sameListPage(abs, listURL string) bool {
	return strings.TrimRight(abs, "/") == strings.TrimRight(listURL, "/")
}

// hostContains reports whether the URL's host is empty (relative) or
// contains the given domain fragment.
func hostContains(u *url.URL, domain string) bool {
	return u.Host == "" || strings.Contains(u.Host, domain)
}

// isJavascriptHref filters pseudo-links.
func isJavascriptHref(href string) bool {
	return strings.HasPrefix(strings.TrimSpace(href), "javascript")
}
