package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// Labor parses laborparty.kr, another KBoard site. Its theme renders
// listings as thumbnail cards whose title strings carry a trailing "New"
// badge and whose dates move between mobile and desktop markup.
type Labor struct {
	Deps
}

// Site returns the registry tag.
func (a *Labor) Site() string { return "laborparty" }

// List extracts candidate records from the listing page.
func (a *Labor) List(ctx context.Context, t scrape.Target) ([]scrape.ListItem, error) {
	html, err := a.Fetcher.HTML(ctx, t.ListURL, scrape.FetchOptions{
		Headers:  map[string]string{"Referer": t.ListURL},
		Encoding: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var out []scrape.ListItem
	seen := map[string]struct{}{}

	doc.Find("a[href*='uid='][href*='mod=document']").Each(func(_ int, anchor *goquery.Selection) {
		node := anchor.Closest("li, tr, .kboard-list-item")
		if node.Length() == 0 {
			node = anchor
		}

		title := laborTitle(node, anchor)
		if title == "" {
			return
		}

		date := a.laborDate(node)

		href, _ := anchor.Attr("href")
		abs, parsed, ok := resolveURL(t.ListURL, href)
		if !ok {
			return
		}
		if !hostContains(parsed, "laborparty.kr") {
			return
		}
		if !digitsRe.MatchString(parsed.Query().Get("uid")) {
			return
		}

		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}

		out = append(out, scrape.ListItem{
			Party:    t.Party,
			Category: t.Category,
			Title:    title,
			URL:      abs,
			Date:     date,
		})
	})

	// Last-resort sweep when the KBoard selectors match nothing, e.g. after
	// a theme change: every on-site anchor with a usable title.
	if len(out) == 0 {
		doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
			href, _ := anchor.Attr("href")
			if strings.TrimSpace(href) == "" || isJavascriptHref(href) {
				return
			}
			abs, parsed, ok := resolveURL(t.ListURL, href)
			if !ok || !hostContains(parsed, "laborparty.kr") {
				return
			}
			title := laborTitle(anchor, anchor)
			if title == "" {
				return
			}
			if _, dup := seen[abs]; dup {
				return
			}
			seen[abs] = struct{}{}

			out = append(out, scrape.ListItem{
				Party:    t.Party,
				Category: t.Category,
				Title:    title,
				URL:      abs,
				Date:     a.Dates.Extract(anchor.Text()),
			})
		})
	}

	a.debugf(a.Site(), "listing parsed")
	return out, nil
}

// laborTitle reads the card title, preferring the thumbnail string element
// and stripping the "New" badge the theme appends to recent posts.
func laborTitle(node, anchor *goquery.Selection) string {
	title := ""
	if el := node.Find(".kboard-thumbnail-cut-strings").First(); el.Length() > 0 {
		title = el.Text()
	}
	if title == "" {
		title = anchor.Text()
	}
	title = cleanTitle(title)
	title = strings.TrimSpace(strings.TrimSuffix(title, "New"))
	return title
}

// laborDate walks the theme's date locations: the mobile block, the card
// footer, then anything date-shaped in the node text.
func (a *Labor) laborDate(node *goquery.Selection) string {
	for _, sel := range []string{".kboard-mobile-contents .kboard-date", "p.date span"} {
		if el := node.Find(sel).First(); el.Length() > 0 {
			if d := a.Dates.Extract(strings.TrimSpace(el.Text())); d != "" {
				return d
			}
		}
	}
	return a.Dates.ExtractExplicit(node.Text())
}
