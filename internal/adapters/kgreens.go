package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// Kgreens parses kgreens.org listings. The board markup is stable: one
// ul.li_body per post, with the date carried in the title attribute of a
// li.time element rather than its text.
type Kgreens struct {
	Deps
}

const kgreensMinTitleLen = 6

// Site returns the registry tag.
func (a *Kgreens) Site() string { return "kgreens" }

// List extracts candidate records from the listing page.
func (a *Kgreens) List(ctx context.Context, t scrape.Target) ([]scrape.ListItem, error) {
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

	doc.Find("ul.li_body").Each(func(_ int, node *goquery.Selection) {
		anchor := node.Find("a.list_text_title").First()
		if anchor.Length() == 0 {
			anchor = node.Find("a[href]").First()
		}
		if anchor.Length() == 0 {
			return
		}
		href, _ := anchor.Attr("href")

		title := cleanTitle(anchor.Text())
		if title == "" || len([]rune(title)) < kgreensMinTitleLen {
			return
		}

		date := a.kgreensDate(node)

		abs, parsed, ok := resolveURL(t.ListURL, href)
		if !ok {
			return
		}
		if !hostContains(parsed, "kgreens.org") {
			return
		}
		if sameListPage(abs, t.ListURL) {
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

	a.debugf(a.Site(), "listing parsed")
	return out, nil
}

// kgreensDate reads the post date. The board puts the full date in the
// title attribute of li.time; the visible text is a relative stamp.
func (a *Kgreens) kgreensDate(node *goquery.Selection) string {
	if el := node.Find("li.time").First(); el.Length() > 0 {
		if attr, ok := el.Attr("title"); ok {
			if d := a.Dates.Extract(strings.TrimSpace(attr)); d != "" {
				return d
			}
		}
		if d := a.Dates.Extract(strings.TrimSpace(el.Text())); d != "" {
			return d
		}
	}
	return a.Dates.ExtractExplicit(node.Text())
}
