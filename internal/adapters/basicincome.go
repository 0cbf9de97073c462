package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// BasicIncome parses basicincomeparty.kr, a KBoard site. The press board
// lists external article links in a table; the briefing board links real
// posts through query-string identity (mod=document plus a numeric uid).
type BasicIncome struct {
	Deps
}

var basicIncomePostPaths = map[string]struct{}{
	"/news/briefing": {},
	"/news/press":    {},
}

// Site returns the registry tag.
func (a *BasicIncome) Site() string { return "basicincomeparty" }

// List extracts candidate records from the listing page.
func (a *BasicIncome) List(ctx context.Context, t scrape.Target) ([]scrape.ListItem, error) {
	html, err := a.Fetcher.HTML(ctx, t.ListURL, scrape.FetchOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	if strings.Contains(t.ListURL, "/news/press") {
		return a.listPress(doc, t), nil
	}
	return a.listBriefing(doc, t), nil
}

// listPress reads the KBoard table: title anchor and date cell per row.
func (a *BasicIncome) listPress(doc *goquery.Document, t scrape.Target) []scrape.ListItem {
	var out []scrape.ListItem
	seen := map[string]struct{}{}

	doc.Find(".kboard-list tbody tr").Each(func(_ int, row *goquery.Selection) {
		anchor := row.Find("td.kboard-list-title a[href]").First()
		href, _ := anchor.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		title := cleanTitle(anchor.Text())
		if title == "" {
			return
		}

		date := ""
		if cell := row.Find("td.kboard-list-date").First(); cell.Length() > 0 {
			date = a.Dates.Extract(strings.TrimSpace(cell.Text()))
		}

		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}

		out = append(out, scrape.ListItem{
			Party:    t.Party,
			Category: t.Category,
			Title:    title,
			URL:      href,
			Date:     date,
		})
	})
	return out
}

// listBriefing sweeps every anchor and keeps only real KBoard documents:
// a known post path, mod=document, and a numeric uid.
func (a *BasicIncome) listBriefing(doc *goquery.Document, t scrape.Target) []scrape.ListItem {
	var out []scrape.ListItem
	seen := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		title := cleanTitle(anchor.Text())

		abs, parsed, ok := resolveURL(t.ListURL, href)
		if !ok {
			return
		}
		if _, known := basicIncomePostPaths[strings.TrimRight(parsed.Path, "/")]; !known {
			return
		}
		q := parsed.Query()
		if q.Get("mod") != "document" {
			return
		}
		if !digitsRe.MatchString(q.Get("uid")) {
			return
		}

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
		})
	})

	a.debugf(a.Site(), "briefing sweep finished")
	return out
}
