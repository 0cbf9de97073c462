package adapters

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/hangul"
	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// Jinbo parses jinboparty.com board listings. Listing rows routinely show
// truncated titles and omit dates; when a candidate link carries the bn=
// identity marker the adapter fetches the detail page for the
// authoritative title and date, running charset recovery over whatever the
// server sends back.
type Jinbo struct {
	Deps
}

var (
	jinboIDParams    = []string{"bn", "sno", "idx", "no", "article", "view"}
	jinboBoardViewRe = regexp.MustCompile(`js_board_view\(['"](\d+)['"]\)`)
)

// Site returns the registry tag.
func (a *Jinbo) Site() string { return "jinboparty" }

// List extracts candidate records, consulting detail pages for identified
// posts.
func (a *Jinbo) List(ctx context.Context, t scrape.Target) ([]scrape.ListItem, error) {
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

	listParsed, err := url.Parse(t.ListURL)
	if err != nil {
		return nil, fmt.Errorf("parse list url: %w", err)
	}
	expectedBoard := listParsed.Query().Get("b")

	col := &jinboCollector{target: t, expectedBoard: expectedBoard, seen: map[string]struct{}{}}

	nodes := doc.Find("section.table, .board_list tr, .board_list li, .list li, .news_list li, .img_list_item")
	a.debugf(a.Site(), "listing parsed",
		zap.Int("html_len", len(html)),
		zap.Int("anchors", doc.Find("a[href]").Length()),
		zap.Int("nodes", nodes.Length()),
	)

	nodes.Each(func(_ int, node *goquery.Selection) {
		a.collectNode(ctx, col, node)
	})

	if len(col.items) == 0 {
		doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
			href, _ := anchor.Attr("href")
			title := cleanTitle(anchor.Text())
			date := a.Dates.ExtractExplicit(anchor.Text())
			col.add(title, href, date)
		})
	}

	return col.items, nil
}

func (a *Jinbo) collectNode(ctx context.Context, col *jinboCollector, node *goquery.Selection) {
	title := titleFromNode(node,
		".tb_title_area .title", ".title", ".subject", ".tit", "._tit", "h4", "a",
	)
	date := dateFromNode(a.Dates, node, ".col.wid_140", ".item_bottom span")

	href := ""
	anchor := node.Find("a[href]").First()
	if anchor.Length() > 0 {
		href, _ = anchor.Attr("href")
	}
	if href == "" {
		href = linkFromAttrs(node, "")
	}
	if href == "" {
		for _, el := range []*goquery.Selection{node, anchor} {
			if el.Length() == 0 {
				continue
			}
			onclick, _ := el.Attr("onclick")
			onclick = strings.TrimSpace(onclick)
			if onclick == "" {
				continue
			}
			// js_board_view('NNN') carries only the post id; everything else
			// goes through the generic handler extraction.
			if m := jinboBoardViewRe.FindStringSubmatch(onclick); m != nil {
				href = a.buildReadURL(col.target.ListURL, m[1])
			} else {
				href = urlFromOnclick(onclick)
			}
			if href != "" {
				break
			}
		}
	}
	if m := jinboBoardViewRe.FindStringSubmatch(href); m != nil {
		href = a.buildReadURL(col.target.ListURL, m[1])
	}
	if href == "" {
		return
	}

	// Links carrying the bn= identity marker point at real posts; pull the
	// authoritative title and date from the detail page.
	if strings.Contains(href, "bn=") {
		detailTitle, detailDate := a.fetchDetail(ctx, col.target, href)
		if detailTitle != "" {
			title = detailTitle
		}
		if detailDate != "" {
			date = detailDate
		}
	}
	col.add(title, href, date)
}

// buildReadURL synthesizes a post read URL from a board view id, keeping
// the board and page selection of the listing URL.
func (a *Jinbo) buildReadURL(listURL, bn string) string {
	parsed, err := url.Parse(listURL)
	if err != nil {
		return ""
	}
	q := parsed.Query()
	q.Set("bn", bn)
	q.Set("m", "read")
	if q.Get("nPage") == "" {
		q.Set("nPage", "1")
	}
	if q.Get("nPageSize") == "" {
		q.Set("nPageSize", "20")
	}
	if q.Get("f") == "" {
		q.Set("f", "ALL2")
	}
	parsed.RawQuery = q.Encode()
	parsed.Fragment = ""
	return parsed.String()
}

// fetchDetail pulls the post's title and date from its detail page:
// og:title first, then a heading selector cascade, then the document
// title. Failures degrade to the listing-derived values.
func (a *Jinbo) fetchDetail(ctx context.Context, t scrape.Target, href string) (string, string) {
	abs, _, ok := resolveURL(t.ListURL, href)
	if !ok {
		return "", ""
	}
	html, err := a.Fetcher.HTML(ctx, abs, scrape.FetchOptions{
		Headers:  map[string]string{"Referer": t.ListURL},
		Encoding: "auto",
	})
	if err != nil {
		a.Logger.Warn("detail fetch failed", zap.String("url", abs), zap.Error(err))
		return "", ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}

	title := ""
	if og := doc.Find("meta[property='og:title']").First(); og.Length() > 0 {
		title, _ = og.Attr("content")
	}
	if title == "" {
		if el := doc.Find(".view_title, .title, .subject, h1, h2").First(); el.Length() > 0 {
			title = el.Text()
		}
	}
	if title == "" {
		title = doc.Find("title").First().Text()
	}
	if title != "" {
		title = cleanTitle(hangul.Recover(title))
	}

	date := ""
	if el := doc.Find(".date, .view_date, .write_date, .info_date").First(); el.Length() > 0 {
		date = a.Dates.Extract(strings.TrimSpace(el.Text()))
	}
	if date == "" {
		date = a.Dates.ExtractExplicit(doc.Text())
	}
	return title, date
}

type jinboCollector struct {
	target        scrape.Target
	expectedBoard string
	seen          map[string]struct{}
	items         []scrape.ListItem
}

// add validates one candidate link against the board identity rules.
func (c *jinboCollector) add(title, href, date string) {
	href = strings.TrimSpace(href)
	if href == "" || isJavascriptHref(href) {
		return
	}

	abs, parsed, ok := resolveURL(c.target.ListURL, href)
	if !ok {
		return
	}
	if !hostContains(parsed, "jinboparty.com") {
		return
	}

	q := parsed.Query()
	if c.expectedBoard != "" {
		if q.Get("b") != c.expectedBoard {
			return
		}
		hasID := false
		for _, key := range jinboIDParams {
			if q.Get(key) != "" {
				hasID = true
				break
			}
		}
		if !hasID {
			return
		}
	}

	title = cleanTitle(title)
	if title == "" {
		return
	}
	if _, dup := c.seen[abs]; dup {
		return
	}
	c.seen[abs] = struct{}{}

	c.items = append(c.items, scrape.ListItem{
		Party:    c.target.Party,
		Category: c.target.Category,
		Title:    title,
		URL:      abs,
		Date:     date,
	})
}
