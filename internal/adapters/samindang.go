package adapters

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// Samindang parses samindang.kr briefing listings. The site navigates via
// card clicks as often as via anchors, so link extraction runs the full
// candidate chain: anchors, data-* attributes, onclick handlers, and
// finally a post id scraped out of the node's markup.
type Samindang struct {
	Deps
}

// navWords are navigation labels that a greedy sweep would otherwise pick
// up as titles.
var navWords = map[string]struct{}{
	"브리핑": {}, "공지": {}, "보도자료": {}, "정책": {}, "소식": {},
	"검색": {}, "전체": {}, "자료실": {}, "당원가입": {}, "로그인": {},
	"소개": {}, "소통": {}, "후원하기": {},
}

const samindangMinTitleLen = 6

var (
	samindangBriefingPathRe = regexp.MustCompile(`/news/briefing/(\d+)`)
	samindangNodeIDRe       = regexp.MustCompile(`id_(\d+)`)
	samindangBracketRe      = regexp.MustCompile(`\[[^\]]+\]`)
	bareNumberRe            = regexp.MustCompile(`\b(\d{3,6})\b`)
	isoDateRe               = regexp.MustCompile(`(?:등록일\s*)?(\d{4}-\d{2}-\d{2})`)
)

// Site returns the registry tag.
func (a *Samindang) Site() string { return "samindang" }

// List extracts candidate records from the listing page.
func (a *Samindang) List(ctx context.Context, t scrape.Target) ([]scrape.ListItem, error) {
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

	col := &samindangCollector{adapter: a, target: t, seen: map[string]struct{}{}}

	// Explicit briefing list items avoid title+excerpt contamination.
	nodes := doc.Find("li[data-url*='/news/briefing/'], li[id^='id_']")
	if nodes.Length() > 0 {
		nodes.Each(func(_ int, node *goquery.Selection) { col.addNode(node) })
		return col.items, nil
	}

	// Common list containers.
	doc.Find(".admin_list li, .board_list li, .board_list tr, .list li, .notice_list li, .news_list li").
		Each(func(_ int, node *goquery.Selection) { col.addNode(node) })

	// Last resort sweeps: plain anchors, clickable blocks, data-* carriers.
	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		col.add(cleanTitle(anchor.Text()), href, "")
	})
	doc.Find("[onclick]").Each(func(_ int, el *goquery.Selection) {
		onclick, _ := el.Attr("onclick")
		if href := urlFromOnclick(strings.TrimSpace(onclick)); href != "" {
			col.add(cleanTitle(el.Text()), href, "")
		}
	})
	doc.Find("[data-href], [data-url], [data-link]").Each(func(_ int, el *goquery.Selection) {
		if href := linkFromAttrs(el, ""); href != "" {
			col.add(cleanTitle(el.Text()), href, "")
		}
	})

	a.debugf(a.Site(), "fallback sweep finished", zap.Int("items", len(col.items)))
	return col.items, nil
}

type samindangCollector struct {
	adapter *Samindang
	target  scrape.Target
	seen    map[string]struct{}
	items   []scrape.ListItem
}

// addNode runs the full link candidate chain over one list node.
func (c *samindangCollector) addNode(node *goquery.Selection) {
	title := titleFromNode(node,
		".contentBox .title", "p.title", ".title", ".subject", ".tit",
		"h1", "h2", "h3", "h4", "h5", "a",
	)
	date := dateFromNode(c.adapter.Dates, node, ".info .date", ".date")

	href := linkFromAttrs(node, "/news/briefing/%s")
	if href == "" {
		if anchor := node.Find("a[href]").First(); anchor.Length() > 0 {
			href, _ = anchor.Attr("href")
		}
	}
	if href == "" {
		onclick, _ := node.Attr("onclick")
		href = urlFromOnclick(strings.TrimSpace(onclick))
	}
	if href == "" {
		if markup, err := goquery.OuterHtml(node); err == nil {
			if id := extractPostID(markup); id != "" {
				href = "/news/briefing/" + id
			}
		}
	}
	if href != "" {
		c.add(title, href, date)
	}
}

// add validates one (title, link) candidate and appends it.
func (c *samindangCollector) add(title, href, date string) {
	href = strings.TrimSpace(href)
	if href == "" || isJavascriptHref(href) {
		return
	}
	if !strings.Contains(href, "/news/") && !strings.Contains(href, "briefing") {
		return
	}

	abs, parsed, ok := resolveURL(c.target.ListURL, href)
	if !ok {
		return
	}
	if !hostContains(parsed, "samindang.kr") {
		return
	}
	if !strings.HasPrefix(parsed.Path, "/news/") {
		return
	}
	if sameListPage(abs, c.target.ListURL) {
		return
	}

	title, titleDate := splitTitleDate(title)
	title = samindangBracketTitle(title)
	if title == "" {
		return
	}
	if _, nav := navWords[title]; nav {
		return
	}
	if len([]rune(title)) < samindangMinTitleLen {
		return
	}

	if _, dup := c.seen[abs]; dup {
		return
	}
	c.seen[abs] = struct{}{}

	if date == "" {
		date = titleDate
	}
	c.items = append(c.items, scrape.ListItem{
		Party:    c.target.Party,
		Category: c.target.Category,
		Title:    title,
		URL:      abs,
		Date:     date,
	})
}

// splitTitleDate peels an ISO date stamp off a title, returning both.
func splitTitleDate(title string) (string, string) {
	if title == "" {
		return "", ""
	}
	m := isoDateRe.FindStringSubmatch(title)
	if m == nil {
		return title, ""
	}
	rest := isoDateRe.ReplaceAllString(title, "")
	rest = strings.TrimSpace(whitespaceRe.ReplaceAllString(rest, " "))
	return rest, m[1]
}

// samindangBracketTitle trims card excerpt text that trails a bracketed
// tag. The title proper is the leading text plus the first [...] group,
// kept only when long enough to stand on its own.
func samindangBracketTitle(title string) string {
	open := strings.Index(title, "[")
	if open < 0 {
		return title
	}
	tag := samindangBracketRe.FindString(title)
	if tag == "" {
		return title
	}
	candidate := strings.TrimSpace(strings.TrimSpace(title[:open]) + " " + tag)
	if len([]rune(candidate)) >= samindangMinTitleLen {
		return candidate
	}
	return title
}

// extractPostID digs a briefing post id out of raw node markup: an explicit
// briefing path first, then the node's own id_NNN element id, then any
// plausible bare number.
func extractPostID(markup string) string {
	if m := samindangBriefingPathRe.FindStringSubmatch(markup); m != nil {
		return m[1]
	}
	if m := samindangNodeIDRe.FindStringSubmatch(markup); m != nil {
		return m[1]
	}
	if m := bareNumberRe.FindStringSubmatch(markup); m != nil {
		return m[1]
	}
	return ""
}
