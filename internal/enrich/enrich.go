// Package enrich recovers the publish date and body text of an
// announcement from its detail page. Only known party-site hosts are
// fetched; anything else yields an empty result so external press links
// never trigger an off-site crawl.
package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/dates"
	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// allowedHosts are the detail-page hosts the enricher will fetch.
var allowedHosts = map[string]struct{}{
	"www.basicincomeparty.kr":     {},
	"basicincomeparty.kr":         {},
	"www.samindang.kr":            {},
	"samindang.kr":                {},
	"blog.naver.com":              {},
	"rebuildingkoreaparty.kr":     {},
	"www.rebuildingkoreaparty.kr": {},
	"jinboparty.com":              {},
	"www.jinboparty.com":          {},
	"www.laborparty.kr":           {},
	"laborparty.kr":               {},
	"www.kgreens.org":             {},
	"kgreens.org":                 {},
	"www.justice21.org":           {},
	"justice21.org":               {},
}

// contentSelectors locate the body container, most specific editor and
// theme classes first.
var contentSelectors = []string{
	".ck-content",
	"article.newsArticle",
	".fr-view",
	"div.content",
	".content_box",
	".view_content",
	".kboard-document .kboard-content",
	".kboard-document-content",
	".entry-content",
	".view-content",
	".board_view .content",
	".board_view_content",
	".article_content",
	"#contents",
	".contents",
	"article",
}

// boilerplateSelector matches KBoard chrome that rides inside the content
// container and must not end up in the body.
const boilerplateSelector = ".kboard-title, .kboard-detail, .kboard-document-action, " +
	".kboard-document-navi, .kboard-control, .kboard-document-info, .kboard-attr"

var dateSelectors = []string{
	".date", ".view_date", ".write_date", ".info_date",
	".kboard-list-date", ".kboard-date",
}

const renderWaitTimeout = 10 * time.Second

// Enricher fetches detail pages, rendering script-hydrated sites through
// the headless surface when one is available.
type Enricher struct {
	fetcher  scrape.Fetcher
	renderer scrape.Renderer
	dates    *dates.Extractor
	logger   *zap.Logger
}

// New builds an Enricher. renderer may be nil; render-needed hosts then
// degrade to a plain fetch.
func New(fetcher scrape.Fetcher, renderer scrape.Renderer, extract *dates.Extractor, logger *zap.Logger) *Enricher {
	return &Enricher{fetcher: fetcher, renderer: renderer, dates: extract, logger: logger}
}

// Enrich returns the date and body paragraphs found on the detail page.
// A disallowed host returns empty values and no error.
func (e *Enricher) Enrich(ctx context.Context, rawURL string) (string, []string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("parse detail url: %w", err)
	}
	if _, ok := allowedHosts[parsed.Host]; !ok {
		return "", nil, nil
	}

	html, err := e.pageHTML(ctx, rawURL, parsed.Host)
	if err != nil {
		return "", nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", nil, fmt.Errorf("parse detail page: %w", err)
	}

	date := e.dateFrom(doc)

	var content *goquery.Selection
	for _, sel := range contentSelectors {
		el := doc.Find(sel).First()
		if el.Length() > 0 && strings.TrimSpace(el.Text()) != "" {
			content = el
			break
		}
	}

	return date, paragraphsFrom(content), nil
}

// renderPlan reports whether a host hydrates its detail pages client-side
// and which selector signals a finished render.
func renderPlan(host string) (waitSelector string, needed bool) {
	switch {
	case strings.Contains(host, "rebuildingkoreaparty"):
		return "", true
	case strings.Contains(host, "jinboparty.com"):
		return ".content_box", true
	}
	return "", false
}

func (e *Enricher) pageHTML(ctx context.Context, rawURL, host string) (string, error) {
	if waitSelector, needed := renderPlan(host); needed && e.renderer != nil {
		html, err := e.renderer.Render(ctx, rawURL, waitSelector, renderWaitTimeout)
		if err == nil {
			return html, nil
		}
		e.logger.Warn("render failed, falling back to plain fetch",
			zap.String("url", rawURL), zap.Error(err))
	}
	return e.fetcher.HTML(ctx, rawURL, scrape.FetchOptions{
		Headers:  map[string]string{"Referer": rawURL},
		Encoding: "auto",
	})
}

// dateFrom tries the known date elements, then the whole document.
func (e *Enricher) dateFrom(doc *goquery.Document) string {
	for _, sel := range dateSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if d := e.dates.Extract(strings.TrimSpace(el.Text())); d != "" {
			return d
		}
	}
	return e.dates.ExtractExplicit(doc.Text())
}

// paragraphsFrom extracts body text from the content container: its <p>
// elements when present, otherwise its text split into lines. Boilerplate
// is stripped from a detached clone so the document itself stays intact.
func paragraphsFrom(content *goquery.Selection) []string {
	if content == nil {
		return nil
	}
	cloned := content.Clone()
	cloned.Find(boilerplateSelector).Remove()

	var out []string
	cloned.Find("p").Each(func(_ int, p *goquery.Selection) {
		if txt := collapseSpace(p.Text()); txt != "" {
			out = append(out, txt)
		}
	})
	if len(out) > 0 {
		return out
	}

	for _, line := range strings.Split(cloned.Text(), "\n") {
		if txt := collapseSpace(line); txt != "" {
			out = append(out, txt)
		}
	}
	return out
}

func collapseSpace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
