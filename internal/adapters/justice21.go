package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// Justice21 parses justice21.org. The board paginates aggressively and the
// first page can be thin, so the adapter walks pages sequentially until a
// page contributes nothing new or the page cap is reached.
type Justice21 struct {
	Deps
}

const justice21MaxPages = 5

// Site returns the registry tag.
func (a *Justice21) Site() string { return "justice21" }

// List walks listing pages and extracts candidate records.
func (a *Justice21) List(ctx context.Context, t scrape.Target) ([]scrape.ListItem, error) {
	listParsed, err := url.Parse(t.ListURL)
	if err != nil {
		return nil, fmt.Errorf("parse list url: %w", err)
	}
	expectedCode := listParsed.Query().Get("bbs_code")

	col := &justice21Collector{
		target:       t,
		expectedCode: expectedCode,
		seen:         map[string]struct{}{},
	}

	for page := 1; page <= justice21MaxPages; page++ {
		pageURL := justice21PageURL(listParsed, page)
		before := len(col.items)

		if err := a.listPage(ctx, col, pageURL); err != nil {
			if page == 1 {
				return nil, err
			}
			a.Logger.Warn("page fetch failed, stopping pagination",
				zap.String("site", a.Site()), zap.Int("page", page), zap.Error(err))
			break
		}
		if len(col.items) == before {
			break
		}
	}

	return col.items, nil
}

func (a *Justice21) listPage(ctx context.Context, col *justice21Collector, pageURL string) error {
	html, err := a.Fetcher.HTML(ctx, pageURL, scrape.FetchOptions{
		Headers:  map[string]string{"Referer": col.target.ListURL},
		Encoding: "auto",
	})
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse listing: %w", err)
	}

	doc.Find("a[href*='board_view']").Each(func(_ int, anchor *goquery.Selection) {
		row := anchor.Closest("li, tr")
		title := cleanTitle(anchor.Text())
		if title == "" && row.Length() > 0 {
			title = titleFromNode(row, ".title", ".subject", ".tit")
		}

		date := ""
		if row.Length() > 0 {
			date = dateFromNode(a.Dates, row, ".date", ".time", "td.date")
		}

		href, _ := anchor.Attr("href")
		col.add(title, href, date)
	})
	return nil
}

// justice21PageURL sets the page selector on a copy of the listing URL.
func justice21PageURL(listURL *url.URL, page int) string {
	if page <= 1 {
		return listURL.String()
	}
	paged := *listURL
	q := paged.Query()
	q.Set("page", strconv.Itoa(page))
	paged.RawQuery = q.Encode()
	return paged.String()
}

type justice21Collector struct {
	target       scrape.Target
	expectedCode string
	seen         map[string]struct{}
	items        []scrape.ListItem
}

// add validates one candidate post link against the board identity rules.
func (c *justice21Collector) add(title, href, date string) {
	href = strings.TrimSpace(href)
	if href == "" || isJavascriptHref(href) {
		return
	}

	abs, parsed, ok := resolveURL(c.target.ListURL, href)
	if !ok {
		return
	}
	if !hostContains(parsed, "justice21.org") {
		return
	}
	if !strings.Contains(parsed.Path, "board_view") {
		return
	}

	// Legacy post links carry only a num and no board code; a missing code
	// is accepted, only an explicit mismatch rejects.
	q := parsed.Query()
	if code := q.Get("bbs_code"); c.expectedCode != "" && code != "" && code != c.expectedCode {
		return
	}
	postID := ""
	for _, key := range []string{"bbs_no", "num", "no"} {
		if v := q.Get(key); digitsRe.MatchString(v) {
			postID = v
			break
		}
	}
	if postID == "" {
		return
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
