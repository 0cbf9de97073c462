package adapters

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// Rebuilding parses rebuildingkoreaparty.kr. The public site hydrates its
// news lists client-side, so the adapter calls the JSON board endpoint
// directly instead of scraping HTML.
type Rebuilding struct {
	Deps
}

const rebuildingAPIURL = "https://api.rebuildingkoreaparty.kr/api/board/list"

// rebuildingCategoryLabels maps listing paths to the category label the API
// reports for their posts.
var rebuildingCategoryLabels = map[string]string{
	"/news/commentary-briefing": "논평브리핑",
	"/news/press-conference":    "기자회견문",
	"/news/press-release":       "보도자료",
}

// rebuildingListKeys are tried in order; the record array lives under the
// first present one, sometimes nested inside "data".
var rebuildingListKeys = []string{"list", "items", "contents", "result"}

// rebuildingCreatedKeys are the field names the API has used for the
// creation timestamp across revisions.
var rebuildingCreatedKeys = []string{"createdAt", "date", "regDate"}

var rebuildingCategoryKeys = []string{
	"categoryName", "boardCategoryName", "category",
	"boardCategory", "categoryLabel", "categoryNm",
}

var rebuildingPostPathRe = regexp.MustCompile(`^/news/[^/]+/\d+$`)

// Site returns the registry tag.
func (a *Rebuilding) Site() string { return "rebuildingkoreaparty" }

// List calls the board endpoint and maps its heterogeneous rows onto
// records.
func (a *Rebuilding) List(ctx context.Context, t scrape.Target) ([]scrape.ListItem, error) {
	listURL, err := url.Parse(t.ListURL)
	if err != nil {
		return nil, fmt.Errorf("parse list url: %w", err)
	}
	path := strings.TrimRight(listURL.Path, "/")
	expectedLabel := rebuildingCategoryLabels[path]
	expectedSlug := ""
	if i := strings.Index(path, "/news/"); i >= 0 {
		expectedSlug = path[i+len("/news/"):]
	}

	payload := map[string]any{
		"page":       1,
		"categoryId": 7,
		"recordSize": 10,
		"pageSize":   5,
		"order":      "recent",
	}
	headers := map[string]string{
		"Accept":  "application/json, text/plain, */*",
		"Referer": "https://rebuildingkoreaparty.kr/",
	}

	var data map[string]any
	if err := a.Fetcher.PostJSON(ctx, rebuildingAPIURL, payload, headers, &data); err != nil {
		return nil, fmt.Errorf("board api: %w", err)
	}

	rows := extractRows(data)
	var out []scrape.ListItem
	seen := map[string]struct{}{}

	for _, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		title := firstString(row, "title", "subject")
		date := a.Dates.ExtractExplicit(firstString(row, rebuildingCreatedKeys...))
		category := firstString(row, rebuildingCategoryKeys...)

		href := firstString(row, "url", "path")
		if href != "" {
			abs, _, ok := resolveURL(t.ListURL, href)
			if !ok {
				continue
			}
			href = abs
			if expectedSlug != "" && !strings.Contains(href, "/news/"+expectedSlug+"/") {
				// A direct URL outside our slug is acceptable only when the
				// category label confirms it belongs to this listing.
				if expectedLabel == "" || category == "" || !strings.Contains(category, expectedLabel) {
					continue
				}
			}
		} else {
			postID := firstNumber(row, "id", "boardId", "idx")
			if postID == "" {
				continue
			}
			href = fmt.Sprintf("%s://%s%s/%s", listURL.Scheme, listURL.Host, path, postID)
		}

		if expectedLabel != "" && category != "" && !strings.Contains(category, expectedLabel) {
			continue
		}
		if expectedLabel != "" && category == "" {
			a.debugf(a.Site(), "category field empty", zap.String("url", href))
		}

		item, ok := a.candidate(t, title, href, date, seen)
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// candidate validates one row against the post-URL shape rules.
func (a *Rebuilding) candidate(t scrape.Target, title, href, date string, seen map[string]struct{}) (scrape.ListItem, bool) {
	href = strings.TrimSpace(href)
	if href == "" || isJavascriptHref(href) {
		return scrape.ListItem{}, false
	}

	abs, parsed, ok := resolveURL(t.ListURL, href)
	if !ok {
		return scrape.ListItem{}, false
	}
	if !hostContains(parsed, "rebuildingkoreaparty.kr") {
		return scrape.ListItem{}, false
	}
	if !rebuildingPostPathRe.MatchString(parsed.Path) {
		return scrape.ListItem{}, false
	}
	if sameListPage(abs, t.ListURL) {
		return scrape.ListItem{}, false
	}

	title = cleanTitle(title)
	if title == "" {
		return scrape.ListItem{}, false
	}
	if _, dup := seen[abs]; dup {
		return scrape.ListItem{}, false
	}
	seen[abs] = struct{}{}

	return scrape.ListItem{
		Party:    t.Party,
		Category: t.Category,
		Title:    title,
		URL:      abs,
		Date:     date,
	}, true
}

// extractRows finds the record array under the known keys, also checking
// one level down under "data".
func extractRows(data map[string]any) []any {
	if rows := rowsUnder(data); rows != nil {
		return rows
	}
	if nested, ok := data["data"].(map[string]any); ok {
		return rowsUnder(nested)
	}
	return nil
}

func rowsUnder(obj map[string]any) []any {
	for _, key := range rebuildingListKeys {
		if rows, ok := obj[key].([]any); ok {
			return rows
		}
	}
	return nil
}

// firstString returns the first non-empty string value among keys.
func firstString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := row[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// firstNumber returns the first numeric-ish value among keys, rendered as
// an integer string. JSON numbers arrive as float64.
func firstNumber(row map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := row[key].(type) {
		case float64:
			return fmt.Sprintf("%.0f", v)
		case string:
			if digitsRe.MatchString(strings.TrimSpace(v)) {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}
