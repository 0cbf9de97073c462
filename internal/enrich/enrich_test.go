package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/dates"
	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

type fakeFetcher struct {
	pages    map[string]string
	requests []string
}

func (f *fakeFetcher) HTML(_ context.Context, url string, _ scrape.FetchOptions) (string, error) {
	f.requests = append(f.requests, url)
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return html, nil
}

func (f *fakeFetcher) PostJSON(context.Context, string, any, map[string]string, any) error {
	return errors.New("not used")
}

type fakeRenderer struct {
	html     string
	err      error
	rendered []string
	waited   []string
}

func (r *fakeRenderer) Render(_ context.Context, url, waitSelector string, _ time.Duration) (string, error) {
	r.rendered = append(r.rendered, url)
	r.waited = append(r.waited, waitSelector)
	return r.html, r.err
}

func testExtractor() *dates.Extractor {
	return &dates.Extractor{
		Now: func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	}
}

func TestEnrichDisallowedHostIsEmpty(t *testing.T) {
	f := &fakeFetcher{}
	e := New(f, nil, testExtractor(), zap.NewNop())

	date, paras, err := e.Enrich(context.Background(), "https://news.example.com/article/1")
	require.NoError(t, err)
	assert.Empty(t, date)
	assert.Empty(t, paras)
	assert.Empty(t, f.requests)
}

func TestEnrichParagraphsAndDate(t *testing.T) {
	pageURL := "https://www.laborparty.kr/board?mod=document&uid=991"
	f := &fakeFetcher{pages: map[string]string{pageURL: `
		<div class="view_date">2026.03.07</div>
		<div class="kboard-document"><div class="kboard-content">
		  <div class="kboard-document-info">첨부파일 안내</div>
		  <p>첫번째 문단입니다.</p>
		  <p>  </p>
		  <p>두번째   문단입니다.</p>
		</div></div>`}}
	e := New(f, nil, testExtractor(), zap.NewNop())

	date, paras, err := e.Enrich(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-07", date)
	assert.Equal(t, []string{"첫번째 문단입니다.", "두번째 문단입니다."}, paras)
}

func TestEnrichLineSplitFallback(t *testing.T) {
	pageURL := "https://www.kgreens.org/commentary/1021"
	f := &fakeFetcher{pages: map[string]string{pageURL: `
		<div class="fr-view">녹색당은 다음과 같이 밝힙니다.
성명 본문 둘째 줄.</div>`}}
	e := New(f, nil, testExtractor(), zap.NewNop())

	_, paras, err := e.Enrich(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Equal(t, []string{"녹색당은 다음과 같이 밝힙니다.", "성명 본문 둘째 줄."}, paras)
}

func TestEnrichRendersHydratedHosts(t *testing.T) {
	pageURL := "https://jinboparty.com/main/board.html?b=news&bn=5120&m=read"
	r := &fakeRenderer{html: `
		<div class="view_date">2026-03-06</div>
		<div class="content_box"><p>진보당 논평 본문.</p></div>`}
	f := &fakeFetcher{}
	e := New(f, r, testExtractor(), zap.NewNop())

	date, paras, err := e.Enrich(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-06", date)
	assert.Equal(t, []string{"진보당 논평 본문."}, paras)
	assert.Equal(t, []string{".content_box"}, r.waited)
	assert.Empty(t, f.requests)
}

func TestEnrichRenderFailureFallsBackToFetch(t *testing.T) {
	pageURL := "https://rebuildingkoreaparty.kr/news/commentary-briefing/771"
	r := &fakeRenderer{err: errors.New("browser unavailable")}
	f := &fakeFetcher{pages: map[string]string{pageURL: `
		<div class="ck-content"><p>조국혁신당 논평 본문.</p></div>`}}
	e := New(f, r, testExtractor(), zap.NewNop())

	_, paras, err := e.Enrich(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Equal(t, []string{"조국혁신당 논평 본문."}, paras)
	assert.Equal(t, []string{pageURL}, r.rendered)
	assert.Equal(t, []string{pageURL}, f.requests)
}

func TestEnrichNoContentContainer(t *testing.T) {
	pageURL := "https://www.samindang.kr/news/briefing/301"
	f := &fakeFetcher{pages: map[string]string{pageURL: `
		<div class="date">2026-03-02</div>
		<nav>메뉴</nav>`}}
	e := New(f, nil, testExtractor(), zap.NewNop())

	date, paras, err := e.Enrich(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", date)
	assert.Empty(t, paras)
}
