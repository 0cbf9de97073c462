package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

type fakeDest struct {
	schema    Schema
	schemaErr error
	existing  map[string]bool
	findErr   error
	createErr error

	finds   []string
	creates []map[string]Value
	appends [][]string
}

func (d *fakeDest) Schema(context.Context) (Schema, error) {
	return d.schema, d.schemaErr
}

func (d *fakeDest) FindByLink(_ context.Context, rawURL string) (bool, error) {
	d.finds = append(d.finds, rawURL)
	return d.existing[rawURL], d.findErr
}

func (d *fakeDest) CreatePage(_ context.Context, props map[string]Value) (string, error) {
	if d.createErr != nil {
		return "", d.createErr
	}
	d.creates = append(d.creates, props)
	return "page-1", nil
}

func (d *fakeDest) AppendParagraphs(_ context.Context, _ string, chunks []string) error {
	d.appends = append(d.appends, chunks)
	return nil
}

type fakeEnricher struct {
	date       string
	paragraphs []string
	err        error
	urls       []string
}

func (e *fakeEnricher) Enrich(_ context.Context, rawURL string) (string, []string, error) {
	e.urls = append(e.urls, rawURL)
	return e.date, e.paragraphs, e.err
}

func fullSchema() Schema {
	return Schema{
		"이름":   KindTitle,
		"정당":   KindSelect,
		"카테고리": KindText,
		"날짜":   KindDate,
		"링크":   KindURL,
	}
}

func newTestPublisher(dest Destination, enricher scrape.Enricher, cfg Config) *Publisher {
	p := New(dest, enricher, cfg, zap.NewNop())
	p.SetSleep(func(time.Duration) {})
	return p
}

func record(url string) scrape.ListItem {
	return scrape.ListItem{
		Party:    "녹색당",
		Category: "논평",
		Title:    "녹색당 논평 제목",
		URL:      url,
		Date:     "2026-03-08",
		Body:     []string{"본문 문단."},
	}
}

func TestPublishDedupsOnCanonicalURL(t *testing.T) {
	dest := &fakeDest{schema: fullSchema()}
	p := newTestPublisher(dest, nil, Config{})

	// Same post under two surface forms of the URL.
	sum, err := p.Publish(context.Background(), []scrape.ListItem{
		record("http://www.kgreens.org/commentary/1021/"),
		record("https://kgreens.org/commentary/1021"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 0, sum.Skipped)
	require.Len(t, dest.creates, 1)
	require.Len(t, dest.finds, 1)
}

func TestPublishSkipsExistingPage(t *testing.T) {
	url := "https://kgreens.org/commentary/1021"
	dest := &fakeDest{schema: fullSchema(), existing: map[string]bool{url: true}}
	p := newTestPublisher(dest, nil, Config{})

	sum, err := p.Publish(context.Background(), []scrape.ListItem{record(url)})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Created)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, dest.creates)
}

func TestPublishAbortsOnMalformedSchema(t *testing.T) {
	t.Run("missing required field", func(t *testing.T) {
		schema := fullSchema()
		delete(schema, "날짜")
		dest := &fakeDest{schema: schema}
		p := newTestPublisher(dest, nil, Config{})

		_, err := p.Publish(context.Background(), []scrape.ListItem{record("https://kgreens.org/commentary/1")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "날짜")
		assert.Empty(t, dest.finds)
		assert.Empty(t, dest.creates)
	})

	t.Run("no title field", func(t *testing.T) {
		schema := fullSchema()
		delete(schema, "이름")
		dest := &fakeDest{schema: schema}
		p := newTestPublisher(dest, nil, Config{})

		_, err := p.Publish(context.Background(), []scrape.ListItem{record("https://kgreens.org/commentary/1")})
		require.Error(t, err)
		assert.Empty(t, dest.creates)
	})
}

func TestPublishEncodesPerSchemaKind(t *testing.T) {
	dest := &fakeDest{schema: fullSchema()}
	p := newTestPublisher(dest, nil, Config{
		CategoryRenames: map[string]string{"논평": "논평·브리핑"},
	})

	_, err := p.Publish(context.Background(), []scrape.ListItem{record("https://kgreens.org/commentary/1021")})
	require.NoError(t, err)
	require.Len(t, dest.creates, 1)

	props := dest.creates[0]
	assert.Equal(t, Value{Kind: KindTitle, Value: "녹색당 논평 제목"}, props["이름"])
	assert.Equal(t, Value{Kind: KindSelect, Value: "녹색당"}, props["정당"])
	assert.Equal(t, Value{Kind: KindText, Value: "논평·브리핑"}, props["카테고리"])
	assert.Equal(t, Value{Kind: KindURL, Value: "https://kgreens.org/commentary/1021"}, props["링크"])
	assert.Equal(t, Value{Kind: KindDate, Value: "2026-03-08"}, props["날짜"])
}

func TestPublishOmitsAbsentDate(t *testing.T) {
	dest := &fakeDest{schema: fullSchema()}
	p := newTestPublisher(dest, nil, Config{})

	it := record("https://kgreens.org/commentary/1021")
	it.Date = ""
	_, err := p.Publish(context.Background(), []scrape.ListItem{it})
	require.NoError(t, err)
	require.Len(t, dest.creates, 1)

	_, hasDate := dest.creates[0]["날짜"]
	assert.False(t, hasDate)
}

func TestPublishEnrichesMissingBody(t *testing.T) {
	dest := &fakeDest{schema: fullSchema()}
	enricher := &fakeEnricher{date: "2026-03-01", paragraphs: []string{"복원된 본문."}}
	p := newTestPublisher(dest, enricher, Config{})

	it := record("https://kgreens.org/commentary/1021")
	it.Date = ""
	it.Body = nil
	sum, err := p.Publish(context.Background(), []scrape.ListItem{it})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, []string{it.URL}, enricher.urls)
	assert.Equal(t, Value{Kind: KindDate, Value: "2026-03-01"}, dest.creates[0]["날짜"])
	require.Len(t, dest.appends, 1)
	assert.Equal(t, []string{"복원된 본문."}, dest.appends[0])
}

func TestPublishSkipsRecordOnEnrichFailure(t *testing.T) {
	dest := &fakeDest{schema: fullSchema()}
	enricher := &fakeEnricher{err: errors.New("detail fetch timeout")}
	p := newTestPublisher(dest, enricher, Config{})

	it := record("https://kgreens.org/commentary/1021")
	it.Body = nil
	sum, err := p.Publish(context.Background(), []scrape.ListItem{it})
	require.NoError(t, err)

	// No bodyless page gets created; the record stays unpublished so the
	// next run retries the detail fetch.
	assert.Equal(t, 0, sum.Created)
	assert.Empty(t, dest.creates)
	assert.Equal(t, []string{it.URL}, enricher.urls)
}

func TestPublishExcludedURL(t *testing.T) {
	url := "https://www.justice21.org/newhome/board/board_view.html?num=109587"
	dest := &fakeDest{schema: fullSchema()}
	p := newTestPublisher(dest, nil, Config{ExcludedURLs: []string{url}})

	// Both the raw form and a canonical-equivalent form are blocked.
	sum, err := p.Publish(context.Background(), []scrape.ListItem{
		record(url),
		record("http://justice21.org/newhome/board/board_view.html?num=109587"),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Created)
	assert.Empty(t, dest.finds)
}

func TestPublishContinuesAfterRecordFailure(t *testing.T) {
	dest := &fakeDest{schema: fullSchema(), findErr: errors.New("api down")}
	p := newTestPublisher(dest, nil, Config{})

	sum, err := p.Publish(context.Background(), []scrape.ListItem{
		record("https://kgreens.org/commentary/1021"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Created)
}
