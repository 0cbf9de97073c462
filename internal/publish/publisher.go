package publish

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
	"github.com/jinwoo-dev/partywatch/internal/urlnorm"
)

// requiredFields must exist in the destination schema before any write
// happens; a schema missing one aborts the whole publish phase.
var requiredFields = []string{"정당", "카테고리", "날짜", "링크"}

const defaultCreatePace = 200 * time.Millisecond

// Config adjusts publish behavior.
type Config struct {
	// ExcludedURLs are pages that must never be published, matched on both
	// the raw and the canonical form.
	ExcludedURLs []string
	// CategoryRenames collapses source-specific category labels onto
	// canonical ones.
	CategoryRenames map[string]string
	// CreatePace is the delay after each successful create.
	CreatePace time.Duration
}

// Summary reports what one publish pass did.
type Summary struct {
	Created int
	Skipped int
}

// Publisher writes records to a Destination exactly once: canonical-URL
// dedup within the run, a link-equality lookup against the store across
// runs.
type Publisher struct {
	dest     Destination
	enricher scrape.Enricher
	norm     *urlnorm.Normalizer
	cfg      Config
	logger   *zap.Logger
	sleep    func(time.Duration)

	excluded map[string]struct{}
}

// New builds a Publisher. enricher may be nil; records without a body are
// then published without one.
func New(dest Destination, enricher scrape.Enricher, cfg Config, logger *zap.Logger) *Publisher {
	if cfg.CreatePace <= 0 {
		cfg.CreatePace = defaultCreatePace
	}
	p := &Publisher{
		dest:     dest,
		enricher: enricher,
		norm:     urlnorm.New(nil),
		cfg:      cfg,
		logger:   logger,
		sleep:    time.Sleep,
		excluded: map[string]struct{}{},
	}
	for _, raw := range cfg.ExcludedURLs {
		p.excluded[raw] = struct{}{}
		if canonical, err := p.norm.Normalize(raw); err == nil {
			p.excluded[canonical] = struct{}{}
		}
	}
	return p
}

// SetSleep replaces the pacing sleep, for tests.
func (p *Publisher) SetSleep(fn func(time.Duration)) { p.sleep = fn }

// Publish upserts records in input order. Per-record failures are logged
// and skipped; only a malformed destination schema fails the whole phase.
func (p *Publisher) Publish(ctx context.Context, items []scrape.ListItem) (Summary, error) {
	var sum Summary

	schema, err := p.dest.Schema(ctx)
	if err != nil {
		return sum, fmt.Errorf("fetch destination schema: %w", err)
	}
	titleField, ok := schema.TitleField()
	if !ok {
		return sum, fmt.Errorf("destination schema has no title field")
	}
	var missing []string
	for _, name := range requiredFields {
		if _, ok := schema[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return sum, fmt.Errorf("destination schema missing fields: %v", missing)
	}

	seen := map[string]struct{}{}
	for _, it := range items {
		if it.Title == "" || it.URL == "" {
			continue
		}

		key := it.URL
		if canonical, err := p.norm.Normalize(it.URL); err == nil {
			key = canonical
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if p.isExcluded(it.URL, key) {
			continue
		}
		seen[key] = struct{}{}

		if label, ok := p.cfg.CategoryRenames[it.Category]; ok {
			it = it.WithCategory(label)
		}

		if err := p.publishOne(ctx, schema, titleField, it, &sum); err != nil {
			p.logger.Error("publish failed", zap.String("url", it.URL), zap.Error(err))
		}
	}

	p.logger.Info("publish finished",
		zap.Int("created", sum.Created), zap.Int("skipped", sum.Skipped))
	return sum, nil
}

func (p *Publisher) publishOne(ctx context.Context, schema Schema, titleField string, it scrape.ListItem, sum *Summary) error {
	exists, err := p.dest.FindByLink(ctx, it.URL)
	if err != nil {
		return fmt.Errorf("lookup by link: %w", err)
	}
	if exists {
		sum.Skipped++
		return nil
	}

	// A failed detail fetch skips the record instead of creating a bodyless
	// page; the link lookup would otherwise skip the URL on every later run
	// and the body would never be recovered.
	body := it.Body
	if len(body) == 0 && p.enricher != nil {
		date, paragraphs, err := p.enricher.Enrich(ctx, it.URL)
		if err != nil {
			return fmt.Errorf("fetch detail: %w", err)
		}
		body = paragraphs
		if date != "" && it.Date == "" {
			it = it.WithDate(date)
		}
	}

	pageID, err := p.dest.CreatePage(ctx, p.encode(schema, titleField, it))
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	if chunks := Chunks(body); len(chunks) > 0 {
		if err := p.dest.AppendParagraphs(ctx, pageID, chunks); err != nil {
			return fmt.Errorf("append body: %w", err)
		}
	}

	sum.Created++
	p.sleep(p.cfg.CreatePace)
	return nil
}

// encode maps the record onto the destination schema. Single-choice fields
// get choice values, free text is the safe default for anything
// unrecognized, and the date is omitted when absent.
func (p *Publisher) encode(schema Schema, titleField string, it scrape.ListItem) map[string]Value {
	props := map[string]Value{
		titleField: {Kind: KindTitle, Value: it.Title},
		"링크":       encodeAs(schema["링크"], it.URL),
		"정당":       encodeAs(schema["정당"], it.Party),
		"카테고리":     encodeAs(schema["카테고리"], it.Category),
	}
	if it.Date != "" {
		props["날짜"] = Value{Kind: KindDate, Value: it.Date}
	}
	return props
}

func encodeAs(kind FieldKind, value string) Value {
	switch kind {
	case KindSelect, KindURL, KindDate:
		return Value{Kind: kind, Value: value}
	default:
		return Value{Kind: KindText, Value: value}
	}
}

func (p *Publisher) isExcluded(raw, canonical string) bool {
	if _, ok := p.excluded[raw]; ok {
		return true
	}
	_, ok := p.excluded[canonical]
	return ok
}
