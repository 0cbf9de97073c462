// Package notion implements the publish.Destination surface against the
// versioned Notion HTTP API.
package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/publish"
)

const (
	// appendBatchSize is the API's per-request block ceiling.
	appendBatchSize = 100
	appendPace      = 200 * time.Millisecond
)

// Client talks to one Notion database.
type Client struct {
	api        *notionapi.Client
	databaseID notionapi.DatabaseID
	logger     *zap.Logger
	sleep      func(time.Duration)
}

// New builds a Client for the given integration token and database.
func New(token, databaseID string, logger *zap.Logger) *Client {
	return &Client{
		api:        notionapi.NewClient(notionapi.Token(token)),
		databaseID: notionapi.DatabaseID(databaseID),
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Schema fetches the database's property map and reduces it to field kinds.
func (c *Client) Schema(ctx context.Context) (publish.Schema, error) {
	db, err := c.api.Database.Get(ctx, c.databaseID)
	if err != nil {
		return nil, fmt.Errorf("get database: %w", err)
	}

	schema := publish.Schema{}
	for name, cfg := range db.Properties {
		switch cfg.GetType() {
		case notionapi.PropertyConfigTypeTitle:
			schema[name] = publish.KindTitle
		case notionapi.PropertyConfigTypeSelect:
			schema[name] = publish.KindSelect
		case notionapi.PropertyConfigTypeURL:
			schema[name] = publish.KindURL
		case notionapi.PropertyConfigTypeDate:
			schema[name] = publish.KindDate
		default:
			schema[name] = publish.KindText
		}
	}
	return schema, nil
}

// FindByLink reports whether a page whose 링크 property equals rawURL
// already exists in the database.
func (c *Client) FindByLink(ctx context.Context, rawURL string) (bool, error) {
	resp, err := c.api.Database.Query(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "링크",
			RichText: &notionapi.TextFilterCondition{Equals: rawURL},
		},
		PageSize: 1,
	})
	if err != nil {
		return false, fmt.Errorf("query database: %w", err)
	}
	return len(resp.Results) > 0, nil
}

// CreatePage creates one database page from the encoded properties.
func (c *Client) CreatePage(ctx context.Context, props map[string]publish.Value) (string, error) {
	properties := notionapi.Properties{}
	for name, v := range props {
		prop, err := apiProperty(v)
		if err != nil {
			return "", fmt.Errorf("property %q: %w", name, err)
		}
		properties[name] = prop
	}

	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.databaseID,
		},
		Properties: properties,
	})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	return string(page.ID), nil
}

// AppendParagraphs appends body chunks as paragraph blocks, batched at the
// API ceiling with pacing between batches.
func (c *Client) AppendParagraphs(ctx context.Context, pageID string, chunks []string) error {
	if pageID == "" || len(chunks) == 0 {
		return nil
	}

	blocks := make([]notionapi.Block, 0, len(chunks))
	for _, chunk := range chunks {
		blocks = append(blocks, paragraphBlock(chunk))
	}

	for start := 0; start < len(blocks); start += appendBatchSize {
		end := start + appendBatchSize
		if end > len(blocks) {
			end = len(blocks)
		}
		_, err := c.api.Block.AppendChildren(ctx, notionapi.BlockID(pageID), &notionapi.AppendBlockChildrenRequest{
			Children: blocks[start:end],
		})
		if err != nil {
			return fmt.Errorf("append blocks: %w", err)
		}
		c.logger.Debug("appended block batch",
			zap.String("page_id", pageID), zap.Int("blocks", end-start))
		c.sleep(appendPace)
	}
	return nil
}

func apiProperty(v publish.Value) (notionapi.Property, error) {
	switch v.Kind {
	case publish.KindTitle:
		return notionapi.TitleProperty{Title: richText(v.Value)}, nil
	case publish.KindSelect:
		return notionapi.SelectProperty{Select: notionapi.Option{Name: v.Value}}, nil
	case publish.KindURL:
		return notionapi.URLProperty{URL: v.Value}, nil
	case publish.KindDate:
		parsed, err := time.Parse("2006-01-02", v.Value)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", v.Value, err)
		}
		start := notionapi.Date(parsed)
		return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}}, nil
	default:
		return notionapi.RichTextProperty{RichText: richText(v.Value)}, nil
	}
}

func paragraphBlock(text string) notionapi.Block {
	return notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{RichText: richText(text)},
	}
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: content}}}
}
