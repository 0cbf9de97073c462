// Package publish performs the idempotent upsert of collected records into
// the destination workspace. The destination itself is an interface so the
// pipeline and its tests never touch the real API.
package publish

import "context"

// FieldKind classifies a destination schema field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindTitle
	KindSelect
	KindURL
	KindDate
)

// Schema maps destination field names to their kinds. It is fetched once
// per run and drives how records are encoded.
type Schema map[string]FieldKind

// TitleField returns the name of the schema's title field, if any.
func (s Schema) TitleField() (string, bool) {
	for name, kind := range s {
		if kind == KindTitle {
			return name, true
		}
	}
	return "", false
}

// Value is one encoded property: the kind tells the destination client
// which wire shape to use.
type Value struct {
	Kind  FieldKind
	Value string
}

// Destination is the external store surface the publisher writes to.
type Destination interface {
	// Schema fetches the field kind map.
	Schema(ctx context.Context) (Schema, error)
	// FindByLink reports whether a page whose link field equals rawURL
	// already exists.
	FindByLink(ctx context.Context, rawURL string) (bool, error)
	// CreatePage creates a page with the encoded properties and returns
	// its id.
	CreatePage(ctx context.Context, props map[string]Value) (string, error)
	// AppendParagraphs appends body chunks as paragraph blocks.
	AppendParagraphs(ctx context.Context, pageID string, chunks []string) error
}
