// Package history defines the generated-result record and the reconciler
// that bridges the two-tier durable storage with the in-memory, fully
// hydrated list the rest of the app works against.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/maribel/hairstudio/internal/image"
	"github.com/maribel/hairstudio/internal/store/metastore"
)

// PayloadKind distinguishes the two representations an image payload can
// take over a record's lifetime.
type PayloadKind int

const (
	// PayloadInline carries the full image bytes as a data URL.
	PayloadInline PayloadKind = iota
	// PayloadReference carries only the record id; the bytes live in the
	// blob store.
	PayloadReference
)

// Payload is an explicit tagged variant, replacing the original's
// string-prefix sniffing with a resolved kind.
type Payload struct {
	Kind  PayloadKind
	Value string
}

func InlinePayload(dataURL string) Payload {
	return Payload{Kind: PayloadInline, Value: dataURL}
}

func ReferencePayload(id string) Payload {
	return Payload{Kind: PayloadReference, Value: id}
}

func (p Payload) IsInline() bool {
	return p.Kind == PayloadInline
}

// payloadFromWire classifies a persisted url field. Inline data URLs are
// recognizable by their prefix; everything else is a blob reference.
func payloadFromWire(s string) Payload {
	if image.IsInline(s) {
		return InlinePayload(s)
	}
	return ReferencePayload(s)
}

// Result is one entry of the styling history.
type Result struct {
	ID        string
	Payload   Payload
	Prompt    string
	Title     string
	Timestamp int64 // milliseconds since epoch
}

// NewResult builds a fresh history entry around an inline image payload.
func NewResult(inline, prompt, title string) Result {
	return Result{
		ID:        uuid.New().String(),
		Payload:   InlinePayload(inline),
		Prompt:    prompt,
		Title:     title,
		Timestamp: time.Now().UnixMilli(),
	}
}

// CreatedAt returns the creation time as a time.Time.
func (r Result) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// ToRecord projects the result to its metadata-only persisted form: the
// payload is always written as a reference, never as inline bytes.
func (r Result) ToRecord() metastore.Record {
	return metastore.Record{
		ID:        r.ID,
		URL:       r.ID,
		Prompt:    r.Prompt,
		Title:     r.Title,
		Timestamp: r.Timestamp,
	}
}

func fromRecord(rec metastore.Record) Result {
	return Result{
		ID:        rec.ID,
		Payload:   payloadFromWire(rec.URL),
		Prompt:    rec.Prompt,
		Title:     rec.Title,
		Timestamp: rec.Timestamp,
	}
}
