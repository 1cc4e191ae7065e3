// Package feed defines the remote ledger source: an ordered, live-updating
// document feed keyed by user identity. Every delivery carries the full
// current document set for the user, never an incremental patch.
package feed

import (
	"context"
	"time"

	"billtracker/internal/core"
)

// Document is the wire shape of one ledger record as carried by the feed.
type Document struct {
	ID            string    `json:"id"`
	Title         string    `json:"title,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	Type          string    `json:"type"`
	Note          string    `json:"note,omitempty"`
	Date          time.Time `json:"date"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
}

// DeliverFunc receives the full document set on each feed event.
type DeliverFunc func(docs []Document)

// Ports for feed backends.
type (
	Source interface {
		// Subscribe starts delivery of document sets scoped to userID.
		// Implementations deliver the current set promptly after subscribing
		// and then on every change.
		Subscribe(ctx context.Context, userID string, deliver DeliverFunc) (Subscription, error)
	}

	Subscription interface {
		// Unsubscribe stops delivery. It is idempotent.
		Unsubscribe() error
	}

	Publisher interface {
		// PublishSnapshot pushes the user's full current document set to all
		// subscribers of that user.
		PublishSnapshot(ctx context.Context, userID string, docs []Document) error
	}
)

// FromEntry converts a persisted ledger entry to its wire shape.
func FromEntry(e core.LedgerEntry) Document {
	return Document{
		ID:            e.ID,
		Title:         e.Title,
		AmountCents:   e.Amount.Cents,
		Type:          string(e.Type),
		Note:          e.Note,
		Date:          e.Date,
		AttachmentURL: e.AttachmentURL,
	}
}

// FromEntries converts a full entry set, preserving order.
func FromEntries(entries []core.LedgerEntry) []Document {
	docs := make([]Document, len(entries))
	for i, e := range entries {
		docs[i] = FromEntry(e)
	}
	return docs
}
