// Package services orchestrates bill submission: validate, upload the
// attachment, persist, then refresh the user's feed.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"billtracker/internal/blob"
	"billtracker/internal/core"
	"billtracker/internal/feed"
)

var ErrMissingUser = errors.New("missing user id")

// BillStore is the slice of the persistence collaborator the service needs.
type BillStore interface {
	Append(ctx context.Context, userID string, e core.LedgerEntry) (string, error)
	ListByUser(ctx context.Context, userID string) ([]core.LedgerEntry, error)
}

// BillService accepts draft entries and drives them through the write path.
// The ledger snapshot itself only ever changes via the read feed, so a failed
// write leaves it untouched.
type BillService struct {
	store     BillStore
	publisher feed.Publisher
	blobs     blob.Store
	validator core.Validator
}

func NewBillService(store BillStore, publisher feed.Publisher, blobs blob.Store, validator core.Validator) *BillService {
	return &BillService{
		store:     store,
		publisher: publisher,
		blobs:     blobs,
		validator: validator,
	}
}

// Submit validates the draft, uploads its attachment if any, persists the
// bill, and republishes the user's full document set. Validation failures
// reject the draft before anything touches the network. A publish failure is
// logged but does not fail the submission; the periodic republisher is the
// backup path.
func (s *BillService) Submit(ctx context.Context, userID string, d core.Draft) (string, error) {
	if userID == "" {
		return "", ErrMissingUser
	}

	d = d.Normalized(time.Now())
	if err := s.validator.Validate(d); err != nil {
		return "", err
	}

	entry := core.LedgerEntry{
		Title:  d.Title,
		Amount: d.Amount,
		Type:   d.Type,
		Note:   d.Note,
		Date:   d.Date,
	}

	if d.Attachment != nil {
		if s.blobs == nil {
			return "", errors.New("attachment submitted but no blob store configured")
		}
		url, err := s.blobs.Put(ctx, d.Attachment.Name, d.Attachment.Content)
		if err != nil {
			return "", fmt.Errorf("upload attachment: %w", err)
		}
		entry.AttachmentURL = url
	}

	id, err := s.store.Append(ctx, userID, entry)
	if err != nil {
		return "", fmt.Errorf("save bill: %w", err)
	}

	if err := s.Republish(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to republish ledger feed",
			"user_id", userID, "bill_id", id, "error", err)
		// Bill is saved; the feed catches up on the next republish.
	}

	return id, nil
}

// Republish pushes the user's full current document set to the feed.
func (s *BillService) Republish(ctx context.Context, userID string) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "No feed publisher configured, skipping republish", "user_id", userID)
		return nil
	}

	entries, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list bills: %w", err)
	}

	if err := s.publisher.PublishSnapshot(ctx, userID, feed.FromEntries(entries)); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	return nil
}
