package core

import (
	"errors"
	"io"
	"strings"
	"time"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

type (
	// EntryType carries the direction of a ledger entry. Amounts are always
	// positive; the sign lives here.
	EntryType string

	Money struct {
		Cents int64
	}

	// LedgerEntry is one income or expense transaction as observed from the
	// remote feed. Entries are immutable once observed.
	LedgerEntry struct {
		ID            string
		Title         string
		Amount        Money
		Type          EntryType
		Note          string
		Date          time.Time
		AttachmentURL string
	}

	// Attachment is a local file handle carried by an unsaved draft.
	Attachment struct {
		Name    string
		Content io.Reader
	}

	// Draft is a not-yet-persisted entry. A draft may carry a local
	// attachment handle; a persisted entry carries a URL or nothing.
	Draft struct {
		Title      string
		Amount     Money
		Type       EntryType
		Note       string
		Date       time.Time
		Attachment *Attachment
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrInvalidType   = errors.New("invalid entry type")
	ErrInvalidDate   = errors.New("invalid date")
)

func (t EntryType) Valid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validator holds the acceptance rules applied before a draft is submitted.
// RequireTitle selects between the canonical schema (title required) and the
// deprecated compatibility shape that allowed untitled records.
type Validator struct {
	RequireTitle bool
}

// Validate checks a draft synchronously. It never touches the network and has
// no side effects; a failing draft is simply not submitted.
func (v Validator) Validate(d Draft) error {
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	title := strings.TrimSpace(d.Title)
	if v.RequireTitle && title == "" {
		return ErrEmptyTitle
	}
	if len(d.Title) > 200 {
		return ErrTitleTooLong
	}
	return nil
}

// Normalized returns the draft with a zero date replaced by the submission
// instant.
func (d Draft) Normalized(now time.Time) Draft {
	if d.Date.IsZero() {
		d.Date = now
	}
	return d
}
