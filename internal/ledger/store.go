// Package ledger owns the live, ordered view of a user's transaction ledger.
// The Store holds at most one feed subscription at a time and exposes a
// read-only snapshot plus aggregates derived from that exact snapshot.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"billtracker/internal/core"
	"billtracker/internal/feed"
)

// Update is published to observers after every applied feed delivery. The
// summary is always computed from the entries carried alongside it.
type Update struct {
	Entries []core.LedgerEntry
	Summary core.Summary
}

// ObserverFunc receives updates. Observers get copies and never a handle
// into the store's internal state.
type ObserverFunc func(Update)

type Store struct {
	source feed.Source
	logger *slog.Logger

	// deliverMu serializes feed deliveries: a handler runs to completion
	// before the next delivery is processed.
	deliverMu sync.Mutex

	mu        sync.Mutex
	epoch     uint64
	sub       feed.Subscription
	userID    string
	entries   []core.LedgerEntry
	summary   core.Summary
	observers map[int]ObserverFunc
	nextObs   int
}

func NewStore(source feed.Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		source:    source,
		logger:    logger,
		observers: make(map[int]ObserverFunc),
	}
}

// Start begins a subscription scoped to userID, stopping any previous one
// first. An empty userID leaves the store with an empty ledger and no active
// subscription; gating on authentication state is the caller's job.
func (s *Store) Start(ctx context.Context, userID string) error {
	s.Stop()

	if strings.TrimSpace(userID) == "" {
		s.logger.Warn("Ledger start without user, keeping empty ledger")
		return nil
	}

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.userID = userID
	s.entries = nil
	s.summary = core.Summary{}
	s.mu.Unlock()

	sub, err := s.source.Subscribe(ctx, userID, func(docs []feed.Document) {
		s.handleDelivery(epoch, docs)
	})
	if err != nil {
		return fmt.Errorf("subscribe ledger feed: %w", err)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		// Stop or a newer Start won the race while we were subscribing.
		s.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	s.sub = sub
	s.mu.Unlock()

	s.logger.Info("Ledger subscription started", "user_id", userID)
	return nil
}

// Stop releases the active subscription and clears the snapshot. Calling it
// with no active subscription is a no-op.
func (s *Store) Stop() {
	s.mu.Lock()
	sub := s.sub
	userID := s.userID
	s.sub = nil
	s.userID = ""
	s.entries = nil
	s.summary = core.Summary{}
	s.epoch++ // invalidate deliveries still in flight
	s.mu.Unlock()

	if sub == nil {
		return
	}
	if err := sub.Unsubscribe(); err != nil {
		s.logger.Warn("Ledger unsubscribe failed", "user_id", userID, "error", err)
	}
	s.logger.Info("Ledger subscription stopped", "user_id", userID)
}

// Active reports whether a subscription is currently live.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil
}

// UserID returns the owner of the active subscription, or "".
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// handleDelivery replaces the whole snapshot from the delivered document set
// and recomputes the aggregates before anything becomes visible to readers.
// A delivery tagged with a stale epoch belongs to a previous subscription and
// is discarded.
func (s *Store) handleDelivery(epoch uint64, docs []feed.Document) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		s.logger.Debug("Discarding late feed delivery", "documents", len(docs))
		return
	}
	s.mu.Unlock()

	entries := s.normalize(docs)
	core.SortByDateDesc(entries)
	summary := core.Summarize(entries)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	s.entries = entries
	s.summary = summary
	observers := make([]ObserverFunc, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	update := Update{Entries: copyEntries(entries), Summary: summary}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(update)
	}
}

// normalize converts wire documents to ledger entries, tolerating malformed
// records so one bad document cannot blank the whole ledger: an absent date
// defaults to now, an absent title stays empty (deprecated compatibility
// shape), and records with an unknown type or non-positive amount are skipped
// with a warning. This is availability over strict integrity.
func (s *Store) normalize(docs []feed.Document) []core.LedgerEntry {
	now := time.Now()
	entries := make([]core.LedgerEntry, 0, len(docs))
	for _, d := range docs {
		typ := core.EntryType(d.Type)
		if !typ.Valid() {
			s.logger.Warn("Skipping feed record with unknown type", "id", d.ID, "type", d.Type)
			continue
		}
		if d.AmountCents <= 0 {
			s.logger.Warn("Skipping feed record with non-positive amount", "id", d.ID, "amount_cents", d.AmountCents)
			continue
		}
		date := d.Date
		if date.IsZero() {
			s.logger.Warn("Feed record missing date, defaulting to now", "id", d.ID)
			date = now
		}
		entries = append(entries, core.LedgerEntry{
			ID:            d.ID,
			Title:         d.Title,
			Amount:        core.Money{Cents: d.AmountCents},
			Type:          typ,
			Note:          d.Note,
			Date:          date,
			AttachmentURL: d.AttachmentURL,
		})
	}
	return entries
}

// Entries returns a copy of the current snapshot, newest first.
func (s *Store) Entries() []core.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyEntries(s.entries)
}

// EntriesFor returns a copy of the snapshot filtered to the window, evaluated
// at call time.
func (s *Store) EntriesFor(w core.Window) []core.LedgerEntry {
	entries := s.Entries()
	return core.FilterByWindow(entries, w, time.Now())
}

// Summary returns the aggregates derived from the current snapshot.
func (s *Store) Summary() core.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// SummaryFor recomputes the aggregates over the window subset at call time.
// Aggregation is cheap enough to run on every read, so nothing is cached.
func (s *Store) SummaryFor(w core.Window) core.Summary {
	return core.Summarize(s.EntriesFor(w))
}

// Recent returns up to n newest entries.
func (s *Store) Recent(n int) []core.LedgerEntry {
	if n < 0 {
		n = 0
	}
	entries := s.Entries()
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Notify registers an observer for snapshot updates and returns its cancel
// function. Cancel is idempotent.
func (s *Store) Notify(fn ObserverFunc) (cancel func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func copyEntries(in []core.LedgerEntry) []core.LedgerEntry {
	out := make([]core.LedgerEntry, len(in))
	copy(out, in)
	return out
}
