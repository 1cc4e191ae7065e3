// Package memory is an in-process feed backend used by tests and local
// development. Deliveries are synchronous fan-out.
package memory

import (
	"context"
	"sync"

	"billtracker/internal/feed"
)

type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	last   map[string][]feed.Document
}

type subscriber struct {
	userID  string
	deliver feed.DeliverFunc
}

func New() *Feed {
	return &Feed{
		subs: make(map[int]*subscriber),
		last: make(map[string][]feed.Document),
	}
}

// Subscribe registers the handler and immediately delivers the last known
// document set for the user, so subscribers always start from current state.
func (f *Feed) Subscribe(_ context.Context, userID string, deliver feed.DeliverFunc) (feed.Subscription, error) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = &subscriber{userID: userID, deliver: deliver}
	initial := copyDocs(f.last[userID])
	f.mu.Unlock()

	deliver(initial)
	return &subscription{feed: f, id: id}, nil
}

// PublishSnapshot replaces the stored set for the user and fans it out to
// every matching subscriber.
func (f *Feed) PublishSnapshot(_ context.Context, userID string, docs []feed.Document) error {
	f.mu.Lock()
	f.last[userID] = copyDocs(docs)
	var targets []feed.DeliverFunc
	for _, s := range f.subs {
		if s.userID == userID {
			targets = append(targets, s.deliver)
		}
	}
	f.mu.Unlock()

	for _, deliver := range targets {
		deliver(copyDocs(docs))
	}
	return nil
}

// SubscriberCount reports live subscriptions for a user. Test helper.
func (f *Feed) SubscriberCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subs {
		if s.userID == userID {
			n++
		}
	}
	return n
}

type subscription struct {
	feed *Feed
	id   int
	once sync.Once
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s.id)
		s.feed.mu.Unlock()
	})
	return nil
}

func copyDocs(in []feed.Document) []feed.Document {
	out := make([]feed.Document, len(in))
	copy(out, in)
	return out
}

var (
	_ feed.Source    = (*Feed)(nil)
	_ feed.Publisher = (*Feed)(nil)
)
