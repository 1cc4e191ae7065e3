// Package kafka backs the ledger feed with a Kafka topic. Messages are keyed
// by user id, which keeps per-user deliveries ordered within a partition;
// subscribers filter on the key.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"

	"billtracker/internal/feed"
)

type Client struct {
	writer  *kafka.Writer
	brokers []string
	topic   string
	group   string
}

func NewClient(brokers []string, topic, group string) *Client {
	return &Client{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		brokers: brokers,
		topic:   topic,
		group:   group,
	}
}

// PublishSnapshot implements feed.Publisher.
func (c *Client) PublishSnapshot(ctx context.Context, userID string, docs []feed.Document) error {
	msg := feed.NewSnapshotMessage(userID, docs)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	err = c.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: body,
	})
	if err != nil {
		return fmt.Errorf("write snapshot message: %w", err)
	}

	slog.InfoContext(ctx, "Published ledger snapshot",
		"user_id", userID,
		"documents", len(docs),
		"topic", c.topic)

	return nil
}

// Subscribe implements feed.Source. Each subscription runs its own reader in
// a dedicated consumer group so every subscriber sees every delivery.
func (c *Client) Subscribe(ctx context.Context, userID string, deliver feed.DeliverFunc) (feed.Subscription, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: c.brokers,
		Topic:   c.topic,
		GroupID: fmt.Sprintf("%s-%s", c.group, userID),
	})

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{reader: reader, cancel: cancel}

	go func() {
		for {
			m, err := reader.ReadMessage(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					slog.ErrorContext(subCtx, "Feed read failed", "error", err)
				}
				return
			}
			if string(m.Key) != userID {
				continue
			}

			msg, err := feed.SnapshotMessageFromJSON(m.Value)
			if err != nil {
				slog.ErrorContext(subCtx, "Failed to unmarshal snapshot", "error", err)
				continue
			}

			deliver(msg.Documents)
		}
	}()

	slog.InfoContext(ctx, "Subscribed to ledger feed",
		"user_id", userID,
		"topic", c.topic)

	return sub, nil
}

type subscription struct {
	reader *kafka.Reader
	cancel context.CancelFunc
	once   sync.Once
	err    error
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.cancel()
		s.err = s.reader.Close()
	})
	return s.err
}

func (c *Client) Close() error {
	return c.writer.Close()
}

var (
	_ feed.Source    = (*Client)(nil)
	_ feed.Publisher = (*Client)(nil)
)
