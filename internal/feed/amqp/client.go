// Package amqp backs the ledger feed with RabbitMQ. Snapshots are published
// to a direct exchange with the user id as routing key; each subscription
// gets its own exclusive auto-delete queue so every subscriber sees every
// delivery for its user.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"billtracker/internal/feed"
)

type Client struct {
	conn         *amqp091.Connection
	pubChannel   *amqp091.Channel
	exchangeName string
}

func NewClient(url, exchangeName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		pubChannel:   channel,
		exchangeName: exchangeName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.pubChannel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// PublishSnapshot implements feed.Publisher.
func (c *Client) PublishSnapshot(ctx context.Context, userID string, docs []feed.Document) error {
	msg := feed.NewSnapshotMessage(userID, docs)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.pubChannel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		userID,         // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Published ledger snapshot",
		"user_id", userID,
		"documents", len(docs),
		"exchange", c.exchangeName)

	return nil
}

// Subscribe implements feed.Source. The subscription owns its own channel
// and queue; unsubscribing closes both.
func (c *Client) Subscribe(ctx context.Context, userID string, deliver feed.DeliverFunc) (feed.Subscription, error) {
	channel, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open subscription channel: %w", err)
	}

	queue, err := channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := channel.QueueBind(queue.Name, userID, c.exchangeName, false, nil); err != nil {
		channel.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := channel.Consume(
		queue.Name, // queue
		"",         // consumer
		false,      // auto-ack (we want manual ack)
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		channel.Close()
		return nil, fmt.Errorf("start consuming: %w", err)
	}

	sub := &subscription{channel: channel}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}

				msg, err := feed.SnapshotMessageFromJSON(delivery.Body)
				if err != nil {
					slog.ErrorContext(ctx, "Failed to unmarshal snapshot", "error", err)
					delivery.Nack(false, false) // reject and don't requeue
					continue
				}
				if msg.UserID != userID {
					delivery.Nack(false, false)
					continue
				}

				deliver(msg.Documents)
				delivery.Ack(false)
			}
		}
	}()

	slog.InfoContext(ctx, "Subscribed to ledger feed",
		"user_id", userID,
		"queue", queue.Name,
		"exchange", c.exchangeName)

	return sub, nil
}

type subscription struct {
	channel *amqp091.Channel
	once    sync.Once
	err     error
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.err = s.channel.Close()
	})
	return s.err
}

func (c *Client) Close() error {
	if c.pubChannel != nil {
		c.pubChannel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

var (
	_ feed.Source    = (*Client)(nil)
	_ feed.Publisher = (*Client)(nil)
)
