// Package backend selects and wires the feed transport used as the remote
// ledger source.
package backend

import (
	"billtracker/internal/feed"
)

// Type identifies a feed transport.
type Type string

const (
	MemoryBackend Type = "memory"
	AMQPBackend   Type = "amqp"
	KafkaBackend  Type = "kafka"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is recognized.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, AMQPBackend, KafkaBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{MemoryBackend, AMQPBackend, KafkaBackend}
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result carries the wired feed endpoints plus an optional cleanup function.
type Result struct {
	Source    feed.Source
	Publisher feed.Publisher
	Cleanup   CleanupFunc
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// AMQP specific
	AMQPURL      string
	AMQPExchange string

	// Kafka specific
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string
}
