package backend

import (
	"fmt"
	"log/slog"

	feedamqp "billtracker/internal/feed/amqp"
	feedkafka "billtracker/internal/feed/kafka"
	feedmem "billtracker/internal/feed/memory"
)

// Factory creates feed backends based on configuration.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new feed backend factory.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create wires the source and publisher for the configured transport.
func (f *Factory) Create(config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid feed backend type: %s", config.Type)
	}

	switch config.Type {
	case AMQPBackend:
		return f.createAMQP(config)
	case KafkaBackend:
		return f.createKafka(config)
	case MemoryBackend:
		return f.createMemory()
	default:
		return nil, fmt.Errorf("unsupported feed backend type: %s", config.Type)
	}
}

func (f *Factory) createAMQP(config Config) (*Result, error) {
	client, err := feedamqp.NewClient(config.AMQPURL, config.AMQPExchange)
	if err != nil {
		return nil, fmt.Errorf("initialize AMQP feed: %w", err)
	}

	f.logger.Info("Initialized AMQP feed backend", "exchange", config.AMQPExchange)

	return &Result{
		Source:    client,
		Publisher: client,
		Cleanup:   client.Close,
	}, nil
}

func (f *Factory) createKafka(config Config) (*Result, error) {
	client := feedkafka.NewClient(config.KafkaBrokers, config.KafkaTopic, config.KafkaGroup)

	f.logger.Info("Initialized Kafka feed backend",
		"brokers", config.KafkaBrokers,
		"topic", config.KafkaTopic)

	return &Result{
		Source:    client,
		Publisher: client,
		Cleanup:   client.Close,
	}, nil
}

func (f *Factory) createMemory() (*Result, error) {
	store := feedmem.New()

	f.logger.Info("Initialized in-memory feed backend")

	return &Result{
		Source:    store,
		Publisher: store,
		Cleanup:   nil, // nothing to release
	}, nil
}
