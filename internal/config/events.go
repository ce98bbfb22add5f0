package config

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/dump-practice-service/internal/events"
)

// EventConfig holds configuration for event publishing
type EventConfig struct {
	Enabled      bool   `env:"EVENTS_ENABLED" envDefault:"true"`
	Publisher    string `env:"EVENTS_PUBLISHER" envDefault:"memory"` // kafka, memory or mock
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	QuizTopic    string `env:"QUIZ_EVENTS_TOPIC" envDefault:"quiz-events"`
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return splitList(c.KafkaBrokers)
}

// CreateEventPublisher creates an event publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch strings.ToLower(c.Publisher) {
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.QuizTopic)

		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.QuizTopic,
			Logger:       logger,
		})
	case "memory":
		logger.Info("Using in-process event publisher", "topic", c.QuizTopic)
		publisher, pubSub := events.NewChannelEventPublisher(events.PublisherConfig{
			TopicName: c.QuizTopic,
			Logger:    logger,
		})
		// Nothing else consumes in-process events; log them so they are not
		// dropped unseen. The subscription ends when the publisher is closed.
		if err := events.LogSubscriber(context.Background(), pubSub, c.QuizTopic, logger); err != nil {
			_ = publisher.Close()
			return nil, err
		}
		return publisher, nil
	case "mock":
		logger.Info("Using mock event publisher")
		return events.NewMockEventPublisher(logger), nil
	default:
		logger.Warn("Unknown event publisher type, falling back to mock", "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil
	}
}
