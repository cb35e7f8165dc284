package events

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// KafkaPublisher writes synchronously so the relay only marks an event after the broker acked it.
type KafkaPublisher struct {
	w      *kafka.Writer
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, logger *zap.Logger) *KafkaPublisher {
	settings := gobreaker.Settings{
		Name:        "kafka",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.w.WriteMessages(ctx, kafka.Message{
			Topic: msg.Topic,
			Key:   []byte(msg.Key),
			Value: msg.Value,
			Time:  time.Now(),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(msg.Type)},
			},
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrBrokerUnavailable
	}
	return err
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

var ErrBrokerUnavailable = errors.New("broker unavailable")

// LogPublisher is used when no brokers are configured. Events are logged and considered delivered.
type LogPublisher struct{ logger *zap.Logger }

func NewLogPublisher(logger *zap.Logger) *LogPublisher { return &LogPublisher{logger: logger} }

func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	p.logger.Info("event",
		zap.String("topic", msg.Topic),
		zap.String("key", msg.Key),
		zap.String("type", msg.Type),
		zap.ByteString("value", msg.Value),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
