package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Astemirdum/local-library/pkg/circuit_breaker"
	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const LoanTopic = "loan-events"

type Config struct {
	// Addrs is empty when publishing is disabled.
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS"`
	Topic string   `yaml:"topic" envconfig:"KAFKA_TOPIC" default:"loan-events"`
}

type EventType string

const (
	EventBorrowed EventType = "BORROWED"
	EventRenewed  EventType = "RENEWED"
	EventReturned EventType = "RETURNED"
)

type EventLoan struct {
	Timestamp  time.Time  `json:"timestamp"`
	UserName   string     `json:"username"`
	InstanceID string     `json:"instance_id"`
	BookID     int        `json:"book_id"`
	EventType  EventType  `json:"event_type"`
	DueBack    *time.Time `json:"due_back,omitempty"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Retry.Max = 3

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

type Publisher interface {
	Publish(ctx context.Context, event EventLoan) error
	Close() error
}

type publisher struct {
	producer sarama.SyncProducer
	cb       circuit_breaker.CircuitBreaker
	topic    string
	log      *zap.Logger
}

// NewPublisher sends loan events keyed by instance id so that events of one copy stay ordered.
func NewPublisher(producer sarama.SyncProducer, cb circuit_breaker.CircuitBreaker, topic string, log *zap.Logger) Publisher {
	if topic == "" {
		topic = LoanTopic
	}
	return &publisher{
		producer: producer,
		cb:       cb,
		topic:    topic,
		log:      log.Named("publisher"),
	}
}

func (p *publisher) Publish(_ context.Context, event EventLoan) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.InstanceID),
		Value: sarama.ByteEncoder(data),
	}
	return p.cb.Call(func() error {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			return err
		}
		p.log.Debug("event sent",
			zap.String("type", string(event.EventType)),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset))
		return nil
	})
}

func (p *publisher) Close() error {
	return p.producer.Close()
}

type nopPublisher struct{}

// NewNopPublisher is used when no brokers are configured.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, EventLoan) error { return nil }
func (nopPublisher) Close() error                             { return nil }
