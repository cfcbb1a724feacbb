package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Astemirdum/local-library/pkg/circuit_breaker"
	"github.com/Astemirdum/local-library/pkg/kafka"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	event := kafka.EventLoan{
		Timestamp:  time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		UserName:   "jdoe",
		InstanceID: "2c6b1d0e-3f0e-4a7c-9d55-7b8d21c0b7a1",
		BookID:     7,
		EventType:  kafka.EventBorrowed,
		DueBack:    &due,
	}
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got kafka.EventLoan
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		require.Equal(t, event.InstanceID, got.InstanceID)
		require.Equal(t, kafka.EventBorrowed, got.EventType)
		return nil
	})

	cb := circuit_breaker.New(circuit_breaker.Config{RecordLength: 4, Timeout: time.Minute, Percentile: 0.5, RecoveryRequests: 1})
	p := kafka.NewPublisher(producer, cb, "", zap.NewNop())
	require.NoError(t, p.Publish(context.Background(), event))
	require.NoError(t, p.Close())
}

func TestPublisher_OpensBreaker(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	cb := circuit_breaker.New(circuit_breaker.Config{RecordLength: 1, Timeout: time.Minute, Percentile: 1, RecoveryRequests: 1})
	p := kafka.NewPublisher(producer, cb, kafka.LoanTopic, zap.NewNop())

	err := p.Publish(context.Background(), kafka.EventLoan{InstanceID: "x", EventType: kafka.EventReturned})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	// the producer is not touched while the breaker is open
	err = p.Publish(context.Background(), kafka.EventLoan{InstanceID: "x", EventType: kafka.EventReturned})
	require.ErrorIs(t, err, circuit_breaker.ErrOpenCB)
	require.NoError(t, p.Close())
}

func TestNopPublisher(t *testing.T) {
	p := kafka.NewNopPublisher()
	require.NoError(t, p.Publish(context.Background(), kafka.EventLoan{}))
	require.NoError(t, p.Close())
}
