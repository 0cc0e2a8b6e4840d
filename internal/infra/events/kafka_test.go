package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaPublisherSendsPayload(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"rec-1"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	publisher := newKafkaPublisher(producer, "predictions", discardLogger())

	require.NoError(t, publisher.Publish(context.Background(), "rec-1", []byte(`{"id":"rec-1"}`)))
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisherPropagatesFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	publisher := newKafkaPublisher(producer, "predictions", discardLogger())

	err := publisher.Publish(context.Background(), "rec-1", []byte(`{}`))
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisherHonoursCancelledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	publisher := newKafkaPublisher(producer, "predictions", discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, publisher.Publish(ctx, "rec-1", nil), context.Canceled)
	require.NoError(t, publisher.Close())
}

func TestNewKafkaConfigIsValid(t *testing.T) {
	cfg := NewKafkaConfig("flat-price")
	require.NoError(t, cfg.Validate())
	require.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
}

func TestNewKafkaPublisherRequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "predictions", nil, discardLogger())
	require.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	require.NoError(t, NewLogPublisher(discardLogger()).Publish(context.Background(), "rec-1", []byte("{}")))
}
