package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T) (*EventPublisher, *fakeAsyncProducer) {
	t.Helper()

	asyncProducer := newFakeAsyncProducer()

	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "tryout",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	publisher := NewEventPublisher(producer, config.AppSettings{
		Name: "tryout-platform",
		Env:  "test",
	}, zaptest.NewLogger(t))

	return publisher, asyncProducer
}

func decodeEnvelope(t *testing.T, msg *sarama.ProducerMessage) map[string]any {
	t.Helper()

	bytes, err := msg.Value.Encode()
	if err != nil {
		t.Fatalf("Value.Encode returned error: %v", err)
	}

	var envelope map[string]any
	if err := json.Unmarshal(bytes, &envelope); err != nil {
		t.Fatalf("failed to unmarshal envelope: %v", err)
	}

	return envelope
}

func TestPublishForceLogin(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	occurredAt := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	event := domain.ForceLoginEvent{
		EventID:       "event-123",
		AccountID:     "acc-456",
		OldDeviceID:   "fp-old",
		OldDeviceName: "Chrome Browser",
		NewDeviceID:   "fp-new",
		NewDeviceName: "Android Device",
		IP:            "203.0.113.10",
		OccurredAt:    occurredAt,
	}

	if err := publisher.PublishForceLogin(context.Background(), event); err != nil {
		t.Fatalf("PublishForceLogin returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "tryout.auth.force_login" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		envelope := decodeEnvelope(t, msg)

		if got := envelope["event_type"]; got != "auth.force_login" {
			t.Fatalf("unexpected event_type: %v", got)
		}
		if got := envelope["event_id"]; got != event.EventID {
			t.Fatalf("unexpected event_id: %v", got)
		}
		if got := envelope["account_id"]; got != event.AccountID {
			t.Fatalf("unexpected account_id: %v", got)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not an object: %T", envelope["payload"])
		}
		if got := payload["old_device_id"]; got != event.OldDeviceID {
			t.Fatalf("unexpected old_device_id: %v", got)
		}
		if got := payload["new_device_name"]; got != event.NewDeviceName {
			t.Fatalf("unexpected new_device_name: %v", got)
		}

		metadata, ok := envelope["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("metadata not an object: %T", envelope["metadata"])
		}
		if got := metadata["service"]; got != "tryout-platform" {
			t.Fatalf("unexpected service metadata: %v", got)
		}
	default:
		t.Fatal("expected message on producer input channel")
	}
}

func TestPublishDeviceSweepGeneratesEventID(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	occurredAt := time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC)
	event := domain.DeviceSweepEvent{
		Cutoff:     occurredAt.Add(-30 * 24 * time.Hour),
		Cleared:    7,
		OccurredAt: occurredAt,
	}

	if err := publisher.PublishDeviceSweep(context.Background(), event); err != nil {
		t.Fatalf("PublishDeviceSweep returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "tryout.device.sweep" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		envelope := decodeEnvelope(t, msg)

		id, ok := envelope["event_id"].(string)
		if !ok || id == "" {
			t.Fatalf("expected a generated event_id, got %v", envelope["event_id"])
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not an object: %T", envelope["payload"])
		}
		if got := payload["cleared"]; got != float64(7) {
			t.Fatalf("unexpected cleared count: %v", got)
		}
	default:
		t.Fatal("expected message on producer input channel")
	}
}

func TestPublishRespectsContextCancellation(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	// Fill the buffered input channel so the next publish would block.
	asyncProducer.input <- &sarama.ProducerMessage{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishDeviceMismatch(ctx, domain.DeviceMismatchEvent{
		AccountID:       "acc-1",
		RequestDeviceID: "fp-1",
		OccurredAt:      time.Now().UTC(),
	})
	if err == nil {
		t.Fatal("expected context error when input channel is full")
	}
}
