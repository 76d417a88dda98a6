package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	AccountID string           `json:"account_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountRegistered publishes account.registered events.
func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		AccountID    string         `json:"account_id"`
		Username     string         `json:"username"`
		Email        string         `json:"email"`
		DeviceID     string         `json:"device_id,omitempty"`
		DeviceName   string         `json:"device_name,omitempty"`
		RegisteredAt time.Time      `json:"registered_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:    event.AccountID,
		Username:     event.Username,
		Email:        event.Email,
		DeviceID:     event.DeviceID,
		DeviceName:   event.DeviceName,
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, "account.registered", event.AccountID, event.RegisteredAt, payload)
}

// PublishForceLogin publishes auth.force_login events.
func (p *EventPublisher) PublishForceLogin(ctx context.Context, event domain.ForceLoginEvent) error {
	payload := struct {
		AccountID     string         `json:"account_id"`
		OldDeviceID   string         `json:"old_device_id"`
		OldDeviceName string         `json:"old_device_name"`
		NewDeviceID   string         `json:"new_device_id"`
		NewDeviceName string         `json:"new_device_name"`
		IP            string         `json:"ip,omitempty"`
		OccurredAt    time.Time      `json:"occurred_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:     event.AccountID,
		OldDeviceID:   event.OldDeviceID,
		OldDeviceName: event.OldDeviceName,
		NewDeviceID:   event.NewDeviceID,
		NewDeviceName: event.NewDeviceName,
		IP:            event.IP,
		OccurredAt:    event.OccurredAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.force_login", event.AccountID, event.OccurredAt, payload)
}

// PublishDeviceMismatch publishes auth.device_mismatch events.
func (p *EventPublisher) PublishDeviceMismatch(ctx context.Context, event domain.DeviceMismatchEvent) error {
	payload := struct {
		AccountID        string         `json:"account_id"`
		RequestDeviceID  string         `json:"request_device_id"`
		RegisteredDevice string         `json:"registered_device"`
		IP               string         `json:"ip,omitempty"`
		OccurredAt       time.Time      `json:"occurred_at"`
		Metadata         map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:        event.AccountID,
		RequestDeviceID:  event.RequestDeviceID,
		RegisteredDevice: event.RegisteredDevice,
		IP:               event.IP,
		OccurredAt:       event.OccurredAt.UTC(),
		Metadata:         event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.device_mismatch", event.AccountID, event.OccurredAt, payload)
}

// PublishPasswordReset publishes auth.password_reset events.
func (p *EventPublisher) PublishPasswordReset(ctx context.Context, event domain.PasswordResetEvent) error {
	payload := struct {
		AccountID     string         `json:"account_id"`
		Email         string         `json:"email"`
		ResetAt       time.Time      `json:"reset_at"`
		DeviceCleared bool           `json:"device_cleared"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:     event.AccountID,
		Email:         event.Email,
		ResetAt:       event.ResetAt.UTC(),
		DeviceCleared: event.DeviceCleared,
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.password_reset", event.AccountID, event.ResetAt, payload)
}

// PublishDeviceSweep publishes device.sweep events.
func (p *EventPublisher) PublishDeviceSweep(ctx context.Context, event domain.DeviceSweepEvent) error {
	payload := struct {
		Cutoff     time.Time `json:"cutoff"`
		Cleared    int64     `json:"cleared"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		Cutoff:     event.Cutoff.UTC(),
		Cleared:    event.Cleared,
		OccurredAt: event.OccurredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "device.sweep", "", event.OccurredAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
