package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/pkg/enums"
)

// EventNotificationCreated is emitted whenever an in-app notification row is written.
const EventNotificationCreated = "notification.created"

// Envelope is the stable payload structure published on the notification topic.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// NotificationCreated is the data carried by notification.created events.
type NotificationCreated struct {
	NotificationID uuid.UUID              `json:"notificationId"`
	UserID         uuid.UUID              `json:"userId"`
	Type           enums.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Data           json.RawMessage        `json:"data,omitempty"`
}

// NewNotificationCreated wraps the payload in a version-1 envelope with a fresh event ID.
func NewNotificationCreated(payload NotificationCreated) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshaling notification payload: %w", err)
	}
	return Envelope{
		Version:    1,
		EventID:    uuid.NewString(),
		EventType:  EventNotificationCreated,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}, nil
}

// DecodeNotificationCreated parses a notification.created envelope body.
func DecodeNotificationCreated(raw []byte) (Envelope, NotificationCreated, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, NotificationCreated{}, fmt.Errorf("decoding event envelope: %w", err)
	}
	if err := env.validate(); err != nil {
		return Envelope{}, NotificationCreated{}, err
	}
	if env.EventType != EventNotificationCreated {
		return Envelope{}, NotificationCreated{}, fmt.Errorf("unexpected event type %q", env.EventType)
	}

	var payload NotificationCreated
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return Envelope{}, NotificationCreated{}, fmt.Errorf("decoding notification payload: %w", err)
	}
	if payload.UserID == uuid.Nil {
		return Envelope{}, NotificationCreated{}, errors.New("notification payload missing user id")
	}
	return env, payload, nil
}

func (e Envelope) validate() error {
	if e.Version != 1 {
		return fmt.Errorf("unsupported envelope version %d", e.Version)
	}
	if e.EventID == "" {
		return errors.New("envelope missing event id")
	}
	if _, err := uuid.Parse(e.EventID); err != nil {
		return fmt.Errorf("invalid event id %q", e.EventID)
	}
	if len(e.Data) == 0 {
		return errors.New("envelope missing data")
	}
	return nil
}
