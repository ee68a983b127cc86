package notify

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/roomly-app/push-backend/pkg/events"
)

// GCPPublisher publishes created events on the notification Pub/Sub topic.
type GCPPublisher struct {
	publisher *pubsub.Publisher
}

// NewGCPPublisher wraps a topic publisher handle.
func NewGCPPublisher(publisher *pubsub.Publisher) (*GCPPublisher, error) {
	if publisher == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &GCPPublisher{publisher: publisher}, nil
}

// PublishNotificationCreated serializes the envelope, publishes it, and waits
// for the server ack.
func (g *GCPPublisher) PublishNotificationCreated(ctx context.Context, env events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling event envelope: %w", err)
	}

	result := g.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": env.EventType,
			"event_id":   env.EventID,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing %s: %w", env.EventType, err)
	}
	return nil
}
