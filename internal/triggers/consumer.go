package triggers

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/internal/dispatch"
	pkgerrors "github.com/roomly-app/push-backend/pkg/errors"
	"github.com/roomly-app/push-backend/pkg/events"
	"github.com/roomly-app/push-backend/pkg/logger"
)

const pushWorkerConsumer = "push-worker"

// Dispatcher is the slice of the dispatch service the consumer needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
}

// Consumer watches notification.created events and re-delivers the
// allow-listed categories as pushes to the notified user's devices.
type Consumer struct {
	dispatcher   Dispatcher
	subscription *pubsub.Subscriber
	idempotency  *events.IdempotencyManager
	logg         *logger.Logger
}

// NewConsumer builds a push trigger consumer.
func NewConsumer(dispatcher Dispatcher, subscription *pubsub.Subscriber, manager *events.IdempotencyManager, logg *logger.Logger) (*Consumer, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		dispatcher:   dispatcher,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != events.EventNotificationCreated {
		c.logg.Info(logCtx, "skipping unrelated event")
		return processResult{ack: true}
	}

	// Malformed messages never become deliverable, so they are acked
	// instead of poisoning the subscription with endless redelivery.
	env, payload, err := events.DecodeNotificationCreated(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode created event", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":        env.EventID,
		"notification_id": payload.NotificationID.String(),
		"type":            string(payload.Type),
	})

	if !payload.Type.IsPushEligible() {
		c.logg.Info(logCtx, "category not push eligible")
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, pushWorkerConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.deliver(ctx, payload, logCtx); err != nil {
		// A validation-coded failure is permanent: externally produced
		// events with bad fields stay bad on every redelivery.
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
			c.logg.Error(logCtx, "event rejected by dispatch validation", err)
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "push re-delivery failed", err)
		_ = c.idempotency.Delete(ctx, pushWorkerConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) deliver(ctx context.Context, payload events.NotificationCreated, logCtx context.Context) error {
	if payload.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id missing")
	}

	userID := payload.UserID
	result, err := c.dispatcher.Dispatch(ctx, dispatch.Request{
		UserID: &userID,
		Type:   payload.Type,
		Title:  payload.Title,
		Body:   payload.Message,
		Data:   payload.Data,
	})
	if err != nil {
		return err
	}

	// A completed dispatch with delivery failures (no active tokens, dead
	// devices) is already recorded per ticket; retrying the event would
	// only duplicate records.
	if !result.Success {
		c.logg.Warn(logCtx, "push delivered with failures: "+result.Message)
		return nil
	}

	c.logg.Info(logCtx, "push re-delivered")
	return nil
}
