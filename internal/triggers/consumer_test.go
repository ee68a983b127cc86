package triggers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/internal/dispatch"
	"github.com/roomly-app/push-backend/pkg/enums"
	pkgerrors "github.com/roomly-app/push-backend/pkg/errors"
	"github.com/roomly-app/push-backend/pkg/events"
	"github.com/roomly-app/push-backend/pkg/logger"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	requests []dispatch.Request
	result   *dispatch.Result
	err      error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req dispatch.Request) (*dispatch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &dispatch.Result{Success: true, Succeeded: 1}, nil
}

func (f *fakeDispatcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeStore struct {
	mu     sync.Mutex
	keys   map[string]struct{}
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]struct{}{}}
}

func (f *fakeStore) Get(context.Context, string) (string, error) { return "", nil }

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	f.keys[key] = struct{}{}
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func (f *fakeStore) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

func newTestConsumer(t *testing.T, dispatcher Dispatcher, store *fakeStore) *Consumer {
	t.Helper()

	manager, err := events.NewIdempotencyManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewIdempotencyManager: %v", err)
	}
	return &Consumer{
		dispatcher:  dispatcher,
		idempotency: manager,
		logg:        logger.New(logger.Options{ServiceName: "test"}),
	}
}

func createdEventMessage(t *testing.T, payload events.NotificationCreated) *pubsub.Message {
	t.Helper()

	env, err := events.NewNotificationCreated(payload)
	if err != nil {
		t.Fatalf("NewNotificationCreated: %v", err)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         "msg-1",
		Data:       raw,
		Attributes: map[string]string{"event_type": env.EventType, "event_id": env.EventID},
	}
}

func likePayload() events.NotificationCreated {
	return events.NotificationCreated{
		NotificationID: uuid.New(),
		UserID:         uuid.New(),
		Type:           enums.NotificationTypeLike,
		Title:          "New like",
		Message:        "Riley liked your post",
	}
}

func TestConsumerDeliversEligibleEvent(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	consumer := newTestConsumer(t, dispatcher, newFakeStore())

	payload := likePayload()
	result := consumer.process(context.Background(), createdEventMessage(t, payload))

	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if dispatcher.calls() != 1 {
		t.Fatalf("expected one dispatch, got %d", dispatcher.calls())
	}
	req := dispatcher.requests[0]
	if req.UserID == nil || *req.UserID != payload.UserID {
		t.Fatalf("dispatch targeted wrong user: %+v", req.UserID)
	}
	if req.Type != payload.Type || req.Title != payload.Title || req.Body != payload.Message {
		t.Fatalf("dispatch request mismatch: %+v", req)
	}
}

func TestConsumerSkipsUnrelatedEventType(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	consumer := newTestConsumer(t, dispatcher, newFakeStore())

	msg := createdEventMessage(t, likePayload())
	msg.Attributes["event_type"] = "user.updated"

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatal("unrelated events must be acked")
	}
	if dispatcher.calls() != 0 {
		t.Fatal("unrelated events must not dispatch")
	}
}

func TestConsumerSkipsIneligibleCategory(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	store := newFakeStore()
	consumer := newTestConsumer(t, dispatcher, store)

	payload := likePayload()
	payload.Type = enums.NotificationTypeSystem

	result := consumer.process(context.Background(), createdEventMessage(t, payload))
	if !result.ack {
		t.Fatal("ineligible categories must be acked")
	}
	if dispatcher.calls() != 0 {
		t.Fatal("ineligible categories must not dispatch")
	}
	if store.size() != 0 {
		t.Fatal("ineligible events must not consume a dedupe slot")
	}
}

func TestConsumerAcksMalformedPayload(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	consumer := newTestConsumer(t, dispatcher, newFakeStore())

	msg := &pubsub.Message{
		ID:         "msg-2",
		Data:       []byte("{not json"),
		Attributes: map[string]string{"event_type": events.EventNotificationCreated},
	}

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("poison messages must be acked, got %+v", result)
	}
	if dispatcher.calls() != 0 {
		t.Fatal("poison messages must not dispatch")
	}
}

func TestConsumerDeduplicatesEvents(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	consumer := newTestConsumer(t, dispatcher, newFakeStore())

	msg := createdEventMessage(t, likePayload())

	first := consumer.process(context.Background(), msg)
	second := consumer.process(context.Background(), msg)

	if !first.ack || !second.ack {
		t.Fatalf("both deliveries must ack, got %+v / %+v", first, second)
	}
	if dispatcher.calls() != 1 {
		t.Fatalf("redelivery must not dispatch twice, got %d calls", dispatcher.calls())
	}
}

func TestConsumerNacksOnDispatchError(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("provider unreachable")}
	store := newFakeStore()
	consumer := newTestConsumer(t, dispatcher, store)

	result := consumer.process(context.Background(), createdEventMessage(t, likePayload()))
	if !result.nack {
		t.Fatal("dependency failures must nack for redelivery")
	}
	if store.size() != 0 {
		t.Fatal("dedupe key must be released so the retry can run")
	}
}

func TestConsumerNacksOnIdempotencyError(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	store := newFakeStore()
	store.setErr = errors.New("redis down")
	consumer := newTestConsumer(t, dispatcher, store)

	result := consumer.process(context.Background(), createdEventMessage(t, likePayload()))
	if !result.nack {
		t.Fatal("idempotency failures must nack")
	}
	if dispatcher.calls() != 0 {
		t.Fatal("must not dispatch without a dedupe slot")
	}
}

func TestConsumerAcksValidationRejectedEvent(t *testing.T) {
	dispatcher := &fakeDispatcher{err: pkgerrors.New(pkgerrors.CodeValidation, "title is required")}
	store := newFakeStore()
	consumer := newTestConsumer(t, dispatcher, store)

	result := consumer.process(context.Background(), createdEventMessage(t, likePayload()))
	if !result.ack || result.nack {
		t.Fatalf("validation failures are permanent and must not be retried, got %+v", result)
	}
	if store.size() != 1 {
		t.Fatal("rejected event must keep its dedupe slot")
	}
}

func TestConsumerAcksEventWithoutUserID(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	payload := likePayload()
	payload.UserID = uuid.Nil
	consumer := newTestConsumer(t, dispatcher, newFakeStore())

	result := consumer.process(context.Background(), createdEventMessage(t, payload))
	if !result.ack || result.nack {
		t.Fatalf("events without a user never become deliverable, got %+v", result)
	}
	if dispatcher.calls() != 0 {
		t.Fatal("must not dispatch without a user id")
	}
}

func TestConsumerAcksWhenDispatchReportsFailures(t *testing.T) {
	dispatcher := &fakeDispatcher{result: &dispatch.Result{Success: false, Message: "no active push tokens"}}
	store := newFakeStore()
	consumer := newTestConsumer(t, dispatcher, store)

	result := consumer.process(context.Background(), createdEventMessage(t, likePayload()))
	if !result.ack || result.nack {
		t.Fatalf("recorded delivery failures must not be retried, got %+v", result)
	}
	if store.size() != 1 {
		t.Fatal("processed event must keep its dedupe slot")
	}
}
