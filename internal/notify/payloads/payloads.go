// Package payloads types the data blob carried by each notification category.
// The wire shape stays JSON, but every push-eligible category decodes into its
// own struct so malformed trigger payloads fail loudly instead of reaching the
// provider.
package payloads

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/pkg/enums"
)

// Payload is implemented by every typed notification data blob.
type Payload interface {
	NotificationType() enums.NotificationType
	Validate() error
}

// Like is sent when someone likes a post.
type Like struct {
	PostID    uuid.UUID `json:"postId"`
	ActorID   uuid.UUID `json:"actorId"`
	ActorName string    `json:"actorName"`
}

func (Like) NotificationType() enums.NotificationType { return enums.NotificationTypeLike }

func (p Like) Validate() error {
	if p.PostID == uuid.Nil {
		return fmt.Errorf("like payload missing postId")
	}
	if p.ActorID == uuid.Nil {
		return fmt.Errorf("like payload missing actorId")
	}
	return nil
}

// Comment is sent when someone comments on a post.
type Comment struct {
	PostID    uuid.UUID `json:"postId"`
	CommentID uuid.UUID `json:"commentId"`
	ActorID   uuid.UUID `json:"actorId"`
	ActorName string    `json:"actorName"`
	Preview   string    `json:"preview,omitempty"`
}

func (Comment) NotificationType() enums.NotificationType { return enums.NotificationTypeComment }

func (p Comment) Validate() error {
	if p.PostID == uuid.Nil {
		return fmt.Errorf("comment payload missing postId")
	}
	if p.CommentID == uuid.Nil {
		return fmt.Errorf("comment payload missing commentId")
	}
	return nil
}

// CommentReply is sent when someone replies to the user's comment.
type CommentReply struct {
	PostID          uuid.UUID `json:"postId"`
	CommentID       uuid.UUID `json:"commentId"`
	ParentCommentID uuid.UUID `json:"parentCommentId"`
	ActorID         uuid.UUID `json:"actorId"`
	ActorName       string    `json:"actorName"`
	Preview         string    `json:"preview,omitempty"`
}

func (CommentReply) NotificationType() enums.NotificationType {
	return enums.NotificationTypeCommentReply
}

func (p CommentReply) Validate() error {
	if p.CommentID == uuid.Nil {
		return fmt.Errorf("comment_reply payload missing commentId")
	}
	if p.ParentCommentID == uuid.Nil {
		return fmt.Errorf("comment_reply payload missing parentCommentId")
	}
	return nil
}

// Follow is sent when someone follows the user.
type Follow struct {
	ActorID   uuid.UUID `json:"actorId"`
	ActorName string    `json:"actorName"`
}

func (Follow) NotificationType() enums.NotificationType { return enums.NotificationTypeFollow }

func (p Follow) Validate() error {
	if p.ActorID == uuid.Nil {
		return fmt.Errorf("follow payload missing actorId")
	}
	return nil
}

// EventLike is sent when someone likes the user's event.
type EventLike struct {
	EventID   uuid.UUID `json:"eventId"`
	ActorID   uuid.UUID `json:"actorId"`
	ActorName string    `json:"actorName"`
}

func (EventLike) NotificationType() enums.NotificationType { return enums.NotificationTypeEventLike }

func (p EventLike) Validate() error {
	if p.EventID == uuid.Nil {
		return fmt.Errorf("event_like payload missing eventId")
	}
	return nil
}

// EventComment is sent when someone comments on the user's event.
type EventComment struct {
	EventID   uuid.UUID `json:"eventId"`
	CommentID uuid.UUID `json:"commentId"`
	ActorID   uuid.UUID `json:"actorId"`
	ActorName string    `json:"actorName"`
	Preview   string    `json:"preview,omitempty"`
}

func (EventComment) NotificationType() enums.NotificationType {
	return enums.NotificationTypeEventComment
}

func (p EventComment) Validate() error {
	if p.EventID == uuid.Nil {
		return fmt.Errorf("event_comment payload missing eventId")
	}
	return nil
}

// CleaningReminder is sent by the household scheduler ahead of a chore slot.
type CleaningReminder struct {
	TaskID   uuid.UUID `json:"taskId"`
	RoomName string    `json:"roomName"`
	DueAt    time.Time `json:"dueAt"`
}

func (CleaningReminder) NotificationType() enums.NotificationType {
	return enums.NotificationTypeCleaningReminder
}

func (p CleaningReminder) Validate() error {
	if p.TaskID == uuid.Nil {
		return fmt.Errorf("cleaning_reminder payload missing taskId")
	}
	if p.DueAt.IsZero() {
		return fmt.Errorf("cleaning_reminder payload missing dueAt")
	}
	return nil
}

// EventReminder is sent ahead of an event the user joined.
type EventReminder struct {
	EventID   uuid.UUID `json:"eventId"`
	EventName string    `json:"eventName"`
	StartsAt  time.Time `json:"startsAt"`
}

func (EventReminder) NotificationType() enums.NotificationType {
	return enums.NotificationTypeEventReminder
}

func (p EventReminder) Validate() error {
	if p.EventID == uuid.Nil {
		return fmt.Errorf("event_reminder payload missing eventId")
	}
	if p.StartsAt.IsZero() {
		return fmt.Errorf("event_reminder payload missing startsAt")
	}
	return nil
}

// Decode parses raw JSON into the typed payload for the given category.
// Unknown or in-app-only categories pass through as nil without error so
// callers can keep free-form blobs for them.
func Decode(notificationType enums.NotificationType, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var payload Payload
	switch notificationType {
	case enums.NotificationTypeLike:
		payload = &Like{}
	case enums.NotificationTypeComment:
		payload = &Comment{}
	case enums.NotificationTypeCommentReply:
		payload = &CommentReply{}
	case enums.NotificationTypeFollow:
		payload = &Follow{}
	case enums.NotificationTypeEventLike:
		payload = &EventLike{}
	case enums.NotificationTypeEventComment:
		payload = &EventComment{}
	case enums.NotificationTypeCleaningReminder:
		payload = &CleaningReminder{}
	case enums.NotificationTypeEventReminder:
		payload = &EventReminder{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", notificationType, err)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return payload, nil
}
