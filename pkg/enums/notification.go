package enums

import "fmt"

// NotificationType identifies the category of an in-app notification.
type NotificationType string

const (
	NotificationTypeLike             NotificationType = "like"
	NotificationTypeComment          NotificationType = "comment"
	NotificationTypeCommentReply     NotificationType = "comment_reply"
	NotificationTypeFollow           NotificationType = "follow"
	NotificationTypeEventLike        NotificationType = "event_like"
	NotificationTypeEventComment     NotificationType = "event_comment"
	NotificationTypeCleaningReminder NotificationType = "cleaning_reminder"
	NotificationTypeEventReminder    NotificationType = "event_reminder"
	NotificationTypeSystem           NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeLike,
	NotificationTypeComment,
	NotificationTypeCommentReply,
	NotificationTypeFollow,
	NotificationTypeEventLike,
	NotificationTypeEventComment,
	NotificationTypeCleaningReminder,
	NotificationTypeEventReminder,
	NotificationTypeSystem,
}

// PushEligibleNotificationTypes lists the categories that may be re-delivered
// as push notifications. "system" stays in-app only.
var PushEligibleNotificationTypes = []NotificationType{
	NotificationTypeLike,
	NotificationTypeComment,
	NotificationTypeCommentReply,
	NotificationTypeFollow,
	NotificationTypeEventLike,
	NotificationTypeEventComment,
	NotificationTypeCleaningReminder,
	NotificationTypeEventReminder,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// IsPushEligible reports whether the category is on the push allow-list.
func (n NotificationType) IsPushEligible() bool {
	for _, candidate := range PushEligibleNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
