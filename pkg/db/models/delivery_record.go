package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/pkg/enums"
)

// DeliveryRecord is an append-only observability row: one per (token, ticket)
// per dispatch attempt. Never mutated or deleted by this service.
type DeliveryRecord struct {
	ID               uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID              `gorm:"type:uuid;not null;index"`
	NotificationType enums.NotificationType `gorm:"column:notification_type;type:text;not null"`
	Platform         enums.Platform         `gorm:"type:text;not null"`
	Token            string                 `gorm:"type:text;not null"`
	Status           enums.DeliveryStatus   `gorm:"type:text;not null"`
	Error            *string                `gorm:"type:text"`
	TicketID         *string                `gorm:"column:ticket_id;type:text"`
	Metadata         json.RawMessage        `gorm:"column:metadata;type:jsonb"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
}
