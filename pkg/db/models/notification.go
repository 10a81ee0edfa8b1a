package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/pkg/enums"
)

// Notification is an in-app message addressed to a guest.
type Notification struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GuestID          uuid.UUID              `gorm:"column:guest_id;type:uuid;not null"`
	NotificationType enums.NotificationType `gorm:"column:notification_type;not null"`
	Message          string                 `gorm:"column:message;type:text;not null"`
	RelatedObjectID  *uuid.UUID             `gorm:"column:related_object_id;type:uuid"`
	URL              *string                `gorm:"column:url;type:text"`
	AttachmentURL    *string                `gorm:"column:attachment_url;type:text"`
	IsRead           bool                   `gorm:"column:is_read;not null;default:false"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
