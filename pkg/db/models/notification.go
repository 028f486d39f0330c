package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/pkg/enums"
)

// Notification stores in-app notices scoped to users.
type Notification struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID               `gorm:"column:user_id;type:uuid;not null"`
	Level     enums.NotificationLevel `gorm:"column:level;type:notification_level;not null"`
	Title     string                  `gorm:"column:title;type:text;not null"`
	Message   string                  `gorm:"column:message;type:text;not null"`
	ReadAt    *time.Time              `gorm:"column:read_at;type:timestamptz"`
	CreatedAt time.Time               `gorm:"column:created_at;type:timestamptz;default:now()"`
}
