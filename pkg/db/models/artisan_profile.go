package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/makersnearby/makersnearby-backend/pkg/enums"
)

// ArtisanProfile is the directory entry a maker builds through the onboarding
// wizard. At most one row exists per user; the unique index on user_id backs
// the insert-or-return-existing semantics of draft creation.
type ArtisanProfile struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;unique"`
	Handle          *string               `gorm:"column:handle"`
	DisplayName     *string               `gorm:"column:display_name"`
	CraftCategory   *string               `gorm:"column:craft_category"`
	Bio             *string               `gorm:"column:bio"`
	Locality        *string               `gorm:"column:locality"`
	ContactChannel  *enums.ContactChannel `gorm:"column:contact_channel;type:contact_channel"`
	ContactValue    *string               `gorm:"column:contact_value"`
	AcceptingOrders bool                  `gorm:"column:accepting_orders;not null;default:false"`
	Tags            pq.StringArray        `gorm:"column:tags;type:text[]"`
	Status          enums.ProfileStatus   `gorm:"column:status;type:profile_status;not null;default:'draft'"`
	PublishedAt     *time.Time            `gorm:"column:published_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
