package models

import (
	"time"

	"github.com/google/uuid"
)

// GalleryAsset stores one normalized gallery image belonging to a profile.
// Positions are assigned monotonically at insert time (current count) and are
// never renumbered on delete.
type GalleryAsset struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID uuid.UUID `gorm:"column:profile_id;type:uuid;not null;index"`
	ObjectKey string    `gorm:"column:object_key;not null;unique"`
	URL       string    `gorm:"column:url;not null"`
	FileName  string    `gorm:"column:file_name;not null"`
	Position  int       `gorm:"column:position;not null;default:0"`
	Featured  bool      `gorm:"column:featured;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
