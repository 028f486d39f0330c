package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/pkg/db/models"
	"github.com/makersnearby/makersnearby-backend/pkg/enums"
)

// ProfileDTO is the wire representation of a maker profile.
type ProfileDTO struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"user_id"`
	Handle          *string               `json:"handle,omitempty"`
	DisplayName     *string               `json:"display_name,omitempty"`
	CraftCategory   *string               `json:"craft_category,omitempty"`
	Bio             *string               `json:"bio,omitempty"`
	Locality        *string               `json:"locality,omitempty"`
	ContactChannel  *enums.ContactChannel `json:"contact_channel,omitempty"`
	ContactValue    *string               `json:"contact_value,omitempty"`
	AcceptingOrders bool                  `json:"accepting_orders"`
	Tags            []string              `json:"tags,omitempty"`
	Status          enums.ProfileStatus   `json:"status"`
	PublishedAt     *time.Time            `json:"published_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// GalleryAssetDTO is the wire representation of one gallery image.
type GalleryAssetDTO struct {
	ID        uuid.UUID `json:"id"`
	ProfileID uuid.UUID `json:"profile_id"`
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	Position  int       `json:"position"`
	Featured  bool      `json:"featured"`
	CreatedAt time.Time `json:"created_at"`
}

// FromModel maps a profile row to its DTO.
func FromModel(profile *models.ArtisanProfile) *ProfileDTO {
	if profile == nil {
		return nil
	}
	return &ProfileDTO{
		ID:              profile.ID,
		UserID:          profile.UserID,
		Handle:          profile.Handle,
		DisplayName:     profile.DisplayName,
		CraftCategory:   profile.CraftCategory,
		Bio:             profile.Bio,
		Locality:        profile.Locality,
		ContactChannel:  profile.ContactChannel,
		ContactValue:    profile.ContactValue,
		AcceptingOrders: profile.AcceptingOrders,
		Tags:            profile.Tags,
		Status:          profile.Status,
		PublishedAt:     profile.PublishedAt,
		CreatedAt:       profile.CreatedAt,
		UpdatedAt:       profile.UpdatedAt,
	}
}

// AssetFromModel maps a gallery asset row to its DTO.
func AssetFromModel(asset *models.GalleryAsset) *GalleryAssetDTO {
	if asset == nil {
		return nil
	}
	return &GalleryAssetDTO{
		ID:        asset.ID,
		ProfileID: asset.ProfileID,
		URL:       asset.URL,
		FileName:  asset.FileName,
		Position:  asset.Position,
		Featured:  asset.Featured,
		CreatedAt: asset.CreatedAt,
	}
}

// UpdateDraftInput captures the draft fields open to mutation. Nil means the
// field was absent from the request; a pointer to the zero value clears it.
type UpdateDraftInput struct {
	Handle          *string
	DisplayName     *string
	CraftCategory   *string
	Bio             *string
	Locality        *string
	ContactChannel  *enums.ContactChannel
	ContactValue    *string
	AcceptingOrders *bool
	Tags            *[]string
}

// Empty reports whether the input carries no field at all.
func (in UpdateDraftInput) Empty() bool {
	return in.Handle == nil &&
		in.DisplayName == nil &&
		in.CraftCategory == nil &&
		in.Bio == nil &&
		in.Locality == nil &&
		in.ContactChannel == nil &&
		in.ContactValue == nil &&
		in.AcceptingOrders == nil &&
		in.Tags == nil
}
