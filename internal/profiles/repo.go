package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makersnearby/makersnearby-backend/pkg/db/models"
	"github.com/makersnearby/makersnearby-backend/pkg/enums"
)

// ErrFeaturedCapReached is returned when marking another asset featured would
// exceed the configured cap.
var ErrFeaturedCapReached = errors.New("featured cap reached")

// Repository handles profile and gallery persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to profile operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateDraft inserts an empty draft row for the user. The unique index on
// user_id makes a racing second insert fail with a unique violation, which the
// service treats as "draft already exists".
func (r *Repository) CreateDraft(ctx context.Context, userID uuid.UUID) (*models.ArtisanProfile, error) {
	profile := &models.ArtisanProfile{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.ProfileStatusDraft,
	}
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// FindByUser loads the user's profile row.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.ArtisanProfile, error) {
	var profile models.ArtisanProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByID loads a profile by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ArtisanProfile, error) {
	var profile models.ArtisanProfile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update saves the provided profile.
func (r *Repository) Update(ctx context.Context, profile *models.ArtisanProfile) error {
	if profile == nil {
		return fmt.Errorf("profile is required")
	}
	return r.db.WithContext(ctx).Save(profile).Error
}

// InsertAsset appends a gallery asset at the next position. Position is the
// current row count at insert time and is never renumbered afterwards.
func (r *Repository) InsertAsset(ctx context.Context, asset *models.GalleryAsset) error {
	if asset == nil {
		return fmt.Errorf("asset is required")
	}
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.GalleryAsset{}).
			Where("profile_id = ?", asset.ProfileID).
			Count(&count).Error; err != nil {
			return err
		}
		asset.Position = int(count)
		return tx.Create(asset).Error
	})
}

// FindAsset loads a gallery asset by its UUID.
func (r *Repository) FindAsset(ctx context.Context, id uuid.UUID) (*models.GalleryAsset, error) {
	var asset models.GalleryAsset
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// ListAssets returns the profile's gallery ordered by insertion position.
func (r *Repository) ListAssets(ctx context.Context, profileID uuid.UUID) ([]models.GalleryAsset, error) {
	var assets []models.GalleryAsset
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("position asc").
		Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// CountAssets returns the number of gallery rows for the profile.
func (r *Repository) CountAssets(ctx context.Context, profileID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GalleryAsset{}).
		Where("profile_id = ?", profileID).
		Count(&count).Error
	return count, err
}

// SetAssetFeatured flips the featured flag inside a transaction so the cap
// check and the write observe the same state.
func (r *Repository) SetAssetFeatured(ctx context.Context, assetID uuid.UUID, featured bool, cap int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset models.GalleryAsset
		if err := tx.Where("id = ?", assetID).First(&asset).Error; err != nil {
			return err
		}
		if asset.Featured == featured {
			return nil
		}
		if featured {
			var count int64
			if err := tx.Model(&models.GalleryAsset{}).
				Where("profile_id = ? AND featured = ?", asset.ProfileID, true).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(cap) {
				return ErrFeaturedCapReached
			}
		}
		return tx.Model(&models.GalleryAsset{}).
			Where("id = ?", assetID).
			Update("featured", featured).Error
	})
}

// DeleteAsset removes a gallery row.
func (r *Repository) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.GalleryAsset{}).Error
}

// FindUser loads the account row backing a profile.
func (r *Repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
