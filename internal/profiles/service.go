package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/makersnearby/makersnearby-backend/pkg/config"
	"github.com/makersnearby/makersnearby-backend/pkg/db/models"
	"github.com/makersnearby/makersnearby-backend/pkg/enums"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

type profileRepository interface {
	CreateDraft(ctx context.Context, userID uuid.UUID) (*models.ArtisanProfile, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.ArtisanProfile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ArtisanProfile, error)
	Update(ctx context.Context, profile *models.ArtisanProfile) error
	InsertAsset(ctx context.Context, asset *models.GalleryAsset) error
	FindAsset(ctx context.Context, id uuid.UUID) (*models.GalleryAsset, error)
	ListAssets(ctx context.Context, profileID uuid.UUID) ([]models.GalleryAsset, error)
	CountAssets(ctx context.Context, profileID uuid.UUID) (int64, error)
	SetAssetFeatured(ctx context.Context, assetID uuid.UUID, featured bool, cap int) error
	DeleteAsset(ctx context.Context, id uuid.UUID) error
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type objectStore interface {
	DeleteObject(ctx context.Context, object string) error
}

type cacheInvalidator interface {
	InvalidateProfileViews(ctx context.Context, userID string) error
}

// Service exposes draft profile and gallery operations.
type Service interface {
	EnsureDraft(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	LoadDraft(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateDraft(ctx context.Context, userID uuid.UUID, input UpdateDraftInput) (*ProfileDTO, error)
	AttachAsset(ctx context.Context, userID uuid.UUID, objectKey, url, fileName string) (*GalleryAssetDTO, error)
	SetFeatured(ctx context.Context, userID, assetID uuid.UUID, featured bool) (*GalleryAssetDTO, error)
	RemoveAsset(ctx context.Context, userID, assetID uuid.UUID) error
	ListGallery(ctx context.Context, userID uuid.UUID) ([]GalleryAssetDTO, error)
	CountGallery(ctx context.Context, profileID uuid.UUID) (int64, error)
	Unpublish(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
}

type service struct {
	repo       profileRepository
	store      objectStore
	cache      cacheInvalidator
	galleryCfg config.GalleryConfig
	logg       *logger.Logger
}

// NewService builds a profile service with the provided dependencies.
func NewService(repo profileRepository, store objectStore, cache cacheInvalidator, galleryCfg config.GalleryConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache invalidator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		store:      store,
		cache:      cache,
		galleryCfg: galleryCfg,
		logg:       logg,
	}, nil
}

// EnsureDraft returns the user's profile, creating an empty draft when none
// exists. A racing create that loses on the user_id unique index falls back to
// refetching the winner's row, so concurrent callers converge on one draft.
func (s *service) EnsureDraft(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return FromModel(profile), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	profile, err = s.repo.CreateDraft(ctx, userID)
	if err != nil {
		if pkgerrors.UniqueViolation(err) {
			existing, refetchErr := s.repo.FindByUser(ctx, userID)
			if refetchErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, refetchErr, "refetch profile after insert race")
			}
			return FromModel(existing), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create draft")
	}
	return FromModel(profile), nil
}

// LoadDraft returns the user's profile for editing. A missing display name is
// seeded from the account record so the wizard opens pre-filled; the seed is
// not persisted until the user saves.
func (s *service) LoadDraft(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	dto := FromModel(profile)
	if dto.DisplayName == nil || *dto.DisplayName == "" {
		user, err := s.repo.FindUser(ctx, userID)
		if err == nil && user.DisplayName != "" {
			name := user.DisplayName
			dto.DisplayName = &name
		}
	}
	return dto, nil
}

func (s *service) UpdateDraft(ctx context.Context, userID uuid.UUID, input UpdateDraftInput) (*ProfileDTO, error) {
	if input.ContactChannel != nil && !input.ContactChannel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid contact channel")
	}

	profile, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	if input.Handle != nil {
		profile.Handle = cloneStringPtr(input.Handle)
	}
	if input.DisplayName != nil {
		profile.DisplayName = cloneStringPtr(input.DisplayName)
	}
	if input.CraftCategory != nil {
		profile.CraftCategory = cloneStringPtr(input.CraftCategory)
	}
	if input.Bio != nil {
		profile.Bio = cloneStringPtr(input.Bio)
	}
	if input.Locality != nil {
		profile.Locality = cloneStringPtr(input.Locality)
	}
	if input.ContactChannel != nil {
		channel := *input.ContactChannel
		profile.ContactChannel = &channel
	}
	if input.ContactValue != nil {
		profile.ContactValue = cloneStringPtr(input.ContactValue)
	}
	if input.AcceptingOrders != nil {
		profile.AcceptingOrders = *input.AcceptingOrders
	}
	if input.Tags != nil {
		profile.Tags = cloneTags(*input.Tags)
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return FromModel(profile), nil
}

// AttachAsset commits one normalized gallery image. The draft is created
// lazily here when the first artifact lands before any profile save.
func (s *service) AttachAsset(ctx context.Context, userID uuid.UUID, objectKey, url, fileName string) (*GalleryAssetDTO, error) {
	if objectKey == "" || url == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "object key and url are required")
	}

	draft, err := s.EnsureDraft(ctx, userID)
	if err != nil {
		return nil, err
	}

	asset := &models.GalleryAsset{
		ProfileID: draft.ID,
		ObjectKey: objectKey,
		URL:       url,
		FileName:  fileName,
	}
	if err := s.repo.InsertAsset(ctx, asset); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert gallery asset")
	}
	return AssetFromModel(asset), nil
}

func (s *service) SetFeatured(ctx context.Context, userID, assetID uuid.UUID, featured bool) (*GalleryAssetDTO, error) {
	asset, err := s.ownedAsset(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetAssetFeatured(ctx, asset.ID, featured, s.galleryCfg.FeaturedCap); err != nil {
		if errors.Is(err, ErrFeaturedCapReached) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("at most %d featured images allowed", s.galleryCfg.FeaturedCap))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set featured flag")
	}

	asset.Featured = featured
	return AssetFromModel(asset), nil
}

// RemoveAsset deletes the gallery row, then best-effort deletes the stored
// binary. A failed binary delete is logged and not surfaced; the row is gone
// and the orphaned object is harmless.
func (s *service) RemoveAsset(ctx context.Context, userID, assetID uuid.UUID) error {
	asset, err := s.ownedAsset(ctx, userID, assetID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteAsset(ctx, asset.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete gallery asset")
	}

	if err := s.store.DeleteObject(ctx, asset.ObjectKey); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"asset_id":   asset.ID.String(),
			"object_key": asset.ObjectKey,
			"error":      err.Error(),
		}), "gallery binary delete failed")
	}
	return nil
}

func (s *service) ListGallery(ctx context.Context, userID uuid.UUID) ([]GalleryAssetDTO, error) {
	profile, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []GalleryAssetDTO{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	assets, err := s.repo.ListAssets(ctx, profile.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list gallery")
	}

	dtos := make([]GalleryAssetDTO, 0, len(assets))
	for i := range assets {
		dtos = append(dtos, *AssetFromModel(&assets[i]))
	}
	return dtos, nil
}

func (s *service) CountGallery(ctx context.Context, profileID uuid.UUID) (int64, error) {
	count, err := s.repo.CountAssets(ctx, profileID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count gallery")
	}
	return count, nil
}

func (s *service) Unpublish(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if profile.Status != enums.ProfileStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "profile is not published")
	}

	profile.Status = enums.ProfileStatusUnpublished
	profile.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unpublish profile")
	}

	if err := s.cache.InvalidateProfileViews(ctx, userID.String()); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"user_id": userID.String(),
			"error":   err.Error(),
		}), "profile cache invalidation failed")
	}
	return FromModel(profile), nil
}

func (s *service) ownedAsset(ctx context.Context, userID, assetID uuid.UUID) (*models.GalleryAsset, error) {
	profile, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	asset, err := s.repo.FindAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gallery asset not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gallery asset")
	}
	if asset.ProfileID != profile.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "asset belongs to another profile")
	}
	return asset, nil
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}

func cloneTags(value []string) pq.StringArray {
	if value == nil {
		return nil
	}
	res := make(pq.StringArray, len(value))
	copy(res, value)
	return res
}
