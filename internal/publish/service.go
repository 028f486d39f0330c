package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/pkg/config"
	"github.com/makersnearby/makersnearby-backend/pkg/db/models"
	"github.com/makersnearby/makersnearby-backend/pkg/enums"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

const (
	bioMinLen = 20
	bioMaxLen = 1000
)

type profileService interface {
	EnsureDraft(ctx context.Context, userID uuid.UUID) (*profiles.ProfileDTO, error)
	UpdateDraft(ctx context.Context, userID uuid.UUID, input profiles.UpdateDraftInput) (*profiles.ProfileDTO, error)
	CountGallery(ctx context.Context, profileID uuid.UUID) (int64, error)
}

type profileRepo interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.ArtisanProfile, error)
	Update(ctx context.Context, profile *models.ArtisanProfile) error
}

type cacheInvalidator interface {
	InvalidateProfileViews(ctx context.Context, userID string) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, level enums.NotificationLevel, title, message string)
}

// Result is the publish outcome. A failed gate is a normal result, not an
// error; the aggregated messages go back to the user verbatim.
type Result struct {
	Success bool                 `json:"success"`
	Errors  []string             `json:"errors,omitempty"`
	Profile *profiles.ProfileDTO `json:"profile,omitempty"`
}

// Service runs the publish gate and flips profile visibility.
type Service interface {
	Publish(ctx context.Context, userID uuid.UUID, snapshot *profiles.UpdateDraftInput) (*Result, error)
}

type service struct {
	profiles   profileService
	repo       profileRepo
	cache      cacheInvalidator
	notifier   notifier
	galleryCfg config.GalleryConfig
	logg       *logger.Logger
}

// NewService wires the publisher dependencies.
func NewService(profilesSvc profileService, repo profileRepo, cache cacheInvalidator, notif notifier, galleryCfg config.GalleryConfig, logg *logger.Logger) (Service, error) {
	if profilesSvc == nil {
		return nil, fmt.Errorf("profiles service required")
	}
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache invalidator required")
	}
	if notif == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		profiles:   profilesSvc,
		repo:       repo,
		cache:      cache,
		notifier:   notif,
		galleryCfg: galleryCfg,
		logg:       logg,
	}, nil
}

// Publish ensures a draft exists, flushes the caller's current form snapshot
// into it, then runs every completeness check before flipping the status.
// The draft is created here when the user filled fields but autosave never
// fired. A failed gate mutates nothing.
func (s *service) Publish(ctx context.Context, userID uuid.UUID, snapshot *profiles.UpdateDraftInput) (*Result, error) {
	draft, err := s.profiles.EnsureDraft(ctx, userID)
	if err != nil {
		return nil, err
	}

	if snapshot != nil && !snapshot.Empty() {
		draft, err = s.profiles.UpdateDraft(ctx, userID, *snapshot)
		if err != nil {
			return nil, err
		}
	}

	galleryCount, err := s.profiles.CountGallery(ctx, draft.ID)
	if err != nil {
		return nil, err
	}

	gateErrors := s.validate(draft, galleryCount)
	if len(gateErrors) > 0 {
		return &Result{Success: false, Errors: gateErrors}, nil
	}

	if draft.Status == enums.ProfileStatusPublished {
		return &Result{Success: true, Profile: draft}, nil
	}

	profile, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	now := time.Now().UTC()
	profile.Status = enums.ProfileStatusPublished
	profile.PublishedAt = &now
	profile.UpdatedAt = now
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish profile")
	}

	if err := s.cache.InvalidateProfileViews(ctx, userID.String()); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"user_id": userID.String(),
			"error":   err.Error(),
		}), "profile cache invalidation failed after publish")
	}

	s.notifier.Notify(ctx, userID, enums.NotificationLevelSuccess,
		"Profile published", "Your maker profile is now visible in the directory.")

	return &Result{Success: true, Profile: profiles.FromModel(profile)}, nil
}

// validate runs every check and collects the failures; nothing short-circuits
// so the user sees the full punch list at once.
func (s *service) validate(draft *profiles.ProfileDTO, galleryCount int64) []string {
	var gateErrors []string

	if strVal(draft.DisplayName) == "" {
		gateErrors = append(gateErrors, "display name is required")
	}
	if strVal(draft.CraftCategory) == "" {
		gateErrors = append(gateErrors, "craft category is required")
	}
	bio := strVal(draft.Bio)
	if bioLen := utf8.RuneCountInString(bio); bioLen < bioMinLen || bioLen > bioMaxLen {
		gateErrors = append(gateErrors,
			fmt.Sprintf("bio must be between %d and %d characters", bioMinLen, bioMaxLen))
	}
	if strVal(draft.Locality) == "" {
		gateErrors = append(gateErrors, "locality is required")
	}
	if draft.ContactChannel == nil || strVal(draft.ContactValue) == "" {
		gateErrors = append(gateErrors, "at least one contact channel is required")
	}
	if galleryCount < int64(s.galleryCfg.MinImages) {
		gateErrors = append(gateErrors,
			fmt.Sprintf("at least %d gallery images are required", s.galleryCfg.MinImages))
	}

	return gateErrors
}

func strVal(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
