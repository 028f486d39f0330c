package wizard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/internal/autosave"
	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/pkg/config"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

// Factory builds per-user wizard sessions, each with its own autosave
// coordinator debounced by the configured quiet period.
type Factory struct {
	profiles    profileService
	publisher   publisher
	autosaveCfg config.AutosaveConfig
	logg        *logger.Logger
}

// NewFactory wires the session dependencies shared across users.
func NewFactory(profilesSvc profileService, pub publisher, autosaveCfg config.AutosaveConfig, logg *logger.Logger) (*Factory, error) {
	if profilesSvc == nil {
		return nil, fmt.Errorf("profiles service required")
	}
	if pub == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Factory{
		profiles:    profilesSvc,
		publisher:   pub,
		autosaveCfg: autosaveCfg,
		logg:        logg,
	}, nil
}

// NewSession builds a controller for one user's onboarding run. The session's
// debounced writes go through the same draft update path as explicit saves.
func (f *Factory) NewSession(userID uuid.UUID) (*Controller, error) {
	coord, err := autosave.New(userID, f.autosaveCfg.QuietPeriod,
		func(ctx context.Context, uid uuid.UUID, input profiles.UpdateDraftInput) error {
			_, err := f.profiles.UpdateDraft(ctx, uid, input)
			return err
		}, f.logg)
	if err != nil {
		return nil, err
	}
	return NewController(userID, f.profiles, f.publisher, coord, f.logg)
}
