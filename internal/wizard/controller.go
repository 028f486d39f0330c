package wizard

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/internal/autosave"
	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/internal/publish"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

type profileService interface {
	EnsureDraft(ctx context.Context, userID uuid.UUID) (*profiles.ProfileDTO, error)
	LoadDraft(ctx context.Context, userID uuid.UUID) (*profiles.ProfileDTO, error)
	UpdateDraft(ctx context.Context, userID uuid.UUID, input profiles.UpdateDraftInput) (*profiles.ProfileDTO, error)
}

type publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, snapshot *profiles.UpdateDraftInput) (*publish.Result, error)
}

// Controller sequences one user's onboarding session through the five steps.
// It owns the form state; the autosave coordinator persists it in the
// background and the publisher consumes it at the end.
//
// A Controller serves a single session and is safe for the sequential
// interleaving a session produces, guarded by its mutex.
type Controller struct {
	userID    uuid.UUID
	profiles  profileService
	publisher publisher
	autosave  *autosave.Coordinator
	logg      *logger.Logger

	mu         sync.Mutex
	step       Step
	form       profiles.UpdateDraftInput
	loaded     bool
	publishing bool
	closed     bool
}

// NewController builds a session controller starting at the first step.
func NewController(userID uuid.UUID, profilesSvc profileService, pub publisher, coord *autosave.Coordinator, logg *logger.Logger) (*Controller, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	if profilesSvc == nil {
		return nil, fmt.Errorf("profiles service required")
	}
	if pub == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if coord == nil {
		return nil, fmt.Errorf("autosave coordinator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Controller{
		userID:    userID,
		profiles:  profilesSvc,
		publisher: pub,
		autosave:  coord,
		logg:      logg,
		step:      firstStep,
	}, nil
}

// Load fetches the existing draft into the form, once. A user with no draft
// starts from an empty form; entering the wizard never creates a row.
func (c *Controller) Load(ctx context.Context) (*profiles.ProfileDTO, error) {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "wizard already loaded")
	}
	c.mu.Unlock()

	draft, err := c.profiles.LoadDraft(ctx, c.userID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			c.mu.Lock()
			c.loaded = true
			c.mu.Unlock()
			c.autosave.MarkLoaded()
			return nil, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.loaded = true
	c.form = formFromDraft(draft)
	c.mu.Unlock()

	c.autosave.MarkLoaded()
	c.autosave.MarkIDKnown()
	return draft, nil
}

// Step returns the current step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Next advances one step, clamped at review.
func (c *Controller) Next() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step < lastStep {
		c.step++
	}
	return c.step
}

// Back retreats one step, clamped at basics.
func (c *Controller) Back() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step > firstStep {
		c.step--
	}
	return c.step
}

// UpdateForm merges the provided fields into the form and notes the change
// for autosave. The coordinator receives the full current snapshot, never a
// delta, so a late write still carries everything.
func (c *Controller) UpdateForm(input profiles.UpdateDraftInput) {
	c.mu.Lock()
	mergeForm(&c.form, input)
	snapshot := c.form
	c.mu.Unlock()

	c.autosave.NoteChange(snapshot)
}

// SaveAndExit persists the full form explicitly. With nothing meaningful in
// the form it is a no-op; abandoning an untouched wizard must not create a
// draft row.
func (c *Controller) SaveAndExit(ctx context.Context) (*profiles.ProfileDTO, error) {
	c.mu.Lock()
	form := c.form
	c.mu.Unlock()

	// the explicit write supersedes any debounced one
	c.autosave.Drop()

	if form.Empty() {
		return nil, nil
	}

	if _, err := c.profiles.EnsureDraft(ctx, c.userID); err != nil {
		return nil, err
	}
	c.autosave.MarkIDKnown()

	dto, err := c.profiles.UpdateDraft(ctx, c.userID, form)
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Publish runs the gate from the review step. A second submission while one
// is in flight is rejected; the event loop does not serialize button presses.
func (c *Controller) Publish(ctx context.Context) (*publish.Result, error) {
	c.mu.Lock()
	if c.publishing {
		c.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "publish already in flight")
	}
	c.publishing = true
	form := c.form
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.publishing = false
		c.mu.Unlock()
	}()

	// the publisher flushes the full snapshot itself
	c.autosave.Drop()

	result, err := c.publisher.Publish(ctx, c.userID, &form)
	if err != nil {
		return nil, err
	}
	if result.Success {
		c.autosave.MarkIDKnown()
	}
	return result, nil
}

// Close ends the session and cancels any pending autosave, matching the
// unmount contract: un-flushed changes are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.autosave.Close()
}

func formFromDraft(draft *profiles.ProfileDTO) profiles.UpdateDraftInput {
	form := profiles.UpdateDraftInput{}
	if draft == nil {
		return form
	}
	form.Handle = clonePtr(draft.Handle)
	form.DisplayName = clonePtr(draft.DisplayName)
	form.CraftCategory = clonePtr(draft.CraftCategory)
	form.Bio = clonePtr(draft.Bio)
	form.Locality = clonePtr(draft.Locality)
	if draft.ContactChannel != nil {
		channel := *draft.ContactChannel
		form.ContactChannel = &channel
	}
	form.ContactValue = clonePtr(draft.ContactValue)
	accepting := draft.AcceptingOrders
	form.AcceptingOrders = &accepting
	if draft.Tags != nil {
		tags := append([]string(nil), draft.Tags...)
		form.Tags = &tags
	}
	return form
}

func mergeForm(form *profiles.UpdateDraftInput, input profiles.UpdateDraftInput) {
	if input.Handle != nil {
		form.Handle = clonePtr(input.Handle)
	}
	if input.DisplayName != nil {
		form.DisplayName = clonePtr(input.DisplayName)
	}
	if input.CraftCategory != nil {
		form.CraftCategory = clonePtr(input.CraftCategory)
	}
	if input.Bio != nil {
		form.Bio = clonePtr(input.Bio)
	}
	if input.Locality != nil {
		form.Locality = clonePtr(input.Locality)
	}
	if input.ContactChannel != nil {
		channel := *input.ContactChannel
		form.ContactChannel = &channel
	}
	if input.ContactValue != nil {
		form.ContactValue = clonePtr(input.ContactValue)
	}
	if input.AcceptingOrders != nil {
		accepting := *input.AcceptingOrders
		form.AcceptingOrders = &accepting
	}
	if input.Tags != nil {
		tags := append([]string(nil), *input.Tags...)
		form.Tags = &tags
	}
}

func clonePtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
