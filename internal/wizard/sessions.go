package wizard

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
)

// Sessions tracks at most one live wizard per user. Starting a new session
// closes any previous one; its un-flushed autosave state is dropped, matching
// the re-entry contract.
type Sessions struct {
	factory *Factory

	mu     sync.Mutex
	active map[uuid.UUID]*Controller
}

// NewSessions builds the per-user session registry.
func NewSessions(factory *Factory) (*Sessions, error) {
	if factory == nil {
		return nil, fmt.Errorf("session factory required")
	}
	return &Sessions{
		factory: factory,
		active:  map[uuid.UUID]*Controller{},
	}, nil
}

// Start opens a fresh session for the user and loads the draft into it.
func (s *Sessions) Start(ctx context.Context, userID uuid.UUID) (*profiles.ProfileDTO, Step, error) {
	ctrl, err := s.factory.NewSession(userID)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start wizard session")
	}

	draft, err := ctrl.Load(ctx)
	if err != nil {
		ctrl.Close()
		return nil, 0, err
	}

	s.mu.Lock()
	if prev, ok := s.active[userID]; ok {
		prev.Close()
	}
	s.active[userID] = ctrl
	s.mu.Unlock()

	return draft, ctrl.Step(), nil
}

// Get returns the user's live session.
func (s *Sessions) Get(userID uuid.UUID) (*Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, ok := s.active[userID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no wizard session")
	}
	return ctrl, nil
}

// End closes and removes the user's session. Ending an absent session is a
// no-op.
func (s *Sessions) End(userID uuid.UUID) {
	s.mu.Lock()
	ctrl, ok := s.active[userID]
	delete(s.active, userID)
	s.mu.Unlock()

	if ok {
		ctrl.Close()
	}
}
