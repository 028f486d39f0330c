package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

const saveTimeout = 10 * time.Second

// SaveFunc persists the draft snapshot for the given user.
type SaveFunc func(ctx context.Context, userID uuid.UUID, input profiles.UpdateDraftInput) error

// Coordinator debounces draft writes behind a quiet period. Every change
// replaces the pending snapshot (each snapshot carries the full form state,
// so last-writer-wins is safe), and the timer restarts. Nothing is written
// until the draft has been loaded and its ID is known; before that, changes
// only accumulate.
type Coordinator struct {
	quiet time.Duration
	save  SaveFunc
	logg  *logger.Logger

	mu      sync.Mutex
	timer   *time.Timer
	userID  uuid.UUID
	loaded  bool
	idKnown bool
	pending *profiles.UpdateDraftInput
	closed  bool
}

// New builds a coordinator for one user's editing session.
func New(userID uuid.UUID, quiet time.Duration, save SaveFunc, logg *logger.Logger) (*Coordinator, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	if save == nil {
		return nil, fmt.Errorf("save func required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if quiet <= 0 {
		quiet = time.Second
	}
	return &Coordinator{
		quiet:  quiet,
		save:   save,
		logg:   logg,
		userID: userID,
	}, nil
}

// MarkLoaded records that the draft has been fetched into the form. Changes
// noted before this point never schedule a write; they would race the load
// and could clobber the stored draft with an empty form.
func (c *Coordinator) MarkLoaded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	c.rescheduleLocked()
}

// MarkIDKnown records that the draft row exists. Until then an autosave
// would have nothing to update.
func (c *Coordinator) MarkIDKnown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idKnown = true
	c.rescheduleLocked()
}

// NoteChange replaces the pending snapshot and restarts the quiet period.
func (c *Coordinator) NoteChange(input profiles.UpdateDraftInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.pending = &input
	c.rescheduleLocked()
}

// Flush cancels any pending timer and writes the pending snapshot now.
// Explicit saves call this first so a stale debounced write cannot land
// after the fresher explicit one.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.stopTimerLocked()
	input := c.pending
	c.pending = nil
	c.mu.Unlock()

	if input == nil {
		return nil
	}
	return c.save(ctx, c.userID, *input)
}

// Drop cancels any pending timer and discards the snapshot without closing
// the coordinator. Callers use it when a fresher full snapshot is about to be
// written through another path, so the stale debounced write cannot land
// after it.
func (c *Coordinator) Drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.pending = nil
}

// Close cancels any pending write and drops the snapshot. Used on unmount;
// whatever was not yet saved is intentionally lost.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimerLocked()
	c.pending = nil
}

// Pending reports whether a snapshot is waiting to be written.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Coordinator) armedLocked() bool {
	return c.loaded && c.idKnown && !c.closed && c.pending != nil
}

func (c *Coordinator) rescheduleLocked() {
	if !c.armedLocked() {
		return
	}
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.quiet, c.fire)
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) fire() {
	c.mu.Lock()
	if c.closed || c.pending == nil {
		c.mu.Unlock()
		return
	}
	input := *c.pending
	c.pending = nil
	c.timer = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := c.save(ctx, c.userID, input); err != nil {
		// autosave is best effort, the snapshot stays in the form and the
		// next change or an explicit save will carry it
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
			"user_id": c.userID.String(),
			"error":   err.Error(),
		}), "autosave write failed")
	}
}
