package autosave

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

type saveRecorder struct {
	mu     sync.Mutex
	inputs []profiles.UpdateDraftInput
	err    error
	fired  chan struct{}
}

func newSaveRecorder() *saveRecorder {
	return &saveRecorder{fired: make(chan struct{}, 16)}
}

func (r *saveRecorder) save(ctx context.Context, userID uuid.UUID, input profiles.UpdateDraftInput) error {
	r.mu.Lock()
	r.inputs = append(r.inputs, input)
	err := r.err
	r.mu.Unlock()
	r.fired <- struct{}{}
	return err
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inputs)
}

func (r *saveRecorder) last() profiles.UpdateDraftInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputs[len(r.inputs)-1]
}

func (r *saveRecorder) waitFired(t *testing.T) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("save did not fire in time")
	}
}

func testCoordinator(t *testing.T, rec *saveRecorder, quiet time.Duration) *Coordinator {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	c, err := New(uuid.New(), quiet, rec.save, logg)
	require.NoError(t, err)
	return c
}

func strPtr(v string) *string { return &v }

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSaveFailureLogsCause(t *testing.T) {
	rec := newSaveRecorder()
	rec.err = errors.New("connection reset")
	out := &syncBuffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: out})
	c, err := New(uuid.New(), 20*time.Millisecond, rec.save, logg)
	require.NoError(t, err)

	c.MarkLoaded()
	c.MarkIDKnown()
	c.NoteChange(profiles.UpdateDraftInput{Bio: strPtr("kintsugi")})

	rec.waitFired(t)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "autosave write failed") &&
			strings.Contains(out.String(), "connection reset")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDebounceCoalescesRapidChanges(t *testing.T) {
	rec := newSaveRecorder()
	c := testCoordinator(t, rec, 30*time.Millisecond)
	c.MarkLoaded()
	c.MarkIDKnown()

	c.NoteChange(profiles.UpdateDraftInput{Bio: strPtr("one")})
	c.NoteChange(profiles.UpdateDraftInput{Bio: strPtr("two")})
	c.NoteChange(profiles.UpdateDraftInput{Bio: strPtr("three")})

	rec.waitFired(t)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "three", *rec.last().Bio)
}

func TestNoWriteBeforeLoaded(t *testing.T) {
	rec := newSaveRecorder()
	c := testCoordinator(t, rec, 20*time.Millisecond)
	c.MarkIDKnown()

	c.NoteChange(profiles.UpdateDraftInput{Bio: strPtr("early")})
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	// once loaded, the held snapshot schedules
	c.MarkLoaded()
	rec.waitFired(t)
	assert.Equal(t, 1, rec.count())
}

func TestNoWriteBeforeIDKnown(t *testing.T) {
	rec := newSaveRecorder()
	c := testCoordinator(t, rec, 20*time.Millisecond)
	c.MarkLoaded()

	c.NoteChange(profiles.UpdateDraftInput{Bio: strPtr("held")})
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	c.MarkIDKnown()
	rec.waitFired(t)
	assert.Equal(t, 1, rec.count())
}

func TestFlushCancelsTimerAndWritesNow(t *testing.T) {
	rec := newSaveRecorder()
	c := testCoordinator(t, rec, time.Hour)
	c.MarkLoaded()
	c.MarkIDKnown()

	c.NoteChange(profiles.UpdateDraftInput{Bio: strPtr("flushed")})
	require.NoError(t, c.Flush(context.Background()))
	rec.waitFired(t)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "flushed", *rec.last().Bio)

	// no stale debounced write afterwards
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
	assert.False(t, c.Pending())
}

func TestFlushWithNothingPendingIsNoop(t *testing.T) {
	rec := newSaveRecorder()
	c := testCoordinator(t, rec, 20*time.Millisecond)
	c.MarkLoaded()
	c.MarkIDKnown()

	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 0, rec.count())
}

func TestCloseDropsPendingWrite(t *testing.T) {
	rec := newSaveRecorder()
	c := testCoordinator(t, rec, 20*time.Millisecond)
	c.MarkLoaded()
	c.MarkIDKnown()

	c.NoteChange(profiles.UpdateDraftInput{Bio: strPtr("doomed")})
	c.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	// changes after close are ignored
	c.NoteChange(profiles.UpdateDraftInput{Bio: strPtr("late")})
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestSaveFailureDoesNotPanic(t *testing.T) {
	rec := newSaveRecorder()
	rec.err = assert.AnError
	c := testCoordinator(t, rec, 10*time.Millisecond)
	c.MarkLoaded()
	c.MarkIDKnown()

	c.NoteChange(profiles.UpdateDraftInput{Bio: strPtr("will fail")})
	rec.waitFired(t)
	assert.Equal(t, 1, rec.count())
}
