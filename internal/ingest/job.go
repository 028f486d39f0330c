package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/makersnearby/makersnearby-backend/internal/imaging"
	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/pkg/enums"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
)

// Job drives one batch of files through crop, encode, stage and upload.
// Exactly one file is in flight at a time and commits land in submission
// order. A failed crop leaves the same file current for retry; upload and
// commit failures are recorded per file and the queue moves on to the next.
//
// Job is not safe for concurrent use; the flow is user-attended and strictly
// sequential.
type Job struct {
	svc      *Service
	userID   uuid.UUID
	pending  []File
	idx      int
	produced int
	skipped  []string
	failures error
	failed   map[string]bool
	done     bool
}

// Current returns the file awaiting its crop, or nil when the job is done.
func (j *Job) Current() *File {
	if j.done || j.idx >= len(j.pending) {
		return nil
	}
	file := j.pending[j.idx]
	return &file
}

// Produced reports how many assets the job has committed.
func (j *Job) Produced() int { return j.produced }

// Remaining reports how many files are still queued, including the current one.
func (j *Job) Remaining() int {
	if j.done {
		return 0
	}
	return len(j.pending) - j.idx
}

// Done reports whether the job has drained or been cancelled.
func (j *Job) Done() bool { return j.done }

// ConfirmCrop normalizes the current file with the confirmed crop, uploads
// the result and commits it to the gallery, then advances to the next file.
// The first committed artifact creates the draft when none exists yet.
//
// A crop or decode failure keeps the file current so its crop can be
// reattempted. Upload and commit failures are terminal for the file: they are
// recorded in the batch failures and the queue offers the next file.
func (j *Job) ConfirmCrop(ctx context.Context, spec imaging.CropSpec) (*profiles.GalleryAssetDTO, error) {
	file := j.Current()
	if file == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no file awaiting crop")
	}

	normalized, err := j.svc.normalizer.Normalize(bytes.NewReader(file.Data), spec)
	if err != nil {
		j.recordFailure(file.Name, err)
		if errors.Is(err, imaging.ErrDecodeFailed) || errors.Is(err, imaging.ErrRenderUnavailable) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "crop failed for "+file.Name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "normalize "+file.Name)
	}

	objectKey := fmt.Sprintf("gallery/%s/%s.jpg", j.userID, uuid.New())
	url, err := j.svc.store.Upload(ctx, objectKey, "image/jpeg", normalized)
	if err != nil {
		j.recordFailure(file.Name, err)
		j.advance(ctx)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload "+file.Name)
	}

	asset, err := j.svc.profiles.AttachAsset(ctx, j.userID, objectKey, url, file.Name)
	if err != nil {
		j.recordFailure(file.Name, err)
		j.advance(ctx)
		return nil, err
	}

	j.produced++
	j.advance(ctx)
	return asset, nil
}

// Skip abandons the current file and offers the next one. A file that already
// recorded a failure is not re-counted as skipped.
func (j *Job) Skip(ctx context.Context) {
	file := j.Current()
	if file == nil {
		return
	}
	if !j.failed[file.Name] {
		j.skipped = append(j.skipped, file.Name)
	}
	j.advance(ctx)
}

func (j *Job) advance(ctx context.Context) {
	j.idx++
	if j.idx >= len(j.pending) {
		j.finish(ctx)
	}
}

// Cancel drops the current file and everything still queued behind it, then
// emits the batch summary. Dismissing the crop dialog mid-batch abandons the
// remainder rather than offering the next file.
func (j *Job) Cancel(ctx context.Context) {
	if j.done {
		return
	}
	for _, file := range j.pending[j.idx:] {
		if j.failed[file.Name] {
			continue
		}
		j.skipped = append(j.skipped, file.Name)
	}
	j.finish(ctx)
}

func (j *Job) recordFailure(name string, err error) {
	j.failures = multierr.Append(j.failures, fmt.Errorf("%s: %w", name, err))
	if j.failed == nil {
		j.failed = map[string]bool{}
	}
	j.failed[name] = true
}

// finish marks the job done and emits exactly one summary notification for
// the whole batch.
func (j *Job) finish(ctx context.Context) {
	j.done = true

	level := enums.NotificationLevelSuccess
	title := "Gallery updated"
	message := fmt.Sprintf("%d image(s) added to your gallery.", j.produced)

	failed := len(multierr.Errors(j.failures))
	switch {
	case j.produced == 0:
		level = enums.NotificationLevelError
		title = "Upload incomplete"
		message = "No images were added to your gallery."
	case failed > 0 || len(j.skipped) > 0:
		level = enums.NotificationLevelWarning
		title = "Gallery partially updated"
		message = fmt.Sprintf("%d image(s) added, %d failed, %d skipped.",
			j.produced, failed, len(j.skipped))
	}

	if j.failures != nil {
		j.svc.logg.Warn(j.svc.logg.WithFields(ctx, map[string]any{
			"user_id": j.userID.String(),
			"errors":  j.failures.Error(),
		}), "media ingestion finished with failures")
	}

	j.svc.notifier.Notify(ctx, j.userID, level, title, message)
}

// Failures returns the accumulated per-file errors for the batch.
func (j *Job) Failures() error { return j.failures }

// Skipped returns the names of files dropped without an attempt.
func (j *Job) Skipped() []string { return j.skipped }
