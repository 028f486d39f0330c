package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/internal/imaging"
	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/pkg/config"
	"github.com/makersnearby/makersnearby-backend/pkg/enums"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type normalizer interface {
	Normalize(src io.Reader, spec imaging.CropSpec) ([]byte, error)
}

type uploader interface {
	Upload(ctx context.Context, object, contentType string, data []byte) (string, error)
}

type assetAttacher interface {
	AttachAsset(ctx context.Context, userID uuid.UUID, objectKey, url, fileName string) (*profiles.GalleryAssetDTO, error)
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, level enums.NotificationLevel, title, message string)
}

// File is one raw user-selected file queued for ingestion.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Service builds ingestion jobs over batches of user-selected files.
type Service struct {
	normalizer normalizer
	store      uploader
	profiles   assetAttacher
	notifier   notifier
	mediaCfg   config.MediaConfig
	logg       *logger.Logger
}

// NewService wires the ingestion dependencies.
func NewService(norm normalizer, store uploader, profilesSvc assetAttacher, notif notifier, mediaCfg config.MediaConfig, logg *logger.Logger) (*Service, error) {
	if norm == nil {
		return nil, fmt.Errorf("normalizer required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if profilesSvc == nil {
		return nil, fmt.Errorf("profiles service required")
	}
	if notif == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		normalizer: norm,
		store:      store,
		profiles:   profilesSvc,
		notifier:   notif,
		mediaCfg:   mediaCfg,
		logg:       logg,
	}, nil
}

// NewJob filters the batch down to ingestible images and returns the job that
// drives them strictly in submission order. Non-image and oversized files are
// dropped up front and reported in the batch summary.
func (s *Service) NewJob(userID uuid.UUID, files []File) (*Job, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no files submitted")
	}

	maxBytes := int64(s.mediaCfg.MaxUploadMB) << 20

	job := &Job{svc: s, userID: userID}
	for _, file := range files {
		if !s.ingestible(file, maxBytes) {
			job.skipped = append(job.skipped, file.Name)
			continue
		}
		job.pending = append(job.pending, file)
	}
	if len(job.pending) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no ingestible image files in batch")
	}
	return job, nil
}

func (s *Service) ingestible(file File, maxBytes int64) bool {
	if len(file.Data) == 0 {
		return false
	}
	if maxBytes > 0 && int64(len(file.Data)) > maxBytes {
		return false
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}
	return allowedImageTypes[contentType]
}
