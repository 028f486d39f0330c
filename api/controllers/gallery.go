package controllers

import (
	"encoding/json"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/makersnearby/makersnearby-backend/api/responses"
	"github.com/makersnearby/makersnearby-backend/api/validators"
	"github.com/makersnearby/makersnearby-backend/internal/imaging"
	"github.com/makersnearby/makersnearby-backend/internal/ingest"
	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

const multipartMemoryLimit = 32 << 20

// cropRequest is the confirmed crop window for one uploaded file, keyed by
// file name in the "crops" form field. A missing entry means the full frame.
type cropRequest struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Zoom   float64 `json:"zoom"`
}

func (c cropRequest) toSpec() imaging.CropSpec {
	return imaging.CropSpec{
		Rect: image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height),
		Zoom: c.Zoom,
	}
}

type uploadResponse struct {
	Assets   []profiles.GalleryAssetDTO `json:"assets"`
	Produced int                        `json:"produced"`
	Skipped  []string                   `json:"skipped,omitempty"`
	Failures []string                   `json:"failures,omitempty"`
}

// UploadGallery ingests a batch of images into the caller's gallery. Files
// are processed strictly in submission order; per-file failures are recorded
// in the response and the batch continues with the remaining files.
func UploadGallery(svc *ingest.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ingest service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		headers := r.MultipartForm.File["images"]
		if len(headers) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no images provided"))
			return
		}

		crops := map[string]cropRequest{}
		if raw := strings.TrimSpace(r.FormValue("crops")); raw != "" {
			if err := json.Unmarshal([]byte(raw), &crops); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid crops payload"))
				return
			}
		}

		files := make([]ingest.File, 0, len(headers))
		for _, header := range headers {
			part, err := header.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload "+header.Filename))
				return
			}
			data, err := io.ReadAll(part)
			part.Close()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload "+header.Filename))
				return
			}
			files = append(files, ingest.File{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}

		job, err := svc.NewJob(userID, files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := uploadResponse{Assets: []profiles.GalleryAssetDTO{}}
		for !job.Done() {
			current := job.Current()
			if current == nil {
				break
			}
			remaining := job.Remaining()
			asset, err := job.ConfirmCrop(r.Context(), crops[current.Name].toSpec())
			if err != nil {
				// a crop failure keeps the file current for interactive
				// retry; there is no retry over HTTP, so move on
				if !job.Done() && job.Remaining() == remaining {
					job.Skip(r.Context())
				}
				continue
			}
			resp.Assets = append(resp.Assets, *asset)
		}

		resp.Produced = job.Produced()
		resp.Skipped = job.Skipped()
		for _, failure := range multierr.Errors(job.Failures()) {
			resp.Failures = append(resp.Failures, failure.Error())
		}

		responses.WriteSuccess(w, resp)
	}
}

// ListGallery returns the caller's gallery in position order.
func ListGallery(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assets, err := svc.ListGallery(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assets)
	}
}

type featuredRequest struct {
	Featured *bool `json:"featured" validate:"required"`
}

// SetGalleryFeatured toggles the featured flag on one of the caller's assets.
func SetGalleryFeatured(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assetID, err := uuid.Parse(chi.URLParam(r, "assetId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset id"))
			return
		}

		var req featuredRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.SetFeatured(r.Context(), userID, assetID, *req.Featured)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, asset)
	}
}

// DeleteGalleryAsset removes one of the caller's gallery images. Positions of
// the remaining assets are left as they are.
func DeleteGalleryAsset(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assetID, err := uuid.Parse(chi.URLParam(r, "assetId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset id"))
			return
		}

		if err := svc.RemoveAsset(r.Context(), userID, assetID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
