package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/api/middleware"
	"github.com/makersnearby/makersnearby-backend/api/responses"
	"github.com/makersnearby/makersnearby-backend/api/validators"
	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/internal/publish"
	"github.com/makersnearby/makersnearby-backend/pkg/enums"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

type draftRequest struct {
	Handle          *string   `json:"handle" validate:"omitempty,max=60"`
	DisplayName     *string   `json:"display_name" validate:"omitempty,max=120"`
	CraftCategory   *string   `json:"craft_category" validate:"omitempty,max=120"`
	Bio             *string   `json:"bio" validate:"omitempty,max=1000"`
	Locality        *string   `json:"locality" validate:"omitempty,max=160"`
	ContactChannel  *string   `json:"contact_channel" validate:"omitempty,oneof=email phone instagram whatsapp website"`
	ContactValue    *string   `json:"contact_value" validate:"omitempty,max=255"`
	AcceptingOrders *bool     `json:"accepting_orders"`
	Tags            *[]string `json:"tags" validate:"omitempty,max=10,dive,max=40"`
}

func (req draftRequest) toInput() profiles.UpdateDraftInput {
	input := profiles.UpdateDraftInput{
		Handle:          req.Handle,
		DisplayName:     req.DisplayName,
		CraftCategory:   req.CraftCategory,
		Bio:             req.Bio,
		Locality:        req.Locality,
		ContactValue:    req.ContactValue,
		AcceptingOrders: req.AcceptingOrders,
		Tags:            req.Tags,
	}
	if req.ContactChannel != nil {
		channel := enums.ContactChannel(*req.ContactChannel)
		input.ContactChannel = &channel
	}
	return input
}

func requestUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

// GetMyProfile returns the caller's draft for editing. Users without a
// profile yet get an empty payload rather than an error so the editor can
// open on a blank form without creating a row.
func GetMyProfile(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
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

		draft, err := svc.LoadDraft(r.Context(), userID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				responses.WriteSuccess(w, nil)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

// UpdateMyProfile applies a partial update to the caller's draft, creating
// the draft first when none exists. Absent fields are left untouched.
func UpdateMyProfile(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
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

		var req draftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.EnsureDraft(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := svc.UpdateDraft(r.Context(), userID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

// PublishMyProfile runs the publish gate. An optional body carries unsaved
// edits that are flushed into the draft before validation. Validation
// failures come back as a 200 with the aggregated reasons; the profile is
// only mutated when every check passes.
func PublishMyProfile(svc publish.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "publish service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var snapshot *profiles.UpdateDraftInput
		if r.ContentLength > 0 {
			var req draftRequest
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input := req.toInput()
			snapshot = &input
		}

		result, err := svc.Publish(r.Context(), userID, snapshot)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UnpublishMyProfile takes a published profile back to draft.
func UnpublishMyProfile(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
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

		profile, err := svc.Unpublish(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
