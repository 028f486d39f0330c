package controllers

import (
	"net/http"

	"github.com/makersnearby/makersnearby-backend/api/responses"
	"github.com/makersnearby/makersnearby-backend/api/validators"
	"github.com/makersnearby/makersnearby-backend/internal/wizard"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

// StartWizard opens a fresh onboarding session for the caller and returns the
// draft (null when none exists yet) with the starting step. Re-entering
// replaces the previous session.
func StartWizard(sessions *wizard.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard sessions unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, step, err := sessions.Start(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"draft": draft,
			"step":  step.String(),
		})
	}
}

// WizardNext advances the session one step, clamped at review.
func WizardNext(sessions *wizard.Sessions, logg *logger.Logger) http.HandlerFunc {
	return wizardStepHandler(sessions, logg, func(ctrl *wizard.Controller) wizard.Step {
		return ctrl.Next()
	})
}

// WizardBack retreats the session one step, clamped at basics.
func WizardBack(sessions *wizard.Sessions, logg *logger.Logger) http.HandlerFunc {
	return wizardStepHandler(sessions, logg, func(ctrl *wizard.Controller) wizard.Step {
		return ctrl.Back()
	})
}

func wizardStepHandler(sessions *wizard.Sessions, logg *logger.Logger, move func(*wizard.Controller) wizard.Step) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard sessions unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctrl, err := sessions.Get(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"step": move(ctrl).String()})
	}
}

// UpdateWizardForm merges edits into the session form; the autosave
// coordinator picks them up after the quiet period.
func UpdateWizardForm(sessions *wizard.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard sessions unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctrl, err := sessions.Get(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req draftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctrl.UpdateForm(req.toInput())
		responses.WriteSuccess(w, map[string]string{"step": ctrl.Step().String()})
	}
}

// WizardSaveAndExit persists the form explicitly and ends the session. An
// untouched form saves nothing and creates no draft.
func WizardSaveAndExit(sessions *wizard.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard sessions unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctrl, err := sessions.Get(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := ctrl.SaveAndExit(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessions.End(userID)
		responses.WriteSuccess(w, draft)
	}
}

// WizardPublish runs the publish gate from the session; a successful publish
// ends the session.
func WizardPublish(sessions *wizard.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard sessions unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctrl, err := sessions.Get(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := ctrl.Publish(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.Success {
			sessions.End(userID)
		}
		responses.WriteSuccess(w, result)
	}
}

// CloseWizard ends the session, dropping any un-flushed autosave state.
func CloseWizard(sessions *wizard.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard sessions unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessions.End(userID)
		responses.WriteSuccess(w, map[string]string{"status": "closed"})
	}
}
