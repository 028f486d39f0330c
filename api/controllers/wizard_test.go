package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/internal/wizard"
	"github.com/makersnearby/makersnearby-backend/pkg/config"
)

func newWizardSessions(t *testing.T, svc *testProfilesService) *wizard.Sessions {
	t.Helper()
	factory, err := wizard.NewFactory(svc, &testPublishService{},
		config.AutosaveConfig{QuietPeriod: time.Hour}, testLogger())
	if err != nil {
		t.Fatalf("new factory: %v", err)
	}
	sessions, err := wizard.NewSessions(factory)
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	return sessions
}

func TestWizardStartFormSaveExitFlow(t *testing.T) {
	userID := uuid.New()
	var saved *profiles.UpdateDraftInput
	svc := &testProfilesService{
		updateFn: func(ctx context.Context, uid uuid.UUID, input profiles.UpdateDraftInput) (*profiles.ProfileDTO, error) {
			saved = &input
			return &profiles.ProfileDTO{ID: uuid.New(), UserID: uid}, nil
		},
	}
	sessions := newWizardSessions(t, svc)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/wizard", nil), userID.String())
	resp := httptest.NewRecorder()
	StartWizard(sessions, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("start: unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var started struct {
		Data struct {
			Step string `json:"step"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &started); err != nil {
		t.Fatalf("unmarshal start response: %v", err)
	}
	if started.Data.Step != "basics" {
		t.Fatalf("expected basics, got %q", started.Data.Step)
	}

	body := `{"bio":"Small-batch leather goods, cut and stitched by hand."}`
	req = withUser(httptest.NewRequest(http.MethodPut, "/api/v1/wizard/form", strings.NewReader(body)), userID.String())
	resp = httptest.NewRecorder()
	UpdateWizardForm(sessions, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("form: unexpected status %d: %s", resp.Code, resp.Body.String())
	}

	req = withUser(httptest.NewRequest(http.MethodPost, "/api/v1/wizard/save-exit", nil), userID.String())
	resp = httptest.NewRecorder()
	WizardSaveAndExit(sessions, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("save-exit: unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if saved == nil || saved.Bio == nil || !strings.Contains(*saved.Bio, "leather goods") {
		t.Fatalf("form bio not persisted on save-exit: %+v", saved)
	}

	// the session is gone after save-exit
	req = withUser(httptest.NewRequest(http.MethodPost, "/api/v1/wizard/next", nil), userID.String())
	resp = httptest.NewRecorder()
	WizardNext(sessions, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after save-exit, got %d", resp.Code)
	}
}

func TestWizardStepHandlersRequireSession(t *testing.T) {
	sessions := newWizardSessions(t, &testProfilesService{})

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/wizard/next", nil), uuid.NewString())
	resp := httptest.NewRecorder()
	WizardNext(sessions, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a session, got %d", resp.Code)
	}
}

func TestWizardNavigationAdvancesStep(t *testing.T) {
	userID := uuid.New()
	sessions := newWizardSessions(t, &testProfilesService{})

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/wizard", nil), userID.String())
	resp := httptest.NewRecorder()
	StartWizard(sessions, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("start: unexpected status %d", resp.Code)
	}

	req = withUser(httptest.NewRequest(http.MethodPost, "/api/v1/wizard/next", nil), userID.String())
	resp = httptest.NewRecorder()
	WizardNext(sessions, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("next: unexpected status %d", resp.Code)
	}
	var moved struct {
		Data struct {
			Step string `json:"step"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &moved); err != nil {
		t.Fatalf("unmarshal next response: %v", err)
	}
	if moved.Data.Step != "showcase" {
		t.Fatalf("expected showcase, got %q", moved.Data.Step)
	}

	req = withUser(httptest.NewRequest(http.MethodDelete, "/api/v1/wizard", nil), userID.String())
	resp = httptest.NewRecorder()
	CloseWizard(sessions, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("close: unexpected status %d", resp.Code)
	}
}
