package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

func TestUserContextInjectsUserID(t *testing.T) {
	userID := uuid.NewString()
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	})

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := UserContext(logg)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/me", nil)
	req.Header.Set("X-User-Id", " "+userID+" ")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if seen != userID {
		t.Fatalf("expected %s in context, got %q", userID, seen)
	}
}

func TestUserContextRejectsMissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := UserContext(logg)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/me", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestUserContextRejectsMalformedID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := UserContext(logg)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/me", nil)
	req.Header.Set("X-User-Id", "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
