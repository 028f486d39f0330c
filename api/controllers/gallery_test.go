package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/internal/imaging"
	"github.com/makersnearby/makersnearby-backend/internal/ingest"
	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/pkg/config"
	"github.com/makersnearby/makersnearby-backend/pkg/enums"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
)

type galleryNormalizer struct{}

func (galleryNormalizer) Normalize(src io.Reader, spec imaging.CropSpec) ([]byte, error) {
	return io.ReadAll(src)
}

type galleryUploader struct {
	uploads []string
	failOn  string
}

func (u *galleryUploader) Upload(ctx context.Context, object, contentType string, data []byte) (string, error) {
	if u.failOn != "" && strings.Contains(string(data), u.failOn) {
		return "", fmt.Errorf("bucket unreachable")
	}
	u.uploads = append(u.uploads, object)
	return "https://storage.googleapis.com/test-bucket/" + object, nil
}

type galleryAttacher struct {
	attached []string
}

func (a *galleryAttacher) AttachAsset(ctx context.Context, userID uuid.UUID, objectKey, url, fileName string) (*profiles.GalleryAssetDTO, error) {
	a.attached = append(a.attached, fileName)
	return &profiles.GalleryAssetDTO{
		ID:       uuid.New(),
		URL:      url,
		FileName: fileName,
		Position: len(a.attached) - 1,
	}, nil
}

type galleryNotifier struct {
	count int
}

func (n *galleryNotifier) Notify(ctx context.Context, userID uuid.UUID, level enums.NotificationLevel, title, message string) {
	n.count++
}

func newIngestService(t *testing.T, attacher *galleryAttacher, notif *galleryNotifier) *ingest.Service {
	t.Helper()
	return newIngestServiceWithUploader(t, &galleryUploader{}, attacher, notif)
}

func newIngestServiceWithUploader(t *testing.T, uploader *galleryUploader, attacher *galleryAttacher, notif *galleryNotifier) *ingest.Service {
	t.Helper()
	svc, err := ingest.NewService(
		galleryNormalizer{},
		uploader,
		attacher,
		notif,
		config.MediaConfig{MaxUploadMB: 20},
		testLogger(),
	)
	if err != nil {
		t.Fatalf("new ingest service: %v", err)
	}
	return svc
}

func multipartBody(t *testing.T, names []string, crops string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, name := range names {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, name))
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write([]byte("fake image bytes for " + name)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if crops != "" {
		if err := writer.WriteField("crops", crops); err != nil {
			t.Fatalf("write crops: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, writer.FormDataContentType()
}

func TestUploadGalleryCommitsInSubmissionOrder(t *testing.T) {
	attacher := &galleryAttacher{}
	notif := &galleryNotifier{}
	svc := newIngestService(t, attacher, notif)

	body, contentType := multipartBody(t, []string{"wheel.png", "kiln.png", "glaze.png"}, "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/me/gallery", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, uuid.NewString())

	resp := httptest.NewRecorder()
	UploadGallery(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got := attacher.attached; len(got) != 3 || got[0] != "wheel.png" || got[1] != "kiln.png" || got[2] != "glaze.png" {
		t.Fatalf("unexpected commit order %v", got)
	}
	if notif.count != 1 {
		t.Fatalf("expected one batch summary, got %d", notif.count)
	}

	var envelope struct {
		Data uploadResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Produced != 3 || len(envelope.Data.Assets) != 3 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestUploadGalleryContinuesPastUploadFailure(t *testing.T) {
	attacher := &galleryAttacher{}
	notif := &galleryNotifier{}
	uploader := &galleryUploader{failOn: "kiln.png"}
	svc := newIngestServiceWithUploader(t, uploader, attacher, notif)

	body, contentType := multipartBody(t, []string{"wheel.png", "kiln.png", "glaze.png"}, "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/me/draft/gallery", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, uuid.NewString())

	resp := httptest.NewRecorder()
	UploadGallery(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got := attacher.attached; len(got) != 2 || got[0] != "wheel.png" || got[1] != "glaze.png" {
		t.Fatalf("batch must continue past the failed file, attached %v", got)
	}
	if notif.count != 1 {
		t.Fatalf("expected one batch summary, got %d", notif.count)
	}

	var envelope struct {
		Data uploadResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Produced != 2 || len(envelope.Data.Assets) != 2 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
	if len(envelope.Data.Failures) != 1 || !strings.Contains(envelope.Data.Failures[0], "kiln.png") {
		t.Fatalf("expected kiln.png in failures, got %v", envelope.Data.Failures)
	}
	if len(envelope.Data.Skipped) != 0 {
		t.Fatalf("failed file must not also count as skipped: %v", envelope.Data.Skipped)
	}
}

func TestUploadGalleryRejectsEmptyBatch(t *testing.T) {
	svc := newIngestService(t, &galleryAttacher{}, &galleryNotifier{})

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/me/gallery", buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = withUser(req, uuid.NewString())

	resp := httptest.NewRecorder()
	UploadGallery(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUploadGalleryInvalidCropsPayload(t *testing.T) {
	svc := newIngestService(t, &galleryAttacher{}, &galleryNotifier{})

	body, contentType := multipartBody(t, []string{"wheel.png"}, "{not json")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/me/gallery", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, uuid.NewString())

	resp := httptest.NewRecorder()
	UploadGallery(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSetGalleryFeatured(t *testing.T) {
	userID := uuid.New()
	assetID := uuid.New()
	svc := &testProfilesService{
		featuredFn: func(ctx context.Context, uid, aid uuid.UUID, featured bool) (*profiles.GalleryAssetDTO, error) {
			if uid != userID || aid != assetID || !featured {
				t.Fatalf("unexpected call %s %s %v", uid, aid, featured)
			}
			return &profiles.GalleryAssetDTO{ID: aid, Featured: featured}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/profiles/me/gallery/"+assetID.String()+"/featured", strings.NewReader(`{"featured":true}`))
	req = withUser(req, userID.String())
	req = addRouteParam(req, "assetId", assetID.String())

	resp := httptest.NewRecorder()
	SetGalleryFeatured(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSetGalleryFeaturedCapReached(t *testing.T) {
	svc := &testProfilesService{
		featuredFn: func(ctx context.Context, uid, aid uuid.UUID, featured bool) (*profiles.GalleryAssetDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "featured cap reached")
		},
	}

	assetID := uuid.NewString()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profiles/me/gallery/"+assetID+"/featured", strings.NewReader(`{"featured":true}`))
	req = withUser(req, uuid.NewString())
	req = addRouteParam(req, "assetId", assetID)

	resp := httptest.NewRecorder()
	SetGalleryFeatured(svc, testLogger())(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestSetGalleryFeaturedInvalidAssetID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profiles/me/gallery/nope/featured", strings.NewReader(`{"featured":true}`))
	req = withUser(req, uuid.NewString())
	req = addRouteParam(req, "assetId", "nope")

	resp := httptest.NewRecorder()
	SetGalleryFeatured(&testProfilesService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDeleteGalleryAssetForeignAsset(t *testing.T) {
	svc := &testProfilesService{
		removeFn: func(ctx context.Context, uid, aid uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeForbidden, "asset belongs to another profile")
		},
	}

	assetID := uuid.NewString()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/profiles/me/gallery/"+assetID, nil)
	req = withUser(req, uuid.NewString())
	req = addRouteParam(req, "assetId", assetID)

	resp := httptest.NewRecorder()
	DeleteGalleryAsset(svc, testLogger())(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestListGallery(t *testing.T) {
	svc := &testProfilesService{
		listFn: func(ctx context.Context, uid uuid.UUID) ([]profiles.GalleryAssetDTO, error) {
			return []profiles.GalleryAssetDTO{
				{ID: uuid.New(), Position: 0},
				{ID: uuid.New(), Position: 1},
			}, nil
		},
	}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/profiles/me/gallery", nil), uuid.NewString())
	resp := httptest.NewRecorder()
	ListGallery(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data []profiles.GalleryAssetDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(envelope.Data))
	}
}
