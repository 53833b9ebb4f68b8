package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glowhaus/storefront-backend/internal/analytics/types"
	"github.com/glowhaus/storefront-backend/internal/media"
	"github.com/glowhaus/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("refused") })

	rec := serve(HealthReady("dev", map[string]Pinger{"db": up, "redis": nil}, testLogger()), newRequest(http.MethodGet, "/health/ready", requestOpts{}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get(envHeader) != "dev" {
		t.Fatalf("expected env header")
	}

	rec = serve(HealthReady("dev", map[string]Pinger{"db": up, "redis": down}, testLogger()), newRequest(http.MethodGet, "/health/ready", requestOpts{}))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}

	rec = serve(HealthLive("dev"), newRequest(http.MethodGet, "/health/live", requestOpts{}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

type stubDashboard struct {
	period enums.AnalyticsPeriod
}

func (s *stubDashboard) Dashboard(_ context.Context, period enums.AnalyticsPeriod) (*types.Dashboard, error) {
	s.period = period
	if period == "daily" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid analytics period")
	}
	return &types.Dashboard{Period: period}, nil
}

func TestAdminDashboard(t *testing.T) {
	svc := &stubDashboard{}
	rec := serve(AdminDashboard(svc, testLogger()), newRequest(http.MethodGet, "/api/admin/v1/analytics/dashboard?period=Monthly", requestOpts{}))
	if rec.Code != http.StatusOK || svc.period != enums.AnalyticsPeriodMonthly {
		t.Fatalf("expected monthly dashboard, got %d %q", rec.Code, svc.period)
	}

	rec = serve(AdminDashboard(svc, testLogger()), newRequest(http.MethodGet, "/api/admin/v1/analytics/dashboard?period=daily", requestOpts{}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

type stubUploader struct {
	got []byte
}

func (s *stubUploader) Upload(_ context.Context, input media.UploadInput) (*media.UploadOutput, error) {
	data, err := io.ReadAll(input.Reader)
	if err != nil {
		return nil, err
	}
	s.got = data
	return &media.UploadOutput{URL: "https://cdn.test/products/x.png", Size: int64(len(data))}, nil
}

func multipartRequest(t *testing.T, field string, payload []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "swatch.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(payload)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAdminUploadMedia(t *testing.T) {
	svc := &stubUploader{}
	payload := []byte("\x89PNG\r\n\x1a\nrest")

	rec := serve(AdminUploadMedia(svc, 1<<20, testLogger()), multipartRequest(t, "file", payload))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Equal(svc.got, payload) {
		t.Fatalf("uploader received %q", svc.got)
	}

	rec = serve(AdminUploadMedia(svc, 1<<20, testLogger()), multipartRequest(t, "image", payload))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing file field, got %d", rec.Code)
	}
}
