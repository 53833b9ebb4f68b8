package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
)

type sampleBody struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1,max=99"`
	Method   string `json:"method" validate:"omitempty,oneof=card cod"`
}

func TestDecodeJSONBodyReportsFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0,"method":"cash"}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected string details, got %T", pkgerrors.As(err).Details())
	}
	if details["name"] != "is required" || details["quantity"] != "must be at least 1" || details["method"] != "must be one of: card cod" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","quantity":1,"extra":true}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&q=%20lip%20", nil)
	if _, err := ParseQueryInt(req, "limit", 20, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected range error, got %v", err)
	}
	if v, err := ParseQueryInt(req, "missing", 20, 1, 100); err != nil || v != 20 {
		t.Fatalf("expected default 20, got %d %v", v, err)
	}
	if got := ParseQueryString(req, "q", 3); got != "lip" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if _, err := ParseUUID("nope", "id"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSanitizeStringCapsOnRuneBoundaries(t *testing.T) {
	got := SanitizeString("  Crème Brûlée  ", 4)
	if got != "Crèm" {
		t.Fatalf("expected 4 runes, got %q", got)
	}
	if got := SanitizeString("Brûlée", 0); got != "Brûlée" {
		t.Fatalf("zero cap should keep value, got %q", got)
	}
}

func TestParseQueryFieldRejectsOverlongValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?color=Cr%C3%A8me&size="+strings.Repeat("x", 9), nil)
	if got, err := ParseQueryField(req, "color", 5); err != nil || got != "Crème" {
		t.Fatalf("expected 5-rune value accepted, got %q %v", got, err)
	}
	if _, err := ParseQueryField(req, "size", 8); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
