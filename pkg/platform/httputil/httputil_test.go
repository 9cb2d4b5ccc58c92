package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "givehub/pkg/domain-errors"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		code dErrors.Code
		want int
	}{
		{dErrors.CodeValidation, http.StatusBadRequest},
		{dErrors.CodeInvalidInput, http.StatusBadRequest},
		{dErrors.CodeBadRequest, http.StatusBadRequest},
		{dErrors.CodeAlreadyResolved, http.StatusBadRequest},
		{dErrors.CodeDuplicateRequest, http.StatusBadRequest},
		{dErrors.CodeUnauthorized, http.StatusUnauthorized},
		{dErrors.CodeForbidden, http.StatusForbidden},
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeConflict, http.StatusConflict},
		{dErrors.CodeInvariantViolation, http.StatusConflict},
		{dErrors.CodeExternalDependency, http.StatusBadGateway},
		{dErrors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.code); got != tc.want {
			t.Errorf("statusFor(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	t.Run("coded error exposes its description", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, dErrors.New(dErrors.CodeNotFound, "campaign not found"))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		var body struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode error body: %v", err)
		}
		if body.Error != "not_found" || body.Description != "campaign not found" {
			t.Fatalf("unexpected error body: %+v", body)
		}
	})

	t.Run("internal error hides its description", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "db down"))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "connection refused") || strings.Contains(rec.Body.String(), "db down") {
			t.Fatalf("internal detail leaked: %s", rec.Body.String())
		}
	})

	t.Run("uncoded error maps to internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("boom"))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

type echoRequest struct {
	Name string `json:"name"`
}

func (r *echoRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("decodes and normalizes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"  Asha  "}`))
		rec := httptest.NewRecorder()

		decoded, ok := DecodeAndPrepare[echoRequest](rec, req, logger, context.Background(), "req-1")
		if !ok {
			t.Fatalf("expected successful decode, body: %s", rec.Body.String())
		}
		if decoded.Name != "Asha" {
			t.Fatalf("expected trimmed name, got %q", decoded.Name)
		}
	})

	t.Run("malformed body yields bad_request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{`))
		rec := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[echoRequest](rec, req, logger, context.Background(), "req-2")
		if ok {
			t.Fatal("expected decode failure")
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("validation failure writes the coded error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"   "}`))
		rec := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[echoRequest](rec, req, logger, context.Background(), "req-3")
		if ok {
			t.Fatal("expected validation failure")
		}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode error body: %v", err)
		}
		if body.Error != "validation_failed" {
			t.Fatalf("expected validation_failed, got %s", body.Error)
		}
	})
}
