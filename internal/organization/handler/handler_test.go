package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"givehub/internal/organization/service"
	"givehub/internal/organization/store"
	"givehub/internal/platform/middleware"
	id "givehub/pkg/domain"
)

const signingKey = "test-signing-key"

func TestCreateRequiresAuth(t *testing.T) {
	router, _ := newDirectoryRouter(t)

	body, _ := json.Marshal(map[string]string{"name": "X", "category": "health", "location": "Pune"})
	req := httptest.NewRequest(http.MethodPost, "/ngos", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestCreateProfile(t *testing.T) {
	router, _ := newDirectoryRouter(t)
	orgActor := uuid.New()
	orgToken := signToken(t, orgActor, id.RoleOrganization)

	body, _ := json.Marshal(map[string]string{
		"name":     "Sunrise Trust",
		"category": "education",
		"location": "Pune",
		"mission":  "After-school programs for first-generation learners.",
	})
	req := httptest.NewRequest(http.MethodPost, "/ngos", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+orgToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating profile, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if created.ID != orgActor.String() {
		t.Fatalf("expected profile id %s to match the account, got %s", orgActor, created.ID)
	}

	// One profile per account.
	req = httptest.NewRequest(http.MethodPost, "/ngos", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+orgToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second profile, got %d", rec.Code)
	}

	// Contributors cannot create profiles.
	req = httptest.NewRequest(http.MethodPost, "/ngos", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), id.RoleContributor))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for contributor creating profile, got %d", rec.Code)
	}
}

func TestCreateProfileValidation(t *testing.T) {
	router, _ := newDirectoryRouter(t)
	token := signToken(t, uuid.New(), id.RoleOrganization)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"category": "health", "location": "Pune"}},
		{"unknown category", map[string]string{"name": "X Org", "category": "crypto", "location": "Pune"}},
		{"missing location", map[string]string{"name": "X Org", "category": "health"}},
	}
	for _, tc := range cases {
		body, _ := json.Marshal(tc.body)
		req := httptest.NewRequest(http.MethodPost, "/ngos", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestDirectoryListing(t *testing.T) {
	router, env := newDirectoryRouter(t)

	// The directory is public.
	req := httptest.NewRequest(http.MethodGet, "/ngos", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing directory, got %d", rec.Code)
	}
	var listing struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if listing.Total != 1 {
		t.Fatalf("expected 1 seeded profile, got %d", listing.Total)
	}

	req = httptest.NewRequest(http.MethodGet, "/ngos/"+env.seededOrg.String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching profile, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/ngos/"+uuid.New().String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown profile, got %d", rec.Code)
	}
}

func TestAdminUnflag(t *testing.T) {
	router, env := newDirectoryRouter(t)
	adminToken := signToken(t, uuid.New(), id.RoleAdmin)

	if _, err := env.service.SetFlagged(context.Background(), env.seededOrg, true, "spam"); err != nil {
		t.Fatalf("failed to flag seeded profile: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ngos/flagged", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing flagged profiles, got %d", rec.Code)
	}
	var flagged struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&flagged); err != nil {
		t.Fatalf("failed to decode flagged listing: %v", err)
	}
	if flagged.Total != 1 {
		t.Fatalf("expected 1 flagged profile, got %d", flagged.Total)
	}

	req = httptest.NewRequest(http.MethodPut, "/ngos/"+env.seededOrg.String()+"/unflag", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 clearing flag, got %d: %s", rec.Code, rec.Body.String())
	}
	var cleared struct {
		Flagged bool `json:"flagged"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&cleared); err != nil {
		t.Fatalf("failed to decode unflag response: %v", err)
	}
	if cleared.Flagged {
		t.Fatal("expected flag cleared")
	}
}

type directoryEnv struct {
	service   *service.Service
	seededOrg id.OrganizationID
}

func newDirectoryRouter(t *testing.T) (http.Handler, directoryEnv) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := service.New(store.NewMemory(), logger)
	h := New(svc, logger)

	validator := middleware.NewJWTValidator(signingKey)
	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, id.RoleOrganization))
			h.RegisterOrganization(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, id.RoleAdmin))
			h.RegisterAdmin(r)
		})
	})

	seeded := seedProfile(t, r)
	return r, directoryEnv{service: svc, seededOrg: seeded}
}

// seedProfile creates one directory entry through the API so listing tests
// have data.
func seedProfile(t *testing.T, router http.Handler) id.OrganizationID {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"name":     "Green Earth Collective",
		"category": "environment",
		"location": "Bengaluru",
	})
	req := httptest.NewRequest(http.MethodPost, "/ngos", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), id.RoleOrganization))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 seeding profile, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode seed response: %v", err)
	}
	orgID, err := id.ParseOrganizationID(created.ID)
	if err != nil {
		t.Fatalf("failed to parse seeded id: %v", err)
	}
	return orgID
}

func signToken(t *testing.T, actor uuid.UUID, role id.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  actor.String(),
		"role": role.String(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(signingKey))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}
