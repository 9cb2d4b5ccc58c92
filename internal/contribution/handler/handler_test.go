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

	campaignmodels "givehub/internal/campaign/models"
	campaignstore "givehub/internal/campaign/store"
	certservice "givehub/internal/certificate/service"
	certstore "givehub/internal/certificate/store"
	"givehub/internal/contribution/service"
	"givehub/internal/contribution/store"
	"givehub/internal/platform/middleware"
	id "givehub/pkg/domain"
)

const signingKey = "test-signing-key"

func TestAuthRequired(t *testing.T) {
	router, _ := newContributionRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/contributions/"+uuid.New().String()+"/receipt", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestRoleEnforced(t *testing.T) {
	router, _ := newContributionRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/contributions/organization/pending-approvals", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), id.RoleContributor))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for contributor on organization endpoint, got %d", rec.Code)
	}
}

func TestInitiateValidation(t *testing.T) {
	router, env := newContributionRouter(t)
	token := signToken(t, uuid.New(), id.RoleContributor)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"non-positive amount", map[string]any{"amount": 0, "payment_method": "card", "donor_name": "Asha"}},
		{"unknown payment method", map[string]any{"amount": 100, "payment_method": "cheque", "donor_name": "Asha"}},
		{"short donor name", map[string]any{"amount": 100, "payment_method": "card", "donor_name": "A"}},
	}
	for _, tc := range cases {
		body, _ := json.Marshal(tc.body)
		req := httptest.NewRequest(http.MethodPost, "/contributions/campaign/"+env.campaignID.String()+"/initiate", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestContributionLifecycle(t *testing.T) {
	router, env := newContributionRouter(t)
	contributorToken := signToken(t, uuid.New(), id.RoleContributor)
	orgToken := signToken(t, uuid.UUID(env.orgActor), id.RoleOrganization)

	// Initiate.
	body, _ := json.Marshal(map[string]any{
		"amount":         2500,
		"payment_method": "upi",
		"donor_name":     "Asha Rao",
		"donor_email":    "asha@example.com",
	})
	req := httptest.NewRequest(http.MethodPost, "/contributions/campaign/"+env.campaignID.String()+"/initiate", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+contributorToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 initiating contribution, got %d: %s", rec.Code, rec.Body.String())
	}

	var initiated struct {
		ID              string `json:"id"`
		GatewayOrderRef string `json:"gateway_order_ref"`
		Status          string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&initiated); err != nil {
		t.Fatalf("failed to decode initiate response: %v", err)
	}
	if initiated.Status != "pending" || initiated.GatewayOrderRef == "" {
		t.Fatalf("expected pending contribution with order ref, got %+v", initiated)
	}

	// Confirm.
	confirmBody, _ := json.Marshal(map[string]string{
		"order_ref":   initiated.GatewayOrderRef,
		"payment_ref": "pay_123",
	})
	req = httptest.NewRequest(http.MethodPost, "/contributions/"+initiated.ID+"/confirm", bytes.NewReader(confirmBody))
	req.Header.Set("Authorization", "Bearer "+contributorToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 confirming contribution, got %d: %s", rec.Code, rec.Body.String())
	}

	var confirmed struct {
		Status        string `json:"status"`
		ReceiptNumber string `json:"receipt_number"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&confirmed); err != nil {
		t.Fatalf("failed to decode confirm response: %v", err)
	}
	if confirmed.Status != "completed" || confirmed.ReceiptNumber == "" {
		t.Fatalf("expected completed contribution with receipt, got %+v", confirmed)
	}

	// Replayed confirm returns the same receipt.
	req = httptest.NewRequest(http.MethodPost, "/contributions/"+initiated.ID+"/confirm", bytes.NewReader(confirmBody))
	req.Header.Set("Authorization", "Bearer "+contributorToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on replayed confirm, got %d", rec.Code)
	}
	var replayed struct {
		ReceiptNumber string `json:"receipt_number"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&replayed); err != nil {
		t.Fatalf("failed to decode replay response: %v", err)
	}
	if replayed.ReceiptNumber != confirmed.ReceiptNumber {
		t.Fatalf("expected replay to keep receipt %s, got %s", confirmed.ReceiptNumber, replayed.ReceiptNumber)
	}

	// Organization sees the contribution in its approval queue.
	req = httptest.NewRequest(http.MethodGet, "/contributions/organization/pending-approvals", nil)
	req.Header.Set("Authorization", "Bearer "+orgToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing pending approvals, got %d", rec.Code)
	}
	var queue struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&queue); err != nil {
		t.Fatalf("failed to decode queue response: %v", err)
	}
	if queue.Total != 1 {
		t.Fatalf("expected 1 pending approval, got %d", queue.Total)
	}

	// Approve the certificate decision.
	decisionBody, _ := json.Marshal(map[string]string{"decision": "approve", "note": "thanks"})
	req = httptest.NewRequest(http.MethodPost, "/contributions/"+initiated.ID+"/certificate/decision", bytes.NewReader(decisionBody))
	req.Header.Set("Authorization", "Bearer "+orgToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deciding contribution, got %d: %s", rec.Code, rec.Body.String())
	}
	var decided struct {
		ApprovalStatus string `json:"approval_status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&decided); err != nil {
		t.Fatalf("failed to decode decision response: %v", err)
	}
	if decided.ApprovalStatus != "approved" {
		t.Fatalf("expected approved, got %s", decided.ApprovalStatus)
	}

	// Second decision is already resolved.
	req = httptest.NewRequest(http.MethodPost, "/contributions/"+initiated.ID+"/certificate/decision", bytes.NewReader(decisionBody))
	req.Header.Set("Authorization", "Bearer "+orgToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on repeated decision, got %d", rec.Code)
	}
}

type contributionEnv struct {
	orgActor   id.ActorID
	campaignID id.CampaignID
}

// staticDirectory satisfies the service Directory port.
type staticDirectory struct{}

func (staticDirectory) OrganizationName(context.Context, id.OrganizationID) (string, error) {
	return "Helping Hands", nil
}

func newContributionRouter(t *testing.T) (http.Handler, contributionEnv) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	orgActor := id.ActorID(uuid.New())
	campaignStore := campaignstore.NewMemory()
	campaign := &campaignmodels.Campaign{
		ID:             id.CampaignID(uuid.New()),
		OrganizationID: id.OrganizationID(orgActor),
		Title:          "Tree Planting Drive",
		GoalAmount:     100000,
		AcceptsFunding: true,
		CreatedAt:      time.Now(),
	}
	if err := campaignStore.CreateCampaign(context.Background(), campaign); err != nil {
		t.Fatalf("failed to seed campaign: %v", err)
	}

	certSvc := certservice.New(certstore.NewMemory(), certservice.WithLogger(logger))
	svc := service.New(store.NewMemory(), campaignStore, certSvc, staticDirectory{}, logger)
	h := New(svc, logger)

	validator := middleware.NewJWTValidator(signingKey)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, id.RoleContributor))
			h.RegisterContributor(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, id.RoleOrganization))
			h.RegisterOrganization(r)
		})
	})
	return r, contributionEnv{orgActor: orgActor, campaignID: campaign.ID}
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
