package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"givehub/internal/certificate/models"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
	"givehub/pkg/platform/httputil"
	"givehub/pkg/requestcontext"
)

// Service defines the certificate operations the handler exposes.
type Service interface {
	ListForActor(ctx context.Context, actorID id.ActorID) ([]*models.Certificate, error)
	Get(ctx context.Context, certID id.CertificateID, actorID id.ActorID) (*models.Certificate, error)
	DownloadData(ctx context.Context, certID id.CertificateID, actorID id.ActorID) (*models.Certificate, error)
	Revoke(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)
}

// Handler wires certificate endpoints to the issuer service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the contributor-facing certificate endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/certificates/my", h.HandleListMine)
	r.Get("/certificates/{certificateID}", h.HandleGet)
	r.Get("/certificates/{certificateID}/download-data", h.HandleDownloadData)
}

// RegisterAdmin mounts the admin-only revocation endpoint.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/certificates/{certificateID}/revoke", h.HandleRevoke)
}

// HandleListMine handles GET /certificates/my.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := requestcontext.ActorID(ctx)

	certs, err := h.service.ListForActor(ctx, actorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list certificates",
			"request_id", requestcontext.RequestID(ctx),
			"actor_id", actorID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCertificates(certs))
}

// HandleGet handles GET /certificates/{certificateID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID, err := id.ParseCertificateID(chi.URLParam(r, "certificateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.service.Get(ctx, certID, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCertificate(cert))
}

// HandleDownloadData handles GET /certificates/{certificateID}/download-data.
// It returns the render payload and stamps first delivery.
func (h *Handler) HandleDownloadData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID, err := id.ParseCertificateID(chi.URLParam(r, "certificateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.service.DownloadData(ctx, certID, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "certificate download data served",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_id", cert.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromCertificate(cert))
}

// HandleRevoke handles PUT /admin/certificates/{certificateID}/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.Role(ctx) != id.RoleAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin role required"))
		return
	}

	certID, err := id.ParseCertificateID(chi.URLParam(r, "certificateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.service.Revoke(ctx, certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCertificate(cert))
}
