package handler

import (
	"time"

	"givehub/internal/certificate/models"
)

// CertificateResponse is the JSON shape for a single certificate.
type CertificateResponse struct {
	ID             string          `json:"id"`
	ActorID        string          `json:"actor_id"`
	OrganizationID string          `json:"organization_id"`
	SourceChannel  string          `json:"source_channel"`
	SourceRecordID string          `json:"source_record_id"`
	Status         string          `json:"status"`
	Metadata       models.Metadata `json:"metadata"`
	IssuedAt       time.Time       `json:"issued_at"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
}

// ListResponse wraps the contributor's certificates.
type ListResponse struct {
	Certificates []CertificateResponse `json:"certificates"`
	Total        int                   `json:"total"`
}

func FromCertificate(c *models.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:             c.ID.String(),
		ActorID:        c.ActorID.String(),
		OrganizationID: c.OrganizationID.String(),
		SourceChannel:  string(c.SourceChannel),
		SourceRecordID: c.SourceRecordID,
		Status:         string(c.Status),
		Metadata:       c.Metadata,
		IssuedAt:       c.IssuedAt,
		DeliveredAt:    c.DeliveredAt,
	}
}

func FromCertificates(certs []*models.Certificate) ListResponse {
	out := ListResponse{Certificates: make([]CertificateResponse, 0, len(certs))}
	for _, c := range certs {
		out.Certificates = append(out.Certificates, FromCertificate(c))
	}
	out.Total = len(out.Certificates)
	return out
}
