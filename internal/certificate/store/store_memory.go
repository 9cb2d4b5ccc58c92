package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"givehub/internal/certificate/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

// sourceKey indexes active certificates by their issuing record.
type sourceKey struct {
	channel models.Channel
	record  string
}

// Memory is the in-memory certificate store (dev and tests).
type Memory struct {
	mu           sync.Mutex
	certificates map[id.CertificateID]*models.Certificate
	activeBySrc  map[sourceKey]id.CertificateID
}

func NewMemory() *Memory {
	return &Memory{
		certificates: make(map[id.CertificateID]*models.Certificate),
		activeBySrc:  make(map[sourceKey]id.CertificateID),
	}
}

// Issue inserts the certificate unless an active one already exists for the
// same (channel, source record), in which case the existing certificate is
// returned with created=false. The check and insert run under one lock so
// concurrent decision calls cannot both create.
func (s *Memory) Issue(ctx context.Context, cert *models.Certificate) (*models.Certificate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sourceKey{channel: cert.SourceChannel, record: cert.SourceRecordID}
	if existingID, ok := s.activeBySrc[key]; ok {
		existing := s.certificates[existingID]
		return copyCertificate(existing), false, nil
	}

	stored := copyCertificate(cert)
	s.certificates[stored.ID] = stored
	s.activeBySrc[key] = stored.ID
	return copyCertificate(stored), true, nil
}

// ListActiveForActor returns the actor's active certificates, most recent
// first. Revoked certificates are never exposed.
func (s *Memory) ListActiveForActor(ctx context.Context, actorID id.ActorID) ([]*models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Certificate
	for _, cert := range s.certificates {
		if cert.ActorID == actorID && cert.Status == models.StatusActive {
			out = append(out, copyCertificate(cert))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

// FindActiveForActor returns one active certificate owned by the actor.
func (s *Memory) FindActiveForActor(ctx context.Context, certID id.CertificateID, actorID id.ActorID) (*models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certificates[certID]
	if !ok || cert.ActorID != actorID || cert.Status != models.StatusActive {
		return nil, sentinel.ErrNotFound
	}
	return copyCertificate(cert), nil
}

// MarkDelivered stamps DeliveredAt on an active certificate owned by the actor.
func (s *Memory) MarkDelivered(ctx context.Context, certID id.CertificateID, actorID id.ActorID, now time.Time) (*models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certificates[certID]
	if !ok || cert.ActorID != actorID || cert.Status != models.StatusActive {
		return nil, sentinel.ErrNotFound
	}
	delivered := now
	cert.DeliveredAt = &delivered
	return copyCertificate(cert), nil
}

// Revoke transitions active→revoked. Only an active certificate can be
// revoked; the guard and flip are one critical section.
func (s *Memory) Revoke(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certificates[certID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if cert.Status != models.StatusActive {
		return nil, sentinel.ErrInvalidState
	}
	cert.Status = models.StatusRevoked
	delete(s.activeBySrc, sourceKey{channel: cert.SourceChannel, record: cert.SourceRecordID})
	return copyCertificate(cert), nil
}

func copyCertificate(c *models.Certificate) *models.Certificate {
	dup := *c
	if c.DeliveredAt != nil {
		t := *c.DeliveredAt
		dup.DeliveredAt = &t
	}
	return &dup
}
