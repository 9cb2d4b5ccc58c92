package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"givehub/internal/certificate/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

// uniqueViolation is the postgres error code raised by the partial unique
// index on (source_channel, source_record_id) WHERE status='active'.
const uniqueViolation = "23505"

// Postgres persists certificates in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const certificateColumns = `
	id, actor_id, organization_id, source_channel, source_record_id, status,
	organization_name, campaign_title, opportunity_title, amount, activity_hours,
	issued_at, delivered_at
`

// Issue inserts the certificate; the partial unique index makes issuance
// idempotent under concurrent decisions. A conflicting insert re-selects the
// existing active row and returns it with created=false.
func (s *Postgres) Issue(ctx context.Context, cert *models.Certificate) (*models.Certificate, bool, error) {
	query := `
		INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(cert.ID),
		uuid.UUID(cert.ActorID),
		uuid.UUID(cert.OrganizationID),
		string(cert.SourceChannel),
		cert.SourceRecordID,
		string(cert.Status),
		cert.Metadata.OrganizationName,
		cert.Metadata.CampaignTitle,
		cert.Metadata.OpportunityTitle,
		cert.Metadata.Amount,
		cert.Metadata.ActivityHours,
		cert.IssuedAt,
		nil,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			existing, ferr := s.findActiveBySource(ctx, cert.SourceChannel, cert.SourceRecordID)
			if ferr != nil {
				return nil, false, fmt.Errorf("reload certificate after conflict: %w", ferr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("insert certificate: %w", err)
	}
	return copyCertificate(cert), true, nil
}

func (s *Postgres) findActiveBySource(ctx context.Context, channel models.Channel, record string) (*models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE source_channel = $1 AND source_record_id = $2 AND status = 'active'
	`
	return scanCertificate(s.db.QueryRowContext(ctx, query, string(channel), record))
}

func (s *Postgres) ListActiveForActor(ctx context.Context, actorID id.ActorID) ([]*models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE actor_id = $1 AND status = 'active'
		ORDER BY issued_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(actorID))
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []*models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, cert)
	}
	return out, rows.Err()
}

func (s *Postgres) FindActiveForActor(ctx context.Context, certID id.CertificateID, actorID id.ActorID) (*models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE id = $1 AND actor_id = $2 AND status = 'active'
	`
	cert, err := scanCertificate(s.db.QueryRowContext(ctx, query, uuid.UUID(certID), uuid.UUID(actorID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return cert, nil
}

func (s *Postgres) MarkDelivered(ctx context.Context, certID id.CertificateID, actorID id.ActorID, now time.Time) (*models.Certificate, error) {
	query := `
		UPDATE certificates
		SET delivered_at = $3
		WHERE id = $1 AND actor_id = $2 AND status = 'active'
		RETURNING ` + certificateColumns + `
	`
	cert, err := scanCertificate(s.db.QueryRowContext(ctx, query, uuid.UUID(certID), uuid.UUID(actorID), now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark certificate delivered: %w", err)
	}
	return cert, nil
}

// Revoke flips active→revoked with a status-guarded update so concurrent
// revocations cannot double-apply.
func (s *Postgres) Revoke(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	query := `
		UPDATE certificates
		SET status = 'revoked'
		WHERE id = $1 AND status = 'active'
		RETURNING ` + certificateColumns + `
	`
	cert, err := scanCertificate(s.db.QueryRowContext(ctx, query, uuid.UUID(certID)))
	if err == nil {
		return cert, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revoke certificate: %w", err)
	}

	// Distinguish missing from already revoked.
	var exists bool
	if scanErr := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM certificates WHERE id = $1)`, uuid.UUID(certID)).Scan(&exists); scanErr != nil {
		return nil, fmt.Errorf("check certificate existence: %w", scanErr)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInvalidState
}

type certificateRow interface {
	Scan(dest ...any) error
}

func scanCertificate(row certificateRow) (*models.Certificate, error) {
	var (
		cert        models.Certificate
		certID      uuid.UUID
		actorID     uuid.UUID
		orgID       uuid.UUID
		channel     string
		status      string
		deliveredAt sql.NullTime
	)
	if err := row.Scan(
		&certID, &actorID, &orgID, &channel, &cert.SourceRecordID, &status,
		&cert.Metadata.OrganizationName, &cert.Metadata.CampaignTitle,
		&cert.Metadata.OpportunityTitle, &cert.Metadata.Amount,
		&cert.Metadata.ActivityHours, &cert.IssuedAt, &deliveredAt,
	); err != nil {
		return nil, err
	}
	cert.ID = id.CertificateID(certID)
	cert.ActorID = id.ActorID(actorID)
	cert.OrganizationID = id.OrganizationID(orgID)
	cert.SourceChannel = models.Channel(channel)
	cert.Status = models.Status(status)
	if deliveredAt.Valid {
		cert.DeliveredAt = &deliveredAt.Time
	}
	return &cert, nil
}
