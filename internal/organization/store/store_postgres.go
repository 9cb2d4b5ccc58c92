package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"givehub/internal/organization/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists organization profiles in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const organizationColumns = `
	id, name, category, location, mission, verified, flagged, flag_reason, created_at
`

func (s *Postgres) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(org.ID),
		org.Name,
		string(org.Category),
		org.Location,
		org.Mission,
		org.Verified,
		org.Flagged,
		org.FlagReason,
		org.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE id = $1
	`
	org, err := scanOrganization(s.db.QueryRowContext(ctx, query, uuid.UUID(orgID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return org, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		ORDER BY created_at DESC
	`
	return s.queryOrganizations(ctx, query)
}

func (s *Postgres) SetFlagged(ctx context.Context, orgID id.OrganizationID, flagged bool, reason string) (*models.Organization, error) {
	query := `
		UPDATE organizations
		SET flagged = $2, flag_reason = $3
		WHERE id = $1
		RETURNING ` + organizationColumns + `
	`
	org, err := scanOrganization(s.db.QueryRowContext(ctx, query, uuid.UUID(orgID), flagged, reason))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update organization flag: %w", err)
	}
	return org, nil
}

func (s *Postgres) ListFlagged(ctx context.Context) ([]*models.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE flagged = TRUE
		ORDER BY created_at DESC
	`
	return s.queryOrganizations(ctx, query)
}

func (s *Postgres) queryOrganizations(ctx context.Context, query string, args ...any) ([]*models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var out []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

type organizationRow interface {
	Scan(dest ...any) error
}

func scanOrganization(row organizationRow) (*models.Organization, error) {
	var (
		org      models.Organization
		orgID    uuid.UUID
		category string
	)
	if err := row.Scan(
		&orgID, &org.Name, &category, &org.Location, &org.Mission,
		&org.Verified, &org.Flagged, &org.FlagReason, &org.CreatedAt,
	); err != nil {
		return nil, err
	}
	org.ID = id.OrganizationID(orgID)
	org.Category = models.Category(category)
	return &org, nil
}
