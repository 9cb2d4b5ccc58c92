package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"givehub/internal/moderation/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

// uniqueViolation is raised by the partial unique index on
// (target_type, target_id, requested_by) WHERE status='pending'.
const uniqueViolation = "23505"

// Postgres persists flag requests in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const flagRequestColumns = `
	id, target_type, target_id, target_name, reason, status, requested_by,
	resolved_by, resolved_at, created_at
`

// Submit inserts the request; the partial unique index enforces one pending
// request per (target, requester) even under concurrent submissions.
func (s *Postgres) Submit(ctx context.Context, req *models.FlagRequest) (*models.FlagRequest, error) {
	query := `
		INSERT INTO flag_requests (` + flagRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, NULL, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(req.ID),
		string(req.TargetType),
		req.TargetID,
		req.TargetName,
		req.Reason,
		string(req.Status),
		uuid.UUID(req.RequestedBy),
		req.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("insert flag request: %w", err)
	}
	return copyRequest(req), nil
}

func (s *Postgres) FindByID(ctx context.Context, requestID id.FlagRequestID) (*models.FlagRequest, error) {
	query := `
		SELECT ` + flagRequestColumns + `
		FROM flag_requests
		WHERE id = $1
	`
	req, err := scanFlagRequest(s.db.QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find flag request: %w", err)
	}
	return req, nil
}

func (s *Postgres) List(ctx context.Context, filter models.ListFilter) ([]*models.FlagRequest, error) {
	query := `
		SELECT ` + flagRequestColumns + `
		FROM flag_requests
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR target_type = $2)
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, string(filter.Status), string(filter.TargetType))
	if err != nil {
		return nil, fmt.Errorf("list flag requests: %w", err)
	}
	defer rows.Close()

	var out []*models.FlagRequest
	for rows.Next() {
		req, err := scanFlagRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flag request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// Resolve flips pending→outcome with a status-guarded update; exactly one
// concurrent resolution wins.
func (s *Postgres) Resolve(ctx context.Context, requestID id.FlagRequestID, outcome models.RequestStatus, adminID id.ActorID, now time.Time) (*models.FlagRequest, error) {
	query := `
		UPDATE flag_requests
		SET status = $2, resolved_by = $3, resolved_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + flagRequestColumns + `
	`
	req, err := scanFlagRequest(s.db.QueryRowContext(ctx, query,
		uuid.UUID(requestID), string(outcome), uuid.UUID(adminID), now,
	))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve flag request: %w", err)
	}
	if _, ferr := s.FindByID(ctx, requestID); ferr != nil {
		return nil, ferr
	}
	return nil, sentinel.ErrInvalidState
}

type flagRequestRow interface {
	Scan(dest ...any) error
}

func scanFlagRequest(row flagRequestRow) (*models.FlagRequest, error) {
	var (
		req        models.FlagRequest
		reqID      uuid.UUID
		targetType string
		status     string
		requester  uuid.UUID
		resolvedBy uuid.NullUUID
		resolvedAt sql.NullTime
	)
	if err := row.Scan(
		&reqID, &targetType, &req.TargetID, &req.TargetName, &req.Reason,
		&status, &requester, &resolvedBy, &resolvedAt, &req.CreatedAt,
	); err != nil {
		return nil, err
	}
	req.ID = id.FlagRequestID(reqID)
	req.TargetType = models.TargetType(targetType)
	req.Status = models.RequestStatus(status)
	req.RequestedBy = id.ActorID(requester)
	if resolvedBy.Valid {
		req.ResolvedBy = id.ActorID(resolvedBy.UUID)
	}
	if resolvedAt.Valid {
		req.ResolvedAt = &resolvedAt.Time
	}
	return &req, nil
}
