package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"givehub/internal/opportunity/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists opportunities and applications in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const opportunityColumns = `
	id, organization_id, title, description, location, spots, spots_remaining, created_at
`

const applicationColumns = `
	id, actor_id, opportunity_id, organization_id, full_name, email, phone,
	status, approval_status, activity_hours, decision_note, created_at, updated_at
`

func (s *Postgres) CreateOpportunity(ctx context.Context, o *models.Opportunity) error {
	query := `
		INSERT INTO opportunities (` + opportunityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(o.ID),
		uuid.UUID(o.OrganizationID),
		o.Title,
		o.Description,
		o.Location,
		o.Spots,
		o.SpotsRemaining,
		o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert opportunity: %w", err)
	}
	return nil
}

func (s *Postgres) FindOpportunity(ctx context.Context, opportunityID id.OpportunityID) (*models.Opportunity, error) {
	query := `
		SELECT ` + opportunityColumns + `
		FROM opportunities
		WHERE id = $1
	`
	o, err := scanOpportunity(s.db.QueryRowContext(ctx, query, uuid.UUID(opportunityID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find opportunity: %w", err)
	}
	return o, nil
}

func (s *Postgres) ListOpportunities(ctx context.Context) ([]*models.Opportunity, error) {
	query := `
		SELECT ` + opportunityColumns + `
		FROM opportunities
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var out []*models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateApplication inserts the application; the unique index on
// (actor_id, opportunity_id) turns a duplicate apply into ErrConflict. The
// spot decrement floors at zero and never blocks the insert.
func (s *Postgres) CreateApplication(ctx context.Context, app *models.Application) (*models.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin application tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO opportunity_applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + applicationColumns + `
	`
	stored, err := scanApplication(tx.QueryRowContext(ctx, query,
		uuid.UUID(app.ID),
		uuid.UUID(app.ActorID),
		uuid.UUID(app.OpportunityID),
		uuid.UUID(app.OrganizationID),
		app.Payload.FullName,
		app.Payload.Email,
		app.Payload.Phone,
		string(app.Status),
		string(app.ApprovalStatus),
		app.ActivityHours,
		app.DecisionNote,
		app.CreatedAt,
		app.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE opportunities
		SET spots_remaining = GREATEST(spots_remaining - 1, 0)
		WHERE id = $1
	`, uuid.UUID(app.OpportunityID))
	if err != nil {
		return nil, fmt.Errorf("decrement spots: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("decrement spots: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit application tx: %w", err)
	}
	return stored, nil
}

func (s *Postgres) FindApplication(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM opportunity_applications
		WHERE id = $1
	`
	app, err := scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(applicationID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *Postgres) FindApplicationForActor(ctx context.Context, opportunityID id.OpportunityID, actorID id.ActorID) (*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM opportunity_applications
		WHERE opportunity_id = $1 AND actor_id = $2
	`
	app, err := scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(opportunityID), uuid.UUID(actorID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application for actor: %w", err)
	}
	return app, nil
}

func (s *Postgres) ListApplicationsForActor(ctx context.Context, actorID id.ActorID) ([]*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM opportunity_applications
		WHERE actor_id = $1
		ORDER BY created_at DESC
	`
	return s.queryApplications(ctx, query, uuid.UUID(actorID))
}

// MarkCompleted is a status-guarded update: only the owner's applied
// application transitions, recording hours and arming the approval queue.
func (s *Postgres) MarkCompleted(ctx context.Context, applicationID id.ApplicationID, actorID id.ActorID, hours int, now time.Time) (*models.Application, error) {
	query := `
		UPDATE opportunity_applications
		SET status = 'completed', activity_hours = $3, approval_status = 'pending', updated_at = $4
		WHERE id = $1 AND actor_id = $2 AND status = 'applied'
		RETURNING ` + applicationColumns + `
	`
	app, err := scanApplication(s.db.QueryRowContext(ctx, query,
		uuid.UUID(applicationID), uuid.UUID(actorID), hours, now,
	))
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mark application completed: %w", err)
	}

	existing, ferr := s.FindApplication(ctx, applicationID)
	if ferr != nil {
		return nil, ferr
	}
	if existing.ActorID != actorID {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInvalidState
}

func (s *Postgres) ListPendingApprovals(ctx context.Context, organizationID id.OrganizationID) ([]*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM opportunity_applications
		WHERE organization_id = $1 AND approval_status = 'pending'
		ORDER BY created_at ASC
	`
	return s.queryApplications(ctx, query, uuid.UUID(organizationID))
}

// Decide flips approval_status pending→outcome with a status-guarded update.
func (s *Postgres) Decide(ctx context.Context, applicationID id.ApplicationID, outcome id.ApprovalStatus, note string, now time.Time) (*models.Application, error) {
	query := `
		UPDATE opportunity_applications
		SET approval_status = $2, decision_note = $3, updated_at = $4
		WHERE id = $1 AND approval_status = 'pending'
		RETURNING ` + applicationColumns + `
	`
	app, err := scanApplication(s.db.QueryRowContext(ctx, query,
		uuid.UUID(applicationID), string(outcome), note, now,
	))
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decide application: %w", err)
	}
	if _, ferr := s.FindApplication(ctx, applicationID); ferr != nil {
		return nil, ferr
	}
	return nil, sentinel.ErrInvalidState
}

// Withdraw deletes an undecided application owned by the actor and releases
// its spot, capped at the original count.
func (s *Postgres) Withdraw(ctx context.Context, applicationID id.ApplicationID, actorID id.ActorID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin withdraw tx: %w", err)
	}
	defer tx.Rollback()

	var opportunityID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		DELETE FROM opportunity_applications
		WHERE id = $1 AND actor_id = $2 AND approval_status NOT IN ('approved', 'rejected')
		RETURNING opportunity_id
	`, uuid.UUID(applicationID), uuid.UUID(actorID)).Scan(&opportunityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			existing, ferr := s.FindApplication(ctx, applicationID)
			if ferr != nil {
				return ferr
			}
			if existing.ActorID != actorID {
				return sentinel.ErrNotFound
			}
			return sentinel.ErrInvalidState
		}
		return fmt.Errorf("withdraw application: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE opportunities
		SET spots_remaining = LEAST(spots_remaining + 1, spots)
		WHERE id = $1
	`, opportunityID)
	if err != nil {
		return fmt.Errorf("release spot: %w", err)
	}
	return tx.Commit()
}

func (s *Postgres) queryApplications(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

type row interface {
	Scan(dest ...any) error
}

func scanOpportunity(r row) (*models.Opportunity, error) {
	var (
		o     models.Opportunity
		oID   uuid.UUID
		orgID uuid.UUID
	)
	if err := r.Scan(
		&oID, &orgID, &o.Title, &o.Description, &o.Location,
		&o.Spots, &o.SpotsRemaining, &o.CreatedAt,
	); err != nil {
		return nil, err
	}
	o.ID = id.OpportunityID(oID)
	o.OrganizationID = id.OrganizationID(orgID)
	return &o, nil
}

func scanApplication(r row) (*models.Application, error) {
	var (
		app      models.Application
		appID    uuid.UUID
		actorID  uuid.UUID
		oppID    uuid.UUID
		orgID    uuid.UUID
		status   string
		approval string
	)
	if err := r.Scan(
		&appID, &actorID, &oppID, &orgID, &app.Payload.FullName,
		&app.Payload.Email, &app.Payload.Phone, &status, &approval,
		&app.ActivityHours, &app.DecisionNote, &app.CreatedAt, &app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	app.ID = id.ApplicationID(appID)
	app.ActorID = id.ActorID(actorID)
	app.OpportunityID = id.OpportunityID(oppID)
	app.OrganizationID = id.OrganizationID(orgID)
	app.Status = models.ApplicationStatus(status)
	app.ApprovalStatus = id.ApprovalStatus(approval)
	return &app, nil
}
