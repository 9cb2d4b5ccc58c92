package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"givehub/internal/campaign/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists campaigns and volunteer registrations in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const campaignColumns = `
	id, organization_id, title, description, goal_amount, raised_amount,
	accepts_funding, volunteers_engaged, flagged, flag_reason, created_at
`

const registrationColumns = `
	campaign_id, actor_id, organization_id, full_name, contact, availability,
	motivation, approval_status, activity_hours, decision_note, created_at, updated_at
`

func (s *Postgres) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	query := `
		INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID),
		uuid.UUID(c.OrganizationID),
		c.Title,
		c.Description,
		c.GoalAmount,
		c.RaisedAmount,
		c.AcceptsFunding,
		c.VolunteersEngaged,
		c.Flagged,
		c.FlagReason,
		c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (s *Postgres) FindCampaign(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE id = $1
	`
	c, err := scanCampaign(s.db.QueryRowContext(ctx, query, uuid.UUID(campaignID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return c, nil
}

func (s *Postgres) ListCampaigns(ctx context.Context) ([]*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		ORDER BY created_at DESC
	`
	return s.queryCampaigns(ctx, query)
}

// AddRaised adds a confirmed amount to the raised counter in one update, so
// concurrent confirmations never lose increments.
func (s *Postgres) AddRaised(ctx context.Context, campaignID id.CampaignID, amount int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET raised_amount = raised_amount + $2 WHERE id = $1`,
		uuid.UUID(campaignID), amount,
	)
	if err != nil {
		return fmt.Errorf("add raised amount: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add raised amount: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) SetFlagged(ctx context.Context, campaignID id.CampaignID, flagged bool, reason string) (*models.Campaign, error) {
	query := `
		UPDATE campaigns
		SET flagged = $2, flag_reason = $3
		WHERE id = $1
		RETURNING ` + campaignColumns + `
	`
	c, err := scanCampaign(s.db.QueryRowContext(ctx, query, uuid.UUID(campaignID), flagged, reason))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update campaign flag: %w", err)
	}
	return c, nil
}

func (s *Postgres) ListFlagged(ctx context.Context) ([]*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE flagged = TRUE
		ORDER BY created_at DESC
	`
	return s.queryCampaigns(ctx, query)
}

// UpsertRegistration inserts the registration or refreshes the payload of an
// existing one. On a fresh insert the campaign's volunteers_engaged counter is
// ratcheted up to the roster size in the same transaction.
func (s *Postgres) UpsertRegistration(ctx context.Context, reg *models.Registration, now time.Time) (*models.Registration, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin registration tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM campaigns WHERE id = $1)`,
		uuid.UUID(reg.CampaignID),
	).Scan(&exists); err != nil {
		return nil, false, fmt.Errorf("check campaign existence: %w", err)
	}
	if !exists {
		return nil, false, sentinel.ErrNotFound
	}

	query := `
		INSERT INTO campaign_registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, '', $9, $9)
		ON CONFLICT (campaign_id, actor_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			contact = EXCLUDED.contact,
			availability = EXCLUDED.availability,
			motivation = EXCLUDED.motivation,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + registrationColumns + `, (xmax = 0) AS inserted
	`
	stored, created, err := scanRegistrationWithInserted(tx.QueryRowContext(ctx, query,
		uuid.UUID(reg.CampaignID),
		uuid.UUID(reg.ActorID),
		uuid.UUID(reg.OrganizationID),
		reg.Payload.FullName,
		reg.Payload.Contact,
		reg.Payload.Availability,
		reg.Payload.Motivation,
		string(id.ApprovalPending),
		now,
	))
	if err != nil {
		return nil, false, fmt.Errorf("upsert registration: %w", err)
	}

	if created {
		_, err = tx.ExecContext(ctx, `
			UPDATE campaigns
			SET volunteers_engaged = GREATEST(
				volunteers_engaged,
				(SELECT COUNT(*) FROM campaign_registrations WHERE campaign_id = $1)
			)
			WHERE id = $1
		`, uuid.UUID(reg.CampaignID))
		if err != nil {
			return nil, false, fmt.Errorf("update volunteers engaged: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit registration tx: %w", err)
	}
	return stored, created, nil
}

func (s *Postgres) FindRegistration(ctx context.Context, campaignID id.CampaignID, actorID id.ActorID) (*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM campaign_registrations
		WHERE campaign_id = $1 AND actor_id = $2
	`
	reg, err := scanRegistration(s.db.QueryRowContext(ctx, query, uuid.UUID(campaignID), uuid.UUID(actorID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

func (s *Postgres) ListPendingRegistrations(ctx context.Context, organizationID id.OrganizationID) ([]*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM campaign_registrations
		WHERE organization_id = $1 AND approval_status = 'pending'
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(organizationID))
	if err != nil {
		return nil, fmt.Errorf("list pending registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// DecideRegistration flips pending→outcome with a status-guarded update;
// exactly one concurrent decision wins.
func (s *Postgres) DecideRegistration(ctx context.Context, campaignID id.CampaignID, actorID id.ActorID, outcome id.ApprovalStatus, note string, hoursOverride *int, now time.Time) (*models.Registration, error) {
	query := `
		UPDATE campaign_registrations
		SET approval_status = $3,
			decision_note = $4,
			activity_hours = COALESCE($5, activity_hours),
			updated_at = $6
		WHERE campaign_id = $1 AND actor_id = $2 AND approval_status = 'pending'
		RETURNING ` + registrationColumns + `
	`
	var hours sql.NullInt64
	if hoursOverride != nil {
		hours = sql.NullInt64{Int64: int64(*hoursOverride), Valid: true}
	}
	reg, err := scanRegistration(s.db.QueryRowContext(ctx, query,
		uuid.UUID(campaignID), uuid.UUID(actorID), string(outcome), note, hours, now,
	))
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decide registration: %w", err)
	}

	var exists bool
	if scanErr := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM campaign_registrations WHERE campaign_id = $1 AND actor_id = $2)`,
		uuid.UUID(campaignID), uuid.UUID(actorID),
	).Scan(&exists); scanErr != nil {
		return nil, fmt.Errorf("check registration existence: %w", scanErr)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInvalidState
}

func (s *Postgres) queryCampaigns(ctx context.Context, query string, args ...any) ([]*models.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type row interface {
	Scan(dest ...any) error
}

func scanCampaign(r row) (*models.Campaign, error) {
	var (
		c     models.Campaign
		cID   uuid.UUID
		orgID uuid.UUID
	)
	if err := r.Scan(
		&cID, &orgID, &c.Title, &c.Description, &c.GoalAmount, &c.RaisedAmount,
		&c.AcceptsFunding, &c.VolunteersEngaged, &c.Flagged, &c.FlagReason, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.ID = id.CampaignID(cID)
	c.OrganizationID = id.OrganizationID(orgID)
	return &c, nil
}

func scanRegistration(r row) (*models.Registration, error) {
	reg, _, err := scanRegistrationFields(r, false)
	return reg, err
}

func scanRegistrationWithInserted(r row) (*models.Registration, bool, error) {
	return scanRegistrationFields(r, true)
}

func scanRegistrationFields(r row, withInserted bool) (*models.Registration, bool, error) {
	var (
		reg      models.Registration
		cID      uuid.UUID
		actorID  uuid.UUID
		orgID    uuid.UUID
		status   string
		inserted bool
	)
	dest := []any{
		&cID, &actorID, &orgID, &reg.Payload.FullName, &reg.Payload.Contact,
		&reg.Payload.Availability, &reg.Payload.Motivation, &status,
		&reg.ActivityHours, &reg.DecisionNote, &reg.CreatedAt, &reg.UpdatedAt,
	}
	if withInserted {
		dest = append(dest, &inserted)
	}
	if err := r.Scan(dest...); err != nil {
		return nil, false, err
	}
	reg.CampaignID = id.CampaignID(cID)
	reg.ActorID = id.ActorID(actorID)
	reg.OrganizationID = id.OrganizationID(orgID)
	reg.ApprovalStatus = id.ApprovalStatus(status)
	return &reg, inserted, nil
}
