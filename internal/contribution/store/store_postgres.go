package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"givehub/internal/contribution/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

// Postgres persists contributions in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const contributionColumns = `
	id, contributor_id, organization_id, campaign_id, amount, payment_method,
	donor_name, donor_email, gateway_order_ref, gateway_payment_ref, status,
	approval_status, receipt_number, decision_note, created_at, updated_at
`

func (s *Postgres) Create(ctx context.Context, c *models.Contribution) error {
	query := `
		INSERT INTO contributions (` + contributionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID),
		uuid.UUID(c.ContributorID),
		uuid.UUID(c.OrganizationID),
		uuid.UUID(c.CampaignID),
		c.Amount,
		string(c.PaymentMethod),
		c.DonorInfo.Name,
		c.DonorInfo.Email,
		c.GatewayOrderRef,
		c.GatewayPaymentRef,
		string(c.Status),
		string(c.ApprovalStatus),
		c.ReceiptNumber,
		c.DecisionNote,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contribution: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, contributionID id.ContributionID) (*models.Contribution, error) {
	query := `
		SELECT ` + contributionColumns + `
		FROM contributions
		WHERE id = $1
	`
	c, err := scanContribution(s.db.QueryRowContext(ctx, query, uuid.UUID(contributionID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find contribution: %w", err)
	}
	return c, nil
}

// Confirm is one status-guarded update: only a pending row with the matching
// order ref transitions, the receipt sequence advances inside the update, and
// exactly one concurrent confirmation applies. A completed row with the same
// order ref is an idempotent replay.
func (s *Postgres) Confirm(ctx context.Context, contributionID id.ContributionID, orderRef, paymentRef string, now time.Time) (*models.Contribution, bool, error) {
	query := `
		UPDATE contributions
		SET status = 'completed',
			gateway_payment_ref = $3,
			receipt_number = 'RCP-' || lpad(nextval('receipt_numbers')::text, 8, '0'),
			approval_status = 'pending',
			updated_at = $4
		WHERE id = $1 AND gateway_order_ref = $2 AND status = 'pending'
		RETURNING ` + contributionColumns + `
	`
	c, err := scanContribution(s.db.QueryRowContext(ctx, query,
		uuid.UUID(contributionID), orderRef, paymentRef, now,
	))
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("confirm contribution: %w", err)
	}

	existing, ferr := s.FindByID(ctx, contributionID)
	if ferr != nil {
		return nil, false, ferr
	}
	if existing.GatewayOrderRef != orderRef {
		return nil, false, sentinel.ErrConflict
	}
	if existing.Status == models.StatusCompleted {
		return existing, false, nil
	}
	return nil, false, sentinel.ErrInvalidState
}

// MarkFailed records a gateway failure while the contribution is pending.
func (s *Postgres) MarkFailed(ctx context.Context, contributionID id.ContributionID, now time.Time) (*models.Contribution, error) {
	query := `
		UPDATE contributions
		SET status = 'failed', updated_at = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + contributionColumns + `
	`
	c, err := scanContribution(s.db.QueryRowContext(ctx, query, uuid.UUID(contributionID), now))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mark contribution failed: %w", err)
	}
	if _, ferr := s.FindByID(ctx, contributionID); ferr != nil {
		return nil, ferr
	}
	return nil, sentinel.ErrInvalidState
}

func (s *Postgres) ListPendingApprovals(ctx context.Context, organizationID id.OrganizationID) ([]*models.Contribution, error) {
	query := `
		SELECT ` + contributionColumns + `
		FROM contributions
		WHERE organization_id = $1 AND status = 'completed' AND approval_status = 'pending'
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(organizationID))
	if err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	defer rows.Close()

	var out []*models.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Decide flips approval_status pending→outcome with a status-guarded update;
// exactly one concurrent decision wins.
func (s *Postgres) Decide(ctx context.Context, contributionID id.ContributionID, outcome id.ApprovalStatus, note string, now time.Time) (*models.Contribution, error) {
	query := `
		UPDATE contributions
		SET approval_status = $2, decision_note = $3, updated_at = $4
		WHERE id = $1 AND status = 'completed' AND approval_status = 'pending'
		RETURNING ` + contributionColumns + `
	`
	c, err := scanContribution(s.db.QueryRowContext(ctx, query,
		uuid.UUID(contributionID), string(outcome), note, now,
	))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decide contribution: %w", err)
	}
	if _, ferr := s.FindByID(ctx, contributionID); ferr != nil {
		return nil, ferr
	}
	return nil, sentinel.ErrInvalidState
}

type contributionRow interface {
	Scan(dest ...any) error
}

func scanContribution(row contributionRow) (*models.Contribution, error) {
	var (
		c             models.Contribution
		cID           uuid.UUID
		contributorID uuid.UUID
		orgID         uuid.UUID
		campaignID    uuid.UUID
		method        string
		status        string
		approval      string
	)
	if err := row.Scan(
		&cID, &contributorID, &orgID, &campaignID, &c.Amount, &method,
		&c.DonorInfo.Name, &c.DonorInfo.Email, &c.GatewayOrderRef,
		&c.GatewayPaymentRef, &status, &approval, &c.ReceiptNumber,
		&c.DecisionNote, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.ID = id.ContributionID(cID)
	c.ContributorID = id.ActorID(contributorID)
	c.OrganizationID = id.OrganizationID(orgID)
	c.CampaignID = id.CampaignID(campaignID)
	c.PaymentMethod = models.PaymentMethod(method)
	c.Status = models.Status(status)
	c.ApprovalStatus = id.ApprovalStatus(approval)
	return &c, nil
}
