package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solarmarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Contract statuses.
const (
	StatusActive    = "active"
	StatusCanceled  = "canceled"
	StatusCompleted = "completed"
)

// Contract payment statuses. Transitions past pending are driven by external
// payment events.
const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentSucceeded  = "succeeded"
	PaymentCanceled   = "canceled"
)

// Milestone statuses. Overdue and paid are set by external payment tracking.
const (
	MilestonePending  = "pending"
	MilestonePaid     = "paid"
	MilestoneOverdue  = "overdue"
	MilestoneCanceled = "canceled"
)

// Contract is the database model for an issued contract.
type Contract struct {
	ID                   uuid.UUID `db:"id"`
	ContractNumber       string    `db:"contract_number"`
	ProjectID            uuid.UUID `db:"project_id"`
	QuotationID          uuid.UUID `db:"quotation_id"`
	ClientID             uuid.UUID `db:"client_id"`
	InstallerID          uuid.UUID `db:"installer_id"`
	Status               string    `db:"status"`
	PaymentStatus        string    `db:"payment_status"`
	PaymentType          string    `db:"payment_type"`
	TotalCents           int64     `db:"total_cents"`
	LumpSumCents         int64     `db:"lump_sum_cents"`
	PendingProviderSetup bool      `db:"pending_provider_setup"`
	DocumentKey          *string   `db:"document_key"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// Milestone is one installment row of a milestone contract.
type Milestone struct {
	ID              uuid.UUID  `db:"id"`
	ContractID      uuid.UUID  `db:"contract_id"`
	Sequence        int        `db:"sequence"`
	Name            string     `db:"name"`
	PercentageBps   int        `db:"percentage_bps"`
	AmountCents     int64      `db:"amount_cents"`
	CommissionCents int64      `db:"commission_cents"`
	Status          string     `db:"status"`
	PaidAt          *time.Time `db:"paid_at"`
	CreatedAt       time.Time  `db:"created_at"`
}

const contractNotFoundMsg = "contract not found"

const contractColumns = `id, contract_number, project_id, quotation_id, client_id, installer_id,
		status, payment_status, payment_type, total_cents, lump_sum_cents, pending_provider_setup,
		document_key, created_at, updated_at`

// ── Repository ────────────────────────────────────────────────────────────────

// Repository provides database operations for contracts and their milestones.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new contracts repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new contract row. Each statement in the issuance workflow
// commits on its own; there is deliberately no surrounding transaction.
func (r *Repository) Insert(ctx context.Context, c *Contract) error {
	query := `
		INSERT INTO contracts (
			id, contract_number, project_id, quotation_id, client_id, installer_id,
			status, payment_status, payment_type, total_cents, lump_sum_cents, pending_provider_setup,
			document_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	if _, err := r.pool.Exec(ctx, query,
		c.ID, c.ContractNumber, c.ProjectID, c.QuotationID, c.ClientID, c.InstallerID,
		c.Status, c.PaymentStatus, c.PaymentType, c.TotalCents, c.LumpSumCents, c.PendingProviderSetup,
		c.DocumentKey, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}
	return nil
}

// InsertMilestones stores the milestone rows for a contract.
func (r *Repository) InsertMilestones(ctx context.Context, milestones []Milestone) error {
	query := `
		INSERT INTO milestones (
			id, contract_id, sequence, name, percentage_bps,
			amount_cents, commission_cents, status, paid_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, m := range milestones {
		if _, err := r.pool.Exec(ctx, query,
			m.ID, m.ContractID, m.Sequence, m.Name, m.PercentageBps,
			m.AmountCents, m.CommissionCents, m.Status, m.PaidAt, m.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert milestone %d: %w", m.Sequence, err)
		}
	}
	return nil
}

// HasMilestones reports whether any milestone rows exist for the contract.
// The repair pass uses this to keep milestone insertion idempotent.
func (r *Repository) HasMilestones(ctx context.Context, contractID uuid.UUID) (bool, error) {
	var count int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM milestones WHERE contract_id = $1`, contractID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count milestones: %w", err)
	}
	return count > 0, nil
}

// Cancel marks a contract and all its milestones canceled. Idempotent.
func (r *Repository) Cancel(ctx context.Context, contractID uuid.UUID) error {
	now := time.Now()
	if _, err := r.pool.Exec(ctx,
		`UPDATE contracts SET status = $2, updated_at = $3 WHERE id = $1 AND status <> $2`,
		contractID, StatusCanceled, now,
	); err != nil {
		return fmt.Errorf("failed to cancel contract: %w", err)
	}
	if _, err := r.pool.Exec(ctx,
		`UPDATE milestones SET status = $2 WHERE contract_id = $1 AND status = $3`,
		contractID, MilestoneCanceled, MilestonePending,
	); err != nil {
		return fmt.Errorf("failed to cancel milestones: %w", err)
	}
	return nil
}

// SetDocumentKey records the storage key of the generated contract document.
func (r *Repository) SetDocumentKey(ctx context.Context, contractID uuid.UUID, key string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE contracts SET document_key = $2, updated_at = $3 WHERE id = $1`,
		contractID, key, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to set document key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(contractNotFoundMsg)
	}
	return nil
}

// GetByID retrieves a contract by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByQuotationID retrieves the contract issued for a quotation, if any.
func (r *Repository) GetByQuotationID(ctx context.Context, quotationID uuid.UUID) (*Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE quotation_id = $1 AND status <> $2`
	return r.getOne(ctx, query, quotationID, StatusCanceled)
}

// ListByParticipant retrieves the contracts where the user is the client or
// the installer, newest first.
func (r *Repository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts
		WHERE client_id = $1 OR installer_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contracts: %w", err)
	}
	return contracts, nil
}

// ListMilestones retrieves a contract's milestones ordered by sequence.
func (r *Repository) ListMilestones(ctx context.Context, contractID uuid.UUID) ([]Milestone, error) {
	query := `SELECT id, contract_id, sequence, name, percentage_bps,
			amount_cents, commission_cents, status, paid_at, created_at
		FROM milestones WHERE contract_id = $1 ORDER BY sequence`

	rows, err := r.pool.Query(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	defer rows.Close()

	var milestones []Milestone
	for rows.Next() {
		var m Milestone
		if err := rows.Scan(
			&m.ID, &m.ContractID, &m.Sequence, &m.Name, &m.PercentageBps,
			&m.AmountCents, &m.CommissionCents, &m.Status, &m.PaidAt, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate milestones: %w", err)
	}
	return milestones, nil
}

func (r *Repository) getOne(ctx context.Context, query string, args ...interface{}) (*Contract, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	c, err := scanContract(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(contractNotFoundMsg)
		}
		return nil, err
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContract(row rowScanner) (*Contract, error) {
	var c Contract
	if err := row.Scan(
		&c.ID, &c.ContractNumber, &c.ProjectID, &c.QuotationID, &c.ClientID, &c.InstallerID,
		&c.Status, &c.PaymentStatus, &c.PaymentType, &c.TotalCents, &c.LumpSumCents, &c.PendingProviderSetup,
		&c.DocumentKey, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan contract: %w", err)
	}
	return &c, nil
}
