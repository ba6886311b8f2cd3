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

// Quotation statuses as stored in the quotations.status column.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
)

// Quotation is the database model for an installer's priced bid.
type Quotation struct {
	ID              uuid.UUID `db:"id"`
	ProjectID       uuid.UUID `db:"project_id"`
	InstallerID     uuid.UUID `db:"installer_id"`
	Status          string    `db:"status"`
	PanelsCents     int64     `db:"panels_cents"`
	InverterCents   int64     `db:"inverter_cents"`
	StructureCents  int64     `db:"structure_cents"`
	ElectricalCents int64     `db:"electrical_cents"`
	TotalCents      int64     `db:"total_cents"`
	PaymentOptions  []string  `db:"payment_options"`
	Notes           *string   `db:"notes"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// QuotationWithProject joins a quotation with enough project and client
// context for presentation and for the acceptance workflow.
type QuotationWithProject struct {
	Quotation
	ProjectTitle    string    `db:"project_title"`
	ProjectStatus   string    `db:"project_status"`
	ProjectClientID uuid.UUID `db:"project_client_id"`
}

const quotationNotFoundMsg = "quotation not found"

const quotationColumns = `q.id, q.project_id, q.installer_id, q.status,
		q.panels_cents, q.inverter_cents, q.structure_cents, q.electrical_cents,
		q.total_cents, q.payment_options, q.notes, q.created_at, q.updated_at`

const joinedColumns = quotationColumns + `, p.title, p.status, p.client_id`

// ── Repository ────────────────────────────────────────────────────────────────

// Repository provides database operations for quotations.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotations repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new quotation row.
func (r *Repository) Create(ctx context.Context, q *Quotation) error {
	query := `
		INSERT INTO quotations (
			id, project_id, installer_id, status,
			panels_cents, inverter_cents, structure_cents, electrical_cents,
			total_cents, payment_options, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	if _, err := r.pool.Exec(ctx, query,
		q.ID, q.ProjectID, q.InstallerID, q.Status,
		q.PanelsCents, q.InverterCents, q.StructureCents, q.ElectricalCents,
		q.TotalCents, q.PaymentOptions, q.Notes, q.CreatedAt, q.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert quotation: %w", err)
	}
	return nil
}

// GetWithProject retrieves a quotation joined with its parent project.
// This is the single read the acceptance workflow needs for validation.
func (r *Repository) GetWithProject(ctx context.Context, id uuid.UUID) (*QuotationWithProject, error) {
	query := `SELECT ` + joinedColumns + `
		FROM quotations q
		JOIN projects p ON p.id = q.project_id
		WHERE q.id = $1`

	var q QuotationWithProject
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.ProjectID, &q.InstallerID, &q.Status,
		&q.PanelsCents, &q.InverterCents, &q.StructureCents, &q.ElectricalCents,
		&q.TotalCents, &q.PaymentOptions, &q.Notes, &q.CreatedAt, &q.UpdatedAt,
		&q.ProjectTitle, &q.ProjectStatus, &q.ProjectClientID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quotationNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}
	return &q, nil
}

// ListByProject retrieves all quotations for one project, joined with
// project context, newest first.
func (r *Repository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]QuotationWithProject, error) {
	query := `SELECT ` + joinedColumns + `
		FROM quotations q
		JOIN projects p ON p.id = q.project_id
		WHERE q.project_id = $1
		ORDER BY q.created_at DESC`

	return r.queryJoined(ctx, query, projectID)
}

// ListByInstaller retrieves an installer's quotations, optionally filtered
// by status, joined with project context.
func (r *Repository) ListByInstaller(ctx context.Context, installerID uuid.UUID, status *string) ([]QuotationWithProject, error) {
	var statusParam interface{}
	if status != nil {
		statusParam = *status
	}

	query := `SELECT ` + joinedColumns + `
		FROM quotations q
		JOIN projects p ON p.id = q.project_id
		WHERE q.installer_id = $1
			AND ($2::text IS NULL OR q.status = $2)
		ORDER BY q.created_at DESC`

	return r.queryJoined(ctx, query, installerID, statusParam)
}

// HasPendingForInstaller reports whether the installer already has a pending
// bid on the project.
func (r *Repository) HasPendingForInstaller(ctx context.Context, projectID, installerID uuid.UUID) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM quotations
		WHERE project_id = $1 AND installer_id = $2 AND status = $3`
	if err := r.pool.QueryRow(ctx, query, projectID, installerID, StatusPending).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count pending quotations: %w", err)
	}
	return count > 0, nil
}

// MarkAccepted transitions a quotation to accepted. Already-accepted rows are
// a no-op so the reconciliation pass can safely re-run this step. A quotation
// that was meanwhile rejected or withdrawn cannot be accepted.
func (r *Repository) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE quotations SET status = $2, updated_at = $3
		WHERE id = $1 AND status IN ($2, $4)`
	result, err := r.pool.Exec(ctx, query, id, StatusAccepted, time.Now(), StatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark quotation accepted: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Conflict("quotation is no longer pending")
	}
	return nil
}

// MarkRejected transitions a quotation to rejected. Used both for the
// compensation path (reverting a provisional acceptance after losing the
// award race) and as an idempotent no-op on already-rejected rows.
func (r *Repository) MarkRejected(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE quotations SET status = $2, updated_at = $3
		WHERE id = $1 AND status IN ($2, $4, $5)`
	result, err := r.pool.Exec(ctx, query, id, StatusRejected, time.Now(), StatusPending, StatusAccepted)
	if err != nil {
		return fmt.Errorf("failed to mark quotation rejected: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quotationNotFoundMsg)
	}
	return nil
}

// RejectSiblings rejects every still-pending quotation on the project other
// than the accepted one. Idempotent: already-rejected siblings are untouched.
func (r *Repository) RejectSiblings(ctx context.Context, projectID, acceptedID uuid.UUID) error {
	query := `UPDATE quotations SET status = $3, updated_at = $4
		WHERE project_id = $1 AND id <> $2 AND status = $5`
	if _, err := r.pool.Exec(ctx, query, projectID, acceptedID, StatusRejected, time.Now(), StatusPending); err != nil {
		return fmt.Errorf("failed to reject sibling quotations: %w", err)
	}
	return nil
}

// AcceptedIDForProject returns the id of the accepted quotation on a project,
// or uuid.Nil when none is accepted.
func (r *Repository) AcceptedIDForProject(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	query := `SELECT id FROM quotations WHERE project_id = $1 AND status = $2`
	err := r.pool.QueryRow(ctx, query, projectID, StatusAccepted).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("failed to get accepted quotation: %w", err)
	}
	return id, nil
}

// Withdraw transitions a pending quotation to withdrawn, scoped to its owner.
func (r *Repository) Withdraw(ctx context.Context, id, installerID uuid.UUID) error {
	query := `UPDATE quotations SET status = $3, updated_at = $4
		WHERE id = $1 AND installer_id = $2 AND status = $5`
	result, err := r.pool.Exec(ctx, query, id, installerID, StatusWithdrawn, time.Now(), StatusPending)
	if err != nil {
		return fmt.Errorf("failed to withdraw quotation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("pending quotation not found")
	}
	return nil
}

func (r *Repository) queryJoined(ctx context.Context, query string, args ...interface{}) ([]QuotationWithProject, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotations: %w", err)
	}
	defer rows.Close()

	var items []QuotationWithProject
	for rows.Next() {
		var q QuotationWithProject
		if err := rows.Scan(
			&q.ID, &q.ProjectID, &q.InstallerID, &q.Status,
			&q.PanelsCents, &q.InverterCents, &q.StructureCents, &q.ElectricalCents,
			&q.TotalCents, &q.PaymentOptions, &q.Notes, &q.CreatedAt, &q.UpdatedAt,
			&q.ProjectTitle, &q.ProjectStatus, &q.ProjectClientID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quotation: %w", err)
		}
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotations: %w", err)
	}
	return items, nil
}
