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

// Project statuses as stored in the projects.status column.
const (
	StatusOpen       = "open"
	StatusClosed     = "closed"
	StatusAwarded    = "awarded"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCanceled   = "canceled"
)

// Project is the database model for a client's request for installation bids.
type Project struct {
	ID                 uuid.UUID  `db:"id"`
	ClientID           uuid.UUID  `db:"client_id"`
	Title              string     `db:"title"`
	Description        string     `db:"description"`
	Status             string     `db:"status"`
	BidDeadline        *time.Time `db:"bid_deadline"`
	InitialSurveyQuote *string    `db:"initial_survey_quote"`
	ContactPhone       *string    `db:"contact_phone"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

const projectNotFoundMsg = "project not found"

const projectColumns = `id, client_id, title, description, status,
		bid_deadline, initial_survey_quote, contact_phone, created_at, updated_at`

// ── Repository ────────────────────────────────────────────────────────────────

// Repository provides database operations for projects.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new projects repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new project row.
func (r *Repository) Create(ctx context.Context, p *Project) error {
	query := `
		INSERT INTO projects (
			id, client_id, title, description, status,
			bid_deadline, initial_survey_quote, contact_phone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := r.pool.Exec(ctx, query,
		p.ID, p.ClientID, p.Title, p.Description, p.Status,
		p.BidDeadline, p.InitialSurveyQuote, p.ContactPhone, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	var p Project
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ClientID, &p.Title, &p.Description, &p.Status,
		&p.BidDeadline, &p.InitialSurveyQuote, &p.ContactPhone, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(projectNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// ListByClient retrieves all projects owned by a client, newest first.
func (r *Repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects WHERE client_id = $1
		ORDER BY created_at DESC`

	return r.queryProjects(ctx, query, clientID)
}

// ListOpen retrieves projects still accepting bids, newest first.
func (r *Repository) ListOpen(ctx context.Context) ([]Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects
		WHERE status = $1 AND (bid_deadline IS NULL OR bid_deadline > now())
		ORDER BY created_at DESC`

	return r.queryProjects(ctx, query, StatusOpen)
}

// AwardIfOpen conditionally transitions a project from open to awarded.
// This single conditional update is the mutual-exclusion primitive for
// contract issuance: it returns false when the project was no longer open,
// meaning a competing acceptance won the race.
func (r *Repository) AwardIfOpen(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE projects SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.pool.Exec(ctx, query, id, StatusAwarded, time.Now(), StatusOpen)
	if err != nil {
		return false, fmt.Errorf("failed to award project: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// CloseIfOpen transitions an open project to closed, scoped to its owner.
// Returns apperr.NotFound when the project does not exist or is not open.
func (r *Repository) CloseIfOpen(ctx context.Context, id, clientID uuid.UUID) error {
	query := `UPDATE projects SET status = $3, updated_at = $4
		WHERE id = $1 AND client_id = $2 AND status = $5`
	result, err := r.pool.Exec(ctx, query, id, clientID, StatusClosed, time.Now(), StatusOpen)
	if err != nil {
		return fmt.Errorf("failed to close project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("open project not found")
	}
	return nil
}

// StatusByID returns just the status column for a project.
func (r *Repository) StatusByID(ctx context.Context, id uuid.UUID) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM projects WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound(projectNotFoundMsg)
		}
		return "", fmt.Errorf("failed to get project status: %w", err)
	}
	return status, nil
}

func (r *Repository) queryProjects(ctx context.Context, query string, args ...interface{}) ([]Project, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(
			&p.ID, &p.ClientID, &p.Title, &p.Description, &p.Status,
			&p.BidDeadline, &p.InitialSurveyQuote, &p.ContactPhone, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}
