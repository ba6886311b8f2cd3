package service

import (
	"context"
	"time"

	"solarmarket_backend/internal/quotations/repository"
	"solarmarket_backend/internal/quotations/transport"
	"solarmarket_backend/platform/apperr"
	"solarmarket_backend/platform/httpkit"
	"solarmarket_backend/platform/logger"

	"github.com/google/uuid"
	projectrepo "solarmarket_backend/internal/projects/repository"
)

// ProjectReader is the slice of the projects repository bidding needs.
type ProjectReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*projectrepo.Project, error)
}

// Service contains the business logic for quotations.
type Service struct {
	repo     *repository.Repository
	projects ProjectReader
	log      *logger.Logger
}

// New creates a new quotations service.
func New(repo *repository.Repository, projects ProjectReader, log *logger.Logger) *Service {
	return &Service{repo: repo, projects: projects, log: log}
}

// Submit validates and stores an installer's bid on an open project.
func (s *Service) Submit(ctx context.Context, installerID uuid.UUID, req transport.SubmitQuotationRequest) (*transport.QuotationResponse, error) {
	project, err := s.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.Status != projectrepo.StatusOpen {
		return nil, apperr.Conflict("project is not open for bidding")
	}
	if project.BidDeadline != nil && !project.BidDeadline.After(time.Now()) {
		return nil, apperr.Conflict("bidding deadline has passed")
	}
	if project.ClientID == installerID {
		return nil, apperr.Forbidden("cannot bid on your own project")
	}

	sum := req.PanelsCents + req.InverterCents + req.StructureCents + req.ElectricalCents
	if sum != req.TotalCents {
		return nil, apperr.BadRequest("total does not match the cost breakdown")
	}

	exists, err := s.repo.HasPendingForInstaller(ctx, req.ProjectID, installerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("you already have a pending quotation for this project")
	}

	now := time.Now()
	q := repository.Quotation{
		ID:              uuid.New(),
		ProjectID:       req.ProjectID,
		InstallerID:     installerID,
		Status:          repository.StatusPending,
		PanelsCents:     req.PanelsCents,
		InverterCents:   req.InverterCents,
		StructureCents:  req.StructureCents,
		ElectricalCents: req.ElectricalCents,
		TotalCents:      req.TotalCents,
		PaymentOptions:  req.PaymentOptions,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, &q); err != nil {
		return nil, err
	}

	s.log.Info("quotation submitted",
		"quotation_id", q.ID,
		"project_id", q.ProjectID,
		"total_cents", q.TotalCents)

	resp := toResponse(repository.QuotationWithProject{
		Quotation:       q,
		ProjectTitle:    project.Title,
		ProjectStatus:   project.Status,
		ProjectClientID: project.ClientID,
	})
	return &resp, nil
}

// GetByID returns a single quotation. Visible to the project owner, the
// bidding installer and admins.
func (s *Service) GetByID(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (*transport.QuotationResponse, error) {
	q, err := s.repo.GetWithProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(identity, q) {
		return nil, apperr.Forbidden("you do not have access to this quotation")
	}
	resp := toResponse(*q)
	return &resp, nil
}

// ListForProject returns all quotations on a project for its owner.
func (s *Service) ListForProject(ctx context.Context, identity httpkit.Identity, projectID uuid.UUID) ([]transport.QuotationResponse, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != identity.UserID() && !identity.HasRole(httpkit.RoleAdmin) {
		return nil, apperr.Forbidden("you do not have access to this project")
	}

	items, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

// ListForInstaller returns the caller's own quotations across projects,
// optionally filtered by status.
func (s *Service) ListForInstaller(ctx context.Context, installerID uuid.UUID, query transport.ListQuery) ([]transport.QuotationResponse, error) {
	items, err := s.repo.ListByInstaller(ctx, installerID, query.Status)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

// Withdraw retracts the caller's own pending quotation.
func (s *Service) Withdraw(ctx context.Context, installerID, id uuid.UUID) error {
	if err := s.repo.Withdraw(ctx, id, installerID); err != nil {
		return err
	}
	s.log.Info("quotation withdrawn", "quotation_id", id)
	return nil
}

func canView(identity httpkit.Identity, q *repository.QuotationWithProject) bool {
	return identity.UserID() == q.InstallerID ||
		identity.UserID() == q.ProjectClientID ||
		identity.HasRole(httpkit.RoleAdmin)
}

func toResponse(q repository.QuotationWithProject) transport.QuotationResponse {
	return transport.QuotationResponse{
		ID:              q.ID,
		ProjectID:       q.ProjectID,
		ProjectTitle:    q.ProjectTitle,
		ProjectStatus:   q.ProjectStatus,
		InstallerID:     q.InstallerID,
		Status:          q.Status,
		PanelsCents:     q.PanelsCents,
		InverterCents:   q.InverterCents,
		StructureCents:  q.StructureCents,
		ElectricalCents: q.ElectricalCents,
		TotalCents:      q.TotalCents,
		PaymentOptions:  q.PaymentOptions,
		Notes:           q.Notes,
		CreatedAt:       q.CreatedAt,
	}
}

func toResponses(items []repository.QuotationWithProject) []transport.QuotationResponse {
	out := make([]transport.QuotationResponse, 0, len(items))
	for _, q := range items {
		out = append(out, toResponse(q))
	}
	return out
}
