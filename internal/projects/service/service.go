package service

import (
	"context"
	"time"

	"solarmarket_backend/internal/projects/repository"
	"solarmarket_backend/internal/projects/transport"
	"solarmarket_backend/platform/apperr"
	"solarmarket_backend/platform/phone"

	"github.com/google/uuid"
)

// Service provides business logic for projects.
type Service struct {
	repo *repository.Repository
}

// New creates a new projects service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Create opens a new project for the acting client.
func (s *Service) Create(ctx context.Context, clientID uuid.UUID, req transport.CreateProjectRequest) (*transport.ProjectResponse, error) {
	if req.BidDeadline != nil && req.BidDeadline.Before(time.Now()) {
		return nil, apperr.Validation("bid deadline must be in the future")
	}

	var contactPhone *string
	if req.ContactPhone != "" {
		if !phone.IsValid(req.ContactPhone) {
			return nil, apperr.Validation("contact phone is not a valid phone number")
		}
		normalized := phone.NormalizeE164(req.ContactPhone)
		contactPhone = &normalized
	}

	now := time.Now()
	project := repository.Project{
		ID:           uuid.New(),
		ClientID:     clientID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       repository.StatusOpen,
		BidDeadline:  req.BidDeadline,
		ContactPhone: contactPhone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.InitialSurveyQuote != "" {
		project.InitialSurveyQuote = &req.InitialSurveyQuote
	}

	if err := s.repo.Create(ctx, &project); err != nil {
		return nil, err
	}
	return toResponse(&project), nil
}

// GetByID returns a project. Clients may only read their own projects;
// installers may read any project that is (or was) open for bidding.
func (s *Service) GetByID(ctx context.Context, id, actorID uuid.UUID, actorIsInstaller bool) (*transport.ProjectResponse, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actorIsInstaller && project.ClientID != actorID {
		return nil, apperr.Forbidden("project belongs to another client")
	}
	return toResponse(project), nil
}

// ListOwn returns the acting client's projects.
func (s *Service) ListOwn(ctx context.Context, clientID uuid.UUID) ([]transport.ProjectResponse, error) {
	projects, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return toResponses(projects), nil
}

// ListOpen returns projects installers can still bid on.
func (s *Service) ListOpen(ctx context.Context) ([]transport.ProjectResponse, error) {
	projects, err := s.repo.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(projects), nil
}

// Close withdraws an open project from bidding. Only the owner may close it.
func (s *Service) Close(ctx context.Context, id, clientID uuid.UUID) error {
	return s.repo.CloseIfOpen(ctx, id, clientID)
}

func toResponse(p *repository.Project) *transport.ProjectResponse {
	return &transport.ProjectResponse{
		ID:                 p.ID,
		ClientID:           p.ClientID,
		Title:              p.Title,
		Description:        p.Description,
		Status:             transport.ProjectStatus(p.Status),
		BidDeadline:        p.BidDeadline,
		InitialSurveyQuote: p.InitialSurveyQuote,
		ContactPhone:       p.ContactPhone,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func toResponses(projects []repository.Project) []transport.ProjectResponse {
	out := make([]transport.ProjectResponse, len(projects))
	for i := range projects {
		out[i] = *toResponse(&projects[i])
	}
	return out
}
