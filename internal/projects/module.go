// Package projects provides the projects (bid requests) domain module.
package projects

import (
	apphttp "solarmarket_backend/internal/http"
	"solarmarket_backend/internal/projects/handler"
	"solarmarket_backend/internal/projects/repository"
	"solarmarket_backend/internal/projects/service"
	"solarmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the projects domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new projects module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "projects"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	projects := ctx.Protected.Group("/projects")
	m.handler.RegisterRoutes(projects)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
