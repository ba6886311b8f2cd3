// Package quotations provides the quotations (installer bids) domain module.
package quotations

import (
	apphttp "solarmarket_backend/internal/http"
	projectrepo "solarmarket_backend/internal/projects/repository"
	"solarmarket_backend/internal/quotations/handler"
	"solarmarket_backend/internal/quotations/repository"
	"solarmarket_backend/internal/quotations/service"
	"solarmarket_backend/platform/logger"
	"solarmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotations domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new quotations module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, projects *projectrepo.Repository, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, projects, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "quotations"
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
	quotations := ctx.Protected.Group("/quotations")
	m.handler.RegisterRoutes(quotations)

	projects := ctx.Protected.Group("/projects")
	m.handler.RegisterProjectRoutes(projects)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
