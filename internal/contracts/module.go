// Package contracts provides the contract issuance domain module.
package contracts

import (
	"solarmarket_backend/internal/adapters/storage"
	"solarmarket_backend/internal/contracts/handler"
	"solarmarket_backend/internal/contracts/repository"
	"solarmarket_backend/internal/contracts/service"
	"solarmarket_backend/internal/events"
	apphttp "solarmarket_backend/internal/http"
	"solarmarket_backend/platform/logger"
	"solarmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	projectrepo "solarmarket_backend/internal/projects/repository"
	quotationrepo "solarmarket_backend/internal/quotations/repository"
)

// Module represents the contracts domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new contracts module with all dependencies wired.
func NewModule(
	pool *pgxpool.Pool,
	projects *projectrepo.Repository,
	quotations *quotationrepo.Repository,
	scheduler service.ReconcileScheduler,
	bus events.Bus,
	policy service.PricingPolicy,
	storageSvc storage.StorageService,
	documentsBucket string,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, quotations, projects, scheduler, bus, policy, storageSvc, documentsBucket, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "contracts"
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
	contracts := ctx.Protected.Group("/contracts")
	m.handler.RegisterRoutes(contracts)

	quotations := ctx.Protected.Group("/quotations")
	m.handler.RegisterQuotationRoutes(quotations)

	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
