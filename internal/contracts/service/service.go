package service

import (
	"context"

	"solarmarket_backend/internal/adapters/storage"
	"solarmarket_backend/internal/contracts/repository"
	"solarmarket_backend/internal/contracts/transport"
	"solarmarket_backend/internal/events"
	"solarmarket_backend/platform/apperr"
	"solarmarket_backend/platform/httpkit"
	"solarmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// Service contains the contract issuance and query logic.
type Service struct {
	contracts       ContractStore
	quotations      QuotationStore
	projects        ProjectStore
	scheduler       ReconcileScheduler
	bus             events.Bus
	policy          PricingPolicy
	storage         storage.StorageService
	documentsBucket string
	log             *logger.Logger
}

// New creates a new contracts service. The scheduler may be nil, in which
// case partial failures are only logged and left to manual reconciliation.
// Storage may be nil when object storage is not configured; the document
// endpoint then reports it as unavailable.
func New(
	contracts ContractStore,
	quotations QuotationStore,
	projects ProjectStore,
	scheduler ReconcileScheduler,
	bus events.Bus,
	policy PricingPolicy,
	storageSvc storage.StorageService,
	documentsBucket string,
	log *logger.Logger,
) *Service {
	return &Service{
		contracts:       contracts,
		quotations:      quotations,
		projects:        projects,
		scheduler:       scheduler,
		bus:             bus,
		policy:          policy,
		storage:         storageSvc,
		documentsBucket: documentsBucket,
		log:             log,
	}
}

// GetByID returns a contract with its full payment plan. Visible to the two
// contract parties and admins.
func (s *Service) GetByID(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (*transport.ContractResponse, error) {
	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewContract(identity, contract) {
		return nil, apperr.Forbidden("you do not have access to this contract")
	}

	milestones, err := s.contracts.ListMilestones(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(contract, milestones, "")
	return &resp, nil
}

// GetByQuotation returns the active contract issued for a quotation.
func (s *Service) GetByQuotation(ctx context.Context, identity httpkit.Identity, quotationID uuid.UUID) (*transport.ContractResponse, error) {
	contract, err := s.contracts.GetByQuotationID(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, identity, contract.ID)
}

// ListOwn returns the caller's contracts, as client or installer. Listings
// omit the milestone breakdown; GetByID has the full plan.
func (s *Service) ListOwn(ctx context.Context, userID uuid.UUID) ([]transport.ContractResponse, error) {
	contracts, err := s.contracts.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ContractResponse, 0, len(contracts))
	for i := range contracts {
		out = append(out, toResponse(&contracts[i], nil, ""))
	}
	return out, nil
}

// ListMilestones returns a contract's installments for one of its parties.
func (s *Service) ListMilestones(ctx context.Context, identity httpkit.Identity, contractID uuid.UUID) ([]transport.MilestoneStep, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !canViewContract(identity, contract) {
		return nil, apperr.Forbidden("you do not have access to this contract")
	}
	milestones, err := s.contracts.ListMilestones(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return toSteps(milestones), nil
}

// DocumentURL returns a presigned link to the contract PDF for one of the
// contract parties.
func (s *Service) DocumentURL(ctx context.Context, identity httpkit.Identity, contractID uuid.UUID) (*transport.ContractDocumentResponse, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !canViewContract(identity, contract) {
		return nil, apperr.Forbidden("you do not have access to this contract")
	}
	if s.storage == nil {
		return nil, apperr.Unavailable("document storage is not configured")
	}
	if contract.DocumentKey == nil || *contract.DocumentKey == "" {
		return nil, apperr.NotFound("contract document not available yet")
	}

	presigned, err := s.storage.GenerateDownloadURL(ctx, s.documentsBucket, *contract.DocumentKey)
	if err != nil {
		return nil, err
	}
	return &transport.ContractDocumentResponse{
		DownloadURL: presigned.URL,
		ExpiresAt:   presigned.ExpiresAt.Unix(),
	}, nil
}

func canViewContract(identity httpkit.Identity, c *repository.Contract) bool {
	return identity.UserID() == c.ClientID ||
		identity.UserID() == c.InstallerID ||
		identity.HasRole(httpkit.RoleAdmin)
}

func toSteps(milestones []repository.Milestone) []transport.MilestoneStep {
	steps := make([]transport.MilestoneStep, 0, len(milestones))
	for _, m := range milestones {
		steps = append(steps, transport.MilestoneStep{
			ID:              m.ID,
			Sequence:        m.Sequence,
			Name:            m.Name,
			PercentageBps:   m.PercentageBps,
			AmountCents:     m.AmountCents,
			CommissionCents: m.CommissionCents,
			Status:          m.Status,
			PaidAt:          m.PaidAt,
		})
	}
	return steps
}

func toResponse(c *repository.Contract, milestones []repository.Milestone, projectTitle string) transport.ContractResponse {
	plan := transport.PaymentPlan{
		Type:                 c.PaymentType,
		LumpSumCents:         c.LumpSumCents,
		PendingProviderSetup: c.PendingProviderSetup,
	}
	if len(milestones) > 0 {
		plan.Steps = toSteps(milestones)
	}
	return transport.ContractResponse{
		ID:             c.ID,
		ContractNumber: c.ContractNumber,
		ProjectID:      c.ProjectID,
		ProjectTitle:   projectTitle,
		QuotationID:    c.QuotationID,
		ClientID:       c.ClientID,
		InstallerID:    c.InstallerID,
		Status:         c.Status,
		PaymentStatus:  c.PaymentStatus,
		TotalCents:     c.TotalCents,
		PaymentPlan:    plan,
		DocumentKey:    c.DocumentKey,
		CreatedAt:      c.CreatedAt,
	}
}
