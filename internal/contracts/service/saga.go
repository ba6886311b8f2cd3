package service

import (
	"context"
	"fmt"
	"time"

	"solarmarket_backend/internal/contracts/repository"
	"solarmarket_backend/internal/contracts/transport"
	"solarmarket_backend/internal/events"
	"solarmarket_backend/platform/apperr"

	"github.com/google/uuid"
	projectrepo "solarmarket_backend/internal/projects/repository"
	quotationrepo "solarmarket_backend/internal/quotations/repository"
)

// Issuance step names, recorded on partial failures and in logs.
const (
	StepInsertContract        = "insert_contract"
	StepInsertMilestones      = "insert_milestones"
	StepMarkQuotationAccepted = "mark_quotation_accepted"
	StepAwardProject          = "award_project"
	StepRejectSiblings        = "reject_siblings"
	StepCompensate            = "compensate"
)

// Reconcile outcomes.
const (
	OutcomeCompleted       = "completed"
	OutcomeRolledBack      = "rolled_back"
	OutcomeAlreadyCanceled = "already_canceled"
)

// PartialFailureError reports that contract issuance stopped partway: the
// contract row exists but one of the follow-up writes failed. The repair
// pass finishes or rolls back the named contract.
type PartialFailureError struct {
	Step       string
	ContractID uuid.UUID
	Err        error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("contract issuance incomplete at step %s (contract %s): %v", e.Step, e.ContractID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// ── Store interfaces ──────────────────────────────────────────────────────────

// ContractStore is the slice of the contracts repository issuance needs.
type ContractStore interface {
	Insert(ctx context.Context, c *repository.Contract) error
	InsertMilestones(ctx context.Context, milestones []repository.Milestone) error
	HasMilestones(ctx context.Context, contractID uuid.UUID) (bool, error)
	Cancel(ctx context.Context, contractID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Contract, error)
	GetByQuotationID(ctx context.Context, quotationID uuid.UUID) (*repository.Contract, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]repository.Contract, error)
	ListMilestones(ctx context.Context, contractID uuid.UUID) ([]repository.Milestone, error)
}

// QuotationStore is the slice of the quotations repository issuance needs.
type QuotationStore interface {
	GetWithProject(ctx context.Context, id uuid.UUID) (*quotationrepo.QuotationWithProject, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) error
	MarkRejected(ctx context.Context, id uuid.UUID) error
	RejectSiblings(ctx context.Context, projectID, acceptedID uuid.UUID) error
	AcceptedIDForProject(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error)
}

// ProjectStore is the slice of the projects repository issuance needs.
// AwardIfOpen is the only mutual exclusion primitive in the workflow: the
// conditional update succeeds for exactly one concurrent acceptance.
type ProjectStore interface {
	AwardIfOpen(ctx context.Context, id uuid.UUID) (bool, error)
	StatusByID(ctx context.Context, id uuid.UUID) (string, error)
}

// ReconcileScheduler enqueues a repair task for a partially issued contract.
type ReconcileScheduler interface {
	EnqueueContractReconcile(ctx context.Context, contractID uuid.UUID, failedStep string) error
}

// ── Issuance ──────────────────────────────────────────────────────────────────

// AcceptQuotation runs the contract issuance workflow for a client accepting
// a bid. Every write commits independently; there is no wrapping database
// transaction. A failure after the contract row exists yields a
// PartialFailureError and a queued repair task instead of an abort.
func (s *Service) AcceptQuotation(ctx context.Context, clientID uuid.UUID, clientEmail string, quotationID uuid.UUID, req transport.AcceptQuotationRequest) (*transport.ContractResponse, error) {
	q, err := s.quotations.GetWithProject(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if err := validateAcceptance(clientID, q, req.PaymentType); err != nil {
		return nil, err
	}

	plan, err := ComputePaymentPlan(q.TotalCents, req.PaymentType, s.policy)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	number, err := NewContractNumber(now)
	if err != nil {
		return nil, err
	}

	contract := repository.Contract{
		ID:                   uuid.New(),
		ContractNumber:       number,
		ProjectID:            q.ProjectID,
		QuotationID:          q.ID,
		ClientID:             clientID,
		InstallerID:          q.InstallerID,
		Status:               repository.StatusActive,
		PaymentStatus:        repository.PaymentPending,
		PaymentType:          plan.Type,
		TotalCents:           q.TotalCents,
		LumpSumCents:         plan.LumpSumCents,
		PendingProviderSetup: plan.PendingProviderSetup,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	// Step 1: the contract row. Failing here leaves nothing behind, so a
	// plain error is enough and the client can simply retry.
	if err := s.contracts.Insert(ctx, &contract); err != nil {
		s.log.SagaStep("contract_issuance", StepInsertContract, contract.ID.String(), err)
		return nil, err
	}

	// Step 2: milestone rows, for milestone plans only.
	milestones := milestonesForPlan(contract.ID, plan, now)
	if len(milestones) > 0 {
		if err := s.contracts.InsertMilestones(ctx, milestones); err != nil {
			return nil, s.partialFailure(ctx, StepInsertMilestones, contract.ID, err)
		}
	}

	// Step 3: mark the quotation accepted. A conflict here means the
	// quotation stopped being pending under us, so another acceptance won.
	if err := s.quotations.MarkAccepted(ctx, q.ID); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, s.compensate(ctx, &contract, q.ID, false)
		}
		return nil, s.partialFailure(ctx, StepMarkQuotationAccepted, contract.ID, err)
	}

	// Step 4: award the project. The conditional update is where concurrent
	// acceptances are decided; the loser rolls back its own writes.
	awarded, err := s.projects.AwardIfOpen(ctx, q.ProjectID)
	if err != nil {
		return nil, s.partialFailure(ctx, StepAwardProject, contract.ID, err)
	}
	if !awarded {
		return nil, s.compensate(ctx, &contract, q.ID, true)
	}

	// Step 5: reject the remaining pending bids.
	if err := s.quotations.RejectSiblings(ctx, q.ProjectID, q.ID); err != nil {
		return nil, s.partialFailure(ctx, StepRejectSiblings, contract.ID, err)
	}

	s.publishIssued(ctx, &contract, q, clientEmail)

	s.log.Info("contract issued",
		"contract_id", contract.ID,
		"contract_number", contract.ContractNumber,
		"project_id", contract.ProjectID,
		"payment_type", contract.PaymentType)

	resp := toResponse(&contract, milestones, q.ProjectTitle)
	return &resp, nil
}

// compensate rolls back a losing acceptance: the contract and its milestones
// are canceled and, when the quotation was already provisionally accepted,
// it is reverted to rejected. Callers always surface a conflict to the
// client afterwards.
func (s *Service) compensate(ctx context.Context, contract *repository.Contract, quotationID uuid.UUID, revertQuotation bool) error {
	if err := s.contracts.Cancel(ctx, contract.ID); err != nil {
		return s.partialFailure(ctx, StepCompensate, contract.ID, err)
	}
	if revertQuotation {
		if err := s.quotations.MarkRejected(ctx, quotationID); err != nil {
			return s.partialFailure(ctx, StepCompensate, contract.ID, err)
		}
	}
	s.log.Info("contract issuance lost award race, rolled back",
		"contract_id", contract.ID,
		"quotation_id", quotationID)
	return apperr.Conflict("project has already been awarded")
}

// partialFailure records the stalled step, announces it on the bus, queues a
// repair task and returns the typed error the transport layer reports to the
// caller.
func (s *Service) partialFailure(ctx context.Context, step string, contractID uuid.UUID, err error) error {
	s.log.SagaStep("contract_issuance", step, contractID.String(), err)
	s.bus.Publish(context.WithoutCancel(ctx), events.ContractReconcileRequested{
		BaseEvent:  events.NewBaseEvent(),
		ContractID: contractID,
		FailedStep: step,
	})
	if s.scheduler != nil {
		if enqueueErr := s.scheduler.EnqueueContractReconcile(context.WithoutCancel(ctx), contractID, step); enqueueErr != nil {
			s.log.Error("failed to enqueue contract reconcile task",
				"contract_id", contractID,
				"error", enqueueErr)
		}
	}
	return &PartialFailureError{Step: step, ContractID: contractID, Err: err}
}

func (s *Service) publishIssued(ctx context.Context, contract *repository.Contract, q *quotationrepo.QuotationWithProject, clientEmail string) {
	s.bus.Publish(ctx, events.QuotationAccepted{
		BaseEvent:   events.NewBaseEvent(),
		QuotationID: q.ID,
		ProjectID:   q.ProjectID,
		InstallerID: q.InstallerID,
		ClientID:    contract.ClientID,
		TotalCents:  q.TotalCents,
	})
	s.bus.Publish(ctx, events.ContractIssued{
		BaseEvent:      events.NewBaseEvent(),
		ContractID:     contract.ID,
		ContractNumber: contract.ContractNumber,
		QuotationID:    q.ID,
		ProjectID:      q.ProjectID,
		ClientID:       contract.ClientID,
		InstallerID:    q.InstallerID,
		PaymentType:    contract.PaymentType,
		TotalCents:     contract.TotalCents,
		ProjectTitle:   q.ProjectTitle,
		ClientEmail:    clientEmail,
	})
	s.bus.Publish(ctx, events.ProjectAwarded{
		BaseEvent:   events.NewBaseEvent(),
		ProjectID:   q.ProjectID,
		ContractID:  contract.ID,
		QuotationID: q.ID,
	})
}

func validateAcceptance(clientID uuid.UUID, q *quotationrepo.QuotationWithProject, paymentType string) error {
	if q.ProjectClientID != clientID {
		return apperr.Forbidden("only the project owner can accept a quotation")
	}
	if q.Status != quotationrepo.StatusPending {
		return apperr.Conflict("quotation is no longer pending")
	}
	if q.ProjectStatus != projectrepo.StatusOpen {
		return apperr.Conflict("project is no longer open")
	}
	for _, opt := range q.PaymentOptions {
		if opt == paymentType {
			return nil
		}
	}
	return apperr.BadRequest("payment type was not offered on this quotation")
}

func milestonesForPlan(contractID uuid.UUID, plan ComputedPlan, now time.Time) []repository.Milestone {
	if len(plan.Milestones) == 0 {
		return nil
	}
	rows := make([]repository.Milestone, 0, len(plan.Milestones))
	for _, m := range plan.Milestones {
		rows = append(rows, repository.Milestone{
			ID:              uuid.New(),
			ContractID:      contractID,
			Sequence:        m.Sequence,
			Name:            m.Name,
			PercentageBps:   m.PercentageBps,
			AmountCents:     m.AmountCents,
			CommissionCents: m.CommissionCents,
			Status:          repository.MilestonePending,
			CreatedAt:       now,
		})
	}
	return rows
}

// ── Reconciliation ────────────────────────────────────────────────────────────

// Reconcile finishes or rolls back a partially issued contract. Every step
// is conditional on current state, so running it any number of times
// converges on the same outcome.
func (s *Service) Reconcile(ctx context.Context, contractID uuid.UUID) (*transport.ReconcileResponse, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status == repository.StatusCanceled {
		return &transport.ReconcileResponse{ContractID: contractID, Outcome: OutcomeAlreadyCanceled}, nil
	}

	q, err := s.quotations.GetWithProject(ctx, contract.QuotationID)
	if err != nil {
		return nil, err
	}

	// Re-create missing milestone rows. The split is deterministic for a
	// given total and policy, so recomputing reproduces the original plan.
	if contract.PaymentType == transport.PaymentTypeMilestone {
		has, err := s.contracts.HasMilestones(ctx, contractID)
		if err != nil {
			return nil, err
		}
		if !has {
			plan, err := ComputePaymentPlan(contract.TotalCents, contract.PaymentType, s.policy)
			if err != nil {
				return nil, err
			}
			if err := s.contracts.InsertMilestones(ctx, milestonesForPlan(contractID, plan, time.Now())); err != nil {
				return nil, err
			}
		}
	}

	// A quotation that is no longer pending or accepted lost the race while
	// this contract was stalled; the contract rolls back.
	switch q.Status {
	case quotationrepo.StatusRejected, quotationrepo.StatusWithdrawn:
		return s.rollBack(ctx, contractID, q.ID, false)
	case quotationrepo.StatusPending:
		if err := s.quotations.MarkAccepted(ctx, q.ID); err != nil {
			if apperr.Is(err, apperr.KindConflict) {
				return s.rollBack(ctx, contractID, q.ID, false)
			}
			return nil, err
		}
	}

	awarded, err := s.projects.AwardIfOpen(ctx, q.ProjectID)
	if err != nil {
		return nil, err
	}
	if !awarded {
		status, err := s.projects.StatusByID(ctx, q.ProjectID)
		if err != nil {
			return nil, err
		}
		switch status {
		case projectrepo.StatusAwarded, projectrepo.StatusInProgress, projectrepo.StatusCompleted:
			winner, err := s.quotations.AcceptedIDForProject(ctx, q.ProjectID)
			if err != nil {
				return nil, err
			}
			if winner != q.ID {
				return s.rollBack(ctx, contractID, q.ID, true)
			}
		default:
			// Closed or canceled while this issuance was stalled.
			return s.rollBack(ctx, contractID, q.ID, true)
		}
	}

	if err := s.quotations.RejectSiblings(ctx, q.ProjectID, q.ID); err != nil {
		return nil, err
	}

	s.log.Info("contract reconciled", "contract_id", contractID, "outcome", OutcomeCompleted)
	return &transport.ReconcileResponse{ContractID: contractID, Outcome: OutcomeCompleted}, nil
}

func (s *Service) rollBack(ctx context.Context, contractID, quotationID uuid.UUID, revertQuotation bool) (*transport.ReconcileResponse, error) {
	if err := s.contracts.Cancel(ctx, contractID); err != nil {
		return nil, err
	}
	if revertQuotation {
		if err := s.quotations.MarkRejected(ctx, quotationID); err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
	}
	s.log.Info("contract reconciled", "contract_id", contractID, "outcome", OutcomeRolledBack)
	return &transport.ReconcileResponse{ContractID: contractID, Outcome: OutcomeRolledBack}, nil
}
