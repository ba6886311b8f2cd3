package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"solarmarket_backend/internal/contracts/repository"
	"solarmarket_backend/internal/contracts/transport"
	"solarmarket_backend/internal/events"
	"solarmarket_backend/platform/apperr"
	"solarmarket_backend/platform/logger"

	"github.com/google/uuid"
	projectrepo "solarmarket_backend/internal/projects/repository"
	quotationrepo "solarmarket_backend/internal/quotations/repository"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeContracts struct {
	mu                   sync.Mutex
	contracts            map[uuid.UUID]*repository.Contract
	milestones           map[uuid.UUID][]repository.Milestone
	failInsertMilestones error
}

func newFakeContracts() *fakeContracts {
	return &fakeContracts{
		contracts:  make(map[uuid.UUID]*repository.Contract),
		milestones: make(map[uuid.UUID][]repository.Milestone),
	}
}

func (f *fakeContracts) Insert(_ context.Context, c *repository.Contract) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.contracts[c.ID] = &cp
	return nil
}

func (f *fakeContracts) InsertMilestones(_ context.Context, milestones []repository.Milestone) error {
	if f.failInsertMilestones != nil {
		return f.failInsertMilestones
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range milestones {
		f.milestones[m.ContractID] = append(f.milestones[m.ContractID], m)
	}
	return nil
}

func (f *fakeContracts) HasMilestones(_ context.Context, contractID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.milestones[contractID]) > 0, nil
}

func (f *fakeContracts) Cancel(_ context.Context, contractID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.contracts[contractID]; ok {
		c.Status = repository.StatusCanceled
	}
	rows := f.milestones[contractID]
	for i := range rows {
		if rows[i].Status == repository.MilestonePending {
			rows[i].Status = repository.MilestoneCanceled
		}
	}
	return nil
}

func (f *fakeContracts) GetByID(_ context.Context, id uuid.UUID) (*repository.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok {
		return nil, apperr.NotFound("contract not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContracts) GetByQuotationID(_ context.Context, quotationID uuid.UUID) (*repository.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contracts {
		if c.QuotationID == quotationID && c.Status != repository.StatusCanceled {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("contract not found")
}

func (f *fakeContracts) ListByParticipant(_ context.Context, userID uuid.UUID) ([]repository.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Contract
	for _, c := range f.contracts {
		if c.ClientID == userID || c.InstallerID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeContracts) ListMilestones(_ context.Context, contractID uuid.UUID) ([]repository.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.Milestone(nil), f.milestones[contractID]...), nil
}

type fakeQuotations struct {
	mu         sync.Mutex
	quotations map[uuid.UUID]*quotationrepo.QuotationWithProject
}

func newFakeQuotations(items ...*quotationrepo.QuotationWithProject) *fakeQuotations {
	f := &fakeQuotations{quotations: make(map[uuid.UUID]*quotationrepo.QuotationWithProject)}
	for _, q := range items {
		f.quotations[q.ID] = q
	}
	return f
}

func (f *fakeQuotations) GetWithProject(_ context.Context, id uuid.UUID) (*quotationrepo.QuotationWithProject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok {
		return nil, apperr.NotFound("quotation not found")
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQuotations) MarkAccepted(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok {
		return apperr.NotFound("quotation not found")
	}
	if q.Status != quotationrepo.StatusPending && q.Status != quotationrepo.StatusAccepted {
		return apperr.Conflict("quotation is no longer pending")
	}
	q.Status = quotationrepo.StatusAccepted
	return nil
}

func (f *fakeQuotations) MarkRejected(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotations[id]
	if !ok {
		return apperr.NotFound("quotation not found")
	}
	q.Status = quotationrepo.StatusRejected
	return nil
}

func (f *fakeQuotations) RejectSiblings(_ context.Context, projectID, acceptedID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.quotations {
		if q.ProjectID == projectID && q.ID != acceptedID && q.Status == quotationrepo.StatusPending {
			q.Status = quotationrepo.StatusRejected
		}
	}
	return nil
}

func (f *fakeQuotations) AcceptedIDForProject(_ context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.quotations {
		if q.ProjectID == projectID && q.Status == quotationrepo.StatusAccepted {
			return q.ID, nil
		}
	}
	return uuid.Nil, nil
}

func (f *fakeQuotations) status(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quotations[id].Status
}

type fakeProjects struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]string
}

func newFakeProjects(projectID uuid.UUID, status string) *fakeProjects {
	return &fakeProjects{statuses: map[uuid.UUID]string{projectID: status}}
}

func (f *fakeProjects) AwardIfOpen(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statuses[id] != projectrepo.StatusOpen {
		return false, nil
	}
	f.statuses[id] = projectrepo.StatusAwarded
	return true, nil
}

func (f *fakeProjects) StatusByID(_ context.Context, id uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[id]
	if !ok {
		return "", apperr.NotFound("project not found")
	}
	return status, nil
}

type fakeScheduler struct {
	mu       sync.Mutex
	enqueued []ContractReconcileCall
}

type ContractReconcileCall struct {
	ContractID uuid.UUID
	FailedStep string
}

func (f *fakeScheduler) EnqueueContractReconcile(_ context.Context, contractID uuid.UUID, failedStep string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, ContractReconcileCall{ContractID: contractID, FailedStep: failedStep})
	return nil
}

// ── Fixtures ──────────────────────────────────────────────────────────────────

type sagaFixture struct {
	svc        *Service
	contracts  *fakeContracts
	quotations *fakeQuotations
	projects   *fakeProjects
	scheduler  *fakeScheduler
	bus        events.Bus
	clientID   uuid.UUID
	projectID  uuid.UUID
}

func newQuotation(projectID, clientID uuid.UUID, total int64, options ...string) *quotationrepo.QuotationWithProject {
	if len(options) == 0 {
		options = []string{"milestones", "upfront"}
	}
	return &quotationrepo.QuotationWithProject{
		Quotation: quotationrepo.Quotation{
			ID:              uuid.New(),
			ProjectID:       projectID,
			InstallerID:     uuid.New(),
			Status:          quotationrepo.StatusPending,
			PanelsCents:     total / 4,
			InverterCents:   total / 4,
			StructureCents:  total / 4,
			ElectricalCents: total - 3*(total/4),
			TotalCents:      total,
			PaymentOptions:  options,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		},
		ProjectTitle:    "Instalación 10kW",
		ProjectStatus:   projectrepo.StatusOpen,
		ProjectClientID: clientID,
	}
}

func newSagaFixture(t *testing.T, quotations ...*quotationrepo.QuotationWithProject) *sagaFixture {
	t.Helper()

	clientID := uuid.New()
	projectID := uuid.New()
	for _, q := range quotations {
		q.ProjectID = projectID
		q.ProjectClientID = clientID
	}

	log := logger.New("test")
	f := &sagaFixture{
		contracts:  newFakeContracts(),
		quotations: newFakeQuotations(quotations...),
		projects:   newFakeProjects(projectID, projectrepo.StatusOpen),
		scheduler:  &fakeScheduler{},
		bus:        events.NewInMemoryBus(log),
		clientID:   clientID,
		projectID:  projectID,
	}
	f.svc = New(f.contracts, f.quotations, f.projects, f.scheduler, f.bus, DefaultPricingPolicy(), nil, "", log)
	return f
}

// ── Issuance tests ────────────────────────────────────────────────────────────

func TestAcceptQuotation_MilestonePlan(t *testing.T) {
	q := newQuotation(uuid.Nil, uuid.Nil, 9_500_000)
	f := newSagaFixture(t, q)

	resp, err := f.svc.AcceptQuotation(context.Background(), f.clientID, "client@example.com", q.ID,
		transport.AcceptQuotationRequest{PaymentType: transport.PaymentTypeMilestone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != repository.StatusActive {
		t.Fatalf("expected status active, got %q", resp.Status)
	}
	if resp.PaymentStatus != repository.PaymentPending {
		t.Fatalf("expected payment status pending, got %q", resp.PaymentStatus)
	}
	if resp.TotalCents != 9_500_000 {
		t.Fatalf("expected total 9500000, got %d", resp.TotalCents)
	}
	if len(resp.PaymentPlan.Steps) != 3 {
		t.Fatalf("expected 3 milestone steps, got %d", len(resp.PaymentPlan.Steps))
	}
	var sum int64
	for _, step := range resp.PaymentPlan.Steps {
		sum += step.AmountCents
	}
	if sum != resp.TotalCents {
		t.Fatalf("milestone steps sum to %d, want %d", sum, resp.TotalCents)
	}

	if got := f.quotations.status(q.ID); got != quotationrepo.StatusAccepted {
		t.Fatalf("expected quotation accepted, got %q", got)
	}
	status, _ := f.projects.StatusByID(context.Background(), f.projectID)
	if status != projectrepo.StatusAwarded {
		t.Fatalf("expected project awarded, got %q", status)
	}
}

func TestAcceptQuotation_RejectsSiblings(t *testing.T) {
	winner := newQuotation(uuid.Nil, uuid.Nil, 9_500_000)
	loser := newQuotation(uuid.Nil, uuid.Nil, 10_200_000)
	f := newSagaFixture(t, winner, loser)

	if _, err := f.svc.AcceptQuotation(context.Background(), f.clientID, "", winner.ID,
		transport.AcceptQuotationRequest{PaymentType: transport.PaymentTypeMilestone}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.quotations.status(loser.ID); got != quotationrepo.StatusRejected {
		t.Fatalf("expected sibling rejected, got %q", got)
	}
}

func TestAcceptQuotation_UpfrontHasNoMilestones(t *testing.T) {
	q := newQuotation(uuid.Nil, uuid.Nil, 4_200_000, "upfront")
	f := newSagaFixture(t, q)

	resp, err := f.svc.AcceptQuotation(context.Background(), f.clientID, "", q.ID,
		transport.AcceptQuotationRequest{PaymentType: transport.PaymentTypeUpfront})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.PaymentPlan.LumpSumCents != 4_200_000 {
		t.Fatalf("expected lump sum 4200000, got %d", resp.PaymentPlan.LumpSumCents)
	}
	if len(resp.PaymentPlan.Steps) != 0 {
		t.Fatalf("expected no steps, got %d", len(resp.PaymentPlan.Steps))
	}
	has, _ := f.contracts.HasMilestones(context.Background(), resp.ID)
	if has {
		t.Fatal("upfront contract should have no milestone rows")
	}
}

func TestAcceptQuotation_FinancingCarriesLumpSum(t *testing.T) {
	q := newQuotation(uuid.Nil, uuid.Nil, 5_000_000, "financing")
	f := newSagaFixture(t, q)

	resp, err := f.svc.AcceptQuotation(context.Background(), f.clientID, "", q.ID,
		transport.AcceptQuotationRequest{PaymentType: transport.PaymentTypeFinancing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.PaymentPlan.LumpSumCents != 5_000_000 {
		t.Fatalf("expected lump sum 5000000, got %d", resp.PaymentPlan.LumpSumCents)
	}
	if !resp.PaymentPlan.PendingProviderSetup {
		t.Fatal("financing contract should flag pending provider setup")
	}
	has, _ := f.contracts.HasMilestones(context.Background(), resp.ID)
	if has {
		t.Fatal("financing contract should have no milestone rows")
	}
}

func TestAcceptQuotation_Validation(t *testing.T) {
	q := newQuotation(uuid.Nil, uuid.Nil, 9_500_000, "milestones")
	f := newSagaFixture(t, q)

	// Someone other than the project owner.
	_, err := f.svc.AcceptQuotation(context.Background(), uuid.New(), "", q.ID,
		transport.AcceptQuotationRequest{PaymentType: transport.PaymentTypeMilestone})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// Payment type the installer did not offer.
	_, err = f.svc.AcceptQuotation(context.Background(), f.clientID, "", q.ID,
		transport.AcceptQuotationRequest{PaymentType: transport.PaymentTypeFinancing})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request error, got %v", err)
	}

	// Nothing should have been persisted.
	if _, err := f.contracts.GetByQuotationID(context.Background(), q.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected no contract, got %v", err)
	}
}

func TestAcceptQuotation_ConcurrentAcceptsSingleWinner(t *testing.T) {
	quotations := []*quotationrepo.QuotationWithProject{
		newQuotation(uuid.Nil, uuid.Nil, 9_500_000),
		newQuotation(uuid.Nil, uuid.Nil, 10_200_000),
		newQuotation(uuid.Nil, uuid.Nil, 8_800_000),
	}
	f := newSagaFixture(t, quotations...)

	var wg sync.WaitGroup
	results := make([]error, len(quotations))
	for i, q := range quotations {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, err := f.svc.AcceptQuotation(context.Background(), f.clientID, "", id,
				transport.AcceptQuotationRequest{PaymentType: transport.PaymentTypeMilestone})
			results[i] = err
		}(i, q.ID)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case apperr.Is(err, apperr.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", wins)
	}
	if conflicts != len(quotations)-1 {
		t.Fatalf("expected %d conflicts, got %d", len(quotations)-1, conflicts)
	}

	// Exactly one quotation accepted; every loser contract canceled.
	var accepted int
	for _, q := range quotations {
		if f.quotations.status(q.ID) == quotationrepo.StatusAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly 1 accepted quotation, got %d", accepted)
	}

	f.contracts.mu.Lock()
	var active int
	for _, c := range f.contracts.contracts {
		if c.Status != repository.StatusCanceled {
			active++
		}
	}
	f.contracts.mu.Unlock()
	if active != 1 {
		t.Fatalf("expected exactly 1 active contract, got %d", active)
	}
}

func TestAcceptQuotation_PartialFailureQueuesRepair(t *testing.T) {
	q := newQuotation(uuid.Nil, uuid.Nil, 9_500_000)
	f := newSagaFixture(t, q)
	f.contracts.failInsertMilestones = errors.New("connection reset")

	announced := make(chan events.ContractReconcileRequested, 1)
	f.bus.Subscribe(events.EventContractReconcileRequested, events.HandlerFunc(func(_ context.Context, e events.Event) error {
		if ev, ok := e.(events.ContractReconcileRequested); ok {
			announced <- ev
		}
		return nil
	}))

	_, err := f.svc.AcceptQuotation(context.Background(), f.clientID, "", q.ID,
		transport.AcceptQuotationRequest{PaymentType: transport.PaymentTypeMilestone})

	var partial *PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if partial.Step != StepInsertMilestones {
		t.Fatalf("expected step %q, got %q", StepInsertMilestones, partial.Step)
	}

	f.scheduler.mu.Lock()
	defer f.scheduler.mu.Unlock()
	if len(f.scheduler.enqueued) != 1 {
		t.Fatalf("expected 1 repair task, got %d", len(f.scheduler.enqueued))
	}
	if f.scheduler.enqueued[0].ContractID != partial.ContractID {
		t.Fatalf("repair task references contract %s, want %s", f.scheduler.enqueued[0].ContractID, partial.ContractID)
	}

	select {
	case ev := <-announced:
		if ev.ContractID != partial.ContractID {
			t.Fatalf("reconcile event references contract %s, want %s", ev.ContractID, partial.ContractID)
		}
		if ev.FailedStep != StepInsertMilestones {
			t.Fatalf("reconcile event failed step = %q, want %q", ev.FailedStep, StepInsertMilestones)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a reconcile event on the bus")
	}
}

// ── Reconciliation tests ──────────────────────────────────────────────────────

func issueStalledContract(t *testing.T, f *sagaFixture, q *quotationrepo.QuotationWithProject) uuid.UUID {
	t.Helper()

	number, err := NewContractNumber(time.Now())
	if err != nil {
		t.Fatalf("failed to generate contract number: %v", err)
	}
	contract := repository.Contract{
		ID:             uuid.New(),
		ContractNumber: number,
		ProjectID:      q.ProjectID,
		QuotationID:    q.ID,
		ClientID:       f.clientID,
		InstallerID:    q.InstallerID,
		Status:         repository.StatusActive,
		PaymentStatus:  repository.PaymentPending,
		PaymentType:    transport.PaymentTypeMilestone,
		TotalCents:     q.TotalCents,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := f.contracts.Insert(context.Background(), &contract); err != nil {
		t.Fatalf("failed to insert contract: %v", err)
	}
	return contract.ID
}

func TestReconcile_CompletesStalledIssuance(t *testing.T) {
	winner := newQuotation(uuid.Nil, uuid.Nil, 9_500_000)
	sibling := newQuotation(uuid.Nil, uuid.Nil, 11_000_000)
	f := newSagaFixture(t, winner, sibling)

	// The contract row exists but every later step was lost.
	contractID := issueStalledContract(t, f, winner)

	result, err := f.svc.Reconcile(context.Background(), contractID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeCompleted {
		t.Fatalf("expected outcome %q, got %q", OutcomeCompleted, result.Outcome)
	}

	milestones, _ := f.contracts.ListMilestones(context.Background(), contractID)
	if len(milestones) != 3 {
		t.Fatalf("expected 3 repaired milestones, got %d", len(milestones))
	}
	var sum int64
	for _, m := range milestones {
		sum += m.AmountCents
	}
	if sum != winner.TotalCents {
		t.Fatalf("repaired milestones sum to %d, want %d", sum, winner.TotalCents)
	}

	if got := f.quotations.status(winner.ID); got != quotationrepo.StatusAccepted {
		t.Fatalf("expected quotation accepted, got %q", got)
	}
	if got := f.quotations.status(sibling.ID); got != quotationrepo.StatusRejected {
		t.Fatalf("expected sibling rejected, got %q", got)
	}
	status, _ := f.projects.StatusByID(context.Background(), f.projectID)
	if status != projectrepo.StatusAwarded {
		t.Fatalf("expected project awarded, got %q", status)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	winner := newQuotation(uuid.Nil, uuid.Nil, 9_500_000)
	f := newSagaFixture(t, winner)
	contractID := issueStalledContract(t, f, winner)

	for i := 0; i < 5; i++ {
		result, err := f.svc.Reconcile(context.Background(), contractID)
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
		if result.Outcome != OutcomeCompleted {
			t.Fatalf("run %d: expected outcome %q, got %q", i, OutcomeCompleted, result.Outcome)
		}
	}

	milestones, _ := f.contracts.ListMilestones(context.Background(), contractID)
	if len(milestones) != 3 {
		t.Fatalf("expected 3 milestones after repeated repair, got %d", len(milestones))
	}
}

func TestReconcile_RollsBackLostRace(t *testing.T) {
	loser := newQuotation(uuid.Nil, uuid.Nil, 9_500_000)
	winner := newQuotation(uuid.Nil, uuid.Nil, 8_000_000)
	f := newSagaFixture(t, loser, winner)

	// The sibling already won: it is accepted and holds the award.
	contractID := issueStalledContract(t, f, loser)
	if err := f.quotations.MarkAccepted(context.Background(), winner.ID); err != nil {
		t.Fatalf("failed to accept winner: %v", err)
	}
	if err := f.quotations.MarkRejected(context.Background(), loser.ID); err != nil {
		t.Fatalf("failed to reject loser: %v", err)
	}
	if _, err := f.projects.AwardIfOpen(context.Background(), f.projectID); err != nil {
		t.Fatalf("failed to award project: %v", err)
	}

	result, err := f.svc.Reconcile(context.Background(), contractID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeRolledBack {
		t.Fatalf("expected outcome %q, got %q", OutcomeRolledBack, result.Outcome)
	}

	contract, _ := f.contracts.GetByID(context.Background(), contractID)
	if contract.Status != repository.StatusCanceled {
		t.Fatalf("expected contract canceled, got %q", contract.Status)
	}
	if got := f.quotations.status(winner.ID); got != quotationrepo.StatusAccepted {
		t.Fatalf("winner should stay accepted, got %q", got)
	}
}

func TestReconcile_RollsBackWhenProjectAwardedElsewhere(t *testing.T) {
	stalled := newQuotation(uuid.Nil, uuid.Nil, 9_500_000)
	winner := newQuotation(uuid.Nil, uuid.Nil, 8_000_000)
	f := newSagaFixture(t, stalled, winner)

	// Both quotations were provisionally accepted, but the award went to
	// the other one.
	contractID := issueStalledContract(t, f, stalled)
	if err := f.quotations.MarkAccepted(context.Background(), stalled.ID); err != nil {
		t.Fatalf("failed to accept stalled quotation: %v", err)
	}
	if err := f.quotations.MarkAccepted(context.Background(), winner.ID); err != nil {
		t.Fatalf("failed to accept winner: %v", err)
	}
	if _, err := f.projects.AwardIfOpen(context.Background(), f.projectID); err != nil {
		t.Fatalf("failed to award project: %v", err)
	}

	// Resolve the double-accept in the winner's favor before repairing.
	// AcceptedIDForProject must return the winner for the rollback to fire.
	if err := f.quotations.MarkRejected(context.Background(), stalled.ID); err != nil {
		t.Fatalf("failed to reject stalled quotation: %v", err)
	}

	result, err := f.svc.Reconcile(context.Background(), contractID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeRolledBack {
		t.Fatalf("expected outcome %q, got %q", OutcomeRolledBack, result.Outcome)
	}

	contract, _ := f.contracts.GetByID(context.Background(), contractID)
	if contract.Status != repository.StatusCanceled {
		t.Fatalf("expected contract canceled, got %q", contract.Status)
	}
}

func TestReconcile_AlreadyCanceledIsNoop(t *testing.T) {
	q := newQuotation(uuid.Nil, uuid.Nil, 9_500_000)
	f := newSagaFixture(t, q)
	contractID := issueStalledContract(t, f, q)

	if err := f.contracts.Cancel(context.Background(), contractID); err != nil {
		t.Fatalf("failed to cancel contract: %v", err)
	}

	result, err := f.svc.Reconcile(context.Background(), contractID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeAlreadyCanceled {
		t.Fatalf("expected outcome %q, got %q", OutcomeAlreadyCanceled, result.Outcome)
	}
	if got := f.quotations.status(q.ID); got != quotationrepo.StatusPending {
		t.Fatalf("quotation should be untouched, got %q", got)
	}
}
