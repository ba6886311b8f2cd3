package service

import (
	"context"
	"testing"
	"time"

	"solarmarket_backend/internal/quotations/transport"
	"solarmarket_backend/platform/apperr"
	"solarmarket_backend/platform/logger"

	"github.com/google/uuid"
	projectrepo "solarmarket_backend/internal/projects/repository"
)

type fakeProjects struct {
	project *projectrepo.Project
}

func (f *fakeProjects) GetByID(_ context.Context, id uuid.UUID) (*projectrepo.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, apperr.NotFound("project not found")
	}
	return f.project, nil
}

func submitRequest(projectID uuid.UUID) transport.SubmitQuotationRequest {
	return transport.SubmitQuotationRequest{
		ProjectID:       projectID,
		PanelsCents:     4_000_000,
		InverterCents:   2_000_000,
		StructureCents:  1_500_000,
		ElectricalCents: 2_000_000,
		TotalCents:      9_500_000,
		PaymentOptions:  []string{"milestones", "upfront"},
	}
}

func TestSubmit_RejectsClosedProject(t *testing.T) {
	projectID := uuid.New()
	svc := New(nil, &fakeProjects{project: &projectrepo.Project{
		ID:       projectID,
		ClientID: uuid.New(),
		Status:   projectrepo.StatusClosed,
	}}, logger.New("test"))

	_, err := svc.Submit(context.Background(), uuid.New(), submitRequest(projectID))
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for closed project, got %v", err)
	}
}

func TestSubmit_RejectsExpiredDeadline(t *testing.T) {
	projectID := uuid.New()
	past := time.Now().Add(-time.Hour)
	svc := New(nil, &fakeProjects{project: &projectrepo.Project{
		ID:          projectID,
		ClientID:    uuid.New(),
		Status:      projectrepo.StatusOpen,
		BidDeadline: &past,
	}}, logger.New("test"))

	_, err := svc.Submit(context.Background(), uuid.New(), submitRequest(projectID))
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for expired deadline, got %v", err)
	}
}

func TestSubmit_RejectsOwnProject(t *testing.T) {
	projectID := uuid.New()
	ownerID := uuid.New()
	svc := New(nil, &fakeProjects{project: &projectrepo.Project{
		ID:       projectID,
		ClientID: ownerID,
		Status:   projectrepo.StatusOpen,
	}}, logger.New("test"))

	_, err := svc.Submit(context.Background(), ownerID, submitRequest(projectID))
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for self-bid, got %v", err)
	}
}

func TestSubmit_RejectsMismatchedBreakdown(t *testing.T) {
	projectID := uuid.New()
	svc := New(nil, &fakeProjects{project: &projectrepo.Project{
		ID:       projectID,
		ClientID: uuid.New(),
		Status:   projectrepo.StatusOpen,
	}}, logger.New("test"))

	req := submitRequest(projectID)
	req.TotalCents = 9_499_999
	_, err := svc.Submit(context.Background(), uuid.New(), req)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for mismatched total, got %v", err)
	}
}

func TestSubmit_UnknownProject(t *testing.T) {
	svc := New(nil, &fakeProjects{}, logger.New("test"))

	_, err := svc.Submit(context.Background(), uuid.New(), submitRequest(uuid.New()))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
