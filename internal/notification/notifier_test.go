package notification

import (
	"context"
	"testing"

	"solarmarket_backend/internal/email"
	"solarmarket_backend/internal/events"
	"solarmarket_backend/platform/logger"

	"github.com/google/uuid"
)

type testSender struct {
	calls []email.ContractIssuedEmailData
	to    []string
}

func (s *testSender) SendContractIssuedEmail(_ context.Context, toEmail string, data email.ContractIssuedEmailData) error {
	s.to = append(s.to, toEmail)
	s.calls = append(s.calls, data)
	return nil
}

func TestNotifier_SendsContractIssuedEmail(t *testing.T) {
	sender := &testSender{}
	notifier := NewNotifier(sender, "https://app.example.com", logger.New("test"))

	event := events.ContractIssued{
		BaseEvent:      events.NewBaseEvent(),
		ContractID:     uuid.New(),
		ContractNumber: "SC-20260314-ABCDEFGH23456789",
		ProjectTitle:   "Instalación 10kW",
		ClientEmail:    "cliente@example.com",
		PaymentType:    "milestones",
		TotalCents:     9_500_000,
	}

	if err := notifier.handleContractIssued(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.calls))
	}
	if sender.to[0] != "cliente@example.com" {
		t.Fatalf("expected recipient cliente@example.com, got %q", sender.to[0])
	}
	data := sender.calls[0]
	if data.ContractNumber != event.ContractNumber {
		t.Fatalf("expected contract number %q, got %q", event.ContractNumber, data.ContractNumber)
	}
	if data.TotalFormatted != "95000,00 €" {
		t.Fatalf("expected formatted total 95000,00 €, got %q", data.TotalFormatted)
	}
	if data.PaymentType != "Pago por hitos" {
		t.Fatalf("expected payment label Pago por hitos, got %q", data.PaymentType)
	}
}

func TestNotifier_SkipsWhenNoEmailClaim(t *testing.T) {
	sender := &testSender{}
	notifier := NewNotifier(sender, "https://app.example.com", logger.New("test"))

	event := events.ContractIssued{
		BaseEvent:  events.NewBaseEvent(),
		ContractID: uuid.New(),
	}

	if err := notifier.handleContractIssued(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.calls) != 0 {
		t.Fatalf("expected no emails, got %d", len(sender.calls))
	}
}
