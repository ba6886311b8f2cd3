// Package notification turns domain events into outbound messages.
package notification

import (
	"context"
	"fmt"

	"solarmarket_backend/internal/email"
	"solarmarket_backend/internal/events"
	"solarmarket_backend/platform/logger"
)

// Notifier subscribes to domain events and sends the matching emails.
type Notifier struct {
	sender  email.Sender
	baseURL string
	log     *logger.Logger
}

// NewNotifier creates a new notifier.
func NewNotifier(sender email.Sender, baseURL string, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, baseURL: baseURL, log: log}
}

// Subscribe registers the notifier on the event bus.
func (n *Notifier) Subscribe(bus events.Bus) {
	bus.Subscribe(events.EventContractIssued, events.HandlerFunc(n.handleContractIssued))
}

func (n *Notifier) handleContractIssued(ctx context.Context, event events.Event) error {
	issued, ok := event.(events.ContractIssued)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if issued.ClientEmail == "" {
		n.log.Info("skipping contract email, no client address on token",
			"contract_id", issued.ContractID)
		return nil
	}

	err := n.sender.SendContractIssuedEmail(ctx, issued.ClientEmail, email.ContractIssuedEmailData{
		ContractNumber: issued.ContractNumber,
		ProjectTitle:   issued.ProjectTitle,
		TotalFormatted: formatEuros(issued.TotalCents),
		PaymentType:    paymentTypeLabel(issued.PaymentType),
		ContractURL:    fmt.Sprintf("%s/contracts/%s", n.baseURL, issued.ContractID),
	})
	if err != nil {
		n.log.Error("failed to send contract issued email",
			"contract_id", issued.ContractID,
			"error", err)
		return err
	}

	n.log.Info("contract issued email sent", "contract_id", issued.ContractID)
	return nil
}

func paymentTypeLabel(paymentType string) string {
	switch paymentType {
	case "milestones":
		return "Pago por hitos"
	case "upfront":
		return "Pago único"
	case "financing":
		return "Financiación"
	default:
		return paymentType
	}
}

func formatEuros(cents int64) string {
	return fmt.Sprintf("%d,%02d €", cents/100, cents%100)
}
