package events

import "github.com/google/uuid"

// Event names for subscription.
const (
	EventQuotationAccepted         = "quotation.accepted"
	EventContractIssued            = "contract.issued"
	EventProjectAwarded            = "project.awarded"
	EventContractReconcileRequested = "contract.reconcile_requested"
)

// QuotationAccepted is published after a quotation has been marked accepted
// during contract issuance.
type QuotationAccepted struct {
	BaseEvent
	QuotationID uuid.UUID
	ProjectID   uuid.UUID
	InstallerID uuid.UUID
	ClientID    uuid.UUID
	TotalCents  int64
}

// EventName returns the event identifier.
func (QuotationAccepted) EventName() string { return EventQuotationAccepted }

// ContractIssued is published when the issuance saga has completed and the
// contract is fully linked. Consumed by the document processor and the
// notification module.
type ContractIssued struct {
	BaseEvent
	ContractID     uuid.UUID
	ContractNumber string
	QuotationID    uuid.UUID
	ProjectID      uuid.UUID
	ClientID       uuid.UUID
	InstallerID    uuid.UUID
	PaymentType    string
	TotalCents     int64
	ProjectTitle   string
	ClientEmail    string
}

// EventName returns the event identifier.
func (ContractIssued) EventName() string { return EventContractIssued }

// ProjectAwarded is published when a project transitions out of open.
type ProjectAwarded struct {
	BaseEvent
	ProjectID   uuid.UUID
	ContractID  uuid.UUID
	QuotationID uuid.UUID
}

// EventName returns the event identifier.
func (ProjectAwarded) EventName() string { return EventProjectAwarded }

// ContractReconcileRequested is published when issuance fails mid-saga and a
// repair pass is needed for the contract.
type ContractReconcileRequested struct {
	BaseEvent
	ContractID uuid.UUID
	FailedStep string
}

// EventName returns the event identifier.
func (ContractReconcileRequested) EventName() string { return EventContractReconcileRequested }
