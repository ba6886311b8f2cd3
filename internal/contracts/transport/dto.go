package transport

import (
	"time"

	"github.com/google/uuid"
)

// Payment plan types.
const (
	PaymentTypeMilestone = "milestones"
	PaymentTypeUpfront   = "upfront"
	PaymentTypeFinancing = "financing"
)

// AcceptQuotationRequest is the payload the client sends to accept a bid.
// The payment type must be one the installer offered on the quotation.
type AcceptQuotationRequest struct {
	PaymentType string `json:"paymentType" validate:"required,oneof=milestones upfront financing"`
}

// MilestoneStep is one installment of a milestone payment plan. Amounts are
// euro cents; the commission is the platform's cut of that installment.
type MilestoneStep struct {
	ID              uuid.UUID  `json:"id"`
	Sequence        int        `json:"sequence"`
	Name            string     `json:"name"`
	PercentageBps   int        `json:"percentageBps"`
	AmountCents     int64      `json:"amountCents"`
	CommissionCents int64      `json:"commissionCents"`
	Status          string     `json:"status"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
}

// PaymentPlan describes how a contract is paid. Exactly one of the variant
// fields is meaningful, selected by Type: milestone plans carry Steps,
// upfront plans carry LumpSumCents, financing plans only flag that provider
// setup is pending.
type PaymentPlan struct {
	Type                 string          `json:"type"`
	LumpSumCents         int64           `json:"lumpSumCents,omitempty"`
	PendingProviderSetup bool            `json:"pendingProviderSetup,omitempty"`
	Steps                []MilestoneStep `json:"steps,omitempty"`
}

// ContractResponse is the API representation of an issued contract.
type ContractResponse struct {
	ID             uuid.UUID   `json:"id"`
	ContractNumber string      `json:"contractNumber"`
	ProjectID      uuid.UUID   `json:"projectId"`
	ProjectTitle   string      `json:"projectTitle,omitempty"`
	QuotationID    uuid.UUID   `json:"quotationId"`
	ClientID       uuid.UUID   `json:"clientId"`
	InstallerID    uuid.UUID   `json:"installerId"`
	Status         string      `json:"status"`
	PaymentStatus  string      `json:"paymentStatus"`
	TotalCents     int64       `json:"totalCents"`
	PaymentPlan    PaymentPlan `json:"paymentPlan"`
	DocumentKey    *string     `json:"documentKey,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// ContractDocumentResponse carries a presigned download link to the
// generated contract PDF.
type ContractDocumentResponse struct {
	DownloadURL string `json:"downloadUrl"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// ReconcileRequest asks the repair pass to finish or roll back a contract
// that was left partially issued.
type ReconcileRequest struct {
	ContractID uuid.UUID `json:"contractId" validate:"required"`
}

// ReconcileResponse reports what the repair pass did.
type ReconcileResponse struct {
	ContractID uuid.UUID `json:"contractId"`
	Outcome    string    `json:"outcome"`
}
