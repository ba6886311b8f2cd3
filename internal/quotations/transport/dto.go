package transport

import (
	"time"

	"github.com/google/uuid"
)

// Payment options an installer can offer on a bid.
const (
	PaymentOptionMilestone = "milestones"
	PaymentOptionUpfront   = "upfront"
	PaymentOptionFinancing = "financing"
)

// SubmitQuotationRequest is the payload an installer sends to bid on a project.
// All amounts are euro cents.
type SubmitQuotationRequest struct {
	ProjectID       uuid.UUID `json:"projectId" validate:"required"`
	PanelsCents     int64     `json:"panelsCents" validate:"required,gt=0"`
	InverterCents   int64     `json:"inverterCents" validate:"required,gt=0"`
	StructureCents  int64     `json:"structureCents" validate:"required,gt=0"`
	ElectricalCents int64     `json:"electricalCents" validate:"required,gt=0"`
	TotalCents      int64     `json:"totalCents" validate:"required,gt=0"`
	PaymentOptions  []string  `json:"paymentOptions" validate:"required,min=1,dive,oneof=milestones upfront financing"`
	Notes           *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// QuotationResponse is the API representation of a quotation, including the
// project context listings need.
type QuotationResponse struct {
	ID              uuid.UUID `json:"id"`
	ProjectID       uuid.UUID `json:"projectId"`
	ProjectTitle    string    `json:"projectTitle"`
	ProjectStatus   string    `json:"projectStatus"`
	InstallerID     uuid.UUID `json:"installerId"`
	Status          string    `json:"status"`
	PanelsCents     int64     `json:"panelsCents"`
	InverterCents   int64     `json:"inverterCents"`
	StructureCents  int64     `json:"structureCents"`
	ElectricalCents int64     `json:"electricalCents"`
	TotalCents      int64     `json:"totalCents"`
	PaymentOptions  []string  `json:"paymentOptions"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ListQuery carries the optional filters for installer-side listings.
type ListQuery struct {
	Status *string `form:"status" validate:"omitempty,oneof=pending accepted rejected withdrawn"`
}
