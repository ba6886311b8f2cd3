// Package transport defines request/response DTOs for the projects module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus enumerates the client-visible project states.
type ProjectStatus string

const (
	ProjectStatusOpen       ProjectStatus = "open"
	ProjectStatusClosed     ProjectStatus = "closed"
	ProjectStatusAwarded    ProjectStatus = "awarded"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCanceled   ProjectStatus = "canceled"
)

// CreateProjectRequest is the payload for opening a new bid request.
type CreateProjectRequest struct {
	Title              string     `json:"title" validate:"required,min=3,max=200"`
	Description        string     `json:"description" validate:"required,min=10"`
	BidDeadline        *time.Time `json:"bidDeadline,omitempty"`
	InitialSurveyQuote string     `json:"initialSurveyQuote,omitempty"`
	ContactPhone       string     `json:"contactPhone,omitempty"`
}

// ProjectResponse is the API representation of a project.
type ProjectResponse struct {
	ID                 uuid.UUID     `json:"id"`
	ClientID           uuid.UUID     `json:"clientId"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	Status             ProjectStatus `json:"status"`
	BidDeadline        *time.Time    `json:"bidDeadline,omitempty"`
	InitialSurveyQuote *string       `json:"initialSurveyQuote,omitempty"`
	ContactPhone       *string       `json:"contactPhone,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}
