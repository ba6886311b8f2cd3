package handler

import (
	"solarmarket_backend/internal/quotations/service"
	"solarmarket_backend/internal/quotations/transport"
	"solarmarket_backend/platform/httpkit"
	"solarmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest     = "invalid request"
	msgValidationFailed   = "validation failed"
	msgInvalidQuotationID = "invalid quotation id"
	msgInvalidProjectID   = "invalid project id"
)

// Handler handles HTTP requests for quotations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotations handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the quotation routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", httpkit.RequireRole(httpkit.RoleInstaller), h.Submit)
	rg.GET("", httpkit.RequireRole(httpkit.RoleInstaller), h.ListOwn)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/withdraw", httpkit.RequireRole(httpkit.RoleInstaller), h.Withdraw)
}

// RegisterProjectRoutes registers the project-scoped quotation listing.
func (h *Handler) RegisterProjectRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/quotations", h.ListForProject)
}

// Submit records an installer's bid on an open project.
func (h *Handler) Submit(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	var req transport.SubmitQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	quotation, err := h.svc.Submit(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, quotation)
}

// GetByID returns one quotation.
func (h *Handler) GetByID(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidQuotationID, nil)
		return
	}

	quotation, err := h.svc.GetByID(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, quotation)
}

// ListOwn returns the caller's quotations, optionally filtered by status.
func (h *Handler) ListOwn(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	var query transport.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	quotations, err := h.svc.ListForInstaller(c.Request.Context(), identity.UserID(), query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, quotations)
}

// ListForProject returns all bids on a project for its owner.
func (h *Handler) ListForProject(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidProjectID, nil)
		return
	}

	quotations, err := h.svc.ListForProject(c.Request.Context(), identity, projectID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, quotations)
}

// Withdraw retracts the caller's pending quotation.
func (h *Handler) Withdraw(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidQuotationID, nil)
		return
	}

	if err := h.svc.Withdraw(c.Request.Context(), identity.UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "withdrawn"})
}
