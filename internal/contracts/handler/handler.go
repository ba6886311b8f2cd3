package handler

import (
	"errors"
	"net/http"

	"solarmarket_backend/internal/contracts/service"
	"solarmarket_backend/internal/contracts/transport"
	"solarmarket_backend/platform/httpkit"
	"solarmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest     = "invalid request"
	msgValidationFailed   = "validation failed"
	msgInvalidContractID  = "invalid contract id"
	msgInvalidQuotationID = "invalid quotation id"
)

// Handler handles HTTP requests for contracts.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new contracts handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the contract routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListOwn)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/milestones", h.ListMilestones)
	rg.GET("/:id/document", h.GetDocument)
}

// RegisterQuotationRoutes registers the quotation-scoped contract routes.
func (h *Handler) RegisterQuotationRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/accept", httpkit.RequireRole(httpkit.RoleClient), h.Accept)
	rg.GET("/:id/contract", h.GetByQuotation)
}

// RegisterAdminRoutes registers the reconciliation endpoint.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/contracts/reconcile", h.Reconcile)
}

// Accept runs the contract issuance workflow for the quotation.
func (h *Handler) Accept(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}
	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidQuotationID, nil)
		return
	}

	var req transport.AcceptQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	contract, err := h.svc.AcceptQuotation(c.Request.Context(), identity.UserID(), identity.Email(), quotationID, req)
	if err != nil {
		if handlePartialFailure(c, err) {
			return
		}
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, contract)
}

// GetByID returns one contract with its payment plan.
func (h *Handler) GetByID(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidContractID, nil)
		return
	}

	contract, err := h.svc.GetByID(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, contract)
}

// GetByQuotation returns the contract issued for a quotation.
func (h *Handler) GetByQuotation(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}
	quotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidQuotationID, nil)
		return
	}

	contract, err := h.svc.GetByQuotation(c.Request.Context(), identity, quotationID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, contract)
}

// ListOwn returns the caller's contracts.
func (h *Handler) ListOwn(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	contracts, err := h.svc.ListOwn(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, contracts)
}

// ListMilestones returns a contract's installments.
func (h *Handler) ListMilestones(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidContractID, nil)
		return
	}

	milestones, err := h.svc.ListMilestones(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, milestones)
}

// GetDocument returns a presigned download URL for the contract PDF.
func (h *Handler) GetDocument(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidContractID, nil)
		return
	}

	doc, err := h.svc.DocumentURL(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, doc)
}

// Reconcile runs the repair pass for a contract on demand.
func (h *Handler) Reconcile(c *gin.Context) {
	var req transport.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Reconcile(c.Request.Context(), req.ContractID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// handlePartialFailure reports an issuance that stalled mid-workflow. The
// contract id lets the caller poll for the repaired result.
func handlePartialFailure(c *gin.Context, err error) bool {
	var partial *service.PartialFailureError
	if !errors.As(err, &partial) {
		return false
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":      "contract issuance incomplete, repair scheduled",
		"contractId": partial.ContractID,
		"step":       partial.Step,
	})
	return true
}
