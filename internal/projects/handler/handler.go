package handler

import (
	"solarmarket_backend/internal/projects/service"
	"solarmarket_backend/internal/projects/transport"
	"solarmarket_backend/platform/httpkit"
	"solarmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidProjectID = "invalid project id"
)

// Handler handles HTTP requests for projects.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new projects handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the project routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListOwn)
	rg.GET("/open", httpkit.RequireRole(httpkit.RoleInstaller), h.ListOpen)
	rg.POST("", httpkit.RequireRole(httpkit.RoleClient), h.Create)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/close", httpkit.RequireRole(httpkit.RoleClient), h.Close)
}

// Create opens a new project for bids.
func (h *Handler) Create(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	var req transport.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	project, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, project)
}

// GetByID returns one project.
func (h *Handler) GetByID(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidProjectID, nil)
		return
	}

	project, err := h.svc.GetByID(c.Request.Context(), id, identity.UserID(), identity.HasRole(httpkit.RoleInstaller))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, project)
}

// ListOwn returns the acting client's projects.
func (h *Handler) ListOwn(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	projects, err := h.svc.ListOwn(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, projects)
}

// ListOpen returns projects still accepting bids.
func (h *Handler) ListOpen(c *gin.Context) {
	projects, err := h.svc.ListOpen(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, projects)
}

// Close withdraws a project from bidding.
func (h *Handler) Close(c *gin.Context) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidProjectID, nil)
		return
	}

	if err := h.svc.Close(c.Request.Context(), id, identity.UserID()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "closed"})
}
