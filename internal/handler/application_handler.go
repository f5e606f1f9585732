package handler

import (
	"net/http"

	"kpr-backend/internal/middleware"
	"kpr-backend/internal/model"
	"kpr-backend/internal/service"
	"kpr-backend/pkg/apperr"
	"kpr-backend/pkg/pagination"
	"kpr-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	appService      service.ApplicationService
	workflowService service.WorkflowService
	auditService    service.AuditService
}

func NewApplicationHandler(
	appService service.ApplicationService,
	workflowService service.WorkflowService,
	auditService service.AuditService,
) *ApplicationHandler {
	return &ApplicationHandler{
		appService:      appService,
		workflowService: workflowService,
		auditService:    auditService,
	}
}

func (h *ApplicationHandler) RegisterRoutes(router *gin.RouterGroup) {
	apps := router.Group("/api/applications")
	{
		apps.POST("", middleware.RequireRole(model.RoleCustomer, model.RoleAdmin), h.Submit)
		apps.POST("/simulate", middleware.RequireRole(model.RoleCustomer, model.RoleAdmin, model.RoleApprover, model.RoleVerifier), h.Simulate)
		apps.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleApprover, model.RoleVerifier), h.List)
		apps.GET("/me", middleware.RequireRole(model.RoleCustomer, model.RoleAdmin), h.ListMine)
		apps.GET("/:id", middleware.RequireRole(model.RoleCustomer, model.RoleAdmin, model.RoleApprover, model.RoleVerifier), h.GetDetail)
		apps.PUT("/:id/cancel", middleware.RequireRole(model.RoleCustomer, model.RoleAdmin), h.Cancel)
		apps.GET("/:id/workflows", middleware.RequireRole(model.RoleAdmin, model.RoleApprover, model.RoleVerifier), h.ListWorkflows)
		apps.GET("/:id/audit", middleware.RequireRole(model.RoleAdmin), h.AuditTrail)
	}
}

// Submit creates a new KPR application and its first workflow stage
func (h *ApplicationHandler) Submit(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondErr(c, apperr.ErrInvalidParameters)
		return
	}

	var input service.SubmitApplicationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	input.UserID = userID

	app, err := h.appService.Submit(c.Request.Context(), input)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, app))
}

// Simulate returns installment and fee figures without persisting anything
func (h *ApplicationHandler) Simulate(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var input service.SimulateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.appService.Simulate(c.Request.Context(), userID, input)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// List returns applications for the back office, optionally filtered by status
func (h *ApplicationHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	apps, total, err := h.appService.List(c.Request.Context(), status, params.Page, params.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   apps,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ListMine returns the authenticated applicant's own applications
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondErr(c, apperr.ErrInvalidParameters)
		return
	}

	apps, err := h.appService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, apps))
}

// GetDetail returns one application with its related entities preloaded
func (h *ApplicationHandler) GetDetail(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	app, err := h.appService.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	// Customers can only see their own applications
	if middleware.UserRole(c) == model.RoleCustomer {
		userID, _ := middleware.UserID(c)
		if app.UserID != userID {
			c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied"))
			return
		}
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

// Cancel stops a pending application. Customers can only cancel their own;
// the service enforces the ownership check.
func (h *ApplicationHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, _ := middleware.UserID(c)

	if err := h.appService.Cancel(c.Request.Context(), id, actorID, middleware.UserRole(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"cancelled": true}))
}

// ListWorkflows returns the full stage history of an application
func (h *ApplicationHandler) ListWorkflows(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	workflows, err := h.workflowService.ListByApplication(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflows))
}

// AuditTrail returns the audit rows recorded against an application
func (h *ApplicationHandler) AuditTrail(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	logs, err := h.auditService.Trail(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
