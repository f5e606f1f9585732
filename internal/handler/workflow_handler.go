package handler

import (
	"net/http"
	"strings"

	"kpr-backend/internal/middleware"
	"kpr-backend/internal/model"
	"kpr-backend/internal/service"
	"kpr-backend/pkg/apperr"
	"kpr-backend/pkg/pagination"
	"kpr-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WorkflowHandler struct {
	workflowService service.WorkflowService
}

func NewWorkflowHandler(workflowService service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService}
}

func (h *WorkflowHandler) RegisterRoutes(router *gin.RouterGroup) {
	backOffice := middleware.RequireRole(model.RoleAdmin, model.RoleApprover, model.RoleVerifier)

	workflows := router.Group("/api/workflows")
	{
		workflows.GET("", backOffice, h.List)
		workflows.GET("/assigned", backOffice, h.ListAssigned)
		workflows.GET("/overdue", backOffice, h.ListOverdue)
		workflows.GET("/escalation-needed", backOffice, h.ListNeedingEscalation)
		workflows.GET("/stats", backOffice, h.Stats)
		workflows.GET("/stats/me", backOffice, h.MyStats)
		workflows.GET("/:id", backOffice, h.Get)
		workflows.PUT("/:id/start", backOffice, h.Start)
		workflows.PUT("/:id/approve", backOffice, h.Approve)
		workflows.PUT("/:id/reject", backOffice, h.Reject)
		workflows.PUT("/:id/escalate", backOffice, h.Escalate)
		workflows.PUT("/:id/skip", middleware.RequireRole(model.RoleAdmin, model.RoleApprover), h.Skip)
		workflows.PUT("/:id/assign", middleware.RequireRole(model.RoleAdmin), h.Assign)
		workflows.PUT("/:id/cancel", middleware.RequireRole(model.RoleAdmin), h.Cancel)
		workflows.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.Delete)
		workflows.DELETE("/application/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteByApplication)
	}
}

type decisionRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

type escalateRequest struct {
	ToUserID uuid.UUID `json:"to_user_id" binding:"required"`
	Reason   string    `json:"reason"`
}

type assignRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id" binding:"required"`
}

// List returns workflow rows filtered by status, paginated
func (h *WorkflowHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	workflows, total, err := h.workflowService.ListByStatus(c.Request.Context(), status, params.Page, params.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   workflows,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ListAssigned returns the caller's queue, optionally filtered by statuses
// (comma-separated)
func (h *WorkflowHandler) ListAssigned(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondErr(c, apperr.ErrInvalidParameters)
		return
	}

	var statuses []string
	if raw := c.Query("statuses"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	workflows, err := h.workflowService.ListByAssignee(c.Request.Context(), userID, statuses)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflows))
}

// ListOverdue returns open stages past their due date
func (h *WorkflowHandler) ListOverdue(c *gin.Context) {
	workflows, err := h.workflowService.ListOverdue(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflows))
}

// ListNeedingEscalation returns overdue stages past the grace window that
// were never escalated
func (h *WorkflowHandler) ListNeedingEscalation(c *gin.Context) {
	workflows, err := h.workflowService.ListNeedingEscalation(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflows))
}

// Stats returns the global status breakdown
func (h *WorkflowHandler) Stats(c *gin.Context) {
	stats, err := h.workflowService.Stats(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// MyStats returns the caller's own queue breakdown
func (h *WorkflowHandler) MyStats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondErr(c, apperr.ErrInvalidParameters)
		return
	}

	stats, err := h.workflowService.AssigneeStats(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// Get returns one workflow row with level and application preloaded
func (h *WorkflowHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	workflow, err := h.workflowService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflow))
}

// Start moves a pending stage into review
func (h *WorkflowHandler) Start(c *gin.Context) {
	h.transition(c, func(id, actorID uuid.UUID, _ decisionRequest) (*model.ApprovalWorkflow, error) {
		return h.workflowService.Start(c.Request.Context(), id, actorID)
	})
}

// Approve closes the stage and advances the application
func (h *WorkflowHandler) Approve(c *gin.Context) {
	h.transition(c, func(id, actorID uuid.UUID, req decisionRequest) (*model.ApprovalWorkflow, error) {
		return h.workflowService.Approve(c.Request.Context(), id, actorID, req.Notes)
	})
}

// Reject closes the stage and finishes the application as rejected
func (h *WorkflowHandler) Reject(c *gin.Context) {
	h.transition(c, func(id, actorID uuid.UUID, req decisionRequest) (*model.ApprovalWorkflow, error) {
		return h.workflowService.Reject(c.Request.Context(), id, actorID, req.Reason)
	})
}

// Skip bypasses a skippable stage
func (h *WorkflowHandler) Skip(c *gin.Context) {
	h.transition(c, func(id, actorID uuid.UUID, _ decisionRequest) (*model.ApprovalWorkflow, error) {
		return h.workflowService.Skip(c.Request.Context(), id, actorID)
	})
}

// Cancel administratively closes a stage
func (h *WorkflowHandler) Cancel(c *gin.Context) {
	h.transition(c, func(id, actorID uuid.UUID, req decisionRequest) (*model.ApprovalWorkflow, error) {
		return h.workflowService.Cancel(c.Request.Context(), id, actorID, req.Reason)
	})
}

// transition is the shared body of the decision endpoints: parse id and
// optional request body, run the operation, write the result.
func (h *WorkflowHandler) transition(c *gin.Context, run func(id, actorID uuid.UUID, req decisionRequest) (*model.ApprovalWorkflow, error)) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := middleware.UserID(c)
	if !ok {
		respondErr(c, apperr.ErrInvalidParameters)
		return
	}

	var req decisionRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	workflow, err := run(id, actorID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflow))
}

// Escalate reassigns an overdue stage to another approver
func (h *WorkflowHandler) Escalate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := middleware.UserID(c)
	if !ok {
		respondErr(c, apperr.ErrInvalidParameters)
		return
	}

	var req escalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	workflow, err := h.workflowService.Escalate(c.Request.Context(), id, actorID, req.ToUserID, req.Reason)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflow))
}

// Assign puts a stage on a specific reviewer's queue
func (h *WorkflowHandler) Assign(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := middleware.UserID(c)
	if !ok {
		respondErr(c, apperr.ErrInvalidParameters)
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	workflow, err := h.workflowService.Assign(c.Request.Context(), id, actorID, req.AssigneeID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflow))
}

// Delete removes one workflow row (admin cleanup)
func (h *WorkflowHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, _ := middleware.UserID(c)

	if err := h.workflowService.Delete(c.Request.Context(), id, actorID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// DeleteByApplication removes every workflow row of an application
func (h *WorkflowHandler) DeleteByApplication(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, _ := middleware.UserID(c)

	deleted, err := h.workflowService.DeleteByApplication(c.Request.Context(), id, actorID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted_rows": deleted}))
}
