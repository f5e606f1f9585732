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

type NotificationHandler struct {
	notifService service.NotificationService
}

func NewNotificationHandler(notifService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifService: notifService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	authed := middleware.RequireRole(model.RoleAdmin, model.RoleApprover, model.RoleVerifier, model.RoleDeveloper, model.RoleCustomer)

	notifications := router.Group("/api/notifications")
	{
		notifications.GET("", authed, h.List)
		notifications.PUT("/:id/read", authed, h.MarkRead)
		notifications.PUT("/read-all", authed, h.MarkAllRead)
	}
}

// List returns the caller's notifications, optionally only unread
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondErr(c, apperr.ErrInvalidParameters)
		return
	}
	params := pagination.Parse(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notifService.ListForUser(c.Request.Context(), userID, unreadOnly, params.Page, params.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   notifications,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// MarkRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondErr(c, apperr.ErrInvalidParameters)
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.notifService.MarkRead(c.Request.Context(), id, userID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"read": true}))
}

// MarkAllRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondErr(c, apperr.ErrInvalidParameters)
		return
	}

	updated, err := h.notifService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"updated": updated}))
}
