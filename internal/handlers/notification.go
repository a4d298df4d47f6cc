package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/getdone/api/internal/dto"
	apierrors "github.com/getdone/api/internal/errors"
	"github.com/getdone/api/internal/middleware"
	"github.com/getdone/api/internal/services"
)

// NotificationHandler coordinates in-app notification endpoints.
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	notifications, err := h.notificationService.ListForUser(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": dto.ToNotificationDTOs(notifications)})
}

// MarkAllRead marks every notification of the caller as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		apierrors.InternalError(c, "Failed to mark notifications as read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid notification id")
		return
	}

	if err := h.notificationService.MarkRead(notificationID, userID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to mark notification as read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// DeleteAll removes every notification of the caller.
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.notificationService.DeleteAll(userID); err != nil {
		apierrors.InternalError(c, "Failed to delete notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications deleted"})
}
