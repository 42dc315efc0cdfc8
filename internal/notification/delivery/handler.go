package delivery

import (
	"context"
	"net/http"
	"strconv"

	authdelivery "update-tracker/internal/auth/delivery"
	devicedomain "update-tracker/internal/device/domain"
	"update-tracker/internal/notification/domain"
	"update-tracker/internal/notification/usecase"
	"update-tracker/pkg/apperr"
	"update-tracker/pkg/response"

	"github.com/gin-gonic/gin"
)

// DeviceOwner resolves who owns a device
type DeviceOwner interface {
	Get(ctx context.Context, id string) (*devicedomain.DeviceRecord, error)
}

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notificationUsecase usecase.NotificationUsecase
	devices             DeviceOwner
	retentionDays       int
}

// NewNotificationHandler creates a new NotificationHandler. retentionDays is
// used by the expiry endpoint when no days parameter is given.
func NewNotificationHandler(notificationUsecase usecase.NotificationUsecase, devices DeviceOwner, retentionDays int) *NotificationHandler {
	return &NotificationHandler{
		notificationUsecase: notificationUsecase,
		devices:             devices,
		retentionDays:       retentionDays,
	}
}

// GetNotification returns a specific notification
// GET /api/notifications/:id
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	n, ok := h.loadOwned(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, n)
}

// GetDeviceNotifications lists the notifications of a device
// GET /api/notifications/devices/:id
func (h *NotificationHandler) GetDeviceNotifications(c *gin.Context) {
	device, err := h.devices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !authdelivery.AllowUser(c, device.UserID) {
		return
	}

	notifications, err := h.notificationUsecase.ListByDevice(c.Request.Context(), device.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": nonNil(notifications),
		"total":         len(notifications),
	})
}

// GetUserNotifications lists the notifications of a user
// GET /api/notifications/users/:userId?unread=true
func (h *NotificationHandler) GetUserNotifications(c *gin.Context) {
	userID := c.Param("userId")
	if !authdelivery.AllowUser(c, userID) {
		return
	}

	var (
		notifications []*domain.Notification
		err           error
	)
	if c.Query("unread") == "true" {
		notifications, err = h.notificationUsecase.ListUnreadByUser(c.Request.Context(), userID)
	} else {
		notifications, err = h.notificationUsecase.ListByUser(c.Request.Context(), userID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": nonNil(notifications),
		"total":         len(notifications),
	})
}

// MarkAsRead marks a notification as read
// PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	if _, ok := h.loadOwned(c); !ok {
		return
	}

	n, err := h.notificationUsecase.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, n)
}

// Dismiss marks a notification as dismissed
// PATCH /api/notifications/:id/dismiss
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	if _, ok := h.loadOwned(c); !ok {
		return
	}

	n, err := h.notificationUsecase.MarkDismissed(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, n)
}

// DeleteNotification removes a notification
// DELETE /api/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	if _, ok := h.loadOwned(c); !ok {
		return
	}

	if err := h.notificationUsecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
}

// Dispatch notifies every MANDATORY and DEPRECATED device
// POST /api/notifications/dispatch
func (h *NotificationHandler) Dispatch(c *gin.Context) {
	created, err := h.notificationUsecase.DispatchToOutdated(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}

// DeliverPending re-attempts push delivery of PENDING notifications
// POST /api/notifications/deliver
func (h *NotificationHandler) DeliverPending(c *gin.Context) {
	sent, err := h.notificationUsecase.DeliverPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

// PurgeExpired deletes old READ and DISMISSED notifications
// DELETE /api/notifications/expired?days=30
func (h *NotificationHandler) PurgeExpired(c *gin.Context) {
	days := h.retentionDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apperr.InvalidArgument("days must be an integer, got %q", raw))
			return
		}
		days = parsed
	}

	removed, err := h.notificationUsecase.PurgeExpired(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// loadOwned resolves :id and checks the caller may access it
func (h *NotificationHandler) loadOwned(c *gin.Context) (*domain.Notification, bool) {
	n, err := h.notificationUsecase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !authdelivery.AllowUser(c, n.UserID) {
		return nil, false
	}
	return n, true
}

func nonNil(notifications []*domain.Notification) []*domain.Notification {
	if notifications == nil {
		return []*domain.Notification{}
	}
	return notifications
}
