package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/service"
)

// NotificationService: уведомления текущего пользователя.
type NotificationService interface {
	Create(ctx context.Context, callerID int64, in service.CreateNotificationInput) (*models.Notification, error)
	List(ctx context.Context, userID int64, role string) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
}

// NotificationHandler обслуживает маршруты уведомлений.
type NotificationHandler struct {
	notifications NotificationService
}

// NewNotificationHandler создаёт новый хэндлер.
func NewNotificationHandler(notifications NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Create обрабатывает POST /create-notification.
func (h *NotificationHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.CreateNotificationInput
	if !bindJSON(c, &req) {
		return
	}

	notification, err := h.notifications.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Notification created successfully.", notification)
}

// List обрабатывает GET /get-notifications/:role.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	notifications, err := h.notifications.List(c.Request.Context(), userID, c.Param("role"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Notifications fetched successfully.", notifications)
}

// MarkAsRead обрабатывает POST /mark-notification-as-read/:notification_id.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	// нечисловой id отклоняет сервис вместе с нулевым
	id, _ := parseIDParam(c, "notification_id")
	if err := h.notifications.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Notification marked as read successfully.", nil)
}

// MarkAllAsRead обрабатывает POST /mark-all-notifications-as-read.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "All notifications marked as read successfully.", gin.H{"updated": updated})
}
