package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fairticket/ticketing-backend/internal/goroutine"
	"github.com/fairticket/ticketing-backend/internal/logger"
	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/pkg/apperror"
	"github.com/fairticket/ticketing-backend/internal/repository"
	"github.com/fairticket/ticketing-backend/internal/validation"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByType(ctx context.Context, userID int64, notificationType string) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
}

// NotificationPusher доставляет событие в открытые соединения пользователя.
type NotificationPusher interface {
	PushToUser(userID int64, event string, data any) error
}

// NotificationEvent: имя события для WebSocket клиентов.
const NotificationEvent = "notification"

// CreateNotificationInput содержит поля нового уведомления.
type CreateNotificationInput struct {
	UserID      *int64                     `json:"user_id"`
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	IconType    string                     `json:"icon_type"`
	ColorScheme *string                    `json:"color_scheme"`
	Type        string                     `json:"type"`
	Buttons     models.NotificationButtons `json:"buttons"`
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
type NotificationService struct {
	repo   NotificationRepository
	pusher NotificationPusher
}

// NewNotificationService создаёт новый сервис уведомлений. pusher может быть nil.
func NewNotificationService(repo NotificationRepository, pusher NotificationPusher) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher}
}

var (
	errIconRequired       = apperror.Validation("Icon type is required.")
	errIconInvalid        = apperror.Validation("Invalid icon type.")
	errTitleRequired      = apperror.Validation("Title is required.")
	errColorSchemeFormat  = apperror.Validation("Color scheme must be in hex format.")
	errButtonColorFormat  = apperror.Validation("Button color must be in hex format.")
	errInvalidRole        = apperror.Validation("Invalid role.")
	errNotificationID     = apperror.Validation("Notification ID is required.")
	errNotificationAbsent = apperror.NotFound("Notification not found.")
)

// Create сохраняет уведомление и отправляет его получателю, если тот подключён.
// Без user_id уведомление адресуется вызывающему.
func (s *NotificationService) Create(ctx context.Context, callerID int64, in CreateNotificationInput) (*models.Notification, error) {
	if strings.TrimSpace(in.IconType) == "" {
		return nil, errIconRequired
	}
	iconType := strings.ToUpper(in.IconType)
	if _, ok := models.ValidNotificationIcons[iconType]; !ok {
		return nil, errIconInvalid
	}

	notificationType := models.NotificationTypeUser
	if in.Type != "" {
		notificationType = strings.ToUpper(in.Type)
	}
	if _, ok := models.ValidNotificationTypes[notificationType]; !ok {
		return nil, errInvalidRole
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, errTitleRequired
	}
	if err := validation.ValidateLength("title", in.Title, 1, validation.MaxTitleLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if in.ColorScheme != nil && *in.ColorScheme != "" && !validation.ValidateHexColor(*in.ColorScheme) {
		return nil, errColorSchemeFormat
	}
	for _, button := range in.Buttons {
		if button.Color != "" && !validation.ValidateHexColor(button.Color) {
			return nil, errButtonColorFormat
		}
	}

	recipient := callerID
	if in.UserID != nil && *in.UserID > 0 {
		recipient = *in.UserID
	}

	buttons := in.Buttons
	if buttons == nil {
		buttons = models.NotificationButtons{}
	}

	notification := &models.Notification{
		UserID:      recipient,
		ColorScheme: in.ColorScheme,
		IconType:    iconType,
		Title:       in.Title,
		Description: in.Description,
		Buttons:     buttons,
		Type:        notificationType,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, apperror.Internal(err, "Internal server error while creating notification.")
	}

	s.push(notification)

	return notification, nil
}

// push не блокирует запрос: ошибка доставки только логируется.
func (s *NotificationService) push(n *models.Notification) {
	if s.pusher == nil {
		return
	}
	cp := *n
	goroutine.SafeGo(func() {
		if err := s.pusher.PushToUser(cp.UserID, NotificationEvent, cp); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"user_id":         cp.UserID,
				"notification_id": cp.ID,
			}).WithError(err).Warn("notification service: не удалось отправить уведомление в ws")
		}
	})
}

// List возвращает уведомления пользователя для роли без учёта регистра.
func (s *NotificationService) List(ctx context.Context, userID int64, role string) ([]models.Notification, error) {
	notificationType := strings.ToUpper(strings.TrimSpace(role))
	if _, ok := models.ValidNotificationTypes[notificationType]; !ok {
		return nil, errInvalidRole
	}

	notifications, err := s.repo.ListByType(ctx, userID, notificationType)
	if err != nil {
		return nil, apperror.Internal(err, "Internal server error")
	}
	return notifications, nil
}

// MarkAsRead отмечает уведомление как прочитанное. Чужое уведомление считается отсутствующим.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID int64) error {
	if id <= 0 {
		return errNotificationID
	}

	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return errNotificationAbsent
		}
		return apperror.Internal(err, "Internal server error")
	}
	return nil
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	updated, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, apperror.Internal(err, "Internal server error")
	}
	return updated, nil
}
