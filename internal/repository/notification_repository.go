package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fairticket/ticketing-backend/internal/models"
)

// ErrNotificationNotFound возвращается, когда уведомление не найдено.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository отвечает за работу с уведомлениями.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository создаёт экземпляр репозитория.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create создаёт новое уведомление.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := insertNotification(ctx, r.db, notification); err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}
	return nil
}

// insertNotification используется и отдельно, и внутри транзакции регистрации.
func insertNotification(ctx context.Context, q sqlx.QueryerContext, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, color_scheme, icon_type, title, description, buttons, type, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	return q.QueryRowxContext(
		ctx,
		query,
		n.UserID,
		n.ColorScheme,
		n.IconType,
		n.Title,
		n.Description,
		n.Buttons,
		n.Type,
		n.IsRead,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

// ListByType возвращает уведомления пользователя для указанного адресата, новые первыми.
func (r *NotificationRepository) ListByType(ctx context.Context, userID int64, notificationType string) ([]models.Notification, error) {
	notifications := []models.Notification{}
	query := `
		SELECT id, user_id, color_scheme, icon_type, title, description, buttons, type, is_read, created_at, updated_at
		FROM notifications
		WHERE user_id = $1 AND type = $2
		ORDER BY created_at DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &notifications, query, userID, notificationType); err != nil {
		return nil, fmt.Errorf("notification repository: list %w", err)
	}

	return notifications, nil
}

// MarkAsRead отмечает уведомление пользователя как прочитанное.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("notification repository: mark as read %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("notification repository: mark as read rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные и возвращает их количество.
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, updated_at = NOW() WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("notification repository: mark all as read %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("notification repository: mark all as read rows affected %w", err)
	}

	return updated, nil
}
