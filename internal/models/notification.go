package models

import (
	"database/sql/driver"
	"time"
)

// NotificationButton: кнопка действия внутри уведомления.
type NotificationButton struct {
	Text  string `json:"text"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
	URL   string `json:"url,omitempty"`
}

// NotificationButtons хранится в колонке jsonb.
type NotificationButtons []NotificationButton

// Value сериализует кнопки для записи в БД.
func (b NotificationButtons) Value() (driver.Value, error) {
	return jsonValue(b, b == nil, "[]")
}

// Scan читает кнопки из jsonb.
func (b *NotificationButtons) Scan(src interface{}) error {
	ok, err := scanJSON(src, b, "notification buttons")
	if err == nil && !ok {
		*b = NotificationButtons{}
	}
	return err
}

// Notification описывает уведомление пользователя.
type Notification struct {
	ID          int64               `db:"id" json:"id"`
	UserID      int64               `db:"user_id" json:"user_id"`
	ColorScheme *string             `db:"color_scheme" json:"color_scheme"`
	IconType    string              `db:"icon_type" json:"icon_type"`
	Title       string              `db:"title" json:"title"`
	Description string              `db:"description" json:"description"`
	Buttons     NotificationButtons `db:"buttons" json:"buttons"`
	Type        string              `db:"type" json:"type"`
	IsRead      bool                `db:"is_read" json:"is_read"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

// WelcomeNotification формирует приветственное уведомление для нового пользователя.
func WelcomeNotification(userID int64) *Notification {
	return &Notification{
		UserID:      userID,
		IconType:    NotificationIconSuccess,
		Title:       "Welcome to FairTicket",
		Description: "Your account has been created successfully",
		Type:        NotificationTypeUser,
		Buttons:     NotificationButtons{{Text: "View Events", URL: "/events"}},
	}
}
