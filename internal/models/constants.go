package models

// Иконки уведомлений
const (
	NotificationIconWarning = "WARNING"
	NotificationIconInfo    = "INFO"
	NotificationIconSuccess = "SUCCESS"
	NotificationIconError   = "ERROR"
)

// Адресаты уведомлений
const (
	NotificationTypeUser   = "USER"
	NotificationTypeVendor = "VENDOR"
	NotificationTypeAll    = "ALL"
	NotificationTypeAdmin  = "ADMIN"
)

// ValidNotificationIcons список валидных иконок
var ValidNotificationIcons = map[string]struct{}{
	NotificationIconWarning: {},
	NotificationIconInfo:    {},
	NotificationIconSuccess: {},
	NotificationIconError:   {},
}

// ValidNotificationTypes список валидных адресатов
var ValidNotificationTypes = map[string]struct{}{
	NotificationTypeUser:   {},
	NotificationTypeVendor: {},
	NotificationTypeAll:    {},
	NotificationTypeAdmin:  {},
}
