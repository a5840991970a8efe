package models

import "time"

// OTPProviderEmail: канал доставки кода.
const OTPProviderEmail = "Email"

// OTP описывает одноразовый код подтверждения email или сброса пароля.
type OTP struct {
	ID            int64     `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	Code          string    `db:"code" json:"-"`
	IsUsed        bool      `db:"is_used" json:"is_used"`
	IsDisabled    bool      `db:"is_disabled" json:"is_disabled"`
	IsForPassword bool      `db:"is_for_password" json:"is_for_password"`
	Provider      string    `db:"provider" json:"provider"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
