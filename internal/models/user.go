package models

import (
	"time"
)

// User описывает учётную запись пользователя платформы.
// PasswordHash пуст у аккаунтов, созданных через Google.
type User struct {
	ID            int64      `db:"id" json:"id"`
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName      string     `db:"last_name" json:"last_name"`
	Email         string     `db:"email" json:"email"`
	CountryCode   string     `db:"country_code" json:"country_code"`
	PhoneNo       string     `db:"phone_no" json:"phone_no"`
	PasswordHash  *string    `db:"password" json:"-"`
	IsGoogle      bool       `db:"is_google" json:"is_google"`
	Image         string     `db:"image" json:"image"`
	City          string     `db:"city" json:"city"`
	State         string     `db:"state" json:"state"`
	Country       string     `db:"country" json:"country"`
	Dob           *time.Time `db:"dob" json:"dob"`
	Gender        string     `db:"gender" json:"gender"`
	IsPublic      bool       `db:"is_public" json:"is_public"`
	EmailVerified bool       `db:"email_verified" json:"email_verified"`
	IsDisabled    bool       `db:"is_disabled" json:"is_disabled"`
	RefreshToken  *string    `db:"refresh_token" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// HasPassword сообщает, задан ли у пользователя пароль.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Username возвращает имя, которое кладётся в клейм username токенов.
func (u *User) Username() string {
	return u.FirstName
}

// UserWithWishlist: пользователь вместе с идентификаторами событий из вишлиста.
type UserWithWishlist struct {
	*User
	Wishlist []int64 `json:"wishlist"`
}

// UserUpdate содержит изменяемые поля профиля. nil означает «не менять».
type UserUpdate struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	PhoneNo     *string `json:"phone_no"`
	CountryCode *string `json:"country_code"`
	Image       *string `json:"image"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Country     *string `json:"country"`
	Dob         *string `json:"dob"`
	Gender      *string `json:"gender"`
	IsPublic    *bool   `json:"is_public"`
}

// IsEmpty сообщает, что ни одно поле не передано.
func (u *UserUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil && u.PhoneNo == nil &&
		u.CountryCode == nil && u.Image == nil && u.City == nil && u.State == nil &&
		u.Country == nil && u.Dob == nil && u.Gender == nil && u.IsPublic == nil
}
