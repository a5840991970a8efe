package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/repository/common"
)

// Ошибки хранилища пользователей.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
	ErrPhoneTaken   = errors.New("phone number already taken")
)

// Имена ограничений из миграции 0001_users.sql.
const (
	usersEmailConstraint = "users_email_key"
	usersPhoneConstraint = "users_phone_key"
)

const userColumns = `id, first_name, last_name, email, country_code, phone_no, password, is_google, image,
	city, state, country, dob, gender, is_public, email_verified, is_disabled, refresh_token, created_at, updated_at`

// UserRepository отвечает за работу с таблицей users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create вставляет пользователя и, если передано, приветственное уведомление в одной транзакции.
func (r *UserRepository) Create(ctx context.Context, user *models.User, welcome *models.Notification) error {
	query := `
		INSERT INTO users (first_name, last_name, email, country_code, phone_no, password, is_google, image,
			city, state, country, dob, gender, email_verified, is_disabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(
			ctx, query,
			user.FirstName, user.LastName, user.Email, user.CountryCode, user.PhoneNo, user.PasswordHash,
			user.IsGoogle, user.Image, user.City, user.State, user.Country, user.Dob, user.Gender,
			user.EmailVerified, user.IsDisabled,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}

		if welcome == nil {
			return nil
		}
		welcome.UserID = user.ID
		return insertNotification(ctx, tx, welcome)
	})
	if err != nil {
		return mapUserWriteError("create", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email. Email ожидается в нижнем регистре.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := common.GetOne[models.User](ctx, r.db, ErrUserNotFound,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}
	return user, err
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := common.GetOne[models.User](ctx, r.db, ErrUserNotFound,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return user, err
}

// GetByPhone возвращает пользователя по паре (код страны, номер).
func (r *UserRepository) GetByPhone(ctx context.Context, countryCode, phoneNo string) (*models.User, error) {
	user, err := common.GetOne[models.User](ctx, r.db, ErrUserNotFound,
		`SELECT `+userColumns+` FROM users WHERE country_code = $1 AND phone_no = $2`, countryCode, phoneNo)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("user repository: get by phone %w", err)
	}
	return user, err
}

// UpdateRefreshToken перезаписывает единственный действующий refresh токен пользователя.
// nil очищает токен.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id int64, token *string) error {
	return r.execOne(ctx, "update refresh token",
		`UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`, token, id)
}

// RotateRefreshToken заменяет refresh токен, только если сохранён именно old.
// ErrUserNotFound означает, что токен уже был заменён параллельным запросом.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id int64, old, next string) error {
	return r.execOne(ctx, "rotate refresh token",
		`UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2 AND refresh_token = $3`,
		next, id, old)
}

// UpdatePassword сохраняет новый хеш пароля.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.execOne(ctx, "update password",
		`UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, hash, id)
}

// Update применяет переданные поля профиля и возвращает обновлённого пользователя.
func (r *UserRepository) Update(ctx context.Context, id int64, upd *models.UserUpdate) (*models.User, error) {
	sets, args := userUpdateSet(upd)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	user, err := common.GetOne[models.User](ctx, r.db, ErrUserNotFound, query, args...)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, mapUserWriteError("update", err)
	}
	return user, err
}

// userUpdateSet собирает выражения SET и аргументы для непустых полей.
func userUpdateSet(upd *models.UserUpdate) ([]string, []interface{}) {
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.PhoneNo != nil {
		add("phone_no", *upd.PhoneNo)
	}
	if upd.CountryCode != nil {
		add("country_code", *upd.CountryCode)
	}
	if upd.Image != nil {
		add("image", *upd.Image)
	}
	if upd.City != nil {
		add("city", *upd.City)
	}
	if upd.State != nil {
		add("state", *upd.State)
	}
	if upd.Country != nil {
		add("country", *upd.Country)
	}
	if upd.Dob != nil {
		if *upd.Dob == "" {
			add("dob", nil)
		} else {
			add("dob", *upd.Dob)
		}
	}
	if upd.Gender != nil {
		add("gender", *upd.Gender)
	}
	if upd.IsPublic != nil {
		add("is_public", *upd.IsPublic)
	}

	return sets, args
}

func (r *UserRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("user repository: %s %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: %s rows affected %w", op, err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// mapUserWriteError переводит нарушение уникальности в доменную ошибку.
func mapUserWriteError(op string, err error) error {
	if constraint, ok := common.UniqueViolation(err); ok {
		switch constraint {
		case usersEmailConstraint:
			return ErrEmailTaken
		case usersPhoneConstraint:
			return ErrPhoneTaken
		}
	}
	return fmt.Errorf("user repository: %s %w", op, err)
}
