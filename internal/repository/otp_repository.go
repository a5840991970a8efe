package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/repository/common"
)

// ErrOTPNotFound возвращается, когда подходящего неиспользованного кода нет.
var ErrOTPNotFound = errors.New("otp not found")

// OTPRepository отвечает за работу с таблицей otp.
type OTPRepository struct {
	db *sqlx.DB
}

// NewOTPRepository создаёт экземпляр репозитория.
func NewOTPRepository(db *sqlx.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create сохраняет новый код. Предыдущие коды для email не трогаются.
func (r *OTPRepository) Create(ctx context.Context, otp *models.OTP) error {
	query := `
		INSERT INTO otp (email, code, is_disabled, is_used, is_for_password, provider)
		VALUES ($1, $2, FALSE, FALSE, $3, $4)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(ctx, query, otp.Email, otp.Code, otp.IsForPassword, otp.Provider).
		Scan(&otp.ID, &otp.CreatedAt, &otp.UpdatedAt); err != nil {
		return fmt.Errorf("otp repository: create %w", err)
	}

	return nil
}

// Consume атомарно гасит код. Строка блокируется, поэтому два параллельных
// вызова с одним кодом не могут оба завершиться успешно.
// При invalidateAll гасятся все коды этого email, иначе только совпавший.
func (r *OTPRepository) Consume(ctx context.Context, email, code string, forPassword, invalidateAll bool) error {
	consume := `
		UPDATE otp SET is_used = TRUE, is_disabled = TRUE, updated_at = NOW()
		WHERE id = (
			SELECT id FROM otp
			WHERE email = $1 AND code = $2 AND is_used = FALSE AND is_disabled = FALSE
				AND ($3 = FALSE OR is_for_password = TRUE)
			ORDER BY id DESC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING id
	`

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var id int64
		if err := tx.QueryRowxContext(ctx, consume, email, code, forPassword).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOTPNotFound
			}
			return err
		}

		if !invalidateAll {
			return nil
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE otp SET is_used = TRUE, is_disabled = TRUE, updated_at = NOW()
			WHERE email = $1 AND (is_used = FALSE OR is_disabled = FALSE)
		`, email)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return ErrOTPNotFound
		}
		return fmt.Errorf("otp repository: consume %w", err)
	}

	return nil
}
