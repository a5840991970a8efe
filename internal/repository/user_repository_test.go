package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairticket/ticketing-backend/internal/models"
)

func strPtr(s string) *string { return &s }

func TestMapUserWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"email", &pq.Error{Code: "23505", Constraint: usersEmailConstraint}, ErrEmailTaken},
		{"phone", &pq.Error{Code: "23505", Constraint: usersPhoneConstraint}, ErrPhoneTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapUserWriteError("create", tt.err), tt.want)
		})
	}

	other := mapUserWriteError("create", &pq.Error{Code: "23503", Constraint: "fk"})
	assert.False(t, errors.Is(other, ErrEmailTaken))
	assert.False(t, errors.Is(other, ErrPhoneTaken))
	assert.Contains(t, other.Error(), "user repository: create")
}

func TestUserUpdateSet(t *testing.T) {
	public := true
	sets, args := userUpdateSet(&models.UserUpdate{
		FirstName: strPtr("Ann"),
		Dob:       strPtr(""),
		IsPublic:  &public,
	})

	assert.Equal(t, []string{"first_name = $1", "dob = $2", "is_public = $3"}, sets)
	assert.Equal(t, []interface{}{"Ann", nil, true}, args)

	sets, args = userUpdateSet(&models.UserUpdate{})
	assert.Empty(t, sets)
	assert.Empty(t, args)
}

var rotateRefreshQuery = sqlPattern(
	`UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2 AND refresh_token = $3`)

func TestUserRepository_RotateRefreshToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(rotateRefreshQuery).
		WithArgs("next-token", int64(5), "old-token").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RotateRefreshToken(context.Background(), 5, "old-token", "next-token"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_RotateRefreshTokenLosesRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	// токен уже заменён другим запросом, условие refresh_token = $3 не совпало
	mock.ExpectExec(rotateRefreshQuery).
		WithArgs("next-token", int64(5), "old-token").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RotateRefreshToken(context.Background(), 5, "old-token", "next-token")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateRefreshTokenClears(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(sqlPattern(`UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs(nil, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateRefreshToken(context.Background(), 5, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
