package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/repository/common"
)

// ErrWishlistNotFound возвращается, когда у пользователя ещё нет вишлиста.
var ErrWishlistNotFound = errors.New("wishlist not found")

// WishlistRepository отвечает за работу с таблицей wishlist.
type WishlistRepository struct {
	db *sqlx.DB
}

// NewWishlistRepository создаёт экземпляр репозитория.
func NewWishlistRepository(db *sqlx.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// GetByUser возвращает вишлист пользователя.
func (r *WishlistRepository) GetByUser(ctx context.Context, userID int64) (*models.Wishlist, error) {
	w, err := common.GetOne[models.Wishlist](ctx, r.db, ErrWishlistNotFound,
		`SELECT id, user_id, event_ids FROM wishlist WHERE user_id = $1`, userID)
	if err != nil && !errors.Is(err, ErrWishlistNotFound) {
		return nil, fmt.Errorf("wishlist repository: get by user %w", err)
	}
	return w, err
}

// Create создаёт вишлист с одним событием. Если вишлист уже создан параллельным
// запросом, событие добавляется в него.
func (r *WishlistRepository) Create(ctx context.Context, userID, eventID int64) (*models.Wishlist, error) {
	var w models.Wishlist
	err := r.db.GetContext(ctx, &w, `
		INSERT INTO wishlist (user_id, event_ids)
		VALUES ($1, ARRAY[$2]::BIGINT[])
		ON CONFLICT (user_id) DO UPDATE
		SET event_ids = CASE
			WHEN $2 = ANY(wishlist.event_ids) THEN wishlist.event_ids
			ELSE array_append(wishlist.event_ids, $2)
		END
		RETURNING id, user_id, event_ids
	`, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("wishlist repository: create %w", err)
	}
	return &w, nil
}

// AddEvent добавляет событие, если его ещё нет, и возвращает итоговый список.
func (r *WishlistRepository) AddEvent(ctx context.Context, userID, eventID int64) ([]int64, error) {
	return r.updateEvents(ctx, "add event", `
		UPDATE wishlist
		SET event_ids = CASE
			WHEN $2 = ANY(event_ids) THEN event_ids
			ELSE array_append(event_ids, $2)
		END
		WHERE user_id = $1
		RETURNING event_ids
	`, userID, eventID)
}

// RemoveEvent убирает событие и возвращает итоговый список.
func (r *WishlistRepository) RemoveEvent(ctx context.Context, userID, eventID int64) ([]int64, error) {
	return r.updateEvents(ctx, "remove event", `
		UPDATE wishlist SET event_ids = array_remove(event_ids, $2)
		WHERE user_id = $1
		RETURNING event_ids
	`, userID, eventID)
}

func (r *WishlistRepository) updateEvents(ctx context.Context, op, query string, userID, eventID int64) ([]int64, error) {
	ids, err := common.GetOne[pq.Int64Array](ctx, r.db, ErrWishlistNotFound, query, userID, eventID)
	if err != nil {
		if errors.Is(err, ErrWishlistNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("wishlist repository: %s %w", op, err)
	}
	if *ids == nil {
		return []int64{}, nil
	}
	return []int64(*ids), nil
}
