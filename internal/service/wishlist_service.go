package service

import (
	"context"
	"errors"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/pkg/apperror"
	"github.com/fairticket/ticketing-backend/internal/repository"
)

// WishlistRepository описывает хранилище вишлистов.
type WishlistRepository interface {
	GetByUser(ctx context.Context, userID int64) (*models.Wishlist, error)
	Create(ctx context.Context, userID, eventID int64) (*models.Wishlist, error)
	AddEvent(ctx context.Context, userID, eventID int64) ([]int64, error)
	RemoveEvent(ctx context.Context, userID, eventID int64) ([]int64, error)
}

// WishlistEvents: чтение событий, на которые ссылается вишлист.
type WishlistEvents interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Event, error)
}

// WishlistAction: что произошло при переключении события.
type WishlistAction int

const (
	WishlistCreated WishlistAction = iota + 1
	WishlistAdded
	WishlistRemoved
)

// ToggleResult: итог переключения события в вишлисте.
type ToggleResult struct {
	Action   WishlistAction
	Wishlist *models.Wishlist
	EventIDs []int64
}

// WishlistService управляет избранными событиями пользователя.
type WishlistService struct {
	repo   WishlistRepository
	events WishlistEvents
}

// NewWishlistService создаёт сервис вишлиста.
func NewWishlistService(repo WishlistRepository, events WishlistEvents) *WishlistService {
	return &WishlistService{repo: repo, events: events}
}

var (
	errWishlistNotFound = apperror.NotFound("Wishlist not found")
	errInvalidEventID   = apperror.Validation("Invalid event ID")
)

// Toggle создаёт вишлист, добавляет событие или убирает его, если оно уже есть.
func (s *WishlistService) Toggle(ctx context.Context, userID, eventID int64) (*ToggleResult, error) {
	if eventID <= 0 {
		return nil, errInvalidEventID
	}

	wishlist, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrWishlistNotFound) {
			return nil, apperror.Internal(err, "Failed to add to wishlist")
		}

		if err := s.ensureEvent(ctx, eventID); err != nil {
			return nil, err
		}
		created, err := s.repo.Create(ctx, userID, eventID)
		if err != nil {
			return nil, apperror.Internal(err, "Failed to add to wishlist")
		}
		return &ToggleResult{Action: WishlistCreated, Wishlist: created, EventIDs: []int64(created.EventIDs)}, nil
	}

	if wishlist.Contains(eventID) {
		ids, err := s.repo.RemoveEvent(ctx, userID, eventID)
		if err != nil {
			return nil, apperror.Internal(err, "Failed to add to wishlist")
		}
		return &ToggleResult{Action: WishlistRemoved, Wishlist: wishlist, EventIDs: ids}, nil
	}

	if err := s.ensureEvent(ctx, eventID); err != nil {
		return nil, err
	}
	ids, err := s.repo.AddEvent(ctx, userID, eventID)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to add to wishlist")
	}
	return &ToggleResult{Action: WishlistAdded, Wishlist: wishlist, EventIDs: ids}, nil
}

// ensureEvent проверяет, что добавляемое событие существует.
func (s *WishlistService) ensureEvent(ctx context.Context, eventID int64) error {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return errEventNotFound
		}
		return apperror.Internal(err, "Failed to add to wishlist")
	}
	return nil
}

// Get возвращает события из вишлиста пользователя в порядке добавления.
// Удалённые события пропускаются.
func (s *WishlistService) Get(ctx context.Context, userID int64) ([]models.Event, error) {
	wishlist, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrWishlistNotFound) {
			return nil, errWishlistNotFound
		}
		return nil, apperror.Internal(err, "Failed to get wishlist")
	}

	if len(wishlist.EventIDs) == 0 {
		return []models.Event{}, nil
	}

	events, err := s.events.ListByIDs(ctx, []int64(wishlist.EventIDs))
	if err != nil {
		return nil, apperror.Internal(err, "Failed to get wishlist")
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}
