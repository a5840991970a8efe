package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/service"
)

// WishlistService: избранные события пользователя.
type WishlistService interface {
	Toggle(ctx context.Context, userID, eventID int64) (*service.ToggleResult, error)
	Get(ctx context.Context, userID int64) ([]models.Event, error)
}

// WishlistHandler обслуживает маршруты /wishlist.
type WishlistHandler struct {
	wishlists WishlistService
}

// NewWishlistHandler создаёт хэндлер.
func NewWishlistHandler(wishlists WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlists: wishlists}
}

// Toggle обрабатывает POST /wishlist/add/:event_id.
func (h *WishlistHandler) Toggle(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	eventID, ok := parseIDParam(c, "event_id")
	if !ok {
		response.BadRequest(c, "Invalid event ID")
		return
	}

	result, err := h.wishlists.Toggle(c.Request.Context(), userID, eventID)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch result.Action {
	case service.WishlistCreated:
		response.Created(c, "Wishlist created successfully", result.Wishlist)
	case service.WishlistRemoved:
		response.Success(c, "Event removed from wishlist successfully", result.EventIDs)
	default:
		response.Success(c, "Event added to wishlist successfully", result.EventIDs)
	}
}

// Get обрабатывает GET /wishlist.
func (h *WishlistHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	events, err := h.wishlists.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if len(events) == 0 {
		response.Success(c, "Wishlist is empty", events)
		return
	}
	response.Success(c, "Wishlist retrieved successfully", events)
}
