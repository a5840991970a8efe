package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/models"
)

// UserService: профиль текущего пользователя.
type UserService interface {
	Profile(ctx context.Context, userID int64) (*models.UserWithWishlist, error)
	Onboard(ctx context.Context, userID int64, upd models.UserUpdate) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, upd models.UserUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

// UserHandler обслуживает маршруты /users.
type UserHandler struct {
	users UserService
}

// NewUserHandler создаёт хэндлер.
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me обрабатывает GET /users.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	profile, err := h.users.Profile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, response.Envelope{Message: "Data fetched successfully", User: profile})
}

// Onboard обрабатывает PUT /users/onboard.
func (h *UserHandler) Onboard(c *gin.Context) {
	h.update(c, "User updated successfully", h.users.Onboard)
}

// UpdateProfile обрабатывает PUT /users/profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	h.update(c, "Profile updated successfully", h.users.UpdateProfile)
}

func (h *UserHandler) update(
	c *gin.Context,
	message string,
	apply func(context.Context, int64, models.UserUpdate) (*models.User, error),
) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req models.UserUpdate
	if !bindJSON(c, &req) {
		return
	}

	user, err := apply(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, response.Envelope{Message: message, User: user})
}

// ChangePassword обрабатывает PUT /users/change-password.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Password changed successfully", nil)
}
