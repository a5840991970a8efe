package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/service"
)

// AuthService: сценарии входа, регистрации и сброса пароля.
type AuthService interface {
	SignUp(ctx context.Context, in service.SignUpInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.AuthResult, error)
	GoogleLogin(ctx context.Context, in service.GoogleLoginInput) (*service.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) (*models.User, error)
	ResetPassword(ctx context.Context, in service.ResetPasswordInput) error
}

// AuthHandler предоставляет HTTP слой для регистрации и логина.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// SignUp обрабатывает POST /auth/sign-up.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req service.SignUpInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.SignUp(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, response.Envelope{
		Message:      "User signed up successfully",
		Data:         result.User,
		AccessToken:  result.TokenPair.AccessToken,
		RefreshToken: result.TokenPair.RefreshToken,
	})
}

// Login обрабатывает POST /auth/log-in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	respondWithTokens(c, http.StatusOK, "Login Successful", result, false)
}

// GoogleLogin обрабатывает POST /auth/google/log-in. Новый пользователь получает 201.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req service.GoogleLoginInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.GoogleLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	code := http.StatusOK
	if result.IsNewUser {
		code = http.StatusCreated
	}
	respondWithTokens(c, code, "Login Successful", result, true)
}

// Refresh обрабатывает POST /auth/refresh-token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	respondWithTokens(c, http.StatusOK, "Token refreshed successfully", result, false)
}

// ForgotPassword обрабатывает POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c,
		fmt.Sprintf("A password reset OTP has been sent to your email (%s).", user.Email),
		gin.H{"id": user.ID, "email": user.Email},
	)
}

// ResetPassword обрабатывает POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordInput
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Password reset successfully.", nil)
}

func respondWithTokens(c *gin.Context, code int, message string, result *service.AuthResult, withNewUserFlag bool) {
	env := response.Envelope{
		Message:      message,
		User:         result.User,
		AccessToken:  result.TokenPair.AccessToken,
		RefreshToken: result.TokenPair.RefreshToken,
	}
	if withNewUserFlag {
		isNew := result.IsNewUser
		env.IsNewUser = &isNew
	}
	response.JSON(c, code, env)
}
