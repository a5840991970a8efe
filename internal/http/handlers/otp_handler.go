package handlers

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/validation"
)

// OTPIssuer выпускает и отправляет одноразовые коды.
type OTPIssuer interface {
	Issue(ctx context.Context, name, email string, isForPassword bool) (string, error)
}

// OTPHandler обслуживает отправку кода регистрации.
type OTPHandler struct {
	otp OTPIssuer
}

// NewOTPHandler создаёт хэндлер.
func NewOTPHandler(otp OTPIssuer) *OTPHandler {
	return &OTPHandler{otp: otp}
}

// SendOTP обрабатывает POST /otp/send-otp.
func (h *OTPHandler) SendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if validation.AnyBlank(req.Email, req.Name) {
		response.BadRequest(c, "Email and name are required")
		return
	}
	email := validation.NormalizeEmail(req.Email)
	if err := validation.ValidateEmail(email); err != nil {
		response.BadRequest(c, "Invalid email provided.")
		return
	}

	if _, err := h.otp.Issue(c.Request.Context(), req.Name, email, false); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, fmt.Sprintf("OTP has been sent to %s successfully", email), nil)
}
