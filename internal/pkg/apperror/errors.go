package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeRateLimited  ErrorCode = "RATE_LIMITED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
)

// AppError: доменная ошибка с HTTP статусом и текстом для клиента.
// Detail попадает в поле error ответа, Message: в поле message.
type AppError struct {
	Code       ErrorCode
	Message    string
	Detail     string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал с копиями.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithDetail возвращает копию ошибки с заполненным полем Detail.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Internal оборачивает неожиданную ошибку хранилища или сети.
func Internal(err error, message string) *AppError {
	return Wrap(err, ErrCodeInternal, message)
}

func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf возвращает HTTP статус ошибки; для неизвестных ошибок: 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

func IsUnauthorized(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeUnauthorized
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

// Ошибки сценариев аутентификации. Тексты совпадают с контрактом публичного API.
var (
	ErrInvalidCredentials  = New(ErrCodeValidation, "Invalid Credentials")
	ErrEmailNotVerified    = New(ErrCodeValidation, "Email not verified")
	ErrRestrictedUser      = New(ErrCodeValidation, "Restricted User")
	ErrEmailInUse          = New(ErrCodeConflict, "Email already in use")
	ErrPhoneInUse          = New(ErrCodeConflict, "Phone number already in use")
	ErrInvalidSignupOTP    = New(ErrCodeValidation, "Invalid Otp")
	ErrInvalidResetOTP     = New(ErrCodeConflict, "Invalid or expired OTP")
	ErrRefreshExpired      = New(ErrCodeUnauthorized, "Refresh token has expired").WithDetail("Token expired")
	ErrRefreshInvalid      = New(ErrCodeUnauthorized, "Invalid refresh token").WithDetail("Token verification failed")
	ErrRefreshMismatch     = New(ErrCodeUnauthorized, "Invalid or mismatched refresh token").WithDetail("Unauthorized")
	ErrUserDisabled        = New(ErrCodeForbidden, "User is disabled").WithDetail("Access restricted")
	ErrUserNotFound        = New(ErrCodeNotFound, "User not found")
	ErrResetUserNotFound   = New(ErrCodeNotFound, "User with this email does not exist.")
	ErrOldPasswordMismatch = New(ErrCodeConflict, "Old password is incorrect")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "Unauthorized")
	ErrForbidden           = New(ErrCodeForbidden, "Forbidden")
)
