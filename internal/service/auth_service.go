package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/fairticket/ticketing-backend/internal/logger"
	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/pkg/apperror"
	"github.com/fairticket/ticketing-backend/internal/repository"
	"github.com/fairticket/ticketing-backend/internal/validation"
)

// AuthRepository описывает зависимости AuthService от хранилища пользователей.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User, welcome *models.Notification) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByPhone(ctx context.Context, countryCode, phoneNo string) (*models.User, error)
	UpdateRefreshToken(ctx context.Context, id int64, token *string) error
	RotateRefreshToken(ctx context.Context, id int64, old, next string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// OTPVerifier: часть OTPService, нужная сценариям аутентификации.
type OTPVerifier interface {
	Issue(ctx context.Context, name, email string, isForPassword bool) (string, error)
	ValidateSignupOTP(ctx context.Context, email, code string) error
	ValidatePasswordOTP(ctx context.Context, email, code string) error
}

// AuthOptions: настраиваемое поведение сценариев.
type AuthOptions struct {
	BcryptCost            int
	RevokeSessionsOnReset bool
}

// AuthService инкапсулирует регистрацию, вход и жизненный цикл токенов.
type AuthService struct {
	repo         AuthRepository
	otp          OTPVerifier
	tokenManager *TokenManager
	opts         AuthOptions
	dummyHash    []byte
}

// SignUpInput содержит данные регистрации.
type SignUpInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNo     string `json:"phone_no"`
	CountryCode string `json:"country_code"`
	OTP         string `json:"otp"`
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginInput содержит профиль, полученный от Google на клиенте.
type GoogleLoginInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Image       string `json:"image"`
	PhoneNo     string `json:"phone_no"`
	CountryCode string `json:"country_code"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Gender      string `json:"gender"`
}

// ResetPasswordInput содержит данные для сброса пароля.
type ResetPasswordInput struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
	IsNewUser bool
}

var (
	errSignUpMissing   = apperror.Validation("Missing required fields: email, first_name, last_name, password, phone_no, country_code, otp")
	errLoginMissing    = apperror.Validation("Missing required fields: email, password")
	errGoogleMissing   = apperror.Validation("Missing required fields: first_name, email")
	errRefreshMissing  = apperror.Validation("Refresh token is required").WithDetail("Missing refresh token")
	errResetMissing    = apperror.Validation("Missing required fields: email, otp, new_password")
	errInvalidEmail    = apperror.Validation("Invalid email provided.")
	errResetNoSuchUser = apperror.NotFound("User does not exist on the provided email.")
)

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, otp OTPVerifier, tokenManager *TokenManager, opts AuthOptions) *AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	// Хеш для сравнения, когда пользователь не найден: время ответа не выдаёт наличие аккаунта.
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), opts.BcryptCost)
	if err != nil {
		logger.Log.WithError(err).Warn("auth service: не удалось подготовить фиктивный хеш")
	}

	return &AuthService{
		repo:         repo,
		otp:          otp,
		tokenManager: tokenManager,
		opts:         opts,
		dummyHash:    dummy,
	}
}

// SignUp регистрирует пользователя по подтверждённому OTP.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	if validation.AnyBlank(in.Email, in.FirstName, in.LastName, in.Password, in.PhoneNo, in.CountryCode, in.OTP) {
		return nil, errSignUpMissing
	}

	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, errInvalidEmail
	}

	// Проверки уникальности идут до любой работы с OTP и паролем.
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperror.ErrEmailInUse
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Internal(err, "Internal server error")
	}

	if _, err := s.repo.GetByPhone(ctx, in.CountryCode, in.PhoneNo); err == nil {
		return nil, apperror.ErrPhoneInUse
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Internal(err, "Internal server error")
	}

	if err := validation.ValidatePhone(in.CountryCode, in.PhoneNo); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateLength("first_name", in.FirstName, 1, validation.MaxNameLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateLength("last_name", in.LastName, 1, validation.MaxNameLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if err := s.otp.ValidateSignupOTP(ctx, email, in.OTP); err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			return nil, apperror.ErrInvalidSignupOTP
		}
		return nil, apperror.Internal(err, "Internal server error")
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Email:         email,
		CountryCode:   in.CountryCode,
		PhoneNo:       in.PhoneNo,
		PasswordHash:  &hash,
		EmailVerified: true,
	}

	if err := s.repo.Create(ctx, user, models.WelcomeNotification(0)); err != nil {
		return nil, mapUserWriteError(err)
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("auth service: пользователь зарегистрирован")

	return &AuthResult{User: user, TokenPair: pair, IsNewUser: true}, nil
}

// Login проверяет учётные данные и выдаёт новую пару токенов.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if validation.AnyBlank(in.Email, in.Password) {
		return nil, errLoginMissing
	}

	user, err := s.repo.GetByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.Internal(err, "Internal server error")
		}
		// Сравнение с фиктивным хешем выравнивает время ответа.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.HasPassword() {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return nil, apperror.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, apperror.ErrEmailNotVerified
	}
	if user.IsDisabled {
		return nil, apperror.ErrRestrictedUser
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Refresh обменивает действующий refresh токен на новую пару. Старый токен после этого недействителен.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, errRefreshMissing
	}

	claims, err := s.tokenManager.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperror.ErrRefreshExpired
		}
		return nil, apperror.ErrRefreshInvalid
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, apperror.ErrRefreshInvalid
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrRefreshMismatch
		}
		return nil, apperror.Internal(err, "Internal server error")
	}

	if user.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		logger.Log.WithField("user_id", user.ID).Warn("auth service: предъявлен устаревший refresh токен")
		return nil, apperror.ErrRefreshMismatch
	}

	if user.IsDisabled {
		return nil, apperror.ErrUserDisabled
	}

	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, apperror.Internal(err, "Internal server error")
	}

	// Параллельный refresh тем же токеном проигрывает: UPDATE сверяет старое значение.
	if err := s.repo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrRefreshMismatch
		}
		return nil, apperror.Internal(err, "Internal server error")
	}
	user.RefreshToken = &pair.RefreshToken

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// GoogleLogin входит существующим пользователем или создаёт нового без пароля.
func (s *AuthService) GoogleLogin(ctx context.Context, in GoogleLoginInput) (*AuthResult, error) {
	if validation.AnyBlank(in.FirstName, in.Email) {
		return nil, errGoogleMissing
	}

	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, errInvalidEmail
	}

	user, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.loginExisting(ctx, user)
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, apperror.Internal(err, "Internal server error")
	}

	if err := validateUserUpdate(googleProfile(in)); err != nil {
		return nil, err
	}

	user = &models.User{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      in.LastName,
		Email:         email,
		CountryCode:   in.CountryCode,
		PhoneNo:       in.PhoneNo,
		IsGoogle:      true,
		Image:         in.Image,
		City:          in.City,
		State:         in.State,
		Country:       in.Country,
		Gender:        in.Gender,
		EmailVerified: true,
	}

	if err := s.repo.Create(ctx, user, models.WelcomeNotification(0)); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			// Аккаунт успели создать параллельным запросом.
			existing, getErr := s.repo.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, apperror.Internal(getErr, "Internal server error")
			}
			return s.loginExisting(ctx, existing)
		}
		return nil, mapUserWriteError(err)
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("auth service: создан пользователь через Google")

	return &AuthResult{User: user, TokenPair: pair, IsNewUser: true}, nil
}

// googleProfile собирает непустые поля профиля Google для общей проверки с обновлением профиля.
func googleProfile(in GoogleLoginInput) *models.UserUpdate {
	optional := func(v string) *string {
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return &v
	}

	return &models.UserUpdate{
		FirstName:   &in.FirstName,
		LastName:    optional(in.LastName),
		PhoneNo:     optional(in.PhoneNo),
		CountryCode: optional(in.CountryCode),
		City:        optional(in.City),
		State:       optional(in.State),
		Country:     optional(in.Country),
		Gender:      optional(in.Gender),
	}
}

func (s *AuthService) loginExisting(ctx context.Context, user *models.User) (*AuthResult, error) {
	if user.IsDisabled {
		return nil, apperror.ErrRestrictedUser
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: pair}, nil
}

// ForgotPassword отправляет код сброса пароля.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, errInvalidEmail
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrResetUserNotFound
		}
		return nil, apperror.Internal(err, "Internal server error")
	}

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if _, err := s.otp.Issue(ctx, name, user.Email, true); err != nil {
		return nil, apperror.Internal(err, "Failed to send OTP")
	}

	return user, nil
}

// ResetPassword меняет пароль по коду сброса.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if validation.AnyBlank(in.Email, in.OTP, in.NewPassword) {
		return errResetMissing
	}

	email := validation.NormalizeEmail(in.Email)
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errResetNoSuchUser
		}
		return apperror.Internal(err, "Internal server error")
	}

	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return apperror.Validation(err.Error())
	}

	if err := s.otp.ValidatePasswordOTP(ctx, email, in.OTP); err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			return apperror.ErrInvalidResetOTP
		}
		return apperror.Internal(err, "Internal server error")
	}

	hash, err := s.hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperror.Internal(err, "Internal server error")
	}

	if s.opts.RevokeSessionsOnReset {
		if err := s.repo.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
			return apperror.Internal(err, "Internal server error")
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":          user.ID,
		"sessions_revoked": s.opts.RevokeSessionsOnReset,
	}).Info("auth service: пароль сброшен")

	return nil
}

// issueAndStore выпускает пару и перезаписывает сохранённый refresh токен.
func (s *AuthService) issueAndStore(ctx context.Context, user *models.User) (*TokenPair, error) {
	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, apperror.Internal(err, "Internal server error")
	}

	if err := s.repo.UpdateRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, apperror.Internal(err, "Internal server error")
	}
	user.RefreshToken = &pair.RefreshToken

	return pair, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", apperror.Internal(err, "Internal server error")
	}
	return string(hash), nil
}

// mapUserWriteError переводит ошибки записи пользователя в ответы API.
func mapUserWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		return apperror.ErrEmailInUse
	case errors.Is(err, repository.ErrPhoneTaken):
		return apperror.ErrPhoneInUse
	default:
		return apperror.Internal(err, "Internal server error")
	}
}
