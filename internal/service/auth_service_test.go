package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fairticket/ticketing-backend/internal/mail"
	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/pkg/apperror"
	"github.com/fairticket/ticketing-backend/internal/repository"
	"github.com/fairticket/ticketing-backend/internal/validation"
)

type authFixture struct {
	svc    *AuthService
	users  *fakeUserRepository
	otps   *fakeOTPRepository
	otp    *OTPService
	mailer *mockMailer
	tokens *TokenManager
}

func newAuthFixture(t *testing.T, opts AuthOptions) *authFixture {
	t.Helper()

	users := newFakeUserRepository()
	otpSvc, otps, mailer := newTestOTPService(true)
	tokens := NewTokenManager("access-secret", "refresh-secret", time.Hour, 2*time.Hour)
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.MinCost
	}

	return &authFixture{
		svc:    NewAuthService(users, otpSvc, tokens, opts),
		users:  users,
		otps:   otps,
		otp:    otpSvc,
		mailer: mailer,
		tokens: tokens,
	}
}

func (f *authFixture) signUp(t *testing.T, email string) *AuthResult {
	t.Helper()

	code, err := f.otp.Issue(context.Background(), "A", validation.NormalizeEmail(email), false)
	require.NoError(t, err)

	res, err := f.svc.SignUp(context.Background(), SignUpInput{
		FirstName:   "A",
		LastName:    "B",
		Email:       email,
		Password:    "longenough1",
		PhoneNo:     "555",
		CountryCode: "1",
		OTP:         code,
	})
	require.NoError(t, err)
	return res
}

func (f *authFixture) addUser(t *testing.T, user *models.User, password string) *models.User {
	t.Helper()
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		h := string(hash)
		user.PasswordHash = &h
	}
	return f.users.add(user)
}

func assertAppError(t *testing.T, err error, want *apperror.AppError) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "ожидалась AppError, получено %v", err)
	assert.Equal(t, want.HTTPStatus, appErr.HTTPStatus)
	assert.Equal(t, want.Message, appErr.Message)
}

func TestAuthService_SignUpAndLogin(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	ctx := context.Background()

	// Лишний код для того же email тоже должен погаснуть.
	_, err := f.otp.Issue(ctx, "A", "a@b.com", false)
	require.NoError(t, err)

	res := f.signUp(t, "A@B.com")
	require.NotNil(t, res.User)
	assert.Equal(t, "a@b.com", res.User.Email)
	assert.True(t, res.User.EmailVerified)
	assert.NotEmpty(t, res.TokenPair.AccessToken)
	assert.NotEmpty(t, res.TokenPair.RefreshToken)
	assert.Equal(t, 0, f.otps.activeFor("a@b.com"))

	stored := f.users.stored(res.User.ID)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, res.TokenPair.RefreshToken, *stored.RefreshToken)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "longenough1", *stored.PasswordHash)

	require.Len(t, f.users.notifications, 1)
	assert.Equal(t, res.User.ID, f.users.notifications[0].UserID)
	assert.Equal(t, "Welcome to FairTicket", f.users.notifications[0].Title)

	login, err := f.svc.Login(ctx, LoginInput{Email: "A@b.COM", Password: "longenough1"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)
	assert.NotEqual(t, res.TokenPair.RefreshToken, login.TokenPair.RefreshToken)
	assert.Equal(t, login.TokenPair.RefreshToken, *f.users.stored(res.User.ID).RefreshToken)
}

func TestAuthService_SignUpMissingFields(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})

	_, err := f.svc.SignUp(context.Background(), SignUpInput{Email: "a@b.com", Password: "longenough1"})
	assertAppError(t, err, errSignUpMissing)
}

func TestAuthService_SignUpDuplicateEmailRejectedBeforeOTP(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.addUser(t, &models.User{Email: "a@b.com", FirstName: "A", EmailVerified: true}, "longenough1")

	_, err := f.svc.SignUp(context.Background(), SignUpInput{
		FirstName: "X", LastName: "Y", Email: "A@b.com", Password: "short",
		PhoneNo: "777", CountryCode: "44", OTP: "1234",
	})
	assertAppError(t, err, apperror.ErrEmailInUse)
	assert.Zero(t, f.otps.consumeCalls)
}

func TestAuthService_SignUpDuplicatePhone(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.addUser(t, &models.User{Email: "other@b.com", PhoneNo: "555", CountryCode: "1"}, "")

	_, err := f.svc.SignUp(context.Background(), SignUpInput{
		FirstName: "A", LastName: "B", Email: "a@b.com", Password: "longenough1",
		PhoneNo: "555", CountryCode: "1", OTP: "1234",
	})
	assertAppError(t, err, apperror.ErrPhoneInUse)
	assert.Zero(t, f.otps.consumeCalls)
}

func TestAuthService_SignUpInvalidOTP(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})

	_, err := f.svc.SignUp(context.Background(), SignUpInput{
		FirstName: "A", LastName: "B", Email: "a@b.com", Password: "longenough1",
		PhoneNo: "555", CountryCode: "1", OTP: "1234",
	})
	assertAppError(t, err, apperror.ErrInvalidSignupOTP)
	assert.Empty(t, f.users.users)
}

func TestAuthService_SignUpInsertRaceMapsToConflict(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.users.createErr = repository.ErrEmailTaken

	code, err := f.otp.Issue(context.Background(), "A", "a@b.com", false)
	require.NoError(t, err)

	_, err = f.svc.SignUp(context.Background(), SignUpInput{
		FirstName: "A", LastName: "B", Email: "a@b.com", Password: "longenough1",
		PhoneNo: "555", CountryCode: "1", OTP: code,
	})
	assertAppError(t, err, apperror.ErrEmailInUse)
}

func TestAuthService_LoginDoesNotRevealAccountExistence(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.addUser(t, &models.User{Email: "a@b.com", FirstName: "A", EmailVerified: true}, "longenough1")
	ctx := context.Background()

	_, wrongPassword := f.svc.Login(ctx, LoginInput{Email: "a@b.com", Password: "wrong-password"})
	_, unknownEmail := f.svc.Login(ctx, LoginInput{Email: "nobody@b.com", Password: "wrong-password"})

	assertAppError(t, wrongPassword, apperror.ErrInvalidCredentials)
	assertAppError(t, unknownEmail, apperror.ErrInvalidCredentials)
	assert.Equal(t, apperror.StatusOf(wrongPassword), apperror.StatusOf(unknownEmail))
}

func TestAuthService_LoginAccountStates(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.addUser(t, &models.User{Email: "unverified@b.com", FirstName: "U"}, "longenough1")
	f.addUser(t, &models.User{Email: "disabled@b.com", FirstName: "D", EmailVerified: true, IsDisabled: true}, "longenough1")
	f.addUser(t, &models.User{Email: "google@b.com", FirstName: "G", EmailVerified: true, IsGoogle: true}, "")
	ctx := context.Background()

	_, err := f.svc.Login(ctx, LoginInput{Email: "unverified@b.com", Password: "longenough1"})
	assertAppError(t, err, apperror.ErrEmailNotVerified)

	_, err = f.svc.Login(ctx, LoginInput{Email: "disabled@b.com", Password: "longenough1"})
	assertAppError(t, err, apperror.ErrRestrictedUser)

	_, err = f.svc.Login(ctx, LoginInput{Email: "google@b.com", Password: "anything-at-all"})
	assertAppError(t, err, apperror.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginInput{Email: "a@b.com"})
	assertAppError(t, err, errLoginMissing)
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	res := f.signUp(t, "a@b.com")
	ctx := context.Background()

	old := res.TokenPair.RefreshToken
	refreshed, err := f.svc.Refresh(ctx, old)
	require.NoError(t, err)
	assert.NotEqual(t, old, refreshed.TokenPair.RefreshToken)
	assert.Equal(t, refreshed.TokenPair.RefreshToken, *f.users.stored(res.User.ID).RefreshToken)

	_, err = f.svc.Refresh(ctx, old)
	assertAppError(t, err, apperror.ErrRefreshMismatch)

	_, err = f.svc.Refresh(ctx, refreshed.TokenPair.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_RefreshErrors(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	ctx := context.Background()

	_, err := f.svc.Refresh(ctx, "")
	assertAppError(t, err, errRefreshMissing)

	_, err = f.svc.Refresh(ctx, "garbage")
	assertAppError(t, err, apperror.ErrRefreshInvalid)

	// Access токен подписан другим ключом.
	access, err := f.tokens.IssueAccess(1, "A")
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, access)
	assertAppError(t, err, apperror.ErrRefreshInvalid)

	// Корректный токен несуществующего пользователя.
	ghost, err := f.tokens.IssueRefresh(999, "ghost")
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, ghost)
	assertAppError(t, err, apperror.ErrRefreshMismatch)
}

func TestAuthService_RefreshExpiredIsDistinct(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	user := f.addUser(t, &models.User{Email: "a@b.com", FirstName: "A", EmailVerified: true}, "")

	f.tokens.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	expired, err := f.tokens.IssueRefresh(user.ID, "A")
	require.NoError(t, err)
	f.tokens.now = time.Now
	require.NoError(t, f.users.UpdateRefreshToken(context.Background(), user.ID, &expired))

	_, err = f.svc.Refresh(context.Background(), expired)
	assertAppError(t, err, apperror.ErrRefreshExpired)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
	assert.Equal(t, "Token expired", appErr.Detail)
	assert.NotEqual(t, apperror.ErrRefreshInvalid.Message, appErr.Message)
}

func TestAuthService_RefreshDisabledUser(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	res := f.signUp(t, "a@b.com")

	f.users.mu.Lock()
	f.users.users[res.User.ID].IsDisabled = true
	f.users.mu.Unlock()

	_, err := f.svc.Refresh(context.Background(), res.TokenPair.RefreshToken)
	assertAppError(t, err, apperror.ErrUserDisabled)
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))
}

func TestAuthService_GoogleLogin(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	ctx := context.Background()

	first, err := f.svc.GoogleLogin(ctx, GoogleLoginInput{FirstName: "Ann", Email: "Ann@Gmail.com", Image: "pic.png"})
	require.NoError(t, err)
	assert.True(t, first.IsNewUser)
	assert.True(t, first.User.IsGoogle)
	assert.True(t, first.User.EmailVerified)
	assert.False(t, first.User.HasPassword())
	assert.Equal(t, "", first.User.LastName)
	assert.Equal(t, "ann@gmail.com", first.User.Email)

	second, err := f.svc.GoogleLogin(ctx, GoogleLoginInput{FirstName: "Ann", Email: "ann@gmail.com"})
	require.NoError(t, err)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, second.TokenPair.RefreshToken, *f.users.stored(first.User.ID).RefreshToken)

	// Федеративный аккаунт не проходит вход по паролю.
	_, err = f.svc.Login(ctx, LoginInput{Email: "ann@gmail.com", Password: "longenough1"})
	assertAppError(t, err, apperror.ErrInvalidCredentials)

	_, err = f.svc.GoogleLogin(ctx, GoogleLoginInput{Email: "ann@gmail.com"})
	assertAppError(t, err, errGoogleMissing)
}

func TestAuthService_GoogleLoginRejectsOversizedProfile(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	ctx := context.Background()
	long := strings.Repeat("x", validation.MaxPlaceLength+1)

	tests := []struct {
		name string
		in   GoogleLoginInput
	}{
		{"first name", GoogleLoginInput{FirstName: strings.Repeat("a", validation.MaxNameLength+1)}},
		{"last name", GoogleLoginInput{FirstName: "Ann", LastName: strings.Repeat("b", validation.MaxNameLength+1)}},
		{"phone too long", GoogleLoginInput{FirstName: "Ann", PhoneNo: "1234567890123456"}},
		{"phone not numeric", GoogleLoginInput{FirstName: "Ann", PhoneNo: "12-34"}},
		{"country code", GoogleLoginInput{FirstName: "Ann", CountryCode: "+12345678901"}},
		{"city", GoogleLoginInput{FirstName: "Ann", City: long}},
		{"state", GoogleLoginInput{FirstName: "Ann", State: long}},
		{"country", GoogleLoginInput{FirstName: "Ann", Country: long}},
		{"gender", GoogleLoginInput{FirstName: "Ann", Gender: strings.Repeat("g", validation.MaxGenderLength+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Email = "new@gmail.com"
			_, err := f.svc.GoogleLogin(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
			assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

			_, err = f.users.GetByEmail(ctx, "new@gmail.com")
			assert.ErrorIs(t, err, repository.ErrUserNotFound)
		})
	}

	res, err := f.svc.GoogleLogin(ctx, GoogleLoginInput{
		FirstName:   "Ann",
		Email:       "new@gmail.com",
		PhoneNo:     "5550100",
		CountryCode: "+1",
		City:        "Riga",
	})
	require.NoError(t, err)
	assert.Equal(t, "Riga", res.User.City)
}

func TestAuthService_GoogleLoginDisabledUser(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.addUser(t, &models.User{Email: "a@b.com", FirstName: "A", EmailVerified: true, IsDisabled: true}, "")

	_, err := f.svc.GoogleLogin(context.Background(), GoogleLoginInput{FirstName: "A", Email: "a@b.com"})
	assertAppError(t, err, apperror.ErrRestrictedUser)
}

func TestAuthService_ForgotPassword(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.addUser(t, &models.User{Email: "a@b.com", FirstName: "Ann", LastName: "Lee", EmailVerified: true}, "longenough1")
	ctx := context.Background()

	_, err := f.svc.ForgotPassword(ctx, "nobody@b.com")
	assertAppError(t, err, apperror.ErrResetUserNotFound)

	_, err = f.svc.ForgotPassword(ctx, "not-an-email")
	assertAppError(t, err, errInvalidEmail)

	user, err := f.svc.ForgotPassword(ctx, "A@B.com")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	require.Len(t, f.otps.rows, 1)
	assert.True(t, f.otps.rows[0].IsForPassword)
	f.mailer.AssertCalled(t, "SendTemplate", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.TemplateID == "d-reset" && msg.Data["first_name"] == "Ann Lee"
	}))
}

func TestAuthService_ResetPassword(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	res := f.signUp(t, "a@b.com")
	ctx := context.Background()

	err := f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "a@b.com", OTP: "1234", NewPassword: "new-password-1"})
	assertAppError(t, err, apperror.ErrInvalidResetOTP)

	err = f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "nobody@b.com", OTP: "1234", NewPassword: "new-password-1"})
	assertAppError(t, err, errResetNoSuchUser)

	err = f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "a@b.com"})
	assertAppError(t, err, errResetMissing)

	_, err = f.svc.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	code := f.otps.rows[len(f.otps.rows)-1].Code

	require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "a@b.com", OTP: code, NewPassword: "new-password-1"}))

	_, err = f.svc.Login(ctx, LoginInput{Email: "a@b.com", Password: "longenough1"})
	assertAppError(t, err, apperror.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, LoginInput{Email: "a@b.com", Password: "new-password-1"})
	require.NoError(t, err)

	// По умолчанию сессии не отзываются.
	assert.NotNil(t, f.users.stored(res.User.ID).RefreshToken)

	err = f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "a@b.com", OTP: code, NewPassword: "new-password-2"})
	assertAppError(t, err, apperror.ErrInvalidResetOTP)
}

func TestAuthService_ResetPasswordRevokesSessions(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{RevokeSessionsOnReset: true})
	res := f.signUp(t, "a@b.com")
	ctx := context.Background()

	_, err := f.svc.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	code := f.otps.rows[len(f.otps.rows)-1].Code

	require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "a@b.com", OTP: code, NewPassword: "new-password-1"}))
	assert.Nil(t, f.users.stored(res.User.ID).RefreshToken)

	_, err = f.svc.Refresh(ctx, res.TokenPair.RefreshToken)
	assertAppError(t, err, apperror.ErrRefreshMismatch)
}
