package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/pkg/apperror"
	"github.com/fairticket/ticketing-backend/internal/repository"
	"github.com/fairticket/ticketing-backend/internal/validation"
)

// UserRepository описывает хранилище пользователей для операций с профилем.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, id int64, upd *models.UserUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// WishlistReader читает вишлист пользователя.
type WishlistReader interface {
	GetByUser(ctx context.Context, userID int64) (*models.Wishlist, error)
}

// UserService управляет профилем текущего пользователя.
type UserService struct {
	users      UserRepository
	wishlists  WishlistReader
	bcryptCost int
}

// NewUserService создаёт сервис профиля.
func NewUserService(users UserRepository, wishlists WishlistReader, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{users: users, wishlists: wishlists, bcryptCost: bcryptCost}
}

var (
	errNoValidFields         = apperror.Validation("No valid fields to update")
	errChangePasswordMissing = apperror.Validation("Missing required fields: old_password, new_password")
)

// Profile возвращает пользователя вместе с его вишлистом.
func (s *UserService) Profile(ctx context.Context, userID int64) (*models.UserWithWishlist, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &models.UserWithWishlist{User: user, Wishlist: []int64{}}

	wishlist, err := s.wishlists.GetByUser(ctx, userID)
	switch {
	case err == nil:
		if len(wishlist.EventIDs) > 0 {
			result.Wishlist = []int64(wishlist.EventIDs)
		}
	case !errors.Is(err, repository.ErrWishlistNotFound):
		return nil, apperror.Internal(err, "Internal server error")
	}

	return result, nil
}

// Onboard заполняет анкету после регистрации. Email и видимость профиля здесь не меняются.
func (s *UserService) Onboard(ctx context.Context, userID int64, upd models.UserUpdate) (*models.User, error) {
	upd.Email = nil
	upd.IsPublic = nil
	return s.update(ctx, userID, &upd)
}

// UpdateProfile обновляет профиль, включая email и видимость.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, upd models.UserUpdate) (*models.User, error) {
	if upd.Email != nil {
		email := validation.NormalizeEmail(*upd.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, errInvalidEmail
		}
		upd.Email = &email
	}
	return s.update(ctx, userID, &upd)
}

func (s *UserService) update(ctx context.Context, userID int64, upd *models.UserUpdate) (*models.User, error) {
	if upd.IsEmpty() {
		return nil, errNoValidFields
	}
	if err := validateUserUpdate(upd); err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, apperror.ErrUserNotFound
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, apperror.ErrEmailInUse
		case errors.Is(err, repository.ErrPhoneTaken):
			return nil, apperror.ErrPhoneInUse
		default:
			return nil, apperror.Internal(err, "Internal server error")
		}
	}
	return user, nil
}

func validateUserUpdate(upd *models.UserUpdate) error {
	names := map[string]*string{"first_name": upd.FirstName, "last_name": upd.LastName}
	for field, value := range names {
		if value == nil {
			continue
		}
		if err := validation.ValidateLength(field, strings.TrimSpace(*value), 1, validation.MaxNameLength); err != nil {
			return apperror.Validation(err.Error())
		}
	}

	places := map[string]*string{"city": upd.City, "state": upd.State, "country": upd.Country}
	for field, value := range places {
		if value == nil {
			continue
		}
		if err := validation.ValidateLength(field, *value, 0, validation.MaxPlaceLength); err != nil {
			return apperror.Validation(err.Error())
		}
	}

	if upd.PhoneNo != nil {
		if err := validation.ValidatePhoneNo(*upd.PhoneNo); err != nil {
			return apperror.Validation(err.Error())
		}
	}
	if upd.CountryCode != nil {
		if err := validation.ValidateCountryCode(*upd.CountryCode); err != nil {
			return apperror.Validation(err.Error())
		}
	}

	if upd.Dob != nil {
		if err := validation.ValidateDate("dob", *upd.Dob); err != nil {
			return apperror.Validation(err.Error())
		}
	}
	if upd.Gender != nil {
		if err := validation.ValidateLength("gender", *upd.Gender, 0, validation.MaxGenderLength); err != nil {
			return apperror.Validation(err.Error())
		}
	}
	return nil
}

// ChangePassword меняет пароль после проверки текущего.
// У аккаунтов без пароля текущий пароль всегда считается неверным.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if validation.AnyBlank(oldPassword, newPassword) {
		return errChangePasswordMissing
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !user.HasPassword() ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(oldPassword)) != nil {
		return apperror.ErrOldPasswordMismatch
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperror.Validation(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return apperror.Internal(err, "Internal server error")
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrUserNotFound
		}
		return apperror.Internal(err, "Internal server error")
	}
	return nil
}

func (s *UserService) getUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Internal(err, "Internal server error")
	}
	return user, nil
}
