package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/fairticket/ticketing-backend/internal/logger"
	"github.com/fairticket/ticketing-backend/internal/mail"
	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/repository"
)

// ErrInvalidOTP не различает неверный код и неизвестный email.
var ErrInvalidOTP = errors.New("invalid OTP or email")

// OTPRepository описывает зависимости OTPService от хранилища кодов.
type OTPRepository interface {
	Create(ctx context.Context, otp *models.OTP) error
	Consume(ctx context.Context, email, code string, forPassword, invalidateAll bool) error
}

// OTPConfig задаёт диапазон кодов, политику инвалидации и шаблоны писем.
type OTPConfig struct {
	Min                int
	Max                int
	InvalidateAll      bool
	SignupTemplateID   string
	PasswordTemplateID string
}

// OTPService выпускает и проверяет одноразовые коды.
type OTPService struct {
	repo   OTPRepository
	mailer mail.Mailer
	cfg    OTPConfig
}

// NewOTPService создаёт сервис одноразовых кодов.
func NewOTPService(repo OTPRepository, mailer mail.Mailer, cfg OTPConfig) *OTPService {
	return &OTPService{
		repo:   repo,
		mailer: mailer,
		cfg:    cfg,
	}
}

// Issue сохраняет новый код и отправляет его письмом. Предыдущие коды остаются действительными.
func (s *OTPService) Issue(ctx context.Context, name, email string, isForPassword bool) (string, error) {
	code, err := s.generateCode()
	if err != nil {
		return "", fmt.Errorf("otp service: не удалось сгенерировать код: %w", err)
	}

	otp := &models.OTP{
		Email:         email,
		Code:          code,
		IsForPassword: isForPassword,
		Provider:      models.OTPProviderEmail,
	}
	if err := s.repo.Create(ctx, otp); err != nil {
		return "", fmt.Errorf("otp service: %w", err)
	}

	templateID := s.cfg.SignupTemplateID
	if isForPassword {
		templateID = s.cfg.PasswordTemplateID
	}

	msg := mail.Message{
		To:         email,
		TemplateID: templateID,
		Data: map[string]string{
			"first_name": name,
			"otp":        code,
		},
	}
	if err := s.mailer.SendTemplate(ctx, msg); err != nil {
		return "", fmt.Errorf("otp service: не удалось отправить код: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"otp_id":       otp.ID,
		"for_password": isForPassword,
	}).Info("otp service: код отправлен")

	return code, nil
}

// ValidateSignupOTP гасит код любого назначения.
func (s *OTPService) ValidateSignupOTP(ctx context.Context, email, code string) error {
	return s.consume(ctx, email, code, false)
}

// ValidatePasswordOTP гасит только код сброса пароля.
func (s *OTPService) ValidatePasswordOTP(ctx context.Context, email, code string) error {
	return s.consume(ctx, email, code, true)
}

func (s *OTPService) consume(ctx context.Context, email, code string, forPassword bool) error {
	if email == "" || code == "" {
		return ErrInvalidOTP
	}

	err := s.repo.Consume(ctx, email, code, forPassword, s.cfg.InvalidateAll)
	if errors.Is(err, repository.ErrOTPNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return fmt.Errorf("otp service: %w", err)
	}
	return nil
}

// generateCode возвращает равномерно распределённое число из [Min, Max], дополненное нулями до четырёх цифр.
func (s *OTPService) generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(s.cfg.Max-s.cfg.Min+1)))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+int64(s.cfg.Min)), nil
}
