package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Ограничения полей профиля, совпадают с размерами колонок users.
const (
	MaxNameLength        = 100
	MaxPlaceLength       = 100
	MaxPhoneLength       = 15
	MaxCountryCodeLength = 10
	MaxGenderLength      = 50
	MaxTitleLength       = 255
	MaxColorLength       = 50
	MaxCurrencyLength    = 10
)

// DateLayout: формат даты рождения и дней события.
const DateLayout = "2006-01-02"

// TimeLayout: формат времени начала и конца дня события.
const TimeLayout = "15:04"

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	phoneRegex       = regexp.MustCompile(`^[0-9]+$`)
	countryCodeRegex = regexp.MustCompile(`^\+?[0-9]+$`)
)

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AnyBlank сообщает, что хотя бы одно из значений пустое.
func AnyBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("invalid email format")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("invalid email format")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("invalid email format")
	}

	if !emailLocalRegex.MatchString(localPart) || !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// ValidatePhone проверяет номер телефона и код страны.
func ValidatePhone(countryCode, phoneNo string) error {
	if err := ValidateCountryCode(countryCode); err != nil {
		return err
	}
	return ValidatePhoneNo(phoneNo)
}

// ValidateCountryCode проверяет телефонный код страны: цифры с необязательным «+».
func ValidateCountryCode(countryCode string) error {
	if !countryCodeRegex.MatchString(countryCode) || len(countryCode) > MaxCountryCodeLength {
		return fmt.Errorf("invalid country_code")
	}
	return nil
}

// ValidatePhoneNo проверяет номер без кода страны.
func ValidatePhoneNo(phoneNo string) error {
	if !phoneRegex.MatchString(phoneNo) || len(phoneNo) > MaxPhoneLength {
		return fmt.Errorf("invalid phone_no")
	}
	return nil
}

// ValidateDate проверяет дату в формате YYYY-MM-DD. Пустая строка допустима.
func ValidateDate(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return fmt.Errorf("%s must be in YYYY-MM-DD format", fieldName)
	}
	return nil
}

// ValidateTime проверяет время в формате HH:MM.
func ValidateTime(fieldName, value string) error {
	if _, err := time.Parse(TimeLayout, value); err != nil || len(value) != len(TimeLayout) {
		return fmt.Errorf("%s must be in HH:MM format", fieldName)
	}
	return nil
}

// ValidateHexColor проверяет, что цвет задан в hex формате.
func ValidateHexColor(value string) bool {
	return strings.HasPrefix(value, "#") && len(value) <= MaxColorLength
}
