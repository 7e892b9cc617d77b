// Package validation проверяет текстовые поля, пришедшие извне: статусы и почтовые адреса.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxStatusLength     = 64
	MaxEmailLocalLength = 64
	MaxEmailDomainLen   = 255
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateStatus: статус: свободный текст, но без управляющих символов и не длиннее MaxStatusLength.
func ValidateStatus(status string) error {
	if err := ValidateNonEmpty("статус", status); err != nil {
		return err
	}
	if !utf8.ValidString(status) {
		return fmt.Errorf("статус содержит некорректную кодировку")
	}
	if err := ValidateLength("статус", status, 1, MaxStatusLength); err != nil {
		return err
	}
	for _, r := range status {
		if unicode.IsControl(r) {
			return fmt.Errorf("статус содержит управляющие символы")
		}
	}
	return nil
}

// ValidateEmail проверяет формат адреса получателя.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}
	local, domain := parts[0], parts[1]

	if len(local) == 0 || len(local) > MaxEmailLocalLength {
		return fmt.Errorf("локальная часть email должна быть от 1 до %d символов", MaxEmailLocalLength)
	}
	if len(domain) == 0 || len(domain) > MaxEmailDomainLen {
		return fmt.Errorf("доменная часть email должна быть от 1 до %d символов", MaxEmailDomainLen)
	}
	if !emailLocalRegex.MatchString(local) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domain) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}
	return nil
}
