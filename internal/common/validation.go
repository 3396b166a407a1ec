package common

import (
	"strings"
)

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError("name is required")
	}
	if len(name) > 100 {
		return ValidationError("name must be at most 100 characters")
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError("email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return ValidationError("invalid email format")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return ValidationError("password must be at least 6 characters")
	}
	if len(password) > 100 {
		return ValidationError("password is too long")
	}
	return nil
}
