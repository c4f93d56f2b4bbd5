package auth

import (
	"errors"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
)

const passwordSpecialRunes = `!@#$%^&*(),.?":{}|<>`

var errPasswordComplexity = errors.New("must contain at least 1 uppercase letter, 1 lowercase letter, 1 number, and 1 special character")

// PasswordComplexity is a validation rule enforcing the password policy:
// at least 8 characters with one uppercase letter, one lowercase letter,
// one digit, and one special character.
func PasswordComplexity(value any) error {
	password, _ := value.(string)

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecialRunes, r):
			special = true
		}
	}

	if len(password) < 8 || !upper || !lower || !digit || !special {
		return errPasswordComplexity
	}

	return nil
}

// ValidatePassword applies the password policy to a standalone value.
func ValidatePassword(password string) error {
	return validation.Validate(password,
		validation.Required,
		validation.Length(8, 100),
		validation.By(PasswordComplexity),
	)
}
