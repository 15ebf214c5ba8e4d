// Package validator holds the credential format rules applied at sign-up.
package validator

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	minUsernameLength = 3
	minPasswordLength = 5
)

var validate = validator.New()

// ValidUsername trims raw and accepts it when it is at least three characters
// long and starts with a letter.
func ValidUsername(raw string) (string, bool) {
	username := strings.TrimSpace(raw)
	if utf8.RuneCountInString(username) < minUsernameLength {
		return "", false
	}
	first, _ := utf8.DecodeRuneInString(username)
	if !unicode.IsLetter(first) {
		return "", false
	}
	return username, true
}

// ValidEmail accepts local@domain addresses whose domain contains a dot.
func ValidEmail(raw string) bool {
	if err := validate.Var(raw, "required,email"); err != nil {
		return false
	}
	at := strings.LastIndexByte(raw, '@')
	domain := raw[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}

func ValidPassword(raw string) bool {
	return utf8.RuneCountInString(raw) >= minPasswordLength
}
