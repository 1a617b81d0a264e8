package user

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

const (
	maxUsernameLength    = 256
	maxDisplayNameLength = 100
	minPasswordLength    = 6
)

func usernameProblems(username string) []string {
	switch {
	case username == "":
		return []string{"username is required"}
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return []string{fmt.Sprintf("username must be at most %d characters", maxUsernameLength)}
	}
	return nil
}

// validateRegistration returns the display name and password problems of
// req, in a stable order.
func validateRegistration(req RegisterRequest) []string {
	var msgs []string
	if utf8.RuneCountInString(req.DisplayName) > maxDisplayNameLength {
		msgs = append(msgs, fmt.Sprintf("display name must be at most %d characters", maxDisplayNameLength))
	}
	return append(msgs, passwordProblems(req.Password)...)
}

func passwordProblems(pw string) []string {
	if pw == "" {
		return []string{"password is required"}
	}
	var msgs []string
	if utf8.RuneCountInString(pw) < minPasswordLength {
		msgs = append(msgs, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	var digit, lower, upper, other bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r):
			other = true
		}
	}
	if !digit {
		msgs = append(msgs, "password must contain a digit")
	}
	if !lower {
		msgs = append(msgs, "password must contain a lowercase letter")
	}
	if !upper {
		msgs = append(msgs, "password must contain an uppercase letter")
	}
	if !other {
		msgs = append(msgs, "password must contain a non-alphanumeric character")
	}
	return msgs
}
