// Package validation holds the input checks shared by request DTOs.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxEmailLen    = 254
	minPasswordLen = 8
	maxPasswordLen = 128

	// MaxNameLen bounds user, company and location names.
	MaxNameLen = 255
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email trims s and reports what is wrong with it, if anything.
func Email(s string) (string, string) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return s, "Email is required"
	case len(s) > maxEmailLen, !emailPattern.MatchString(s):
		return s, "Invalid email format"
	}
	return s, ""
}

func isSpecial(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

var passwordClasses = []struct {
	has func(rune) bool
	msg string
}{
	{unicode.IsUpper, "Password must contain at least one uppercase letter"},
	{unicode.IsLower, "Password must contain at least one lowercase letter"},
	{unicode.IsNumber, "Password must contain at least one number"},
	{isSpecial, "Password must contain at least one special character"},
}

// PasswordProblem returns the first strength rule password breaks, or "".
func PasswordProblem(password string) string {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen {
		return "Password must be at least 8 characters"
	}
	if n > maxPasswordLen {
		return "Password must be at most 128 characters"
	}
	for _, class := range passwordClasses {
		if strings.IndexFunc(password, class.has) < 0 {
			return class.msg
		}
	}
	return ""
}

// Text drops control characters, trims surrounding space and keeps at most
// maxRunes runes. maxRunes <= 0 means no limit.
func Text(s string, maxRunes int) string {
	s = strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))

	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:maxRunes]))
}
