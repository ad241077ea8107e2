package domain

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var phoneRe = regexp.MustCompile(`^\d{11}$`)

var (
	ErrFullName = errors.New("full name must be last, first and middle name separated by spaces")
	ErrPhone    = errors.New("phone must be exactly 11 digits")
	ErrPassword = errors.New("password must be at least 8 characters and not only digits")
)

type FullName struct {
	Last   string
	First  string
	Middle string
}

func (n FullName) String() string {
	return n.Last + " " + n.First + " " + n.Middle
}

func SplitFullName(s string) (FullName, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return FullName{}, ErrFullName
	}
	return FullName{Last: parts[0], First: parts[1], Middle: parts[2]}, nil
}

func ValidatePhone(phone string) error {
	if !phoneRe.MatchString(phone) {
		return ErrPhone
	}
	return nil
}

func ValidatePassword(pw string) error {
	if len([]rune(pw)) < 8 {
		return ErrPassword
	}
	for _, r := range pw {
		if !unicode.IsDigit(r) {
			return nil
		}
	}
	return ErrPassword
}
