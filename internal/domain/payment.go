package domain

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{1,8}$`)
	cardCodeRe   = regexp.MustCompile(`^\d{3}$`)
	cardMonthRe  = regexp.MustCompile(`^0?[1-9]$|^1[0-2]$`)
	cardYearRe   = regexp.MustCompile(`^\d{4}$`)
)

const (
	MsgOddNumber     = "payment declined: card number is odd (simulated parity error)"
	MsgEndsWithZero  = "payment declined: card number ends with 0 (simulated error)"
	maskedVisibleLen = 4
)

type Card struct {
	Name   string
	Number string
	Month  string
	Year   string
	Code   string
}

// ValidCard is a card whose fields passed validation.
type ValidCard struct {
	Name   string
	Number string
	Month  int
	Year   int
	Code   string
}

// ValidateCard checks field formats and expiry against now. A card is
// expired once its expiry month is before the current month.
func ValidateCard(c Card, now time.Time) (ValidCard, error) {
	var errs []error
	name := strings.TrimSpace(c.Name)
	if name == "" {
		errs = append(errs, errors.New("name: required"))
	}
	if !cardNumberRe.MatchString(c.Number) {
		errs = append(errs, errors.New("number: must be 1 to 8 digits"))
	}
	if !cardCodeRe.MatchString(c.Code) {
		errs = append(errs, errors.New("code: must be 3 digits"))
	}
	if !cardMonthRe.MatchString(c.Month) {
		errs = append(errs, errors.New("month: must be between 1 and 12"))
	}
	if !cardYearRe.MatchString(c.Year) {
		errs = append(errs, errors.New("year: must be 4 digits"))
	}
	if len(errs) > 0 {
		return ValidCard{}, errors.Join(errs...)
	}

	month, _ := strconv.Atoi(c.Month)
	year, _ := strconv.Atoi(c.Year)
	if year < now.Year() {
		return ValidCard{}, errors.New("year: card year is in the past")
	}
	expiry := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if expiry.Before(current) {
		return ValidCard{}, errors.New("card is expired")
	}

	return ValidCard{Name: name, Number: c.Number, Month: month, Year: year, Code: c.Code}, nil
}

// SimulateCharge decides the outcome from the card number alone: odd
// numbers and numbers ending in zero are declined.
func SimulateCharge(number string) (bool, string) {
	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil {
		return false, "payment declined: card number is not numeric"
	}
	if n%2 != 0 {
		return false, MsgOddNumber
	}
	if strings.HasSuffix(number, "0") {
		return false, MsgEndsWithZero
	}
	return true, ""
}

func MaskCardNumber(number string) string {
	if len(number) <= maskedVisibleLen {
		return number
	}
	return strings.Repeat("*", len(number)-maskedVisibleLen) + number[len(number)-maskedVisibleLen:]
}
