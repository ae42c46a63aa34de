package common

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptyPhoneNumber = errors.New("phone number cannot be empty")
	nonDigits           = regexp.MustCompile(`[^0-9]+`)
)

// NormalizePhoneNumber reduces a caller number to "+" followed by digits so the
// number Vapi reports matches the one a user typed into the dashboard.
// Ten-digit numbers are assumed to be North American.
func NormalizePhoneNumber(input string) (string, error) {
	digits := nonDigits.ReplaceAllString(strings.TrimSpace(input), "")
	if digits == "" {
		return "", ErrEmptyPhoneNumber
	}
	if len(digits) == 10 && !strings.HasPrefix(strings.TrimSpace(input), "+") {
		digits = "1" + digits
	}
	return "+" + digits, nil
}
