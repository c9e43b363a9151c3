package utils

import (
	"regexp"
)

var (
	internationalPhoneRegex = regexp.MustCompile(`^\+\d{1,3}\s?\d{10}$`)
	nonDigitRegex           = regexp.MustCompile(`\D`)
)

// IsValidPhone accepts "+CC NNNNNNNNNN" or any formatting of exactly ten
// digits.
func IsValidPhone(phone string) bool {
	if internationalPhoneRegex.MatchString(phone) {
		return true
	}
	return len(nonDigitRegex.ReplaceAllString(phone, "")) == 10
}

// MaskPhone keeps the last four digits.
func MaskPhone(phone string) string {
	digits := nonDigitRegex.ReplaceAllString(phone, "")
	if len(digits) <= 4 {
		return "****"
	}
	return "******" + digits[len(digits)-4:]
}
