package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var (
	ErrInvalidNationalID = errors.New("invalid national ID")
	ErrInvalidPhone      = errors.New("invalid phone number")
)

// cleanNationalID keeps the digits and verifier letter of a RUT, upper-cased.
func cleanNationalID(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsDigit(r):
			return r
		case r == 'k' || r == 'K':
			return 'K'
		}
		return -1
	}, raw)
}

// checkDigit computes the mod-11 verifier of a RUT body.
func checkDigit(body string) byte {
	sum, multiplier := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * multiplier
		multiplier++
		if multiplier > 7 {
			multiplier = 2
		}
	}

	switch remainder := 11 - sum%11; remainder {
	case 11:
		return '0'
	case 10:
		return 'K'
	default:
		return byte('0' + remainder)
	}
}

func splitNationalID(raw string) (string, byte, bool) {
	cleaned := cleanNationalID(raw)
	if len(cleaned) < 2 || len(cleaned) > 10 {
		return "", 0, false
	}

	body, verifier := cleaned[:len(cleaned)-1], cleaned[len(cleaned)-1]
	if strings.ContainsRune(body, 'K') {
		return "", 0, false
	}
	body = strings.TrimLeft(body, "0")
	if body == "" {
		return "", 0, false
	}
	return body, verifier, true
}

// ValidNationalID reports whether raw is a RUT with a correct verifier digit.
func ValidNationalID(raw string) bool {
	body, verifier, ok := splitNationalID(raw)
	return ok && checkDigit(body) == verifier
}

// FormatNationalID renders a RUT as 12.345.678-5.
func FormatNationalID(raw string) (string, error) {
	body, verifier, ok := splitNationalID(raw)
	if !ok || checkDigit(body) != verifier {
		return "", errors.Wrapf(ErrInvalidNationalID, "%q", raw)
	}

	var sb strings.Builder
	for i, digit := range body {
		if i > 0 && (len(body)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(digit)
	}
	sb.WriteByte('-')
	sb.WriteByte(verifier)
	return sb.String(), nil
}

// phoneDigits strips punctuation and the +56 country code, leaving the 9-digit number.
func phoneDigits(raw string) (string, bool) {
	var sb strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case unicode.IsDigit(r):
			sb.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", false
		}
	}

	digits := sb.String()
	if len(digits) == 11 && strings.HasPrefix(digits, "56") {
		digits = digits[2:]
	}
	if len(digits) != 9 || digits[0] == '0' {
		return "", false
	}
	return digits, true
}

func ValidPhone(raw string) bool {
	_, ok := phoneDigits(raw)
	return ok
}

// FormatPhone renders a phone number as +56 9 1234 5678.
func FormatPhone(raw string) (string, error) {
	digits, ok := phoneDigits(raw)
	if !ok {
		return "", errors.Wrapf(ErrInvalidPhone, "%q", raw)
	}
	return fmt.Sprintf("+56 %s %s %s", digits[:1], digits[1:5], digits[5:]), nil
}
