package domain

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	cardNumberMinLength = 14
	cardNumberMaxLength = 19
	cvvMinLength        = 3
	cvvMaxLength        = 4
)

// CardNumber is a validated primary account number
type CardNumber struct {
	digits string
}

// NewCardNumber validates a raw card number. Checks run in order and stop at
// the first failure: required, length, numeric.
func NewCardNumber(raw string) Result[CardNumber] {
	if strings.TrimSpace(raw) == "" {
		return Fail[CardNumber](NewIssue(ErrCardNumberRequired, "Card number is required."))
	}
	if n := utf8.RuneCountInString(raw); n < cardNumberMinLength || n > cardNumberMaxLength {
		return Fail[CardNumber](NewIssue(ErrCardNumberLength, "Card number must be between 14 and 19 characters."))
	}
	if !isDigits(raw) {
		return Fail[CardNumber](NewIssue(ErrCardNumberNumeric, "Card number must only contain numeric characters."))
	}
	return Ok(CardNumber{digits: raw})
}

// Digits returns the full card number
func (c CardNumber) Digits() string {
	return c.digits
}

// LastFour returns the integer value of the last four digits, so "0042"
// yields 42.
func (c CardNumber) LastFour() int {
	if len(c.digits) < 4 {
		return 0
	}
	n, _ := strconv.Atoi(c.digits[len(c.digits)-4:])
	return n
}

// String returns the masked card number
func (c CardNumber) String() string {
	return maskCardNumber(c.digits)
}

// LogValue keeps the full number out of structured logs
func (c CardNumber) LogValue() slog.Value {
	return slog.StringValue(maskCardNumber(c.digits))
}

func maskCardNumber(digits string) string {
	if len(digits) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

// CVV is a validated card verification value
type CVV struct {
	digits string
}

// NewCVV validates a raw CVV: required, length, numeric.
func NewCVV(raw string) Result[CVV] {
	if strings.TrimSpace(raw) == "" {
		return Fail[CVV](NewIssue(ErrCVVRequired, "CVV is required."))
	}
	if n := utf8.RuneCountInString(raw); n < cvvMinLength || n > cvvMaxLength {
		return Fail[CVV](NewIssue(ErrCVVLength, "CVV must be between 3 and 4 characters."))
	}
	if !isDigits(raw) {
		return Fail[CVV](NewIssue(ErrCVVNumeric, "CVV must only contain numeric characters."))
	}
	return Ok(CVV{digits: raw})
}

// Digits returns the CVV
func (c CVV) Digits() string {
	return c.digits
}

// String never exposes the value
func (c CVV) String() string {
	return "***"
}

// LogValue never exposes the value
func (c CVV) LogValue() slog.Value {
	return slog.StringValue("***")
}

// isDigits accepts ASCII digits only.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
