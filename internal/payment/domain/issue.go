package domain

import "strings"

// Issue codes returned to callers. The values are part of the public API.
const (
	ErrCardNumberRequired = "ERR_CARD_NUMBER_REQUIRED"
	ErrCardNumberLength   = "ERR_CARD_NUMBER_LENGTH"
	ErrCardNumberNumeric  = "ERR_CARD_NUMBER_NUMERIC"

	ErrExpiryMonthRange   = "ERR_EXPIRY_MONTH_RANGE"
	ErrExpiryYearTooSmall = "ERR_EXPIRY_YEAR_TOO_SMALL"
	ErrExpiryYearTooLarge = "ERR_EXPIRY_YEAR_TOO_LARGE"
	ErrExpiryYearPast     = "ERR_EXPIRY_YEAR_PAST"
	ErrExpiryDateInPast   = "ERR_EXPIRY_DATE_IN_PAST"

	ErrCurrencyRequired = "ERR_CURRENCY_REQUIRED"
	ErrCurrencyLength   = "ERR_CURRENCY_LENGTH"
	ErrCurrencyInvalid  = "ERR_CURRENCY_INVALID"

	ErrAmountNonPositive = "ERR_AMOUNT_NON_POSITIVE"

	ErrCVVRequired = "ERR_CVV_REQUIRED"
	ErrCVVLength   = "ERR_CVV_LENGTH"
	ErrCVVNumeric  = "ERR_CVV_NUMERIC"

	ErrRejectedByBank           = "ERR_REJECTED_BY_BANK"
	ErrAuthorizationCodeInvalid = "ERR_AUTHORIZATION_CODE_FROM_BANK_INVALID"

	ErrIdempotencyKeyMissing     = "ERR_IDEMPOTENCY_KEY_MISSING"
	ErrIdempotencyKeyAlreadyUsed = "ERR_IDEMPOTENCY_KEY_ALREADY_USED"
	ErrIdempotencyKeyInUse       = "ERR_IDEMPOTENCY_KEY_IN_USE"
)

// Issue is a single caller-facing validation or processing failure
type Issue struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

// NewIssue creates an issue
func NewIssue(code, message string) Issue {
	return Issue{Code: code, Message: message}
}

// Issues is an ordered list of issues. Order follows the order in which
// fields were checked.
type Issues []Issue

// Codes returns the issue codes in order
func (is Issues) Codes() []string {
	codes := make([]string, len(is))
	for i, issue := range is {
		codes[i] = issue.Code
	}
	return codes
}

func (is Issues) Error() string {
	parts := make([]string, len(is))
	for i, issue := range is {
		parts[i] = issue.Code + ": " + issue.Message
	}
	return strings.Join(parts, "; ")
}
