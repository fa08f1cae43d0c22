package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygateway/internal/payment/domain"
)

var testClock = domain.FixedClock(time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

func validRequest() Request {
	return Request{
		CardNumber:  "2222405343248877",
		ExpiryMonth: 4,
		ExpiryYear:  2025,
		Currency:    "GBP",
		Amount:      100,
		CVV:         "123",
	}
}

func TestValidateValidRequest(t *testing.T) {
	intent, issues := NewValidator(testClock).Validate(validRequest()).Get()
	require.Nil(t, issues)

	assert.Equal(t, "2222405343248877", intent.CardNumber().Digits())
	assert.Equal(t, 8877, intent.CardNumber().LastFour())
	assert.Equal(t, 4, intent.ExpiryDate().Month())
	assert.Equal(t, 2025, intent.ExpiryDate().Year())
	assert.Equal(t, "GBP", intent.Money().Currency().Code())
	assert.Equal(t, int64(100), intent.Money().AmountMinor())
	assert.Equal(t, "123", intent.CVV().Digits())
}

func TestValidateAccumulatesIssuesInFieldOrder(t *testing.T) {
	req := Request{
		CardNumber:  "",
		ExpiryMonth: 13,
		ExpiryYear:  2020,
		Currency:    "XX",
		Amount:      0,
		CVV:         "12",
	}

	res := NewValidator(testClock).Validate(req)
	require.False(t, res.IsOk())
	assert.Equal(t, []string{
		domain.ErrCardNumberRequired,
		domain.ErrExpiryMonthRange,
		domain.ErrCurrencyLength,
		domain.ErrCVVLength,
	}, res.Issues().Codes())
}

func TestValidateSingleFieldFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		code   string
	}{
		{name: "card non numeric", mutate: func(r *Request) { r.CardNumber = "4111-1111-1111-1111" }, code: domain.ErrCardNumberNumeric},
		{name: "expiry last month", mutate: func(r *Request) { r.ExpiryMonth, r.ExpiryYear = 2, 2024 }, code: domain.ErrExpiryDateInPast},
		{name: "expiry last year", mutate: func(r *Request) { r.ExpiryMonth, r.ExpiryYear = 12, 2023 }, code: domain.ErrExpiryYearPast},
		{name: "expiry year too large", mutate: func(r *Request) { r.ExpiryYear = 10000 }, code: domain.ErrExpiryYearTooLarge},
		{name: "currency not allowed", mutate: func(r *Request) { r.Currency = "JPY" }, code: domain.ErrCurrencyInvalid},
		{name: "amount zero", mutate: func(r *Request) { r.Amount = 0 }, code: domain.ErrAmountNonPositive},
		{name: "amount negative", mutate: func(r *Request) { r.Amount = -10 }, code: domain.ErrAmountNonPositive},
		{name: "cvv missing", mutate: func(r *Request) { r.CVV = "" }, code: domain.ErrCVVRequired},
		{name: "cvv letters", mutate: func(r *Request) { r.CVV = "abc" }, code: domain.ErrCVVNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			res := NewValidator(testClock).Validate(req)
			assert.Equal(t, []string{tt.code}, res.Issues().Codes())
		})
	}
}

func TestValidateSkipsAmountWhenCurrencyInvalid(t *testing.T) {
	req := validRequest()
	req.Currency = ""
	req.Amount = -1

	res := NewValidator(testClock).Validate(req)
	assert.Equal(t, []string{domain.ErrCurrencyRequired}, res.Issues().Codes())
}

func TestValidateNormalizesCurrency(t *testing.T) {
	req := validRequest()
	req.Currency = "gbp"

	lower := NewValidator(testClock).Validate(req).Value()
	upper := NewValidator(testClock).Validate(validRequest()).Value()
	assert.Equal(t, "GBP", lower.Money().Currency().Code())
	assert.Equal(t, domain.Fingerprint(upper), domain.Fingerprint(lower))
}
