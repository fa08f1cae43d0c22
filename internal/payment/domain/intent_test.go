package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClock = FixedClock(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))

func mustIntent(t *testing.T, card string, month, year int, cvv, currency string, amount int64) PaymentIntent {
	t.Helper()

	c := NewCardNumber(card)
	require.True(t, c.IsOk())
	e := Bind(NewExpiryDate(month, year), func(d ExpiryDate) Result[FutureExpiryDate] {
		return NewFutureExpiryDate(d, testClock)
	})
	require.True(t, e.IsOk())
	m := Bind(NewCurrency(currency), func(cur Currency) Result[Money] {
		return NewMoney(amount, cur)
	})
	require.True(t, m.IsOk())
	v := NewCVV(cvv)
	require.True(t, v.IsOk())

	return NewPaymentIntent(c.Value(), e.Value(), m.Value(), v.Value())
}

func TestFingerprintKnownValues(t *testing.T) {
	tests := []struct {
		intent PaymentIntent
		want   string
	}{
		{
			intent: mustIntent(t, "2222405343248877", 4, 2025, "123", "GBP", 100),
			want:   "1B19C3C2C47B15A836D04E7E4F74EC5ED2728FF544C70B011C3216DB129C5316",
		},
		{
			intent: mustIntent(t, "4111111111111111", 12, 2030, "123", "usd", 1050),
			want:   "B34E5BBC7D76586FBB343ADDB5F7FD5B13F2931D10524014B843287984A5A440",
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Fingerprint(tt.intent))
	}
}

func TestFingerprintDistinguishesFields(t *testing.T) {
	base := mustIntent(t, "4111111111111111", 12, 2030, "123", "GBP", 100)
	variants := []PaymentIntent{
		mustIntent(t, "4111111111111112", 12, 2030, "123", "GBP", 100),
		mustIntent(t, "4111111111111111", 11, 2030, "123", "GBP", 100),
		mustIntent(t, "4111111111111111", 12, 2031, "123", "GBP", 100),
		mustIntent(t, "4111111111111111", 12, 2030, "124", "GBP", 100),
		mustIntent(t, "4111111111111111", 12, 2030, "123", "EUR", 100),
		mustIntent(t, "4111111111111111", 12, 2030, "123", "GBP", 101),
	}

	fp := Fingerprint(base)
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint(mustIntent(t, "4111111111111111", 12, 2030, "123", "gbp", 100)))
	for _, v := range variants {
		assert.NotEqual(t, fp, Fingerprint(v))
	}
}

func TestStoredPaymentFromIntent(t *testing.T) {
	intent := mustIntent(t, "41111111110042", 12, 2030, "123", "EUR", 2500)
	at := time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC)

	authorized := NewAuthorizedPayment("id-1", intent, NewAuthorizationCode("AUTH1").Value(), at)
	assert.Equal(t, StatusAuthorized, authorized.Status)
	assert.Equal(t, "AUTH1", authorized.AuthorizationCode)
	assert.Equal(t, 42, authorized.CardNumberLastFour)
	assert.Equal(t, 12, authorized.ExpiryMonth)
	assert.Equal(t, 2030, authorized.ExpiryYear)
	assert.Equal(t, "EUR", authorized.Currency)
	assert.Equal(t, int64(2500), authorized.AmountMinor)

	declined := NewDeclinedPayment("id-2", intent, at)
	assert.Equal(t, StatusDeclined, declined.Status)
	assert.Empty(t, declined.AuthorizationCode)
}

func TestCollectorKeepsFieldOrder(t *testing.T) {
	var c Collector
	Take(&c, NewCardNumber(""))
	Take(&c, NewCVV("1"))
	Take(&c, NewCurrency("GBP"))

	assert.True(t, c.Failed())
	assert.Equal(t, []string{ErrCardNumberRequired, ErrCVVLength}, c.Issues().Codes())
}
