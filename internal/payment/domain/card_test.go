package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCardNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code string
	}{
		{name: "valid 16 digits", raw: "4111111111111111"},
		{name: "valid 14 digits", raw: "41111111111111"},
		{name: "valid 19 digits", raw: "4111111111111111111"},
		{name: "empty", raw: "", code: ErrCardNumberRequired},
		{name: "whitespace", raw: "   ", code: ErrCardNumberRequired},
		{name: "too short", raw: "123", code: ErrCardNumberLength},
		{name: "too long", raw: "12345678901234567890", code: ErrCardNumberLength},
		{name: "dashes", raw: "4111-1111-1111-1111", code: ErrCardNumberNumeric},
		{name: "short and non numeric reports length only", raw: "abc", code: ErrCardNumberLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewCardNumber(tt.raw)
			if tt.code == "" {
				require.True(t, res.IsOk(), "unexpected issues: %v", res.Issues())
				assert.Equal(t, tt.raw, res.Value().Digits())
				return
			}
			require.False(t, res.IsOk())
			assert.Equal(t, []string{tt.code}, res.Issues().Codes())
		})
	}
}

func TestCardNumberLastFour(t *testing.T) {
	card := NewCardNumber("4111111111111111").Value()
	assert.Equal(t, 1111, card.LastFour())

	leadingZeros := NewCardNumber("41111111110042").Value()
	assert.Equal(t, 42, leadingZeros.LastFour())
}

func TestCardNumberIsMasked(t *testing.T) {
	card := NewCardNumber("4111111111111234").Value()
	assert.Equal(t, "************1234", card.String())
	assert.Equal(t, "************1234", card.LogValue().String())
}

func TestNewCVV(t *testing.T) {
	tests := []struct {
		raw  string
		code string
	}{
		{raw: "123"},
		{raw: "1234"},
		{raw: "", code: ErrCVVRequired},
		{raw: "12", code: ErrCVVLength},
		{raw: "12345", code: ErrCVVLength},
		{raw: "12a", code: ErrCVVNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res := NewCVV(tt.raw)
			if tt.code == "" {
				require.True(t, res.IsOk())
				assert.Equal(t, tt.raw, res.Value().Digits())
				return
			}
			assert.Equal(t, []string{tt.code}, res.Issues().Codes())
		})
	}
}

func TestNewAuthorizationCode(t *testing.T) {
	assert.True(t, NewAuthorizationCode("0bb07405-6d44-4b50-a14f-7ae0beff13ad").IsOk())

	for _, raw := range []string{"", " ", "\t\n"} {
		res := NewAuthorizationCode(raw)
		assert.Equal(t, []string{ErrAuthorizationCodeInvalid}, res.Issues().Codes())
	}
}
