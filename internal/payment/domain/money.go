package domain

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// CurrencyInfo contains display metadata about a supported currency
type CurrencyInfo struct {
	Code       string
	MinorUnits int
	Symbol     string
}

// supportedCurrencies is the allow-list, in the order shown to callers.
var supportedCurrencies = []CurrencyInfo{
	{Code: "USD", MinorUnits: 2, Symbol: "$"},
	{Code: "EUR", MinorUnits: 2, Symbol: "€"},
	{Code: "GBP", MinorUnits: 2, Symbol: "£"},
}

var invalidCurrencyMessage = func() string {
	codes := make([]string, len(supportedCurrencies))
	for i, c := range supportedCurrencies {
		codes[i] = c.Code
	}
	return "Currency must be one of: " + strings.Join(codes, ", ")
}()

func lookupCurrency(code string) (CurrencyInfo, bool) {
	for _, c := range supportedCurrencies {
		if c.Code == code {
			return c, true
		}
	}
	return CurrencyInfo{}, false
}

// Currency is a supported ISO 4217 code, always upper case
type Currency struct {
	code string
}

// NewCurrency validates a currency code. Input is upper-cased before the
// length and allow-list checks.
func NewCurrency(raw string) Result[Currency] {
	if strings.TrimSpace(raw) == "" {
		return Fail[Currency](NewIssue(ErrCurrencyRequired, "Currency is required."))
	}
	code := strings.ToUpper(raw)
	if utf8.RuneCountInString(code) != 3 {
		return Fail[Currency](NewIssue(ErrCurrencyLength, "Currency must be exactly 3 characters."))
	}
	if _, ok := lookupCurrency(code); !ok {
		return Fail[Currency](NewIssue(ErrCurrencyInvalid, invalidCurrencyMessage))
	}
	return Ok(Currency{code: code})
}

// Code returns the ISO code
func (c Currency) Code() string {
	return c.code
}

func (c Currency) String() string {
	return c.code
}

// Money is a strictly positive amount in minor units of a supported currency
type Money struct {
	amountMinor int64
	currency    Currency
}

// NewMoney validates an amount for an already valid currency
func NewMoney(amountMinor int64, currency Currency) Result[Money] {
	if amountMinor <= 0 {
		return Fail[Money](NewIssue(ErrAmountNonPositive, "Amount must be greater than zero."))
	}
	return Ok(Money{amountMinor: amountMinor, currency: currency})
}

// AmountMinor returns the amount in minor units
func (m Money) AmountMinor() int64 {
	return m.amountMinor
}

// Currency returns the currency
func (m Money) Currency() Currency {
	return m.currency
}

// String returns a human-readable representation
func (m Money) String() string {
	info, ok := lookupCurrency(m.currency.code)
	if !ok {
		return fmt.Sprintf("%d %s (minor)", m.amountMinor, m.currency.code)
	}
	major := float64(m.amountMinor) / math.Pow(10, float64(info.MinorUnits))
	return fmt.Sprintf("%s%.*f", info.Symbol, info.MinorUnits, major)
}
