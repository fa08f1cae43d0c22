package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpiryDate(t *testing.T) {
	tests := []struct {
		name  string
		month int
		year  int
		code  string
	}{
		{name: "valid", month: 4, year: 2030},
		{name: "lower bounds", month: 1, year: 1970},
		{name: "upper bounds", month: 12, year: 9999},
		{name: "month zero", month: 0, year: 2030, code: ErrExpiryMonthRange},
		{name: "month thirteen", month: 13, year: 2030, code: ErrExpiryMonthRange},
		{name: "year too small", month: 1, year: 1969, code: ErrExpiryYearTooSmall},
		{name: "year too large", month: 1, year: 10000, code: ErrExpiryYearTooLarge},
		{name: "month checked before year", month: 0, year: 0, code: ErrExpiryMonthRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewExpiryDate(tt.month, tt.year)
			if tt.code == "" {
				require.True(t, res.IsOk())
				assert.Equal(t, tt.month, res.Value().Month())
				assert.Equal(t, tt.year, res.Value().Year())
				return
			}
			assert.Equal(t, []string{tt.code}, res.Issues().Codes())
		})
	}
}

func TestNewFutureExpiryDate(t *testing.T) {
	clock := FixedClock(time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC))

	tests := []struct {
		name  string
		month int
		year  int
		code  string
	}{
		{name: "current month is still valid", month: 6, year: 2026},
		{name: "later this year", month: 7, year: 2026},
		{name: "earlier month next year", month: 1, year: 2027},
		{name: "previous month", month: 5, year: 2026, code: ErrExpiryDateInPast},
		{name: "previous year", month: 12, year: 2025, code: ErrExpiryYearPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date := NewExpiryDate(tt.month, tt.year).Value()
			res := NewFutureExpiryDate(date, clock)
			if tt.code == "" {
				require.True(t, res.IsOk())
				assert.Equal(t, tt.month, res.Value().Month())
				return
			}
			assert.Equal(t, []string{tt.code}, res.Issues().Codes())
		})
	}
}

func TestFutureExpiryDateUsesUTC(t *testing.T) {
	// 23:30 on 31 May in New York is already June in UTC.
	ny := time.FixedZone("EDT", -4*60*60)
	clock := FixedClock(time.Date(2026, time.May, 31, 23, 30, 0, 0, ny))

	res := NewFutureExpiryDate(NewExpiryDate(5, 2026).Value(), clock)
	assert.Equal(t, []string{ErrExpiryDateInPast}, res.Issues().Codes())
}
