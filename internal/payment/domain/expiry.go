package domain

import "time"

const (
	minExpiryYear = 1970
	maxExpiryYear = 9999
)

// Clock supplies the current time. Validation never reads the wall clock
// directly.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant
type FixedClock time.Time

// Now returns the fixed instant
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// ExpiryDate is a syntactically valid card expiry month and year
type ExpiryDate struct {
	month int
	year  int
}

// NewExpiryDate validates month then year, stopping at the first failure.
func NewExpiryDate(month, year int) Result[ExpiryDate] {
	if month < 1 || month > 12 {
		return Fail[ExpiryDate](NewIssue(ErrExpiryMonthRange, "Expiry month must be between 1 and 12."))
	}
	if year < minExpiryYear {
		return Fail[ExpiryDate](NewIssue(ErrExpiryYearTooSmall, "Expiry year must be greater than 1970."))
	}
	if year > maxExpiryYear {
		return Fail[ExpiryDate](NewIssue(ErrExpiryYearTooLarge, "Expiry year must be less than 10000."))
	}
	return Ok(ExpiryDate{month: month, year: year})
}

// Month returns the expiry month, 1-12
func (d ExpiryDate) Month() int {
	return d.month
}

// Year returns the four digit expiry year
func (d ExpiryDate) Year() int {
	return d.year
}

// FutureExpiryDate is an expiry date that has not passed relative to the
// clock it was checked against. A card stays valid through the last day of
// its expiry month, so the current month is accepted.
type FutureExpiryDate struct {
	ExpiryDate
}

// NewFutureExpiryDate checks d against the clock's current UTC month
func NewFutureExpiryDate(d ExpiryDate, clock Clock) Result[FutureExpiryDate] {
	now := clock.Now().UTC()
	if d.year < now.Year() {
		return Fail[FutureExpiryDate](NewIssue(ErrExpiryYearPast, "The expiry year is in the past."))
	}
	if d.year == now.Year() && d.month < int(now.Month()) {
		return Fail[FutureExpiryDate](NewIssue(ErrExpiryDateInPast, "The expiry date must be in the future."))
	}
	return Ok(FutureExpiryDate{ExpiryDate: d})
}
