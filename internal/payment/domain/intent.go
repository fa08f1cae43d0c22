package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
)

// PaymentIntent is a fully validated payment request. It can only be built
// from already validated parts.
type PaymentIntent struct {
	card   CardNumber
	expiry FutureExpiryDate
	money  Money
	cvv    CVV
}

// NewPaymentIntent assembles an intent from validated parts
func NewPaymentIntent(card CardNumber, expiry FutureExpiryDate, money Money, cvv CVV) PaymentIntent {
	return PaymentIntent{card: card, expiry: expiry, money: money, cvv: cvv}
}

func (p PaymentIntent) CardNumber() CardNumber       { return p.card }
func (p PaymentIntent) ExpiryDate() FutureExpiryDate { return p.expiry }
func (p PaymentIntent) Money() Money                 { return p.money }
func (p PaymentIntent) CVV() CVV                     { return p.cvv }

// LogValue groups the loggable parts of the intent
func (p PaymentIntent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("card", p.card.String()),
		slog.Int("expiry_month", p.expiry.Month()),
		slog.Int("expiry_year", p.expiry.Year()),
		slog.String("currency", p.money.Currency().Code()),
		slog.Int64("amount", p.money.AmountMinor()),
	)
}

// Fingerprint returns the SHA-256 of the intent's canonical form as 64
// upper-case hex characters.
//
// The canonical form is card-month-year-cvv-currency-amount with decimal
// integers and no padding. Stored idempotency records depend on it; do not
// change the format.
func Fingerprint(p PaymentIntent) string {
	var sb strings.Builder
	sb.Grow(48)
	sb.WriteString(p.card.digits)
	sb.WriteByte('-')
	sb.WriteString(strconv.Itoa(p.expiry.month))
	sb.WriteByte('-')
	sb.WriteString(strconv.Itoa(p.expiry.year))
	sb.WriteByte('-')
	sb.WriteString(p.cvv.digits)
	sb.WriteByte('-')
	sb.WriteString(p.money.currency.code)
	sb.WriteByte('-')
	sb.WriteString(strconv.FormatInt(p.money.amountMinor, 10))

	sum := sha256.Sum256([]byte(sb.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
