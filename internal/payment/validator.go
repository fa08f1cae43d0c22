// Package payment runs the idempotent payment submission pipeline.
package payment

import (
	"paygateway/internal/payment/domain"
)

// Request is an unvalidated payment request as received from a merchant
type Request struct {
	CardNumber  string `json:"cardNumber"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	CVV         string `json:"cvv"`
}

// Validator turns requests into payment intents
type Validator struct {
	clock domain.Clock
}

// NewValidator creates a validator that checks expiry dates against clock
func NewValidator(clock domain.Clock) *Validator {
	return &Validator{clock: clock}
}

// Validate checks every field and reports all failing fields at once, in
// the order card number, expiry, currency and amount, CVV. Within a field
// only the first failing check is reported. The amount is only checked when
// the currency is valid.
func (v *Validator) Validate(req Request) domain.Result[domain.PaymentIntent] {
	var c domain.Collector

	card := domain.Take(&c, domain.NewCardNumber(req.CardNumber))
	expiry := domain.Take(&c, domain.Bind(
		domain.NewExpiryDate(req.ExpiryMonth, req.ExpiryYear),
		func(d domain.ExpiryDate) domain.Result[domain.FutureExpiryDate] {
			return domain.NewFutureExpiryDate(d, v.clock)
		},
	))
	money := domain.Take(&c, domain.Bind(
		domain.NewCurrency(req.Currency),
		func(cur domain.Currency) domain.Result[domain.Money] {
			return domain.NewMoney(req.Amount, cur)
		},
	))
	cvv := domain.Take(&c, domain.NewCVV(req.CVV))

	if c.Failed() {
		issues := c.Issues()
		return domain.Fail[domain.PaymentIntent](issues[0], issues[1:]...)
	}
	return domain.Ok(domain.NewPaymentIntent(card, expiry, money, cvv))
}
