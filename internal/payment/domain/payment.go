package domain

import "time"

// Status is the persisted outcome of a payment
type Status string

const (
	StatusAuthorized Status = "Authorized"
	StatusDeclined   Status = "Declined"
)

// StoredPayment is the record of a payment the acquirer authorized or
// declined. It is written once and never updated.
type StoredPayment struct {
	ID                 string    `json:"id"`
	Status             Status    `json:"status"`
	AuthorizationCode  string    `json:"authorization_code,omitempty"`
	CardNumberLastFour int       `json:"card_number_last_four"`
	ExpiryMonth        int       `json:"expiry_month"`
	ExpiryYear         int       `json:"expiry_year"`
	Currency           string    `json:"currency"`
	AmountMinor        int64     `json:"amount_minor"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewAuthorizedPayment records an approval
func NewAuthorizedPayment(id string, intent PaymentIntent, code AuthorizationCode, at time.Time) *StoredPayment {
	p := newStoredPayment(id, intent, at)
	p.Status = StatusAuthorized
	p.AuthorizationCode = code.String()
	return p
}

// NewDeclinedPayment records a decline
func NewDeclinedPayment(id string, intent PaymentIntent, at time.Time) *StoredPayment {
	p := newStoredPayment(id, intent, at)
	p.Status = StatusDeclined
	return p
}

func newStoredPayment(id string, intent PaymentIntent, at time.Time) *StoredPayment {
	return &StoredPayment{
		ID:                 id,
		CardNumberLastFour: intent.CardNumber().LastFour(),
		ExpiryMonth:        intent.ExpiryDate().Month(),
		ExpiryYear:         intent.ExpiryDate().Year(),
		Currency:           intent.Money().Currency().Code(),
		AmountMinor:        intent.Money().AmountMinor(),
		CreatedAt:          at.UTC(),
	}
}
