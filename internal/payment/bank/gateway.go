package bank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paygateway/internal/payment/domain"
)

// Transports
const (
	TransportHTTP = "http"
	TransportNATS = "nats"
)

// Config holds acquiring bank configuration
type Config struct {
	Transport   string        `envconfig:"BANK_TRANSPORT" default:"http"`
	URL         string        `envconfig:"BANK_URL" default:"http://localhost:8080"`
	Timeout     time.Duration `envconfig:"BANK_TIMEOUT" default:"10s"`
	NATSSubject string        `envconfig:"BANK_NATS_SUBJECT" default:"acquiring.authorize"`
	MerchantID  string        `envconfig:"BANK_MERCHANT_ID" default:"paygateway"`
}

// Gateway submits an intent to the acquiring bank. Submit never returns an
// error: every failure is reported as a CommunicationError. It honors the
// deadline of ctx and reports its expiry as ReasonTimeout.
type Gateway interface {
	Submit(ctx context.Context, intent domain.PaymentIntent) Outcome
}

// authorizeRequest is the payload both transports send
type authorizeRequest struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	Currency   string `json:"currency"`
	Amount     int64  `json:"amount"`
	CVV        string `json:"cvv"`
}

func newAuthorizeRequest(intent domain.PaymentIntent) authorizeRequest {
	return authorizeRequest{
		CardNumber: intent.CardNumber().Digits(),
		ExpiryDate: formatExpiry(intent.ExpiryDate().Month(), intent.ExpiryDate().Year()),
		Currency:   intent.Money().Currency().Code(),
		Amount:     intent.Money().AmountMinor(),
		CVV:        intent.CVV().Digits(),
	}
}

func formatExpiry(month, year int) string {
	return fmt.Sprintf("%02d/%d", month, year)
}

// approved turns an approval into Authorized, or UnrecognizedResponse when
// the bank approved without a usable code.
func approved(rawCode string) Outcome {
	code, issues := domain.NewAuthorizationCode(rawCode).Get()
	if issues != nil {
		return CommunicationError{Reason: ReasonUnrecognizedResponse}
	}
	return Authorized{Code: code}
}

func lastDigit(cardNumber string) byte {
	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return 0
	}
	return cardNumber[len(cardNumber)-1]
}
