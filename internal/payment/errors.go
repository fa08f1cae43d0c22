package payment

import (
	"errors"
	"fmt"

	"paygateway/internal/payment/bank"
	"paygateway/internal/payment/domain"
)

// DefaultRejectionMessage is used when the bank rejects without a reason
const DefaultRejectionMessage = "Bank rejected the payment"

var (
	// ErrIdempotencyKeyReused means the key was used before with a
	// different request.
	ErrIdempotencyKeyReused = errors.New("idempotency key already used with a different request")
	// ErrIdempotencyKeyBusy means another request with the same key is in
	// flight.
	ErrIdempotencyKeyBusy = errors.New("idempotency key is being processed")
)

// ValidationError carries every field issue found in a request
type ValidationError struct {
	Issues domain.Issues
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payment request: %s", e.Issues.Error())
}

// RejectedError means the bank refused to process the payment
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "rejected by bank: " + e.Message
}

// BankError means the bank could not be reached or gave no usable answer
type BankError struct {
	Reason bank.Reason
}

func (e *BankError) Error() string {
	return fmt.Sprintf("bank communication failed: %s", e.Reason)
}
