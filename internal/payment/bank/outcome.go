// Package bank submits payment intents to the acquiring bank.
package bank

import (
	"encoding/json"
	"fmt"

	"paygateway/internal/payment/domain"
)

// Outcome is the closed set of results of a single submission. The
// implementations are Authorized, Declined, Rejected and CommunicationError.
type Outcome interface {
	outcome()
}

// Authorized means the bank approved the payment
type Authorized struct {
	Code domain.AuthorizationCode
}

// Declined means the bank refused the payment
type Declined struct{}

// Rejected means the bank refused to process the request. Message is empty
// when the bank gave no reason.
type Rejected struct {
	Message string
}

// CommunicationError means no usable answer was obtained
type CommunicationError struct {
	Reason Reason
}

func (Authorized) outcome()         {}
func (Declined) outcome()           {}
func (Rejected) outcome()           {}
func (CommunicationError) outcome() {}

// Reason classifies a communication failure
type Reason string

const (
	ReasonUnrecognizedResponse Reason = "unrecognized_response"
	ReasonTransportError       Reason = "transport_error"
	ReasonTimeout              Reason = "timeout"
	ReasonException            Reason = "exception"
)

// Kind returns a short label for the outcome, used for logs and metrics
func Kind(o Outcome) string {
	switch v := o.(type) {
	case Authorized:
		return "authorized"
	case Declined:
		return "declined"
	case Rejected:
		return "rejected"
	case CommunicationError:
		return string(v.Reason)
	default:
		return "unknown"
	}
}

type outcomeRecord struct {
	Kind              string `json:"kind"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
	Message           string `json:"message,omitempty"`
	Reason            Reason `json:"reason,omitempty"`
}

// EncodeOutcome serializes an outcome so it can be cached
func EncodeOutcome(o Outcome) ([]byte, error) {
	var rec outcomeRecord
	switch v := o.(type) {
	case Authorized:
		rec = outcomeRecord{Kind: "authorized", AuthorizationCode: v.Code.String()}
	case Declined:
		rec = outcomeRecord{Kind: "declined"}
	case Rejected:
		rec = outcomeRecord{Kind: "rejected", Message: v.Message}
	case CommunicationError:
		rec = outcomeRecord{Kind: "communication_error", Reason: v.Reason}
	default:
		return nil, fmt.Errorf("encode outcome: unsupported type %T", o)
	}
	return json.Marshal(rec)
}

// DecodeOutcome is the inverse of EncodeOutcome
func DecodeOutcome(data []byte) (Outcome, error) {
	var rec outcomeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode outcome: %w", err)
	}

	switch rec.Kind {
	case "authorized":
		code, issues := domain.NewAuthorizationCode(rec.AuthorizationCode).Get()
		if issues != nil {
			return nil, fmt.Errorf("decode outcome: %w", issues)
		}
		return Authorized{Code: code}, nil
	case "declined":
		return Declined{}, nil
	case "rejected":
		return Rejected{Message: rec.Message}, nil
	case "communication_error":
		switch rec.Reason {
		case ReasonUnrecognizedResponse, ReasonTransportError, ReasonTimeout, ReasonException:
			return CommunicationError{Reason: rec.Reason}, nil
		}
		return nil, fmt.Errorf("decode outcome: unknown reason %q", rec.Reason)
	default:
		return nil, fmt.Errorf("decode outcome: unknown kind %q", rec.Kind)
	}
}
