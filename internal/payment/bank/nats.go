package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"

	"paygateway/internal/payment/domain"
)

// SubjectAuthorize is the default request subject of the acquiring service
const SubjectAuthorize = "acquiring.authorize"

// AuthorizeRequest is sent to the acquiring service over NATS
type AuthorizeRequest struct {
	TransactionID string `json:"transactionId"`
	MerchantID    string `json:"merchantId"`
	CardNumber    string `json:"cardNumber"`
	ExpiryDate    string `json:"expiryDate"`
	Currency      string `json:"currency"`
	Amount        int64  `json:"amount"`
	CVV           string `json:"cvv"`
}

// AuthorizeResponse from the acquiring service. Success is false when the
// acquirer refused to process the request at all.
type AuthorizeResponse struct {
	Success         bool   `json:"success"`
	TransactionID   string `json:"transactionId"`
	Approved        bool   `json:"approved"`
	AuthCode        string `json:"authCode"`
	ResponseCode    string `json:"responseCode,omitempty"`
	ResponseMessage string `json:"responseMessage,omitempty"`
	Error           string `json:"error,omitempty"`
	Message         string `json:"message,omitempty"`
}

// NATSGateway authorizes payments via NATS request-reply
type NATSGateway struct {
	nc         *nats.Conn
	subject    string
	merchantID string
	logger     *slog.Logger
}

// NewNATSGateway creates a NATS gateway
func NewNATSGateway(nc *nats.Conn, subject, merchantID string, logger *slog.Logger) *NATSGateway {
	if subject == "" {
		subject = SubjectAuthorize
	}
	return &NATSGateway{
		nc:         nc,
		subject:    subject,
		merchantID: merchantID,
		logger:     logger,
	}
}

// Submit sends the intent and waits for the reply until ctx expires
func (g *NATSGateway) Submit(ctx context.Context, intent domain.PaymentIntent) Outcome {
	txnID := fmt.Sprintf("TXN-%s", ulid.Make().String())

	g.logger.Info("authorizing card",
		"transaction_id", txnID,
		"card", intent.CardNumber(),
		"amount", intent.Money().AmountMinor(),
		"currency", intent.Money().Currency().Code(),
	)

	base := newAuthorizeRequest(intent)
	reqData, err := json.Marshal(AuthorizeRequest{
		TransactionID: txnID,
		MerchantID:    g.merchantID,
		CardNumber:    base.CardNumber,
		ExpiryDate:    base.ExpiryDate,
		Currency:      base.Currency,
		Amount:        base.Amount,
		CVV:           base.CVV,
	})
	if err != nil {
		return CommunicationError{Reason: ReasonException}
	}

	msg, err := g.nc.RequestWithContext(ctx, g.subject, reqData)
	if err != nil {
		reason := classifyNATSError(err)
		g.logger.Warn("nats request failed", "transaction_id", txnID, "error", err, "reason", reason)
		return CommunicationError{Reason: reason}
	}

	var resp AuthorizeResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		g.logger.Warn("unreadable acquirer reply", "transaction_id", txnID, "error", err)
		return CommunicationError{Reason: ReasonUnrecognizedResponse}
	}

	outcome := outcomeFromReply(resp)
	g.logger.Info("card authorization completed",
		"transaction_id", txnID,
		"outcome", Kind(outcome),
		"response_code", resp.ResponseCode,
	)
	return outcome
}

func outcomeFromReply(resp AuthorizeResponse) Outcome {
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = resp.ResponseMessage
		}
		return Rejected{Message: msg}
	}
	if resp.Approved {
		return approved(resp.AuthCode)
	}
	return Declined{}
}

func classifyNATSError(err error) Reason {
	switch {
	case errors.Is(err, nats.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ReasonTimeout
	case errors.Is(err, nats.ErrNoResponders),
		errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrConnectionDraining),
		errors.Is(err, nats.ErrDisconnected),
		errors.Is(err, nats.ErrInvalidConnection):
		return ReasonTransportError
	default:
		return ReasonException
	}
}
