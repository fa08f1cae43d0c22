package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"paygateway/internal/payment/domain"
)

type okResponse struct {
	Authorized        *bool  `json:"authorized"`
	AuthorizationCode string `json:"authorization_code"`
}

type clientErrorResponse struct {
	ErrorMessage string `json:"error_message"`
}

// HTTPGateway talks to the acquirer's JSON API
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPGateway creates a gateway posting to {baseURL}/payments. The
// client should not set its own timeout; deadlines come from the context.
func NewHTTPGateway(baseURL string, client *http.Client, logger *slog.Logger) *HTTPGateway {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Submit posts the intent and maps the response to an Outcome
func (g *HTTPGateway) Submit(ctx context.Context, intent domain.PaymentIntent) Outcome {
	outcome := g.submit(ctx, intent)
	g.logger.Info("bank responded",
		"transport", TransportHTTP,
		"card", intent.CardNumber(),
		"amount", intent.Money().AmountMinor(),
		"outcome", Kind(outcome),
	)
	return outcome
}

func (g *HTTPGateway) submit(ctx context.Context, intent domain.PaymentIntent) Outcome {
	body, err := json.Marshal(newAuthorizeRequest(intent))
	if err != nil {
		return CommunicationError{Reason: ReasonException}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		g.logger.Error("building bank request", "error", err)
		return CommunicationError{Reason: ReasonException}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		reason := classifyHTTPError(err)
		g.logger.Warn("bank request failed", "error", err, "reason", reason)
		return CommunicationError{Reason: reason}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var ok okResponse
		if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
			if ctx.Err() != nil {
				return CommunicationError{Reason: ReasonTimeout}
			}
			return CommunicationError{Reason: ReasonUnrecognizedResponse}
		}
		switch {
		case ok.Authorized == nil:
			return CommunicationError{Reason: ReasonUnrecognizedResponse}
		case *ok.Authorized:
			return approved(ok.AuthorizationCode)
		default:
			return Declined{}
		}
	case http.StatusBadRequest:
		var ce clientErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&ce); err != nil {
			return Rejected{}
		}
		return Rejected{Message: ce.ErrorMessage}
	case http.StatusRequestTimeout:
		return CommunicationError{Reason: ReasonTransportError}
	default:
		return CommunicationError{Reason: ReasonUnrecognizedResponse}
	}
}

func classifyHTTPError(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ReasonTransportError
	}
	return ReasonException
}
