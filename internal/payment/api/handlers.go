package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paygateway/internal/common/api"
	"paygateway/internal/common/database"
	"paygateway/internal/common/middleware"
	"paygateway/internal/payment"
	"paygateway/internal/payment/bank"
	"paygateway/internal/payment/domain"
)

// IdempotencyKeyHeader carries the client-chosen UUID for a submission
const IdempotencyKeyHeader = "Idempotency-Key"

// Handler handles payment HTTP requests
type Handler struct {
	service *payment.Service
	logger  *slog.Logger
}

// NewHandler creates a new payment handler
func NewHandler(service *payment.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes returns the payment routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.SubmitPayment)
	r.Get("/{id}", h.GetPayment)

	return r
}

// PaymentResponse is the API view of a stored payment
type PaymentResponse struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CardNumberLastFour int    `json:"cardNumberLastFour"`
	ExpiryMonth        int    `json:"expiryMonth"`
	ExpiryYear         int    `json:"expiryYear"`
	Currency           string `json:"currency"`
	Amount             int64  `json:"amount"`
}

func toResponse(p *domain.StoredPayment) PaymentResponse {
	return PaymentResponse{
		ID:                 p.ID,
		Status:             string(p.Status),
		CardNumberLastFour: p.CardNumberLastFour,
		ExpiryMonth:        p.ExpiryMonth,
		ExpiryYear:         p.ExpiryYear,
		Currency:           p.Currency,
		Amount:             p.AmountMinor,
	}
}

// SubmitPayment handles POST /payments
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	key, ok := api.CanonicalUUID(r.Header.Get(IdempotencyKeyHeader))
	if !ok {
		api.WriteError(w, http.StatusBadRequest, domain.ErrIdempotencyKeyMissing,
			"Idempotency-Key header is required and must be a UUID.")
		return
	}

	var req payment.Request
	if err := api.DecodeJSON(r, &req); err != nil {
		api.BadRequest(w, "Request body must be a JSON payment request.")
		return
	}

	p, err := h.service.Submit(r.Context(), key, req)
	if err != nil {
		h.writeSubmitError(w, r, key, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, r *http.Request, key string, err error) {
	var (
		verr     *payment.ValidationError
		rejected *payment.RejectedError
		bankErr  *payment.BankError
	)

	switch {
	case errors.As(err, &verr):
		issues := make([]api.Issue, 0, len(verr.Issues))
		for _, is := range verr.Issues {
			issues = append(issues, api.Issue{Code: is.Code, Message: is.Message})
		}
		api.WriteIssues(w, http.StatusBadRequest, issues...)

	case errors.Is(err, payment.ErrIdempotencyKeyReused):
		api.WriteError(w, http.StatusBadRequest, domain.ErrIdempotencyKeyAlreadyUsed,
			"Idempotency key was already used with a different payment request.")

	case errors.Is(err, payment.ErrIdempotencyKeyBusy):
		api.WriteError(w, http.StatusTooManyRequests, domain.ErrIdempotencyKeyInUse,
			"A request with this idempotency key is still being processed.")

	case errors.As(err, &rejected):
		api.WriteError(w, http.StatusBadRequest, domain.ErrRejectedByBank, rejected.Message)

	case errors.As(err, &bankErr):
		switch bankErr.Reason {
		case bank.ReasonUnrecognizedResponse, bank.ReasonTransportError:
			api.WriteError(w, http.StatusBadGateway, api.ErrCodeBankUnavailable, "The bank could not be reached.")
		case bank.ReasonTimeout:
			api.WriteError(w, http.StatusGatewayTimeout, api.ErrCodeBankTimeout, "The bank did not respond in time.")
		default:
			h.logger.Error("bank call failed", "idempotency_key", key, "reason", bankErr.Reason,
				"correlation_id", middleware.GetCorrelationID(r.Context()))
			api.InternalError(w)
		}

	default:
		h.logger.Error("payment submission failed", "idempotency_key", key, "error", err,
			"correlation_id", middleware.GetCorrelationID(r.Context()))
		api.InternalError(w)
	}
}

// GetPayment handles GET /payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := api.CanonicalUUID(chi.URLParam(r, "id"))
	if !ok {
		api.NotFound(w, "payment not found")
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			api.NotFound(w, "payment not found")
			return
		}
		h.logger.Error("get payment failed", "payment_id", id, "error", err)
		api.InternalError(w)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(p))
}
