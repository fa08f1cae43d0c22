package bank

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	simulatorMissingFields = "Not all required properties were sent in the request"
	simulatorRejected      = "Card number ending in zero is not accepted by the issuer"
)

// Simulator is a stand-in acquirer. The last digit of the card number
// decides the result: 0 is rejected, odd digits are authorized and even
// digits are declined.
type Simulator struct {
	logger  *slog.Logger
	newCode func() string
}

// NewSimulator creates a simulator issuing random UUID authorization codes
func NewSimulator(logger *slog.Logger) *Simulator {
	return &Simulator{logger: logger, newCode: uuid.NewString}
}

type simulatorDecision int

const (
	decisionRejected simulatorDecision = iota
	decisionAuthorized
	decisionDeclined
)

func decide(cardNumber string) simulatorDecision {
	d := lastDigit(cardNumber)
	switch {
	case d == '0':
		return decisionRejected
	case d >= '1' && d <= '9' && (d-'0')%2 == 1:
		return decisionAuthorized
	case d >= '1' && d <= '9':
		return decisionDeclined
	default:
		return decisionRejected
	}
}

func (r authorizeRequest) complete() bool {
	return r.CardNumber != "" && r.ExpiryDate != "" && r.Currency != "" && r.Amount != 0 && r.CVV != ""
}

// Handler serves POST /payments using the HTTP acquirer contract
func (s *Simulator) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/payments", s.handlePayment)
	return r
}

func (s *Simulator) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.complete() {
		writeSimulatorJSON(w, http.StatusBadRequest, clientErrorResponse{ErrorMessage: simulatorMissingFields})
		return
	}

	switch decide(req.CardNumber) {
	case decisionAuthorized:
		authorized := true
		writeSimulatorJSON(w, http.StatusOK, okResponse{Authorized: &authorized, AuthorizationCode: s.newCode()})
	case decisionDeclined:
		authorized := false
		writeSimulatorJSON(w, http.StatusOK, okResponse{Authorized: &authorized})
	default:
		writeSimulatorJSON(w, http.StatusBadRequest, clientErrorResponse{ErrorMessage: simulatorRejected})
	}
}

func writeSimulatorJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ServeNATS answers authorization requests published on subject
func (s *Simulator) ServeNATS(nc *nats.Conn, subject string) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		resp := s.reply(msg.Data)
		data, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("marshal simulator reply", "error", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			s.logger.Error("respond to authorization request", "error", err)
		}
	})
}

func (s *Simulator) reply(data []byte) AuthorizeResponse {
	var req AuthorizeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return AuthorizeResponse{Success: false, Error: "INVALID_REQUEST", Message: simulatorMissingFields}
	}
	resp := AuthorizeResponse{TransactionID: req.TransactionID}
	if req.CardNumber == "" || req.ExpiryDate == "" || req.Currency == "" || req.Amount == 0 || req.CVV == "" {
		resp.Error = "INVALID_REQUEST"
		resp.Message = simulatorMissingFields
		return resp
	}

	switch decide(req.CardNumber) {
	case decisionAuthorized:
		resp.Success = true
		resp.Approved = true
		resp.AuthCode = s.newCode()
		resp.ResponseCode = "00"
		resp.ResponseMessage = "Approved"
	case decisionDeclined:
		resp.Success = true
		resp.ResponseCode = "05"
		resp.ResponseMessage = "Do not honor"
	default:
		resp.Error = "REJECTED"
		resp.Message = simulatorRejected
	}
	return resp
}
