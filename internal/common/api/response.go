package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Issue is a single error entry in an error response body
type Issue struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Issues []Issue `json:"issues"`
}

// Error codes produced outside field validation
const (
	ErrCodeRequestBodyInvalid = "ERR_REQUEST_BODY_INVALID"
	ErrCodeRateLimited        = "ERR_RATE_LIMITED"
	ErrCodeBankUnavailable    = "ERR_BANK_UNAVAILABLE"
	ErrCodeBankTimeout        = "ERR_BANK_TIMEOUT"
	ErrCodeInternal           = "ERR_INTERNAL"
	ErrCodePaymentNotFound    = "ERR_PAYMENT_NOT_FOUND"
)

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteIssues writes an error response carrying one or more issues
func WriteIssues(w http.ResponseWriter, status int, issues ...Issue) {
	if issues == nil {
		issues = []Issue{}
	}
	WriteJSON(w, status, ErrorResponse{Issues: issues})
}

// WriteError writes an error response with a single issue
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteIssues(w, status, Issue{Code: code, Message: message})
}

// BadRequest writes a 400 response
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeRequestBodyInvalid, message)
}

// NotFound writes a 404 response
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodePaymentNotFound, message)
}

// InternalError writes a 500 response
func InternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred")
}

// Validate is a shared validator instance
var Validate = validator.New()

// CanonicalUUID reports whether s is a UUID and returns it in lower-case
// hyphenated form.
func CanonicalUUID(s string) (string, bool) {
	if err := Validate.Var(strings.ToLower(s), "required,uuid"); err != nil {
		return "", false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// DecodeJSON decodes a JSON request body into v
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
