package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event represents a domain event envelope
type Event struct {
	ID            string          `json:"event_id"`
	Type          string          `json:"type"`
	Version       int             `json:"version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event
func NewEvent(eventType, aggregateType, aggregateID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            ulid.Make().String(),
		Type:          eventType,
		Version:       1,
		OccurredAt:    time.Now().UTC(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Data:          dataBytes,
	}, nil
}

// WithCorrelation sets the correlation ID
func (e *Event) WithCorrelation(correlationID string) *Event {
	e.CorrelationID = correlationID
	return e
}

// DecodeData decodes the event data into a struct
func (e *Event) DecodeData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

type correlationKey struct{}

// ContextWithCorrelationID returns ctx carrying the correlation ID stamped on
// events published under it
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation ID carried by ctx, or ""
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// EventPublisher publishes events to a message broker
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
}

// NopPublisher drops every event. It is used when publication is disabled.
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(context.Context, *Event) error { return nil }

// Payment event types
const (
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentDeclined   = "payment.declined"
)

// PaymentRecordedData is the data for payment.authorized and
// payment.declined events
type PaymentRecordedData struct {
	PaymentID          string    `json:"payment_id"`
	Status             string    `json:"status"`
	CardNumberLastFour int       `json:"card_number_last_four"`
	Amount             int64     `json:"amount"`
	Currency           string    `json:"currency"`
	RecordedAt         time.Time `json:"recorded_at"`
}
