package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDFromContext(t *testing.T) {
	assert.Empty(t, CorrelationID(context.Background()))

	ctx := ContextWithCorrelationID(context.Background(), "01HQ3J5V7Z")
	assert.Equal(t, "01HQ3J5V7Z", CorrelationID(ctx))
}

func TestNewEventCarriesData(t *testing.T) {
	e, err := NewEvent(EventPaymentDeclined, "payment", "pay-1", PaymentRecordedData{PaymentID: "pay-1", Status: "Declined"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, 1, e.Version)

	var data PaymentRecordedData
	require.NoError(t, e.DecodeData(&data))
	assert.Equal(t, "Declined", data.Status)
}
