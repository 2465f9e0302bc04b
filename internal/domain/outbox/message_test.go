package outbox

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

func TestNewMessage(t *testing.T) {
	saleID := int64(9)
	committed := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	event := ledger.NewEvent(ledger.Entry{
		ID:              42,
		Timestamp:       committed,
		Kind:            ledger.KindProfitToPayout,
		Description:     "40% of profit from sale #9",
		Amount:          decimal.RequireFromString("4.25"),
		SaleID:          &saleID,
		InvestmentAfter: decimal.RequireFromString("116"),
		PayoutAfter:     decimal.RequireFromString("4.25"),
	}, "corr-1", committed)

	msg, err := NewMessage(&event)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, msg.EventID)
	assert.Equal(t, event.EventID, msg.EventID)
	assert.Equal(t, int64(42), msg.EntryID)
	assert.Equal(t, shared.OutboxStatusPending, msg.Status)
	assert.Equal(t, 0, msg.Attempts)
	assert.Nil(t, msg.LastAttemptAt)
	assert.Equal(t, committed, msg.CreatedAt)

	decoded, err := msg.Event()
	require.NoError(t, err)
	assert.Equal(t, "corr-1", decoded.CorrelationID)
	assert.Equal(t, ledger.KindProfitToPayout, decoded.Entry.Kind)
	assert.True(t, decoded.Entry.Amount.Equal(event.Entry.Amount))
	assert.Equal(t, saleID, *decoded.Entry.SaleID)
	assert.Nil(t, decoded.Entry.PurchaseID)
}

func TestMessage_Event_BadPayload(t *testing.T) {
	msg := &Message{Payload: []byte(`{"entry":`)}
	_, err := msg.Event()
	assert.Error(t, err)
}

func TestMessage_StatusTransitions(t *testing.T) {
	msg := &Message{Status: shared.OutboxStatusPending}

	msg.IncrementAttempts()
	assert.Equal(t, 1, msg.Attempts)
	require.NotNil(t, msg.LastAttemptAt)

	msg.MarkAsFailed()
	assert.Equal(t, shared.OutboxStatusFailedToPublish, msg.Status)

	msg.MarkAsProcessed()
	assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)
	assert.WithinDuration(t, time.Now(), *msg.LastAttemptAt, time.Second)
}

func TestErrMessageNotFound_Is(t *testing.T) {
	err := ErrMessageNotFound{ID: 3}
	assert.ErrorIs(t, err, ErrMessageNotFound{})
	assert.NotErrorIs(t, err, ErrMessageNotFound{ID: 4})
	assert.Equal(t, "outbox message not found: 3", err.Error())
}
