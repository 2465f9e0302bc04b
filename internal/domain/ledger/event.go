package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Event carries one committed entry from the register to downstream consumers
type Event struct {
	EventID       uuid.UUID `json:"event_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CommittedAt   time.Time `json:"committed_at"`
	Entry         Entry     `json:"entry"`
}

// NewEvent wraps an entry committed at the given time
func NewEvent(entry Entry, correlationID string, committedAt time.Time) Event {
	return Event{
		EventID:       uuid.New(),
		CorrelationID: correlationID,
		CommittedAt:   committedAt,
		Entry:         entry,
	}
}
