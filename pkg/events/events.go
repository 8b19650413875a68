package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	NotificationSendEvent EventType = "notification.send"
)

// Event is the envelope published on the storefront exchange. Payload is
// kept raw so consumers can decode the concrete type for EventType.
type Event struct {
	ID            uuid.UUID       `json:"id"`
	EventType     EventType       `json:"event_type"`
	AggregateID   string          `json:"aggregate_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
	Service       string          `json:"service"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

func New(eventType EventType, service, aggregateID string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("event payload serialization error: %w", err)
	}
	return Event{
		ID:          uuid.New(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     raw,
		Timestamp:   time.Now().UTC(),
		Service:     service,
	}, nil
}

func (e Event) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("event payload %s decode error: %w", e.EventType, err)
	}
	return nil
}

// RoutingKey is the topic key consumers bind to.
func (e Event) RoutingKey() string {
	return fmt.Sprintf("%s.%s", e.Service, e.EventType)
}

type NotificationSendPayload struct {
	OrderID string `json:"order_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}
