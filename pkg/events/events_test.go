package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRoundTripThroughEnvelope(t *testing.T) {
	ev, err := New(NotificationSendEvent, "storefront", "JSM-1", NotificationSendPayload{
		OrderID: "JSM-1", To: "a@example.com", Subject: "hi", Text: "body",
	})
	require.NoError(t, err)
	assert.Equal(t, "storefront.notification.send", ev.RoutingKey())

	wire, err := json.Marshal(ev)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(wire, &got))
	assert.Equal(t, ev.ID, got.ID)

	var p NotificationSendPayload
	require.NoError(t, got.Decode(&p))
	assert.Equal(t, "a@example.com", p.To)
	assert.Equal(t, "JSM-1", p.OrderID)
}

func TestDecodeRejectsWrongShape(t *testing.T) {
	ev := Event{EventType: NotificationSendEvent, Payload: json.RawMessage(`[1,2]`)}
	var p NotificationSendPayload
	assert.Error(t, ev.Decode(&p))
}
