package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})

	original := newTestEvent("TestEvent")

	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	restored, err := serializer.Deserialize("TestEvent", data)
	require.NoError(t, err)

	restoredEvent, ok := restored.(*testEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), restoredEvent.EventID())
	assert.Equal(t, original.AggregateID(), restoredEvent.AggregateID())
	assert.Equal(t, original.Data, restoredEvent.Data)
}

func TestEventSerializer_Deserialize_UnknownType(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Deserialize("UnknownEvent", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestEventSerializer_Deserialize_InvalidPayload(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})

	_, err := serializer.Deserialize("TestEvent", []byte(`not json`))
	require.Error(t, err)
}

func TestEventSerializer_IsRegistered(t *testing.T) {
	serializer := NewEventSerializer()
	assert.False(t, serializer.IsRegistered("TestEvent"))

	serializer.Register("TestEvent", &testEvent{})
	assert.True(t, serializer.IsRegistered("TestEvent"))
}

func TestRegisterAllEvents(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	expected := []string{
		"OrderCreated",
		"OrderStatusChanged",
		"OrderDelivered",
		"OrderCancelled",
		"OrderReturned",
		"ReturnRequested",
		"ReturnStatusChanged",
		"ReturnCompleted",
		"TicketCreated",
		"TicketMessageCreated",
		"TicketStatusChanged",
	}

	for _, eventType := range expected {
		assert.True(t, serializer.IsRegistered(eventType), eventType)
	}
	assert.Len(t, serializer.RegisteredTypes(), len(expected))
}
