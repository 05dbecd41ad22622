package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus()

	var got []string
	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		got = append(got, "first")
		return nil
	})
	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		got = append(got, "second")
		return nil
	})
	bus.Subscribe(EventChatMessage, func(event *Event) error {
		got = append(got, "other")
		return nil
	})

	bus.Publish(&Event{Type: EventBookingCreated})

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestPublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received BookingEventPayload
	bus.Subscribe(EventBookingStatusChanged, func(event *Event) error {
		return json.Unmarshal(event.Payload, &received)
	})

	payload := BookingEventPayload{BookingID: 7, Status: "paid", OldStatus: "new"}
	require.NoError(t, bus.PublishJSON(EventBookingStatusChanged, payload))

	assert.Equal(t, int64(7), received.BookingID)
	assert.Equal(t, "paid", received.Status)
	assert.Equal(t, "new", received.OldStatus)
}

func TestPublishJSONOnNilBus(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventChatMessage, ChatEventPayload{}))
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus()

	called := false
	bus.Subscribe(EventNoteAdded, func(event *Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(EventNoteAdded, func(event *Event) error {
		called = true
		return nil
	})

	bus.Publish(&Event{Type: EventNoteAdded})
	assert.True(t, called)
}
