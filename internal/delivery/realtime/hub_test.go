package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func receive(t *testing.T, client *Client) wsMessage {
	t.Helper()

	select {
	case raw := <-client.send:
		var msg wsMessage
		require.NoError(t, json.Unmarshal(raw, &msg))

		return msg
	default:
		t.Fatal("expected a queued message")

		return wsMessage{}
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Broadcast(&service.BroadcastEvent{
		Event:   "payment.succeeded",
		Payload: `{"id":"pi_123"}`,
	})

	for _, client := range []*Client{alice, bob} {
		msg := receive(t, client)
		assert.Equal(t, "payment.succeeded", msg.Event)
		assert.JSONEq(t, `{"id":"pi_123"}`, string(msg.Payload))
	}
}

func TestHub_TargetedBroadcastSkipsOtherUsers(t *testing.T) {
	hub := testHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Broadcast(&service.BroadcastEvent{
		Target:  "alice",
		Event:   "payment.succeeded",
		Payload: `{"id":"pi_123"}`,
	})

	msg := receive(t, alice)
	assert.Equal(t, "payment.succeeded", msg.Event)
	assert.Empty(t, bob.send)
}

func TestHub_TargetedBroadcastReachesEveryClientOfUser(t *testing.T) {
	hub := testHub()
	phone := hub.Register("alice")
	laptop := hub.Register("alice")

	hub.Broadcast(&service.BroadcastEvent{
		Target: "alice",
		Event:  "session.revoked",
	})

	assert.Len(t, phone.send, 1)
	assert.Len(t, laptop.send, 1)
}

func TestHub_NonJSONPayloadIsQuoted(t *testing.T) {
	hub := testHub()
	client := hub.Register("alice")

	hub.Broadcast(&service.BroadcastEvent{
		Event:   "notice",
		Payload: "plain text",
	})

	msg := receive(t, client)
	assert.Equal(t, `"plain text"`, string(msg.Payload))
}

func TestHub_RequestIDIsForwarded(t *testing.T) {
	hub := testHub()
	client := hub.Register("alice")

	hub.Broadcast(&service.BroadcastEvent{
		RequestID: "req-42",
		Event:     "payment.succeeded",
		Payload:   `{}`,
	})

	msg := receive(t, client)
	assert.Equal(t, "req-42", msg.RequestID)
}

func TestHub_GetUserSocketID(t *testing.T) {
	hub := testHub()
	client := hub.Register("alice")

	id, ok := hub.GetUserSocketID("alice")
	require.True(t, ok)
	assert.Equal(t, client.ID(), id)

	_, ok = hub.GetUserSocketID("bob")
	assert.False(t, ok)

	hub.Unregister(client)
	_, ok = hub.GetUserSocketID("alice")
	assert.False(t, ok)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := testHub()
	client := hub.Register("alice")

	hub.Unregister(client)
	hub.Unregister(client)

	assert.Zero(t, hub.ClientCount())
}

func TestHub_StalledClientIsDropped(t *testing.T) {
	hub := testHub()
	stalled := hub.Register("alice")

	for i := 0; i < sendBufferSize+1; i++ {
		hub.Broadcast(&service.BroadcastEvent{Event: "tick"})
	}

	assert.Zero(t, hub.ClientCount())
	assert.Len(t, stalled.send, sendBufferSize)
}
