package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	payload := SeriesQueryPayload{Plant: "p1", InverterID: "1BY6WEcLGh8j5v7"}

	msg, err := NewEnvelope(TypeDailyQuery, payload)
	require.NoError(t, err)

	var env Envelope
	err = json.Unmarshal(msg, &env)
	require.NoError(t, err)

	assert.Equal(t, TypeDailyQuery, env.Type)

	var parsed SeriesQueryPayload
	err = json.Unmarshal(env.Payload, &parsed)
	require.NoError(t, err)
	assert.Equal(t, payload, parsed)
}

func TestNewEnvelope_NoPayload(t *testing.T) {
	msg, err := NewEnvelope(TypeReportGet, nil)
	require.NoError(t, err)

	var env Envelope
	err = json.Unmarshal(msg, &env)
	require.NoError(t, err)

	assert.Equal(t, TypeReportGet, env.Type)
	assert.Nil(t, env.Payload)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	c := &Client{
		hub:  hub,
		send: make(chan []byte, 16),
	}

	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())

	// second unregister must not close twice
	hub.Unregister(c)
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()

	c1 := &Client{hub: hub, send: make(chan []byte, 16)}
	c2 := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c1)
	hub.Register(c2)

	msg := []byte(`{"type":"test"}`)
	hub.Broadcast(msg)

	assert.Equal(t, msg, <-c1.send)
	assert.Equal(t, msg, <-c2.send)
}

func TestHub_BroadcastSkipsFullClient(t *testing.T) {
	hub := NewHub()
	full := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(full)

	hub.Broadcast([]byte("a"))
	hub.Broadcast([]byte("b"))

	assert.Equal(t, []byte("a"), <-full.send)
	assert.Empty(t, full.send)
}

func TestMessageTypes(t *testing.T) {
	assert.Equal(t, "daily:query", TypeDailyQuery)
	assert.Equal(t, "records:query", TypeRecordsQuery)
	assert.Equal(t, "report:get", TypeReportGet)
	assert.Equal(t, "dataset:loaded", TypeDatasetLoaded)
	assert.Equal(t, "daily:rows", TypeDailyRows)
	assert.Equal(t, "records:rows", TypeRecordsRows)
	assert.Equal(t, "report:data", TypeReportData)
}
