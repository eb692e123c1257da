package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicForDerivesFromEventName(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "booking.events.v1", w.topicFor("booking.confirmed"))
	assert.Equal(t, "calendar.events.v1", w.topicFor("calendar.blocked"))
	assert.Equal(t, "ping.events.v1", w.topicFor("ping"))

	w.TopicPrefix = "staging."
	assert.Equal(t, "staging.booking.events.v1", w.topicFor("booking.confirmed"))
}

func TestFormatPayloadWrapsCloudEvent(t *testing.T) {
	w := &Worker{Source: "app://villabook-test"}
	occurred := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	doc := &EventDocument{
		ID:         "evt-1",
		Name:       "booking.confirmed",
		Payload:    []byte(`{"BookingID":"b-1"}`),
		OccurredAt: occurred,
		Aggregate:  "b-1",
		Headers:    map[string]string{"trace": "abc"},
	}

	payload, headers, err := w.formatPayload(doc)
	require.NoError(t, err)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(payload, &envelope))
	assert.Equal(t, "1.0", envelope["specversion"])
	assert.Equal(t, "booking.confirmed.v1", envelope["type"])
	assert.Equal(t, "app://villabook-test", envelope["source"])
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b-1", data["BookingID"])

	assert.Equal(t, "application/cloudevents+json", headers["content-type"])
	assert.Equal(t, "abc", headers["trace"])
}

func TestFormatPayloadRejectsBadJSON(t *testing.T) {
	w := &Worker{}
	_, _, err := w.formatPayload(&EventDocument{Payload: []byte("not-json")})
	assert.Error(t, err)
}

func TestNextRetryWalksBackoff(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, 5 * time.Second}}
	before := time.Now()

	first := w.nextRetry(0)
	assert.WithinDuration(t, before.Add(time.Second), first, 200*time.Millisecond)

	capped := w.nextRetry(7)
	assert.WithinDuration(t, before.Add(5*time.Second), capped, 200*time.Millisecond)
}
