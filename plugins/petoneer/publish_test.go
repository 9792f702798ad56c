package petoneer

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTopic(t *testing.T) {
	assert.Equal(t, "petoneer/PWW001/status", StatusTopic("petoneer", "PWW001"))
	assert.Equal(t, "home/fountain/PWW001/status", StatusTopic("/home/fountain/", "PWW001"))
	assert.Equal(t, "petoneer/PWW001/status", StatusTopic("", "PWW001"))
}

func TestFormatPayload(t *testing.T) {
	status := AssembleIn(time.UTC, telemetryAt(time.Date(2024, 5, 10, 22, 0, 0, 0, time.UTC)), nil)

	payload, err := FormatPayload(status)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(payload, &parsed))
	assert.Equal(t, "PWW001", parsed["serial"])
	assert.Equal(t, "2024-05-10T22:00:00Z", parsed["device_time"])

	led := parsed["led"].(map[string]any)
	assert.Equal(t, "Dimmed", led["state"])
	assert.Equal(t, map[string]any{"start": "21:00:00", "end": "23:00:00"}, led["schedule"])

	water := parsed["water"].(map[string]any)
	assert.Equal(t, true, water["change_required"])
}

func TestFakePublisher(t *testing.T) {
	fake := &FakePublisher{Prefix: "petoneer"}
	status := DeviceStatus{Serial: "PWW001"}

	require.NoError(t, fake.Publish(status))
	assert.Equal(t, []string{"petoneer/PWW001/status"}, fake.Topics)
	assert.Len(t, fake.Payloads, 1)

	fake.PublishError = errors.New("broker down")
	assert.Error(t, fake.Publish(status))
	assert.Len(t, fake.Payloads, 1)

	require.NoError(t, fake.Close())
	assert.True(t, fake.Closed)
}

func TestNewMQTTPublisherRequiresBroker(t *testing.T) {
	_, err := NewMQTTPublisher(PublisherConfig{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
