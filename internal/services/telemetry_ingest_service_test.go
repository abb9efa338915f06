package services

import (
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefleet/autopi-bridge/internal/services/autozero"
	"github.com/homefleet/autopi-bridge/internal/services/telemetry"
)

func TestProcessTelemetryMessages(t *testing.T) {
	logger := zerolog.Nop()
	store := telemetry.NewReadingStore()
	svc := NewTelemetryIngestService(&logger, store)

	payload := []byte(`{
		"id": "2aRRYCrtUMmbSMVvsdNKzpvhklV",
		"source": "autopi/device/2024b19b",
		"specversion": "1.0",
		"subject": "1337/2024b19b-affe-4f6a-98e0-e2b6700c981c",
		"time": "2025-07-29T10:29:40Z",
		"type": "com.homefleet.autopi.telemetry",
		"data": {
			"obd.speed.value": 54.5,
			"obd.rpm.value": 2200,
			"std.ignition.value": true
		}
	}`)

	messages := make(chan *message.Message, 3)
	good := message.NewMessage(watermill.NewUUID(), payload)
	empty := message.NewMessage(watermill.NewUUID(), nil)
	garbage := message.NewMessage(watermill.NewUUID(), []byte(`{not json`))
	messages <- good
	messages <- empty
	messages <- garbage
	close(messages)

	svc.ProcessTelemetryMessages(messages)

	assert.Equal(t, 3, store.Len())

	reading, ok := store.Reading(autozero.MetricKey{VehicleID: "1337", FieldID: "obd.speed.value"})
	require.True(t, ok)
	assert.Equal(t, 54.5, reading.Value)
	require.NotNil(t, reading.LastSeen)
	assert.Equal(t, time.Date(2025, 7, 29, 10, 29, 40, 0, time.UTC), reading.LastSeen.UTC())

	reading, ok = store.Reading(autozero.MetricKey{VehicleID: "1337", FieldID: "std.ignition.value"})
	require.True(t, ok)
	assert.Equal(t, true, reading.Value)

	// every message gets acked, even the broken ones
	for _, msg := range []*message.Message{good, empty, garbage} {
		select {
		case <-msg.Acked():
		default:
			t.Fatalf("message %s was not acked", msg.UUID)
		}
	}
}

func TestProcessTelemetryMessage_MissingSubject(t *testing.T) {
	logger := zerolog.Nop()
	store := telemetry.NewReadingStore()
	svc := NewTelemetryIngestService(&logger, store)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"subject": "", "data": {"obd.speed.value": 1}}`))
	err := svc.processMessage(msg)

	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestProcessTelemetryMessage_NoEventTime(t *testing.T) {
	logger := zerolog.Nop()
	store := telemetry.NewReadingStore()
	svc := NewTelemetryIngestService(&logger, store)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"subject": "42", "data": {"std.gsm_signal.value": 3}}`))
	require.NoError(t, svc.processMessage(msg))

	reading, ok := store.Reading(autozero.MetricKey{VehicleID: "42", FieldID: "std.gsm_signal.value"})
	require.True(t, ok)
	// without an event time the reading has no freshness claim
	assert.Nil(t, reading.LastSeen)
}
