package services

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/DIMO-Network/shared"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/homefleet/autopi-bridge/internal/appmetrics"
	"github.com/homefleet/autopi-bridge/internal/services/autozero"
	"github.com/homefleet/autopi-bridge/internal/services/telemetry"
)

// TelemetryIngestService folds pushed telemetry into the reading store. It
// only supplies readings; staleness evaluation stays on the poll cadence.
type TelemetryIngestService struct {
	log      *zerolog.Logger
	readings *telemetry.ReadingStore
}

func NewTelemetryIngestService(log *zerolog.Logger, readings *telemetry.ReadingStore) *TelemetryIngestService {
	return &TelemetryIngestService{log: log, readings: readings}
}

func (i *TelemetryIngestService) ProcessTelemetryMessages(messages <-chan *message.Message) {
	for msg := range messages {
		err := i.processMessage(msg)
		if err != nil {
			i.log.Err(err).Msg("error processing telemetry msg")
		}
	}
}

func (i *TelemetryIngestService) processMessage(msg *message.Message) error {
	// Keep the pipeline moving no matter what.
	defer func() { msg.Ack() }()

	if msg.Payload == nil {
		return nil
	}
	appmetrics.TelemetryIngestTotalOps.Inc()

	event := new(shared.CloudEvent[json.RawMessage])
	if err := json.Unmarshal(msg.Payload, event); err != nil {
		return errors.Wrap(err, "error parsing telemetry event payload")
	}

	return i.processEvent(event)
}

func (i *TelemetryIngestService) processEvent(event *shared.CloudEvent[json.RawMessage]) error {
	// Subject is either the plain vehicle id or vehicleID/deviceID.
	vehicleID := event.Subject
	if idx := strings.IndexByte(vehicleID, '/'); idx >= 0 {
		vehicleID = vehicleID[:idx]
	}
	if vehicleID == "" {
		return errors.New("telemetry event has no subject")
	}

	var lastSeen *time.Time
	if !event.Time.IsZero() {
		t := event.Time
		lastSeen = &t
	}

	now := time.Now()
	count := 0
	gjson.ParseBytes(event.Data).ForEach(func(key, value gjson.Result) bool {
		fieldID := key.String()
		if fieldID == "" {
			return true
		}
		i.readings.Set(autozero.MetricKey{VehicleID: vehicleID, FieldID: fieldID}, value.Value(), lastSeen, now)
		count++
		return true
	})
	if count == 0 {
		return nil
	}

	appmetrics.TelemetryIngestSuccessOps.Inc()
	i.log.Debug().Str("vehicleId", vehicleID).Int("fields", count).Msg("Merged pushed telemetry.")
	return nil
}
