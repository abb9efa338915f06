package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/constants"
	"github.com/homefleet/autopi-bridge/internal/services/autozero"
	"github.com/homefleet/autopi-bridge/internal/services/telemetry"
)

type stubAutoPiAPI struct {
	vehicles  []AutoPiVehicle
	fields    map[string][]AutoPiDataField
	positions []AutoPiDevicePosition
	trips     []AutoPiTrip
	events    map[string][]AutoPiEvent
	alerts    *AutoPiFleetAlerts

	vehicleCalls  int
	fieldCalls    int
	positionCalls int
	tripCalls     int
	eventCalls    int
	alertCalls    int
}

func (s *stubAutoPiAPI) GetVehicles(context.Context) ([]AutoPiVehicle, error) {
	s.vehicleCalls++
	return s.vehicles, nil
}

func (s *stubAutoPiAPI) GetDataFields(_ context.Context, _ int, deviceID string) ([]AutoPiDataField, error) {
	s.fieldCalls++
	return s.fields[deviceID], nil
}

func (s *stubAutoPiAPI) GetMostRecentPositions(context.Context, []string) ([]AutoPiDevicePosition, error) {
	s.positionCalls++
	return s.positions, nil
}

func (s *stubAutoPiAPI) GetTrips(context.Context, int, int) ([]AutoPiTrip, error) {
	s.tripCalls++
	return s.trips, nil
}

func (s *stubAutoPiAPI) GetEvents(_ context.Context, deviceID string, _, _ time.Time) ([]AutoPiEvent, error) {
	s.eventCalls++
	return s.events[deviceID], nil
}

func (s *stubAutoPiAPI) GetFleetAlerts(context.Context) (*AutoPiFleetAlerts, error) {
	s.alertCalls++
	return s.alerts, nil
}

type recordingEmitter struct {
	events []*Event
}

func (r *recordingEmitter) Emit(e *Event) error {
	r.events = append(r.events, e)
	return nil
}

type publishedState struct {
	value      any
	attributes map[string]any
}

type recordingPublisher struct {
	discoveries []string
	states      map[string][]publishedState
}

func (r *recordingPublisher) PublishDiscovery(_ *AutoPiVehicle, sensor constants.SensorDefinition) error {
	r.discoveries = append(r.discoveries, sensor.FieldID)
	return nil
}

func (r *recordingPublisher) PublishState(vehicleID, fieldID string, value any, attributes map[string]any) error {
	if r.states == nil {
		r.states = make(map[string][]publishedState)
	}
	k := vehicleID + "|" + fieldID
	r.states[k] = append(r.states[k], publishedState{value: value, attributes: attributes})
	return nil
}

func (r *recordingPublisher) PublishBridgeStatus(bool) error { return nil }

func (r *recordingPublisher) Close() {}

func testPollerSettings() *config.Settings {
	return &config.Settings{
		Environment:         "prod",
		PollIntervalMinutes: 5,
		SlowPollCycles:      3,
		AutoZeroEnabled:     true,
	}
}

func newTestPoller(api AutoPiAPIService, settings *config.Settings) (*TelemetryPoller, *recordingEmitter, *recordingPublisher, *telemetry.ReadingStore) {
	logger := zerolog.Nop()
	readings := telemetry.NewReadingStore()
	manager := autozero.NewManager(&logger, nil, readings, settings.AutoZeroEnabled, nil)
	emitter := &recordingEmitter{}
	publisher := &recordingPublisher{}
	poller := NewTelemetryPoller(&logger, settings, api, readings, manager, emitter, publisher)
	return poller, emitter, publisher, readings
}

func dataField(fieldID string, value any, lastSeen time.Time) AutoPiDataField {
	dot := len(fieldID) - len(".value")
	return AutoPiDataField{
		FieldPrefix: fieldID[:dot],
		FieldName:   "value",
		Title:       fieldID,
		Frequency:   0.2,
		LastSeen:    lastSeen.UTC().Format(time.RFC3339),
		LastValue:   value,
	}
}

func TestPollerRunCycle_DiscoversAndPublishes(t *testing.T) {
	now := time.Now()
	fresh := now.Add(-time.Minute)

	api := &stubAutoPiAPI{
		vehicles: []AutoPiVehicle{{ID: 123, Vin: "1FTFW1ET5BFC12345", CallName: "Red Wagon", Year: 2019, Devices: []string{"device-1"}}},
		fields: map[string][]AutoPiDataField{
			"device-1": {
				dataField("obd.speed.value", 42.5, fresh),
				dataField("std.total_odometer.value", 120034.0, fresh),
			},
		},
		positions: []AutoPiDevicePosition{
			{
				ID:                "device-1",
				UnitID:            "unit-1",
				LastCommunication: fresh,
				Positions: []AutoPiPosition{
					{Ts: fresh.UTC().Format(time.RFC3339), SpeedOverGround: 42.5, Nsat: 9,
						Location: struct {
							Lat float64 `json:"lat"`
							Lon float64 `json:"lon"`
						}{Lat: 59.3293, Lon: 18.0686}},
				},
			},
		},
		trips: []AutoPiTrip{
			{ID: "trip-1", Vehicle: 123, StartTimeUTC: now.Add(-2 * time.Hour).UTC().Format(time.RFC3339),
				EndTimeUTC: now.Add(-time.Hour).UTC().Format(time.RFC3339), DistanceKm: 12.3, State: "completed"},
		},
		events: map[string][]AutoPiEvent{
			"device-1": {
				{Ts: fresh.UTC().Format(time.RFC3339), Tag: "vehicle/engine/running", Area: "vehicle", Event: "engine"},
			},
		},
		alerts: &AutoPiFleetAlerts{
			Total: 1,
			Severities: []struct {
				Severity string `json:"severity"`
				Alerts   []struct {
					Title        string `json:"title"`
					UUID         string `json:"uuid"`
					VehicleCount int    `json:"vehicle_count"`
				} `json:"alerts"`
			}{
				{Severity: "high", Alerts: []struct {
					Title        string `json:"title"`
					UUID         string `json:"uuid"`
					VehicleCount int    `json:"vehicle_count"`
				}{{Title: "Battery low", UUID: "a1", VehicleCount: 1}}},
			},
		},
	}

	poller, emitter, publisher, readings := newTestPoller(api, testPollerSettings())
	poller.RunCycle(context.Background())

	require.Len(t, emitter.events, 1)
	assert.Equal(t, constants.VehicleDiscoveredEventType, emitter.events[0].Type)
	assert.Equal(t, "123", emitter.events[0].Subject)
	discovered, ok := emitter.events[0].Data.(VehicleDiscoveredEventData)
	require.True(t, ok)
	assert.Equal(t, "Red Wagon", discovered.Name)

	assert.Len(t, publisher.discoveries, len(constants.AllSensors()))

	assert.Equal(t, 2, readings.Len())
	entry, ok := readings.Get(autozero.MetricKey{VehicleID: "123", FieldID: "obd.speed.value"})
	require.True(t, ok)
	assert.Equal(t, 42.5, entry.Value)

	require.Len(t, publisher.states["123|obd.speed.value"], 1)
	assert.Equal(t, 42.5, publisher.states["123|obd.speed.value"][0].value)
	assert.Equal(t, false, publisher.states["123|obd.speed.value"][0].attributes["auto_zero_active"])
	require.Len(t, publisher.states["123|std.total_odometer.value"], 1)
	_, hasFlag := publisher.states["123|std.total_odometer.value"][0].attributes["auto_zero_active"]
	assert.False(t, hasFlag)

	pos := poller.Position(123)
	require.NotNil(t, pos)
	assert.Equal(t, 59.3293, pos.Latitude)
	assert.Equal(t, 7.5, pos.LocationAccuracy())

	lastComm := poller.LastCommunication(123)
	require.NotNil(t, lastComm)

	trips := poller.Trips(123)
	require.Len(t, trips, 1)
	assert.Equal(t, "trip-1", trips[0].TripID)

	events := poller.Events(123)
	require.Len(t, events, 1)
	assert.Equal(t, "vehicle/engine/running", events[0].Tag)

	alerts := poller.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "Battery low", alerts[0].Title)
	assert.Equal(t, "high", alerts[0].Severity)

	stats := poller.Stats()
	assert.Equal(t, 1, stats.CycleCount)
	assert.Equal(t, 0, stats.FailedCycles)
	assert.Equal(t, 6, stats.TotalAPICalls)
	assert.Equal(t, 1, stats.VehicleCount)
	require.NotNil(t, stats.LastUpdate)
}

func TestPollerAutoZeroLifecycleAcrossCycles(t *testing.T) {
	stale := time.Now().Add(-20 * time.Minute)

	api := &stubAutoPiAPI{
		vehicles: []AutoPiVehicle{{ID: 7, Devices: []string{"dev-a"}}},
		fields: map[string][]AutoPiDataField{
			"dev-a": {dataField("obd.speed.value", 42.5, stale)},
		},
	}

	poller, _, publisher, readings := newTestPoller(api, testPollerSettings())
	poller.RunCycle(context.Background())

	key := "7|obd.speed.value"
	require.Len(t, publisher.states[key], 1)
	assert.Equal(t, 0, publisher.states[key][0].value)
	assert.Equal(t, true, publisher.states[key][0].attributes["auto_zero_active"])

	// Raw reading is untouched, only the rendered value zeroes out.
	entry, ok := readings.Get(autozero.MetricKey{VehicleID: "7", FieldID: "obd.speed.value"})
	require.True(t, ok)
	assert.Equal(t, 42.5, entry.Value)

	// Fresh data newer than the zero marker un-zeroes on the next pass.
	api.fields["dev-a"] = []AutoPiDataField{dataField("obd.speed.value", 91.0, time.Now())}
	poller.RunCycle(context.Background())

	require.Len(t, publisher.states[key], 2)
	assert.Equal(t, 91.0, publisher.states[key][1].value)
	assert.Equal(t, false, publisher.states[key][1].attributes["auto_zero_active"])
}

func TestPollerSecondCycleUsesCacheAndSkipsUnchanged(t *testing.T) {
	fresh := time.Now().Add(-time.Minute)

	api := &stubAutoPiAPI{
		vehicles: []AutoPiVehicle{{ID: 55, Devices: []string{"dev-b"}}},
		fields: map[string][]AutoPiDataField{
			"dev-b": {dataField("std.total_odometer.value", 500.0, fresh)},
		},
		alerts: &AutoPiFleetAlerts{},
	}

	poller, emitter, publisher, _ := newTestPoller(api, testPollerSettings())
	poller.RunCycle(context.Background())
	poller.RunCycle(context.Background())

	// Profiles come from the cache on the second pass and slow-lane data only
	// runs every third cycle.
	assert.Equal(t, 1, api.vehicleCalls)
	assert.Equal(t, 2, api.fieldCalls)
	assert.Equal(t, 2, api.positionCalls)
	assert.Equal(t, 1, api.tripCalls)
	assert.Equal(t, 1, api.eventCalls)
	assert.Equal(t, 1, api.alertCalls)

	// Discovery fires once, and an unchanged value is not republished.
	assert.Len(t, emitter.events, 1)
	assert.Len(t, publisher.states["55|std.total_odometer.value"], 1)

	stats := poller.Stats()
	assert.Equal(t, 2, stats.CycleCount)
}

func TestPollerMergesDeviceFieldsLatestWins(t *testing.T) {
	fresh := time.Now().Add(-time.Minute)

	api := &stubAutoPiAPI{
		vehicles: []AutoPiVehicle{{ID: 9, Devices: []string{"dev-1", "dev-2"}}},
		fields: map[string][]AutoPiDataField{
			"dev-1": {dataField("std.total_odometer.value", 100.0, fresh)},
			"dev-2": {dataField("std.total_odometer.value", 200.0, fresh)},
		},
	}

	poller, _, publisher, readings := newTestPoller(api, testPollerSettings())
	poller.RunCycle(context.Background())

	entry, ok := readings.Get(autozero.MetricKey{VehicleID: "9", FieldID: "std.total_odometer.value"})
	require.True(t, ok)
	assert.Equal(t, 200.0, entry.Value)

	states := publisher.states["9|std.total_odometer.value"]
	require.Len(t, states, 1)
	assert.Equal(t, 200.0, states[0].value)
}

func TestPollerWarnsOnceForOldFirmware(t *testing.T) {
	fresh := time.Now().Add(-time.Minute)

	api := &stubAutoPiAPI{
		vehicles: []AutoPiVehicle{{ID: 31, Devices: []string{"dev-fw"}}},
		fields: map[string][]AutoPiDataField{
			"dev-fw": {
				dataField("std.total_odometer.value", 500.0, fresh),
				dataField(firmwareVersionFieldID, "1.21.9", fresh),
			},
		},
	}

	settings := testPollerSettings()
	settings.MinimumFirmwareVersion = "1.22.8"

	poller, _, _, _ := newTestPoller(api, settings)
	poller.RunCycle(context.Background())
	poller.RunCycle(context.Background())

	assert.Equal(t, "v1.21.9", poller.warnedVersion[31])
}

func TestPollerStartStop(t *testing.T) {
	api := &stubAutoPiAPI{
		vehicles: []AutoPiVehicle{{ID: 3, Devices: []string{fmt.Sprintf("dev-%d", 3)}}},
		fields:   map[string][]AutoPiDataField{},
		alerts:   &AutoPiFleetAlerts{},
	}

	poller, _, _, _ := newTestPoller(api, testPollerSettings())
	poller.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	poller.Stop()

	assert.GreaterOrEqual(t, poller.Stats().CycleCount, 1)
}
