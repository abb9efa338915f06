package controllers

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/mock/gomock"

	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/services"
	"github.com/homefleet/autopi-bridge/internal/services/autozero"
	mock_services "github.com/homefleet/autopi-bridge/internal/services/mocks"
	"github.com/homefleet/autopi-bridge/internal/services/telemetry"
	"github.com/homefleet/autopi-bridge/internal/test"
)

func testControllerSettings() *config.Settings {
	return &config.Settings{
		Environment:         "local",
		PollIntervalMinutes: 5,
		SlowPollCycles:      3,
		AutoZeroEnabled:     true,
	}
}

// bridgeFixture wires a poller against mocked upstream responses and runs one
// cycle so the controllers have views to serve.
type bridgeFixture struct {
	poller   *services.TelemetryPoller
	readings *telemetry.ReadingStore
	manager  *autozero.Manager
}

func setupBridgeFixture(t *testing.T, settings *config.Settings, fields []services.AutoPiDataField) *bridgeFixture {
	mockCtrl := gomock.NewController(t)
	logger := test.Logger()
	now := time.Now()

	vehicle := services.AutoPiVehicle{
		ID: 123, Vin: "1FTFW1ET5BFC12345", CallName: "Red Wagon", Year: 2019,
		LicensePlate: "ABC123", Type: "ICE", BatteryNominalVoltage: 12,
		Devices: []string{"device-1"},
	}

	api := mock_services.NewMockAutoPiAPIService(mockCtrl)
	api.EXPECT().GetVehicles(gomock.Any()).Return([]services.AutoPiVehicle{vehicle}, nil).AnyTimes()
	api.EXPECT().GetDataFields(gomock.Any(), 123, "device-1").Return(fields, nil).AnyTimes()
	api.EXPECT().GetMostRecentPositions(gomock.Any(), gomock.Any()).Return([]services.AutoPiDevicePosition{
		{
			ID:                "device-1",
			UnitID:            "unit-1",
			LastCommunication: now.Add(-time.Minute),
			Positions: []services.AutoPiPosition{
				{Ts: now.Add(-time.Minute).UTC().Format(time.RFC3339), SpeedOverGround: 42.5, Nsat: 9,
					Location: struct {
						Lat float64 `json:"lat"`
						Lon float64 `json:"lon"`
					}{Lat: 59.3293, Lon: 18.0686}},
			},
		},
	}, nil).AnyTimes()
	api.EXPECT().GetTrips(gomock.Any(), 123, gomock.Any()).Return([]services.AutoPiTrip{
		{ID: "trip-1", Vehicle: 123,
			StartTimeUTC: now.Add(-2 * time.Hour).UTC().Format(time.RFC3339),
			EndTimeUTC:   now.Add(-time.Hour).UTC().Format(time.RFC3339),
			DistanceKm:   12.3, State: "completed"},
	}, nil).AnyTimes()
	api.EXPECT().GetEvents(gomock.Any(), "device-1", gomock.Any(), gomock.Any()).Return([]services.AutoPiEvent{
		{Ts: now.Add(-3 * time.Hour).UTC().Format(time.RFC3339), Tag: "vehicle/battery/charging", Area: "vehicle", Event: "battery"},
		{Ts: now.Add(-time.Hour).UTC().Format(time.RFC3339), Tag: "vehicle/battery/discharging", Area: "vehicle", Event: "battery"},
		{Ts: now.Add(-30 * time.Minute).UTC().Format(time.RFC3339), Tag: "vehicle/obd/dtc", Area: "obd", Event: "obd",
			Data: []map[string]any{{"dtc_code": "P0301", "description": "Cylinder 1 misfire"}}},
	}, nil).AnyTimes()
	api.EXPECT().GetFleetAlerts(gomock.Any()).Return(&services.AutoPiFleetAlerts{
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
	}, nil).AnyTimes()

	emitter := mock_services.NewMockEventService(mockCtrl)
	emitter.EXPECT().Emit(gomock.Any()).Return(nil).AnyTimes()
	publisher := mock_services.NewMockStatePublisher(mockCtrl)
	publisher.EXPECT().PublishDiscovery(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	publisher.EXPECT().PublishState(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	readings := telemetry.NewReadingStore()
	manager := autozero.NewManager(logger, nil, readings, settings.AutoZeroEnabled, nil)
	poller := services.NewTelemetryPoller(logger, settings, api, readings, manager, emitter, publisher)
	poller.RunCycle(context.Background())

	return &bridgeFixture{poller: poller, readings: readings, manager: manager}
}

func freshDataFields(now time.Time) []services.AutoPiDataField {
	ls := now.Add(-time.Minute).UTC().Format(time.RFC3339)
	return []services.AutoPiDataField{
		{FieldPrefix: "obd.speed", FieldName: "value", Title: "Vehicle speed", LastSeen: ls, LastValue: 42.5},
		{FieldPrefix: "std.total_odometer", FieldName: "value", Title: "Odometer", LastSeen: ls, LastValue: 120034.0},
	}
}

func setupVehiclesApp(t *testing.T) *fiber.App {
	fixture := setupBridgeFixture(t, testControllerSettings(), freshDataFields(time.Now()))
	logger := test.Logger()
	vc := NewVehiclesController(testControllerSettings(), fixture.poller, logger)

	app := test.SetupAppFiber(*logger)
	app.Get("/v1/vehicles", vc.GetVehicles)
	app.Get("/v1/vehicles/:vehicleID", vc.GetVehicle)
	app.Get("/v1/vehicles/:vehicleID/position", vc.GetVehiclePosition)
	app.Get("/v1/vehicles/:vehicleID/trips", vc.GetVehicleTrips)
	app.Get("/v1/vehicles/:vehicleID/events", vc.GetVehicleEvents)
	app.Get("/v1/fleet/alerts", vc.GetFleetAlerts)
	return app
}

func TestGetVehicles(t *testing.T) {
	app := setupVehiclesApp(t)

	request := test.BuildRequest("GET", "/v1/vehicles", "")
	response, err := app.Test(request)
	require.NoError(t, err)
	body, _ := io.ReadAll(response.Body)

	assert.Equal(t, fiber.StatusOK, response.StatusCode)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "vehicles.#").Int())
	assert.Equal(t, "Red Wagon", gjson.GetBytes(body, "vehicles.0.name").String())
	assert.Equal(t, int64(1), gjson.GetBytes(body, "vehicles.0.deviceCount").Int())
	assert.Equal(t, int64(1), gjson.GetBytes(body, "stats.cycleCount").Int())
	assert.Equal(t, int64(1), gjson.GetBytes(body, "stats.vehicleCount").Int())
}

func TestGetVehicle_Detail(t *testing.T) {
	app := setupVehiclesApp(t)

	request := test.BuildRequest("GET", "/v1/vehicles/123", "")
	response, err := app.Test(request)
	require.NoError(t, err)
	body, _ := io.ReadAll(response.Body)

	assert.Equal(t, fiber.StatusOK, response.StatusCode)
	assert.Equal(t, "device-1", gjson.GetBytes(body, "devices.0").String())
	assert.Equal(t, "1FTFW1ET5BFC12345", gjson.GetBytes(body, "vin").String())
	assert.Equal(t, 59.3293, gjson.GetBytes(body, "position.latitude").Float())
	assert.Equal(t, "complete", gjson.GetBytes(body, "charging.state").String())
	assert.Equal(t, int64(7200), gjson.GetBytes(body, "charging.durationSeconds").Int())
	assert.Equal(t, "P0301", gjson.GetBytes(body, "dtcs.0.code").String())
	assert.True(t, gjson.GetBytes(body, "lastCommunication").Exists())
}

func TestGetVehicle_NotFound(t *testing.T) {
	app := setupVehiclesApp(t)

	response, err := app.Test(test.BuildRequest("GET", "/v1/vehicles/999", ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, response.StatusCode)

	response, err = app.Test(test.BuildRequest("GET", "/v1/vehicles/abc", ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, response.StatusCode)
}

func TestGetVehiclePosition(t *testing.T) {
	app := setupVehiclesApp(t)

	response, err := app.Test(test.BuildRequest("GET", "/v1/vehicles/123/position", ""))
	require.NoError(t, err)
	body, _ := io.ReadAll(response.Body)

	assert.Equal(t, fiber.StatusOK, response.StatusCode)
	assert.Equal(t, 59.3293, gjson.GetBytes(body, "latitude").Float())
	assert.Equal(t, 7.5, gjson.GetBytes(body, "accuracyM").Float())
	assert.Equal(t, int64(9), gjson.GetBytes(body, "numSatellites").Int())
}

func TestGetVehicleTrips(t *testing.T) {
	app := setupVehiclesApp(t)

	response, err := app.Test(test.BuildRequest("GET", "/v1/vehicles/123/trips", ""))
	require.NoError(t, err)
	body, _ := io.ReadAll(response.Body)

	assert.Equal(t, fiber.StatusOK, response.StatusCode)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "trips.#").Int())
	assert.Equal(t, "trip-1", gjson.GetBytes(body, "trips.0.tripId").String())
	assert.Equal(t, 12.3, gjson.GetBytes(body, "trips.0.distanceKm").Float())
}

func TestGetVehicleEvents(t *testing.T) {
	app := setupVehiclesApp(t)

	response, err := app.Test(test.BuildRequest("GET", "/v1/vehicles/123/events", ""))
	require.NoError(t, err)
	body, _ := io.ReadAll(response.Body)

	assert.Equal(t, fiber.StatusOK, response.StatusCode)
	assert.Equal(t, int64(3), gjson.GetBytes(body, "events.#").Int())
	assert.Equal(t, "vehicle/battery/charging", gjson.GetBytes(body, "events.0.tag").String())
}

func TestGetFleetAlerts(t *testing.T) {
	app := setupVehiclesApp(t)

	response, err := app.Test(test.BuildRequest("GET", "/v1/fleet/alerts", ""))
	require.NoError(t, err)
	body, _ := io.ReadAll(response.Body)

	assert.Equal(t, fiber.StatusOK, response.StatusCode)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "total").Int())
	assert.Equal(t, "high", gjson.GetBytes(body, "alerts.0.severity").String())
	assert.Equal(t, "Battery low", gjson.GetBytes(body, "alerts.0.title").String())
}
