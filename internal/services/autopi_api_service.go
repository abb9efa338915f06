package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DIMO-Network/shared"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/homefleet/autopi-bridge/internal/config"
)

// eventsPageHits is the page size requested from the logbook events endpoint.
const eventsPageHits = 200

//go:generate mockgen -source autopi_api_service.go -destination mocks/autopi_api_service_mock.go
type AutoPiAPIService interface {
	GetVehicles(ctx context.Context) ([]AutoPiVehicle, error)
	GetDataFields(ctx context.Context, vehicleID int, deviceID string) ([]AutoPiDataField, error)
	GetMostRecentPositions(ctx context.Context, deviceIDs []string) ([]AutoPiDevicePosition, error)
	GetTrips(ctx context.Context, vehicleID int, pageSize int) ([]AutoPiTrip, error)
	GetEvents(ctx context.Context, deviceID string, utcStart, utcEnd time.Time) ([]AutoPiEvent, error)
	GetFleetAlerts(ctx context.Context) (*AutoPiFleetAlerts, error)
}

type autoPiAPIService struct {
	Settings   *config.Settings
	httpClient shared.HTTPClientWrapper
}

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("invalid api token")
	ErrRateLimited  = errors.New("rate limited")
)

func NewAutoPiAPIService(settings *config.Settings) AutoPiAPIService {
	h := map[string]string{"Authorization": "APIToken " + settings.AutoPiAPIToken}
	hcw, _ := shared.NewHTTPClientWrapper(settings.AutoPiAPIURL, "", 30*time.Second, h, true) // ok to ignore err since only used for tor check

	return &autoPiAPIService{
		Settings:   settings,
		httpClient: hcw,
	}
}

// statusError maps autopi response codes the callers branch on. Anything else
// is left to the generic wrap.
func statusError(code int) error {
	switch code {
	case 401:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	}
	return nil
}

// GetVehicles calls /vehicle/v2/profile to list every vehicle the API token can see.
func (a *autoPiAPIService) GetVehicles(_ context.Context) ([]AutoPiVehicle, error) {
	res, err := a.httpClient.ExecuteRequest("/vehicle/v2/profile", "GET", nil)
	if err != nil {
		if _, ok := err.(shared.HTTPResponseError); !ok {
			return nil, errors.Wrap(err, "error calling autopi api to get vehicle profiles")
		}
	}
	defer res.Body.Close() // nolint
	if serr := statusError(res.StatusCode); serr != nil {
		return nil, serr
	}
	if err != nil {
		return nil, errors.Wrap(err, "error calling autopi api to get vehicle profiles")
	}

	p := new(vehicleProfileResponse)
	err = json.NewDecoder(res.Body).Decode(p)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding json from autopi api to get vehicle profiles")
	}
	return p.Results, nil
}

// GetDataFields calls /logbook/storage/data_fields/ to get the latest value per telemetry channel for one device.
func (a *autoPiAPIService) GetDataFields(_ context.Context, vehicleID int, deviceID string) ([]AutoPiDataField, error) {
	res, err := a.httpClient.ExecuteRequest(fmt.Sprintf("/logbook/storage/data_fields/?device_id=%s&vehicle_id=%d", deviceID, vehicleID), "GET", nil)
	if err != nil {
		if _, ok := err.(shared.HTTPResponseError); !ok {
			return nil, errors.Wrapf(err, "error calling autopi api to get data fields for device %s", deviceID)
		}
	}
	defer res.Body.Close() // nolint
	if serr := statusError(res.StatusCode); serr != nil {
		return nil, serr
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error calling autopi api to get data fields for device %s", deviceID)
	}

	fields := make([]AutoPiDataField, 0)
	err = json.NewDecoder(res.Body).Decode(&fields)
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding json from autopi api to get data fields for device %s", deviceID)
	}
	return fields, nil
}

// GetMostRecentPositions calls /logbook/v2/most_recent_positions/ for a batch of devices in one round trip.
func (a *autoPiAPIService) GetMostRecentPositions(_ context.Context, deviceIDs []string) ([]AutoPiDevicePosition, error) {
	res, err := a.httpClient.ExecuteRequest(fmt.Sprintf("/logbook/v2/most_recent_positions/?device_ids=%s", strings.Join(deviceIDs, ",")), "GET", nil)
	if err != nil {
		if _, ok := err.(shared.HTTPResponseError); !ok {
			return nil, errors.Wrap(err, "error calling autopi api to get most recent positions")
		}
	}
	defer res.Body.Close() // nolint
	if serr := statusError(res.StatusCode); serr != nil {
		return nil, serr
	}
	if err != nil {
		return nil, errors.Wrap(err, "error calling autopi api to get most recent positions")
	}

	positions := make([]AutoPiDevicePosition, 0)
	err = json.NewDecoder(res.Body).Decode(&positions)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding json from autopi api to get most recent positions")
	}
	return positions, nil
}

// GetTrips calls /logbook/v2/trips/ for a vehicle, newest first.
func (a *autoPiAPIService) GetTrips(_ context.Context, vehicleID int, pageSize int) ([]AutoPiTrip, error) {
	res, err := a.httpClient.ExecuteRequest(fmt.Sprintf("/logbook/v2/trips/?vehicle=%d&page_hits=%d", vehicleID, pageSize), "GET", nil)
	if err != nil {
		if _, ok := err.(shared.HTTPResponseError); !ok {
			return nil, errors.Wrapf(err, "error calling autopi api to get trips for vehicle %d", vehicleID)
		}
	}
	defer res.Body.Close() // nolint
	if serr := statusError(res.StatusCode); serr != nil {
		return nil, serr
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error calling autopi api to get trips for vehicle %d", vehicleID)
	}

	p := new(tripsResponse)
	err = json.NewDecoder(res.Body).Decode(p)
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding json from autopi api to get trips for vehicle %d", vehicleID)
	}
	return p.Results, nil
}

// GetEvents calls /logbook/events/ for a device over a UTC window, walking
// pages until the reported count is drained.
func (a *autoPiAPIService) GetEvents(_ context.Context, deviceID string, utcStart, utcEnd time.Time) ([]AutoPiEvent, error) {
	events := make([]AutoPiEvent, 0)
	for pageNum := 1; ; pageNum++ {
		path := fmt.Sprintf("/logbook/events/?device_id=%s&utc_start=%s&utc_end=%s&page_num=%d&page_hits=%d",
			deviceID, utcStart.UTC().Format(time.RFC3339), utcEnd.UTC().Format(time.RFC3339), pageNum, eventsPageHits)
		res, err := a.httpClient.ExecuteRequest(path, "GET", nil)
		if err != nil {
			if _, ok := err.(shared.HTTPResponseError); !ok {
				return nil, errors.Wrapf(err, "error calling autopi api to get events for device %s", deviceID)
			}
		}
		if serr := statusError(res.StatusCode); serr != nil {
			res.Body.Close() // nolint
			return nil, serr
		}
		if err != nil {
			res.Body.Close() // nolint
			return nil, errors.Wrapf(err, "error calling autopi api to get events for device %s", deviceID)
		}

		p := new(eventsResponse)
		err = json.NewDecoder(res.Body).Decode(p)
		res.Body.Close() // nolint
		if err != nil {
			return nil, errors.Wrapf(err, "error decoding json from autopi api to get events for device %s", deviceID)
		}

		events = append(events, p.Results...)
		if len(p.Results) == 0 || len(events) >= p.Count {
			break
		}
	}
	return events, nil
}

// GetFleetAlerts calls /logbook/fleet_summary/alerts/ for the account-wide alert rollup.
func (a *autoPiAPIService) GetFleetAlerts(_ context.Context) (*AutoPiFleetAlerts, error) {
	res, err := a.httpClient.ExecuteRequest("/logbook/fleet_summary/alerts/", "GET", nil)
	if err != nil {
		if _, ok := err.(shared.HTTPResponseError); !ok {
			return nil, errors.Wrap(err, "error calling autopi api to get fleet alerts")
		}
	}
	defer res.Body.Close() // nolint
	if serr := statusError(res.StatusCode); serr != nil {
		return nil, serr
	}
	if err != nil {
		return nil, errors.Wrap(err, "error calling autopi api to get fleet alerts")
	}

	alerts := new(AutoPiFleetAlerts)
	err = json.NewDecoder(res.Body).Decode(alerts)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding json from autopi api to get fleet alerts")
	}
	return alerts, nil
}

// AutoPiVehicle is one row of the /vehicle/v2/profile response.
type AutoPiVehicle struct {
	ID                    int      `json:"id"`
	Vin                   string   `json:"vin"`
	CallName              string   `json:"callName"`
	LicensePlate          string   `json:"licensePlate"`
	Model                 int      `json:"model"`
	Make                  int      `json:"make"`
	Year                  int      `json:"year"`
	Type                  string   `json:"type"`
	Devices               []string `json:"devices"`
	BatteryNominalVoltage int      `json:"battery_nominal_voltage"`
}

// DisplayName prefers the owner-assigned call name, then the plate, then a generated fallback.
func (v *AutoPiVehicle) DisplayName() string {
	if v.CallName != "" {
		return v.CallName
	}
	if v.LicensePlate != "" {
		return v.LicensePlate
	}
	return fmt.Sprintf("Vehicle %d", v.ID)
}

type vehicleProfileResponse struct {
	Count    int             `json:"count"`
	Results  []AutoPiVehicle `json:"results"`
	PageSize int             `json:"page_size"`
}

// AutoPiDataField is the latest observation for one telemetry channel.
// last_seen reflects when the device last reported the channel, not when we fetched it.
type AutoPiDataField struct {
	FieldPrefix string  `json:"field_prefix"`
	FieldName   string  `json:"field_name"`
	Frequency   float64 `json:"frequency"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	LastSeen    string  `json:"last_seen"`
	LastValue   any     `json:"last_value"`
	Description string  `json:"description"`
}

// FieldID joins prefix and name into the dotted identifier used everywhere downstream.
func (d *AutoPiDataField) FieldID() string {
	return d.FieldPrefix + "." + d.FieldName
}

// LastSeenTime parses the upstream timestamp, nil when absent or malformed.
func (d *AutoPiDataField) LastSeenTime() *time.Time {
	if d.LastSeen == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, d.LastSeen)
	if err != nil {
		return nil
	}
	return &t
}

// AutoPiPosition is a single GPS fix inside a device position payload.
type AutoPiPosition struct {
	Ts               string  `json:"ts"`
	CourseOverGround float64 `json:"course_over_ground"`
	SpeedOverGround  float64 `json:"speed_over_ground"`
	Altitude         float64 `json:"altitude"`
	Nsat             int     `json:"nsat"`
	Location         struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
}

// AutoPiDevicePosition is one row of the bulk most_recent_positions response.
type AutoPiDevicePosition struct {
	ID                string           `json:"id"`
	UnitID            string           `json:"unit_id"`
	Display           string           `json:"display"`
	LastCommunication time.Time        `json:"last_communication"`
	Positions         []AutoPiPosition `json:"positions"`
}

// AutoPiTripDisplay is the reverse-geocoded address block attached to trip endpoints.
type AutoPiTripDisplay struct {
	City    null.String `json:"city"`
	Address null.String `json:"address"`
	Country null.String `json:"country"`
}

// AutoPiTrip is one row of the trips response. End fields are empty while a
// trip is still in progress.
type AutoPiTrip struct {
	ID                   string             `json:"id"`
	StartTimeUTC         string             `json:"start_time_utc"`
	EndTimeUTC           string             `json:"end_time_utc"`
	StartPositionLat     string             `json:"start_position_lat"`
	StartPositionLng     string             `json:"start_position_lng"`
	StartPositionDisplay *AutoPiTripDisplay `json:"start_position_display"`
	EndPositionLat       string             `json:"end_position_lat"`
	EndPositionLng       string             `json:"end_position_lng"`
	EndPositionDisplay   *AutoPiTripDisplay `json:"end_position_display"`
	Vehicle              int                `json:"vehicle"`
	Duration             null.String        `json:"duration"`
	DistanceKm           float64            `json:"distanceKm"`
	Tag                  string             `json:"tag"`
	State                string             `json:"state"`
}

type tripsResponse struct {
	Count    int          `json:"count"`
	Results  []AutoPiTrip `json:"results"`
	PageSize int          `json:"page_size"`
}

// AutoPiEvent is one row of the logbook events response. data arrives as a
// list of loose dicts that get merged downstream.
type AutoPiEvent struct {
	Ts    string           `json:"ts"`
	Data  []map[string]any `json:"data"`
	Tag   string           `json:"tag"`
	Area  string           `json:"area"`
	Event string           `json:"event"`
}

type eventsResponse struct {
	Count    int           `json:"count"`
	Results  []AutoPiEvent `json:"results"`
	PageSize int           `json:"page_size"`
}

// AutoPiFleetAlerts is the account-wide alert rollup grouped by severity.
type AutoPiFleetAlerts struct {
	Total      int `json:"total"`
	Severities []struct {
		Severity string `json:"severity"`
		Alerts   []struct {
			Title        string `json:"title"`
			UUID         string `json:"uuid"`
			VehicleCount int    `json:"vehicle_count"`
		} `json:"alerts"`
	} `json:"severities"`
}
