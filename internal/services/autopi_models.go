package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// VehiclePosition is a parsed GPS fix ready for presentation.
type VehiclePosition struct {
	Timestamp     time.Time `json:"timestamp"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Altitude      float64   `json:"altitude"`
	Speed         float64   `json:"speed"`
	Course        float64   `json:"course"`
	NumSatellites int       `json:"numSatellites"`
}

// LocationAccuracy estimates the fix accuracy in meters from the satellite count.
func (p *VehiclePosition) LocationAccuracy() float64 {
	switch {
	case p.NumSatellites < 4:
		return 100.0
	case p.NumSatellites == 4:
		return 30.0
	case p.NumSatellites == 5:
		return 20.0
	case p.NumSatellites == 6:
		return 15.0
	case p.NumSatellites == 7:
		return 11.0
	case p.NumSatellites <= 9:
		return 7.5
	case p.NumSatellites <= 11:
		return 5.0
	default:
		return 3.0
	}
}

// NewVehiclePosition parses a raw fix. Errors only on a bad timestamp.
func NewVehiclePosition(raw AutoPiPosition) (*VehiclePosition, error) {
	ts, err := time.Parse(time.RFC3339, raw.Ts)
	if err != nil {
		return nil, err
	}
	return &VehiclePosition{
		Timestamp:     ts,
		Latitude:      raw.Location.Lat,
		Longitude:     raw.Location.Lon,
		Altitude:      raw.Altitude,
		Speed:         raw.SpeedOverGround,
		Course:        raw.CourseOverGround,
		NumSatellites: raw.Nsat,
	}, nil
}

// LatestPosition returns the newest fix in the payload, nil when the device
// has none or the fix does not parse.
func (d *AutoPiDevicePosition) LatestPosition() *VehiclePosition {
	if len(d.Positions) == 0 {
		return nil
	}
	p, err := NewVehiclePosition(d.Positions[0])
	if err != nil {
		return nil
	}
	return p
}

// VehicleTrip is a parsed logbook trip.
type VehicleTrip struct {
	TripID          string      `json:"tripId"`
	VehicleID       int         `json:"vehicleId"`
	StartTime       time.Time   `json:"startTime"`
	EndTime         time.Time   `json:"endTime"`
	StartLat        float64     `json:"startLat"`
	StartLng        float64     `json:"startLng"`
	StartAddress    null.String `json:"startAddress,omitempty" swaggertype:"string"`
	EndLat          float64     `json:"endLat"`
	EndLng          float64     `json:"endLng"`
	EndAddress      null.String `json:"endAddress,omitempty" swaggertype:"string"`
	DurationSeconds int         `json:"durationSeconds"`
	DistanceKm      float64     `json:"distanceKm"`
	State           string      `json:"state"`
}

// parseTripDuration turns the upstream "HH:MM:SS" form into seconds.
func parseTripDuration(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return h*3600 + m*60 + sec, true
}

// NewVehicleTrip normalizes one raw trip row. In-progress trips have no end
// time or end position yet, so those fall back to now and the start fix.
func NewVehicleTrip(raw AutoPiTrip, now time.Time) *VehicleTrip {
	startTime, err := time.Parse(time.RFC3339, raw.StartTimeUTC)
	if err != nil {
		startTime = now
	}

	endTime := now
	if raw.EndTimeUTC != "" {
		if t, err := time.Parse(time.RFC3339, raw.EndTimeUTC); err == nil {
			endTime = t
		} else {
			endTime = startTime
		}
	}

	durationSeconds := 0
	if raw.Duration.Valid {
		if secs, ok := parseTripDuration(raw.Duration.String); ok {
			durationSeconds = secs
		}
	} else if raw.State == "in_progress" || raw.State == "started" {
		durationSeconds = int(now.Sub(startTime).Seconds())
	}

	startLat, _ := strconv.ParseFloat(raw.StartPositionLat, 64)
	startLng, _ := strconv.ParseFloat(raw.StartPositionLng, 64)

	endLat := startLat
	if raw.EndPositionLat != "" {
		if v, err := strconv.ParseFloat(raw.EndPositionLat, 64); err == nil {
			endLat = v
		}
	}
	endLng := startLng
	if raw.EndPositionLng != "" {
		if v, err := strconv.ParseFloat(raw.EndPositionLng, 64); err == nil {
			endLng = v
		}
	}

	trip := &VehicleTrip{
		TripID:          raw.ID,
		VehicleID:       raw.Vehicle,
		StartTime:       startTime,
		EndTime:         endTime,
		StartLat:        startLat,
		StartLng:        startLng,
		EndLat:          endLat,
		EndLng:          endLng,
		DurationSeconds: durationSeconds,
		DistanceKm:      raw.DistanceKm,
		State:           raw.State,
	}
	if raw.StartPositionDisplay != nil {
		trip.StartAddress = raw.StartPositionDisplay.Address
	}
	if raw.EndPositionDisplay != nil {
		trip.EndAddress = raw.EndPositionDisplay.Address
	}
	return trip
}

// VehicleEvent is a parsed logbook event with its data dicts merged into one map.
type VehicleEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Tag       string         `json:"tag"`
	Area      string         `json:"area"`
	EventType string         `json:"eventType"`
	Data      map[string]any `json:"data,omitempty"`
	DeviceID  string         `json:"deviceId"`
}

// UniqueID is stable across refetches of the same event.
func (e *VehicleEvent) UniqueID() string {
	return e.DeviceID + "_" + e.Timestamp.Format(time.RFC3339) + "_" + e.Tag
}

// NewVehicleEvent parses a raw event row. Errors on a bad timestamp; callers
// skip those rows.
func NewVehicleEvent(raw AutoPiEvent, deviceID string) (*VehicleEvent, error) {
	ts, err := time.Parse(time.RFC3339, raw.Ts)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any)
	for _, item := range raw.Data {
		for k, v := range item {
			merged[k] = v
		}
	}
	return &VehicleEvent{
		Timestamp: ts,
		Tag:       raw.Tag,
		Area:      raw.Area,
		EventType: raw.Event,
		Data:      merged,
		DeviceID:  deviceID,
	}, nil
}

// FleetAlert is one alert flattened out of the severity-grouped rollup.
type FleetAlert struct {
	AlertID      string `json:"alertId"`
	Title        string `json:"title"`
	Severity     string `json:"severity"`
	VehicleCount int    `json:"vehicleCount"`
}

// FlattenFleetAlerts unrolls the grouped response into a flat list.
func FlattenFleetAlerts(raw *AutoPiFleetAlerts) []FleetAlert {
	if raw == nil {
		return nil
	}
	alerts := make([]FleetAlert, 0, raw.Total)
	for _, sev := range raw.Severities {
		for _, a := range sev.Alerts {
			alerts = append(alerts, FleetAlert{
				AlertID:      a.UUID,
				Title:        a.Title,
				Severity:     sev.Severity,
				VehicleCount: a.VehicleCount,
			})
		}
	}
	return alerts
}

const (
	chargingStartTag = "vehicle/battery/charging"
	chargingEndTag   = "vehicle/battery/discharging"
)

// ChargingSession is a charge window reconstructed from battery event pairs.
type ChargingSession struct {
	Start           *time.Time `json:"start,omitempty"`
	End             *time.Time `json:"end,omitempty"`
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
	State           string     `json:"state"`
	StartTag        string     `json:"startTag,omitempty"`
	EndTag          string     `json:"endTag,omitempty"`
}

// DeriveChargingSession pairs charging/discharging events into sessions and
// returns the most recent one, nil when the window holds no charging events.
// Events may arrive in any order.
func DeriveChargingSession(events []VehicleEvent) *ChargingSession {
	var latestStart, latestEnd *VehicleEvent
	for i := range events {
		e := &events[i]
		switch e.Tag {
		case chargingStartTag:
			if latestStart == nil || e.Timestamp.After(latestStart.Timestamp) {
				latestStart = e
			}
		case chargingEndTag:
			if latestEnd == nil || e.Timestamp.After(latestEnd.Timestamp) {
				latestEnd = e
			}
		}
	}
	if latestStart == nil && latestEnd == nil {
		return nil
	}

	session := &ChargingSession{State: "charging"}
	if latestStart != nil {
		t := latestStart.Timestamp
		session.Start = &t
		session.StartTag = latestStart.Tag
	}
	if latestEnd != nil && (latestStart == nil || latestEnd.Timestamp.After(latestStart.Timestamp)) {
		t := latestEnd.Timestamp
		session.End = &t
		session.EndTag = latestEnd.Tag
		session.State = "complete"
		if session.Start != nil {
			secs := int(session.End.Sub(*session.Start).Seconds())
			session.DurationSeconds = &secs
		}
	}
	return session
}

// DTCEntry is a diagnostic trouble code lifted out of an event payload.
type DTCEntry struct {
	Code        string      `json:"code"`
	Description null.String `json:"description,omitempty" swaggertype:"string"`
	OccurredAt  *time.Time  `json:"occurredAt,omitempty"`
}

func stringField(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// DeriveDTCEntries lifts trouble codes out of DTC-flavored events. The event
// timestamp backstops a missing occurred_at.
func DeriveDTCEntries(events []VehicleEvent) []DTCEntry {
	entries := make([]DTCEntry, 0)
	for i := range events {
		e := &events[i]
		if !strings.Contains(e.EventType, "dtc") && !strings.Contains(e.Tag, "dtc") {
			continue
		}
		code := stringField(e.Data, "dtc_code", "code")
		if code == "" {
			continue
		}
		entry := DTCEntry{Code: code}
		if desc := stringField(e.Data, "description", "text"); desc != "" {
			entry.Description = null.StringFrom(desc)
		}
		occurred := e.Timestamp
		if raw := stringField(e.Data, "occurred_at_utc", "occurred_at"); raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				occurred = t
			}
		}
		entry.OccurredAt = &occurred
		entries = append(entries, entry)
	}
	return entries
}
