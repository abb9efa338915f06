package services

import (
	"context"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"

	"github.com/homefleet/autopi-bridge/internal/appmetrics"
	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/constants"
	"github.com/homefleet/autopi-bridge/internal/services/autozero"
	"github.com/homefleet/autopi-bridge/internal/services/telemetry"
)

const (
	profileCacheKey = "vehicle_profiles"
	tripsPageSize   = 10
)

// PollStats is the rolling health view of the poll loop.
type PollStats struct {
	CycleCount      int        `json:"cycleCount"`
	FailedCycles    int        `json:"failedCycles"`
	TotalAPICalls   int        `json:"totalApiCalls"`
	FailedAPICalls  int        `json:"failedApiCalls"`
	VehicleCount    int        `json:"vehicleCount"`
	LastUpdate      *time.Time `json:"lastUpdate,omitempty"`
	LastDurationSec float64    `json:"lastDurationSec"`
}

// TelemetryPoller drives the pull side of the bridge: it walks the upstream
// API on a fixed cadence, refreshes the reading store, runs the staleness
// engine over eligible fields and pushes resulting states out over MQTT.
// Cycles run serially on one goroutine, so cycles never overlap.
type TelemetryPoller struct {
	log       zerolog.Logger
	settings  *config.Settings
	api       AutoPiAPIService
	readings  *telemetry.ReadingStore
	manager   *autozero.Manager
	events    EventService
	publisher StatePublisher

	profileCache *gocache.Cache

	mu              sync.RWMutex
	vehicles        []AutoPiVehicle
	deviceToVehicle map[string]int
	positions       map[int]*VehiclePosition
	lastComm        map[int]time.Time
	trips           map[int][]VehicleTrip
	vehicleEvents   map[int][]VehicleEvent
	charging        map[int]*ChargingSession
	dtcs            map[int][]DTCEntry
	alerts          []FleetAlert
	stats           PollStats

	knownVehicles map[int]struct{}
	warnedVersion map[int]string
	lastPublished map[autozero.MetricKey]any
	cycleCount    int

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewTelemetryPoller(logger *zerolog.Logger, settings *config.Settings, api AutoPiAPIService,
	readings *telemetry.ReadingStore, manager *autozero.Manager, events EventService, publisher StatePublisher) *TelemetryPoller {
	return &TelemetryPoller{
		log:             logger.With().Str("component", "poller").Logger(),
		settings:        settings,
		api:             api,
		readings:        readings,
		manager:         manager,
		events:          events,
		publisher:       publisher,
		profileCache:    gocache.New(constants.ProfileCacheTTL, 2*constants.ProfileCacheTTL),
		deviceToVehicle: make(map[string]int),
		positions:       make(map[int]*VehiclePosition),
		lastComm:        make(map[int]time.Time),
		trips:           make(map[int][]VehicleTrip),
		vehicleEvents:   make(map[int][]VehicleEvent),
		charging:        make(map[int]*ChargingSession),
		dtcs:            make(map[int][]DTCEntry),
		knownVehicles:   make(map[int]struct{}),
		warnedVersion:   make(map[int]string),
		lastPublished:   make(map[autozero.MetricKey]any),
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start runs the first cycle immediately, then ticks at the configured
// interval until Stop or ctx cancellation.
func (p *TelemetryPoller) Start(ctx context.Context) {
	interval := time.Duration(p.settings.PollInterval()) * time.Minute
	p.log.Info().Msgf("Polling upstream every %s.", interval)

	go func() {
		defer close(p.doneCh)
		p.RunCycle(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.RunCycle(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *TelemetryPoller) Stop() {
	close(p.stopCh)
	<-p.doneCh
}

// RunCycle executes one full poll pass. Failures are counted, logged and
// absorbed so the loop keeps going. Every run carries a correlation id so the
// log lines of one cycle can be pulled together.
func (p *TelemetryPoller) RunCycle(ctx context.Context) {
	start := time.Now()
	log := p.log.With().Str("runId", uuid.New().String()).Logger()
	appmetrics.PollCyclesTotalOps.Inc()

	err := p.runCycle(ctx, start)

	elapsed := time.Since(start)
	appmetrics.PollCycleDuration.Observe(elapsed.Seconds())

	p.mu.Lock()
	p.stats.CycleCount++
	p.stats.LastDurationSec = elapsed.Seconds()
	now := time.Now()
	p.stats.LastUpdate = &now
	if err != nil {
		p.stats.FailedCycles++
	}
	p.mu.Unlock()

	if err != nil {
		appmetrics.PollCyclesFailedOps.Inc()
		log.Err(err).Msg("Poll cycle failed.")
		return
	}
	log.Debug().Dur("duration", elapsed).Msg("Poll cycle complete.")
}

func (p *TelemetryPoller) runCycle(ctx context.Context, now time.Time) error {
	p.cycleCount++

	vehicles, err := p.fetchVehicles(ctx, now)
	if err != nil {
		return err
	}

	for i := range vehicles {
		if err := p.pollVehicle(ctx, &vehicles[i], now); err != nil {
			if errors.Is(err, ErrRateLimited) {
				return err
			}
			p.log.Warn().Err(err).Int("vehicleId", vehicles[i].ID).Msg("Failed to poll vehicle telemetry.")
		}
	}

	if err := p.pollPositions(ctx, vehicles); err != nil {
		p.log.Warn().Err(err).Msg("Failed to poll positions.")
	}

	slowCycles := p.settings.SlowPollCycles
	if slowCycles <= 0 {
		slowCycles = constants.DefaultSlowPollCycles
	}
	if (p.cycleCount-1)%slowCycles == 0 {
		p.pollSlowLane(ctx, vehicles, now)
	}

	return nil
}

// fetchVehicles serves profiles from the 30 minute cache and refreshes it on
// miss, announcing any vehicle not seen before.
func (p *TelemetryPoller) fetchVehicles(ctx context.Context, now time.Time) ([]AutoPiVehicle, error) {
	if cached, found := p.profileCache.Get(profileCacheKey); found {
		return cached.([]AutoPiVehicle), nil
	}

	vehicles, err := p.api.GetVehicles(ctx)
	p.countCall(err)
	if err != nil {
		return nil, errors.Wrap(err, "failed to refresh vehicle profiles")
	}
	p.profileCache.Set(profileCacheKey, vehicles, gocache.DefaultExpiration)

	p.mu.Lock()
	p.vehicles = vehicles
	p.stats.VehicleCount = len(vehicles)
	for i := range vehicles {
		for _, deviceID := range vehicles[i].Devices {
			p.deviceToVehicle[deviceID] = vehicles[i].ID
		}
	}
	p.mu.Unlock()

	for i := range vehicles {
		v := &vehicles[i]
		if _, known := p.knownVehicles[v.ID]; known {
			continue
		}
		p.knownVehicles[v.ID] = struct{}{}
		p.announceVehicle(v, now)
	}

	return vehicles, nil
}

// announceVehicle emits the discovery event and registers every catalog
// sensor with Home Assistant.
func (p *TelemetryPoller) announceVehicle(v *AutoPiVehicle, now time.Time) {
	p.log.Info().Int("vehicleId", v.ID).Str("name", v.DisplayName()).Msg("Discovered vehicle.")

	err := p.events.Emit(&Event{
		Type:    constants.VehicleDiscoveredEventType,
		Subject: strconv.Itoa(v.ID),
		Source:  constants.EventSource,
		Data: VehicleDiscoveredEventData{
			Timestamp: now,
			VehicleID: v.ID,
			Name:      v.DisplayName(),
			VIN:       v.Vin,
			Year:      v.Year,
			DeviceIDs: v.Devices,
		},
	})
	if err != nil {
		p.log.Err(err).Int("vehicleId", v.ID).Msg("Failed to emit vehicle discovered event.")
	}

	for _, sensor := range constants.AllSensors() {
		if err := p.publisher.PublishDiscovery(v, sensor); err != nil {
			p.log.Err(err).Str("fieldId", sensor.FieldID).Msg("Failed to publish sensor discovery.")
		}
	}
}

// pollVehicle refreshes the reading store for one vehicle and runs the
// staleness engine over the auto-zero eligible fields. Data fields from later
// devices override earlier ones, matching upstream device precedence.
func (p *TelemetryPoller) pollVehicle(ctx context.Context, v *AutoPiVehicle, now time.Time) error {
	merged := make(map[string]AutoPiDataField)
	for _, deviceID := range v.Devices {
		fields, err := p.api.GetDataFields(ctx, v.ID, deviceID)
		p.countCall(err)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				return err
			}
			p.log.Warn().Err(err).Str("deviceId", deviceID).Msg("Failed to fetch data fields.")
			continue
		}
		for _, f := range fields {
			merged[f.FieldID()] = f
		}
	}
	if len(merged) == 0 {
		return nil
	}

	vehicleID := strconv.Itoa(v.ID)
	for fieldID, field := range merged {
		key := autozero.MetricKey{VehicleID: vehicleID, FieldID: fieldID}
		lastSeen := field.LastSeenTime()
		p.readings.Set(key, field.LastValue, lastSeen, now)

		effective := field.LastValue
		if constants.IsAutoZeroField(fieldID) {
			p.manager.Evaluate(key, autozero.MetricReading{Value: field.LastValue, LastSeen: lastSeen}, now)
			effective = p.manager.CurrentValue(key)
		}
		p.publishIfChanged(key, field, effective, now)
	}

	p.checkFirmware(v, merged)
	return nil
}

// publishIfChanged pushes the effective state over MQTT when it differs from
// the last published value for the key.
func (p *TelemetryPoller) publishIfChanged(key autozero.MetricKey, field AutoPiDataField, effective any, now time.Time) {
	if prev, ok := p.lastPublished[key]; ok && reflect.DeepEqual(prev, effective) {
		return
	}

	attributes := map[string]any{
		"title":     field.Title,
		"frequency": field.Frequency,
		"raw_value": field.LastValue,
	}
	if ls := field.LastSeenTime(); ls != nil {
		attributes["last_seen"] = ls.UTC().Format(time.RFC3339)
		attributes["data_age_seconds"] = int(now.Sub(*ls).Seconds())
	}
	if constants.IsAutoZeroField(key.FieldID) {
		attributes["auto_zero_active"] = p.manager.IsCurrentlyZeroed(key)
	}

	if err := p.publisher.PublishState(key.VehicleID, key.FieldID, effective, attributes); err != nil {
		p.log.Err(err).Str("fieldId", key.FieldID).Msg("Failed to publish state.")
		return
	}
	p.lastPublished[key] = effective
}

// firmwareVersionFieldID is reported by devices running recent releases.
const firmwareVersionFieldID = "release.version.value"

// checkFirmware warns once per version when a device reports firmware below
// the configured minimum.
func (p *TelemetryPoller) checkFirmware(v *AutoPiVehicle, merged map[string]AutoPiDataField) {
	if p.settings.MinimumFirmwareVersion == "" {
		return
	}
	field, ok := merged[firmwareVersionFieldID]
	if !ok {
		return
	}
	version, ok := field.LastValue.(string)
	if !ok || version == "" {
		return
	}
	if version[0] != 'v' {
		version = "v" + version // correct semver has leading v
	}
	minimum := p.settings.MinimumFirmwareVersion
	if minimum[0] != 'v' {
		minimum = "v" + minimum
	}
	if !semver.IsValid(version) || semver.Compare(version, minimum) >= 0 {
		return
	}
	if p.warnedVersion[v.ID] == version {
		return
	}
	p.warnedVersion[v.ID] = version
	p.log.Warn().Int("vehicleId", v.ID).Str("version", version).Str("minimum", minimum).
		Msg("Device firmware below minimum supported version.")
}

// pollPositions refreshes the newest fix per vehicle with one bulk call.
func (p *TelemetryPoller) pollPositions(ctx context.Context, vehicles []AutoPiVehicle) error {
	deviceIDs := make([]string, 0, len(vehicles))
	for i := range vehicles {
		deviceIDs = append(deviceIDs, vehicles[i].Devices...)
	}
	if len(deviceIDs) == 0 {
		return nil
	}

	positions, err := p.api.GetMostRecentPositions(ctx, deviceIDs)
	p.countCall(err)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range positions {
		dp := &positions[i]
		vehicleID, ok := p.deviceToVehicle[dp.ID]
		if !ok {
			continue
		}
		if !dp.LastCommunication.IsZero() && dp.LastCommunication.After(p.lastComm[vehicleID]) {
			p.lastComm[vehicleID] = dp.LastCommunication
		}
		fix := dp.LatestPosition()
		if fix == nil {
			continue
		}
		if current := p.positions[vehicleID]; current == nil || fix.Timestamp.After(current.Timestamp) {
			p.positions[vehicleID] = fix
		}
	}
	return nil
}

// pollSlowLane fetches trips, events and fleet alerts. These move slowly, so
// they only run every Nth cycle.
func (p *TelemetryPoller) pollSlowLane(ctx context.Context, vehicles []AutoPiVehicle, now time.Time) {
	for i := range vehicles {
		v := &vehicles[i]

		trips, err := p.api.GetTrips(ctx, v.ID, tripsPageSize)
		p.countCall(err)
		if err != nil {
			p.log.Warn().Err(err).Int("vehicleId", v.ID).Msg("Failed to fetch trips.")
		} else {
			parsed := make([]VehicleTrip, 0, len(trips))
			for _, raw := range trips {
				parsed = append(parsed, *NewVehicleTrip(raw, now))
			}
			p.mu.Lock()
			p.trips[v.ID] = parsed
			p.mu.Unlock()
		}

		events := p.fetchVehicleEvents(ctx, v, now)
		if events != nil {
			p.mu.Lock()
			p.vehicleEvents[v.ID] = events
			p.charging[v.ID] = DeriveChargingSession(events)
			p.dtcs[v.ID] = DeriveDTCEntries(events)
			p.mu.Unlock()
		}
	}

	alerts, err := p.api.GetFleetAlerts(ctx)
	p.countCall(err)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to fetch fleet alerts.")
		return
	}
	p.mu.Lock()
	p.alerts = FlattenFleetAlerts(alerts)
	p.mu.Unlock()
}

// fetchVehicleEvents pulls the last day of events across all of a vehicle's
// devices. Rows that fail to parse are skipped.
func (p *TelemetryPoller) fetchVehicleEvents(ctx context.Context, v *AutoPiVehicle, now time.Time) []VehicleEvent {
	if len(v.Devices) == 0 {
		return nil
	}
	events := make([]VehicleEvent, 0)
	for _, deviceID := range v.Devices {
		raw, err := p.api.GetEvents(ctx, deviceID, now.Add(-24*time.Hour), now)
		p.countCall(err)
		if err != nil {
			p.log.Warn().Err(err).Str("deviceId", deviceID).Msg("Failed to fetch events.")
			continue
		}
		for i := range raw {
			parsed, err := NewVehicleEvent(raw[i], deviceID)
			if err != nil {
				p.log.Debug().Err(err).Msg("Skipping unparseable event.")
				continue
			}
			events = append(events, *parsed)
		}
	}
	return events
}

func (p *TelemetryPoller) countCall(err error) {
	appmetrics.UpstreamAPICallsTotalOps.Inc()
	p.mu.Lock()
	p.stats.TotalAPICalls++
	if err != nil {
		p.stats.FailedAPICalls++
	}
	p.mu.Unlock()
	if err != nil {
		appmetrics.UpstreamAPICallsFailedOps.Inc()
	}
}

// Vehicles returns the last fetched profile list.
func (p *TelemetryPoller) Vehicles() []AutoPiVehicle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]AutoPiVehicle, len(p.vehicles))
	copy(out, p.vehicles)
	return out
}

// Vehicle looks a profile up by id.
func (p *TelemetryPoller) Vehicle(vehicleID int) (*AutoPiVehicle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i := range p.vehicles {
		if p.vehicles[i].ID == vehicleID {
			v := p.vehicles[i]
			return &v, true
		}
	}
	return nil, false
}

// VehicleIDForDevice resolves which vehicle a device belongs to.
func (p *TelemetryPoller) VehicleIDForDevice(deviceID string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.deviceToVehicle[deviceID]
	return id, ok
}

// Position returns the newest fix for a vehicle, nil when none seen yet.
func (p *TelemetryPoller) Position(vehicleID int) *VehiclePosition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.positions[vehicleID]
}

// LastCommunication returns when any device of the vehicle last phoned home.
func (p *TelemetryPoller) LastCommunication(vehicleID int) *time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if t, ok := p.lastComm[vehicleID]; ok {
		return &t
	}
	return nil
}

// Trips returns the latest fetched trips for a vehicle, newest first.
func (p *TelemetryPoller) Trips(vehicleID int) []VehicleTrip {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]VehicleTrip, len(p.trips[vehicleID]))
	copy(out, p.trips[vehicleID])
	return out
}

// Events returns the last day of parsed events for a vehicle.
func (p *TelemetryPoller) Events(vehicleID int) []VehicleEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]VehicleEvent, len(p.vehicleEvents[vehicleID]))
	copy(out, p.vehicleEvents[vehicleID])
	return out
}

// ChargingInfo returns the latest derived charging session, nil when unknown.
func (p *TelemetryPoller) ChargingInfo(vehicleID int) *ChargingSession {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.charging[vehicleID]
}

// DTCs returns trouble codes seen in the recent event window.
func (p *TelemetryPoller) DTCs(vehicleID int) []DTCEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]DTCEntry, len(p.dtcs[vehicleID]))
	copy(out, p.dtcs[vehicleID])
	return out
}

// Alerts returns the fleet-wide alert list from the last slow-lane pass.
func (p *TelemetryPoller) Alerts() []FleetAlert {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]FleetAlert, len(p.alerts))
	copy(out, p.alerts)
	return out
}

// Stats returns a copy of the poll loop counters.
func (p *TelemetryPoller) Stats() PollStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}
