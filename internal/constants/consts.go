package constants

import "time"

// CloudEvent types emitted to the events topic.
const (
	MetricZeroedEventType      = "com.homefleet.autopi.metric.zeroed"
	MetricUnzeroedEventType    = "com.homefleet.autopi.metric.unzeroed"
	VehicleDiscoveredEventType = "com.homefleet.autopi.vehicle.discovered"
	VehicleEventEventType      = "com.homefleet.autopi.vehicle.event"
)

const EventSource = "autopi-bridge"

// Staleness and retention windows for the auto-zero engine. These are fixed
// operational constants, not configuration.
const (
	// StaleDataThreshold is how long a metric may go without a fresh report
	// before it renders as zero.
	StaleDataThreshold = 15 * time.Minute
	// ZeroStateRetention bounds how old a persisted zeroed entry may be
	// before it is dropped on restore, and how long an unobserved metric
	// survives the purge sweep.
	ZeroStateRetention = 24 * time.Hour
	// PurgeSweepInterval is the cadence of the background purge sweep.
	PurgeSweepInterval = time.Hour
	// SnapshotSaveDebounce coalesces bursts of zero-state transitions into a
	// single snapshot write.
	SnapshotSaveDebounce = 2 * time.Second
	// DataFieldTimeout is how long a reading still counts as available for
	// presentation purposes.
	DataFieldTimeout = 30 * time.Minute
)

const (
	// ProfileCacheTTL is how long vehicle profiles are served from cache
	// before the poller refreshes them upstream.
	ProfileCacheTTL = 30 * time.Minute
	// DefaultSlowPollCycles is the default Nth-cycle cadence for trips,
	// events and fleet alerts.
	DefaultSlowPollCycles = 3
)

// HA sensor device classes used in MQTT discovery payloads.
const (
	DeviceClassBattery       = "battery"
	DeviceClassVoltage       = "voltage"
	DeviceClassCurrent       = "current"
	DeviceClassDistance      = "distance"
	DeviceClassVolume        = "volume"
	DeviceClassVolumeStorage = "volume_storage"
	DeviceClassDuration      = "duration"
	DeviceClassSpeed         = "speed"
	DeviceClassTemperature   = "temperature"
)

// HA sensor state classes.
const (
	StateClassMeasurement     = "measurement"
	StateClassTotalIncreasing = "total_increasing"
)
