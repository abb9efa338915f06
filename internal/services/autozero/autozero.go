// Package autozero tracks per-metric staleness for vehicle telemetry. A
// metric whose readings stop arriving is rendered as zero after a fixed
// threshold and restored as soon as genuinely new data shows up. The zeroed
// table is persisted to Redis so it survives restarts.
package autozero

import (
	"time"

	"github.com/pkg/errors"
)

// ErrNotTracked is returned when a metric has never been evaluated or
// restored, so the engine holds no state for it.
var ErrNotTracked = errors.New("metric not tracked")

// MetricKey identifies one metric of one vehicle.
type MetricKey struct {
	VehicleID string
	FieldID   string
}

func (k MetricKey) String() string {
	return k.VehicleID + "/" + k.FieldID
}

// MetricReading is the latest observation for a metric. A nil LastSeen means
// the metric has never been seen and counts as maximally stale.
type MetricReading struct {
	Value    any
	LastSeen *time.Time
}

// ZeroState is the engine's verdict for one metric. ZeroedAt is non-nil
// exactly when IsZeroed is true.
type ZeroState struct {
	IsZeroed bool       `json:"isZeroed"`
	ZeroedAt *time.Time `json:"zeroedAt,omitempty"`
}

// ZeroedMetric is one persisted zeroed entry.
type ZeroedMetric struct {
	VehicleID string    `json:"vehicle_id"`
	FieldID   string    `json:"field_id"`
	ZeroedAt  time.Time `json:"zeroed_at"`
}

// Snapshot is the JSON document written to Redis.
type Snapshot struct {
	ZeroedMetrics []ZeroedMetric `json:"zeroed_metrics"`
}

// ReadingSource supplies the latest reading per metric for the read path.
type ReadingSource interface {
	Reading(key MetricKey) (MetricReading, bool)
}

// IsStale reports whether a reading is old enough to render as zero. A nil
// lastSeen is always stale.
func IsStale(lastSeen *time.Time, now time.Time, threshold time.Duration) bool {
	if lastSeen == nil {
		return true
	}
	return now.Sub(*lastSeen) >= threshold
}
