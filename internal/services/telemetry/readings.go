// Package telemetry holds the in-memory reading store: the latest observation
// per (vehicle, field) metric. The poller and the push-ingest consumer both
// feed it; the web API, MQTT publisher and auto-zero engine read from it.
// There is no history here, downstream consumers own that.
package telemetry

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/homefleet/autopi-bridge/internal/services/autozero"
)

// Entry is a stored reading plus when the bridge last received any report
// for the key, fresh or stale. The purge sweep keys off ObservedAt.
type Entry struct {
	autozero.MetricReading
	ObservedAt time.Time
}

// ReadingStore is an RWMutex-guarded map of latest readings. Writes come one
// report at a time; reads are concurrent snapshots.
type ReadingStore struct {
	mu      sync.RWMutex
	entries map[autozero.MetricKey]Entry
}

func NewReadingStore() *ReadingStore {
	return &ReadingStore{
		entries: make(map[autozero.MetricKey]Entry),
	}
}

// Set records the latest reading for a metric. Per-key writes overwrite; keys
// absent from a report keep their previous reading.
func (rs *ReadingStore) Set(key autozero.MetricKey, value any, lastSeen *time.Time, observedAt time.Time) {
	rs.mu.Lock()
	rs.entries[key] = Entry{
		MetricReading: autozero.MetricReading{Value: value, LastSeen: lastSeen},
		ObservedAt:    observedAt,
	}
	rs.mu.Unlock()
}

// Reading returns the latest reading for a metric. Implements the engine's
// reading source.
func (rs *ReadingStore) Reading(key autozero.MetricKey) (autozero.MetricReading, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	e, ok := rs.entries[key]
	return e.MetricReading, ok
}

// Get returns the full entry including ObservedAt.
func (rs *ReadingStore) Get(key autozero.MetricKey) (Entry, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	e, ok := rs.entries[key]
	return e, ok
}

// FieldsForVehicle lists the field ids observed for one vehicle, sorted.
func (rs *ReadingStore) FieldsForVehicle(vehicleID string) []string {
	rs.mu.RLock()
	var fields []string
	for key := range rs.entries {
		if key.VehicleID == vehicleID {
			fields = append(fields, key.FieldID)
		}
	}
	rs.mu.RUnlock()

	slices.Sort(fields)
	return fields
}

// PurgeUnobserved drops entries whose last report predates cutoff and
// returns how many were removed. Implements the sweeper's reading purger.
func (rs *ReadingStore) PurgeUnobserved(cutoff time.Time) int {
	rs.mu.Lock()
	removed := 0
	for key, e := range rs.entries {
		if e.ObservedAt.Before(cutoff) {
			delete(rs.entries, key)
			removed++
		}
	}
	rs.mu.Unlock()
	return removed
}

// Len reports how many metrics are currently tracked.
func (rs *ReadingStore) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.entries)
}
