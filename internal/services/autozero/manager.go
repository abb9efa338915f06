package autozero

import (
	"cmp"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/homefleet/autopi-bridge/internal/appmetrics"
	"github.com/homefleet/autopi-bridge/internal/constants"
)

// TransitionListener is called after a zero-state transition has been
// applied, outside the table lock. zeroed is true for a zeroing, false for an
// un-zeroing.
type TransitionListener func(key MetricKey, zeroed bool, at time.Time)

type stateRow struct {
	state ZeroState
	// touchedAt is the last time this entry was evaluated or restored. The
	// purge sweep keys off it.
	touchedAt time.Time
}

// Manager owns the zero-state table. Evaluate is the only writer of
// transitions; the facade methods are concurrent readers.
type Manager struct {
	log       zerolog.Logger
	store     *Store
	readings  ReadingSource
	listener  TransitionListener
	enabled   bool
	threshold time.Duration

	mu     sync.RWMutex
	states map[MetricKey]stateRow

	saveCh   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopOnce sync.Once
}

// NewManager builds a manager. store may be nil (no persistence, eg. in the
// check-api subcommand) and listener may be nil.
func NewManager(logger *zerolog.Logger, store *Store, readings ReadingSource, enabled bool, listener TransitionListener) *Manager {
	return &Manager{
		log:       logger.With().Str("component", "autozero").Logger(),
		store:     store,
		readings:  readings,
		listener:  listener,
		enabled:   enabled,
		threshold: constants.StaleDataThreshold,
		states:    make(map[MetricKey]stateRow),
		saveCh:    make(chan struct{}, 8),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

func (m *Manager) Enabled() bool {
	return m.enabled
}

// Evaluate applies the transition rules to one metric and returns the
// resulting state. It never errors; persistence is asynchronous and its
// failures never reach this path.
//
// Rules, in order: a metric that is not zeroed and whose reading is stale
// gets zeroed with ZeroedAt set to now. A zeroed metric un-zeroes only when
// the reading is fresh and its LastSeen is strictly newer than ZeroedAt, so
// replayed or out-of-order reports never flap an already-zeroed metric.
// Anything else leaves the state untouched.
func (m *Manager) Evaluate(key MetricKey, reading MetricReading, now time.Time) ZeroState {
	if !m.enabled {
		return ZeroState{}
	}

	m.mu.Lock()
	row := m.states[key]
	row.touchedAt = now
	stale := IsStale(reading.LastSeen, now, m.threshold)

	var zeroed, unzeroed bool
	switch {
	case !row.state.IsZeroed && stale:
		at := now
		row.state = ZeroState{IsZeroed: true, ZeroedAt: &at}
		zeroed = true
	// A fresh reading implies LastSeen is non-nil.
	case row.state.IsZeroed && !stale && reading.LastSeen.After(*row.state.ZeroedAt):
		row.state = ZeroState{}
		unzeroed = true
	}
	m.states[key] = row
	state := row.state
	m.mu.Unlock()

	switch {
	case zeroed:
		appmetrics.AutoZeroZeroedTotalOps.Inc()
		m.log.Info().
			Str("vehicleId", key.VehicleID).
			Str("fieldId", key.FieldID).
			Time("zeroedAt", *state.ZeroedAt).
			Msg("Metric went stale, rendering as zero.")
		m.requestSave()
		if m.listener != nil {
			m.listener(key, true, *state.ZeroedAt)
		}
	case unzeroed:
		appmetrics.AutoZeroUnzeroedTotalOps.Inc()
		m.log.Info().
			Str("vehicleId", key.VehicleID).
			Str("fieldId", key.FieldID).
			Time("lastSeen", *reading.LastSeen).
			Msg("Fresh data arrived, metric un-zeroed.")
		m.requestSave()
		if m.listener != nil {
			m.listener(key, false, now)
		}
	}

	return state
}

// CurrentValue is the presentation read path: the zero equivalent while the
// metric is zeroed, the raw reading value otherwise. With the engine disabled
// the table is never consulted.
func (m *Manager) CurrentValue(key MetricKey) any {
	var raw any
	if reading, ok := m.readings.Reading(key); ok {
		raw = reading.Value
	}
	if !m.enabled {
		return raw
	}

	m.mu.RLock()
	zeroed := m.states[key].state.IsZeroed
	m.mu.RUnlock()

	if zeroed {
		return 0
	}
	return raw
}

func (m *Manager) IsCurrentlyZeroed(key MetricKey) bool {
	if !m.enabled {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[key].state.IsZeroed
}

// ZeroedSince returns when the metric was zeroed, or nil if it is not.
func (m *Manager) ZeroedSince(key MetricKey) *time.Time {
	if !m.enabled {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[key].state.ZeroedAt
}

// StateOf returns the tracked state for a metric, or ErrNotTracked if it was
// never evaluated or restored.
func (m *Manager) StateOf(key MetricKey) (ZeroState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.states[key]
	if !ok {
		return ZeroState{}, ErrNotTracked
	}
	return row.state, nil
}

// ZeroedMetrics dumps the currently zeroed entries, sorted for stable output.
func (m *Manager) ZeroedMetrics() []ZeroedMetric {
	m.mu.RLock()
	out := make([]ZeroedMetric, 0, len(m.states))
	for key, row := range m.states {
		if !row.state.IsZeroed {
			continue
		}
		out = append(out, ZeroedMetric{
			VehicleID: key.VehicleID,
			FieldID:   key.FieldID,
			ZeroedAt:  *row.state.ZeroedAt,
		})
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b ZeroedMetric) int {
		if c := cmp.Compare(a.VehicleID, b.VehicleID); c != 0 {
			return c
		}
		return cmp.Compare(a.FieldID, b.FieldID)
	})
	return out
}

// Restore seeds the table from the persisted snapshot. Entries older than the
// retention window are dropped. Load faults leave the table empty; a degraded
// store only costs restart survival.
func (m *Manager) Restore(ctx context.Context, now time.Time) {
	if m.store == nil {
		return
	}
	snap, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("Could not load zero-state snapshot, starting fresh.")
	}

	restored, dropped := 0, 0
	m.mu.Lock()
	for _, zm := range snap.ZeroedMetrics {
		if now.Sub(zm.ZeroedAt) >= constants.ZeroStateRetention {
			dropped++
			m.log.Debug().
				Str("vehicleId", zm.VehicleID).
				Str("fieldId", zm.FieldID).
				Time("zeroedAt", zm.ZeroedAt).
				Msg("Dropping zeroed entry past retention.")
			continue
		}
		at := zm.ZeroedAt
		key := MetricKey{VehicleID: zm.VehicleID, FieldID: zm.FieldID}
		m.states[key] = stateRow{
			state:     ZeroState{IsZeroed: true, ZeroedAt: &at},
			touchedAt: now,
		}
		restored++
	}
	m.mu.Unlock()

	appmetrics.SnapshotEntriesRestored.Add(float64(restored))
	appmetrics.SnapshotEntriesDropped.Add(float64(dropped))
	m.log.Info().Int("restored", restored).Int("dropped", dropped).Msg("Zero-state snapshot loaded.")
}

// PurgeUntouched drops entries not evaluated or restored since cutoff and
// reports how many were removed and how many of those were zeroed.
func (m *Manager) PurgeUntouched(cutoff time.Time) (removed, zeroed int) {
	m.mu.Lock()
	for key, row := range m.states {
		if !row.touchedAt.Before(cutoff) {
			continue
		}
		delete(m.states, key)
		removed++
		if row.state.IsZeroed {
			zeroed++
		}
	}
	m.mu.Unlock()
	return removed, zeroed
}

// Start launches the background snapshot writer. Transitions request saves
// through a channel; the writer coalesces bursts into one write.
func (m *Manager) Start(ctx context.Context) {
	if m.store == nil {
		return
	}
	m.started = true
	go m.runWriter(ctx)
}

// Stop shuts the writer down after flushing a final snapshot.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	if m.started {
		<-m.doneCh
	}
}

func (m *Manager) runWriter(ctx context.Context) {
	defer close(m.doneCh)
	for {
		select {
		case <-m.saveCh:
			timer := time.NewTimer(constants.SnapshotSaveDebounce)
		drain:
			for {
				select {
				case <-m.saveCh:
				case <-timer.C:
					break drain
				case <-m.stopCh:
					timer.Stop()
					m.save(ctx)
					return
				case <-ctx.Done():
					timer.Stop()
					return
				}
			}
			m.save(ctx)
		case <-m.stopCh:
			m.save(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

// RequestSave asks the writer for a snapshot write outside the evaluate path,
// eg. after a sweep removed zeroed entries.
func (m *Manager) RequestSave() {
	m.requestSave()
}

func (m *Manager) requestSave() {
	if m.store == nil {
		return
	}
	select {
	case m.saveCh <- struct{}{}:
	default:
	}
}

func (m *Manager) save(ctx context.Context) {
	if m.store == nil {
		return
	}
	snap := &Snapshot{ZeroedMetrics: m.ZeroedMetrics()}
	appmetrics.SnapshotSavesTotalOps.Inc()
	if err := m.store.Save(ctx, snap); err != nil {
		appmetrics.SnapshotSavesFailedOps.Inc()
		m.log.Error().Err(err).Msg("Failed to save zero-state snapshot, will retry on next transition.")
		return
	}
	m.log.Debug().Int("zeroedMetrics", len(snap.ZeroedMetrics)).Msg("Zero-state snapshot saved.")
}
