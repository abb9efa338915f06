package autozero

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DIMO-Network/shared/redis/mocks"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/homefleet/autopi-bridge/internal/constants"
	"github.com/rs/zerolog"
)

type stubReadings map[MetricKey]MetricReading

func (s stubReadings) Reading(key MetricKey) (MetricReading, bool) {
	r, ok := s[key]
	return r, ok
}

type transitionRecorder struct {
	zeroed   []MetricKey
	unzeroed []MetricKey
}

func (r *transitionRecorder) listen(key MetricKey, zeroed bool, _ time.Time) {
	if zeroed {
		r.zeroed = append(r.zeroed, key)
	} else {
		r.unzeroed = append(r.unzeroed, key)
	}
}

func testManager(readings ReadingSource, listener TransitionListener) *Manager {
	logger := zerolog.Nop()
	return NewManager(&logger, nil, readings, true, listener)
}

func TestManagerZeroesStaleMetric(t *testing.T) {
	base := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	key := MetricKey{VehicleID: "123", FieldID: "obd.speed.value"}
	lastSeen := base.Add(-20 * time.Minute)
	readings := stubReadings{key: {Value: 54.5, LastSeen: &lastSeen}}
	rec := &transitionRecorder{}
	mgr := testManager(readings, rec.listen)

	st := mgr.Evaluate(key, readings[key], base)

	assert.True(t, st.IsZeroed)
	require.NotNil(t, st.ZeroedAt)
	assert.Equal(t, base, *st.ZeroedAt)
	assert.Equal(t, 0, mgr.CurrentValue(key))
	assert.Equal(t, []MetricKey{key}, rec.zeroed)
	assert.Empty(t, rec.unzeroed)
}

func TestManagerStaysZeroedWithoutSecondTransition(t *testing.T) {
	base := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	key := MetricKey{VehicleID: "123", FieldID: "obd.rpm.value"}
	lastSeen := base.Add(-20 * time.Minute)
	readings := stubReadings{key: {Value: 2200, LastSeen: &lastSeen}}
	rec := &transitionRecorder{}
	mgr := testManager(readings, rec.listen)

	first := mgr.Evaluate(key, readings[key], base)
	require.True(t, first.IsZeroed)

	// Same stale reading five minutes later. The marker must not move.
	second := mgr.Evaluate(key, readings[key], base.Add(5*time.Minute))

	assert.True(t, second.IsZeroed)
	assert.Equal(t, *first.ZeroedAt, *second.ZeroedAt)
	assert.Len(t, rec.zeroed, 1)
	assert.Empty(t, rec.unzeroed)
	assert.Equal(t, 0, mgr.CurrentValue(key))
}

func TestManagerUnzeroesOnFreshData(t *testing.T) {
	base := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	key := MetricKey{VehicleID: "123", FieldID: "obd.coolant_temp.value"}
	staleSeen := base.Add(-20 * time.Minute)
	readings := stubReadings{key: {Value: 88.0, LastSeen: &staleSeen}}
	rec := &transitionRecorder{}
	mgr := testManager(readings, rec.listen)

	st := mgr.Evaluate(key, readings[key], base)
	require.True(t, st.IsZeroed)

	freshSeen := base.Add(9 * time.Minute)
	readings[key] = MetricReading{Value: 91.0, LastSeen: &freshSeen}
	st = mgr.Evaluate(key, readings[key], base.Add(10*time.Minute))

	assert.False(t, st.IsZeroed)
	assert.Nil(t, st.ZeroedAt)
	assert.Equal(t, 91.0, mgr.CurrentValue(key))
	assert.Equal(t, []MetricKey{key}, rec.unzeroed)
}

func TestManagerIgnoresReplayedData(t *testing.T) {
	base := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	key := MetricKey{VehicleID: "123", FieldID: "obd.engine_load.value"}
	staleSeen := base.Add(-20 * time.Minute)
	readings := stubReadings{key: {Value: 40.0, LastSeen: &staleSeen}}
	rec := &transitionRecorder{}
	mgr := testManager(readings, rec.listen)

	st := mgr.Evaluate(key, readings[key], base)
	require.True(t, st.IsZeroed)

	// A replay carries a timestamp no newer than the zero marker, so the
	// metric must stay zeroed even though the payload looks fresh-ish.
	replaySeen := base.Add(-1 * time.Minute)
	readings[key] = MetricReading{Value: 40.0, LastSeen: &replaySeen}
	st = mgr.Evaluate(key, readings[key], base.Add(2*time.Minute))

	assert.True(t, st.IsZeroed)
	assert.Equal(t, 0, mgr.CurrentValue(key))
	assert.Empty(t, rec.unzeroed)
}

func TestManagerDisabledPassesThrough(t *testing.T) {
	base := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	key := MetricKey{VehicleID: "123", FieldID: "obd.throttle_pos.value"}
	lastSeen := base.Add(-2 * time.Hour)
	readings := stubReadings{key: {Value: 17.2, LastSeen: &lastSeen}}
	logger := zerolog.Nop()
	mgr := NewManager(&logger, nil, readings, false, nil)

	st := mgr.Evaluate(key, readings[key], base)

	assert.False(t, st.IsZeroed)
	assert.Equal(t, 17.2, mgr.CurrentValue(key))
	assert.False(t, mgr.IsCurrentlyZeroed(key))

	_, err := mgr.StateOf(key)
	assert.ErrorIs(t, err, ErrNotTracked)
}

func TestManagerStateOf(t *testing.T) {
	base := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	key := MetricKey{VehicleID: "123", FieldID: "std.fuel_used_gps.value"}
	lastSeen := base.Add(-16 * time.Minute)
	readings := stubReadings{key: {Value: 1.2, LastSeen: &lastSeen}}
	mgr := testManager(readings, nil)

	_, err := mgr.StateOf(key)
	assert.ErrorIs(t, err, ErrNotTracked)

	mgr.Evaluate(key, readings[key], base)

	st, err := mgr.StateOf(key)
	require.NoError(t, err)
	assert.True(t, st.IsZeroed)
	assert.Equal(t, base, *mgr.ZeroedSince(key))
}

func TestManagerRestoreSkipsExpiredEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	snap := &Snapshot{ZeroedMetrics: []ZeroedMetric{
		{VehicleID: "123", FieldID: "obd.rpm.value", ZeroedAt: now.Add(-30 * time.Hour)},
		{VehicleID: "123", FieldID: "obd.speed.value", ZeroedAt: now.Add(-2 * time.Hour)},
	}}
	b, err := json.Marshal(snap)
	require.NoError(t, err)

	cache := mocks.NewMockCacheService(ctrl)
	cache.EXPECT().Get(gomock.Any(), snapshotKey).Return(redis.NewStringResult(string(b), nil))

	logger := zerolog.Nop()
	mgr := NewManager(&logger, NewStore(cache), stubReadings{}, true, nil)
	mgr.Restore(context.Background(), now)

	// The 30h-old entry aged past retention and must not come back.
	assert.False(t, mgr.IsCurrentlyZeroed(MetricKey{VehicleID: "123", FieldID: "obd.rpm.value"}))

	key := MetricKey{VehicleID: "123", FieldID: "obd.speed.value"}
	assert.True(t, mgr.IsCurrentlyZeroed(key))
	assert.Equal(t, 0, mgr.CurrentValue(key))

	st, err := mgr.StateOf(key)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-2*time.Hour), *st.ZeroedAt)
}

func TestManagerRestoreSurvivesEmptyCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mocks.NewMockCacheService(ctrl)
	cache.EXPECT().Get(gomock.Any(), snapshotKey).Return(redis.NewStringResult("", redis.Nil))

	logger := zerolog.Nop()
	mgr := NewManager(&logger, NewStore(cache), stubReadings{}, true, nil)
	mgr.Restore(context.Background(), time.Now())

	assert.Empty(t, mgr.ZeroedMetrics())
}

func TestManagerUnzeroesExactlyOnceAfterRestore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	key := MetricKey{VehicleID: "9", FieldID: "obd.run_time.value"}
	snap := &Snapshot{ZeroedMetrics: []ZeroedMetric{
		{VehicleID: key.VehicleID, FieldID: key.FieldID, ZeroedAt: now.Add(-3 * time.Hour)},
	}}
	b, err := json.Marshal(snap)
	require.NoError(t, err)

	cache := mocks.NewMockCacheService(ctrl)
	cache.EXPECT().Get(gomock.Any(), snapshotKey).Return(redis.NewStringResult(string(b), nil))
	cache.EXPECT().Set(gomock.Any(), snapshotKey, gomock.Any(), time.Duration(0)).Return(&redis.StatusCmd{}).AnyTimes()

	readings := stubReadings{}
	rec := &transitionRecorder{}
	logger := zerolog.Nop()
	mgr := NewManager(&logger, NewStore(cache), readings, true, rec.listen)
	mgr.Restore(context.Background(), now)
	require.True(t, mgr.IsCurrentlyZeroed(key))

	freshSeen := now.Add(time.Minute)
	readings[key] = MetricReading{Value: 3605, LastSeen: &freshSeen}

	st := mgr.Evaluate(key, readings[key], now.Add(2*time.Minute))
	assert.False(t, st.IsZeroed)

	st = mgr.Evaluate(key, readings[key], now.Add(3*time.Minute))
	assert.False(t, st.IsZeroed)

	assert.Len(t, rec.unzeroed, 1)
}

func TestManagerZeroedMetricsSorted(t *testing.T) {
	base := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	stale := base.Add(-time.Hour)
	readings := stubReadings{}
	mgr := testManager(readings, nil)

	for _, key := range []MetricKey{
		{VehicleID: "22", FieldID: "obd.speed.value"},
		{VehicleID: "7", FieldID: "obd.rpm.value"},
		{VehicleID: "22", FieldID: "obd.engine_load.value"},
	} {
		readings[key] = MetricReading{Value: 1, LastSeen: &stale}
		mgr.Evaluate(key, readings[key], base)
	}

	zm := mgr.ZeroedMetrics()
	require.Len(t, zm, 3)
	assert.Equal(t, "22", zm[0].VehicleID)
	assert.Equal(t, "obd.engine_load.value", zm[0].FieldID)
	assert.Equal(t, "obd.speed.value", zm[1].FieldID)
	assert.Equal(t, "7", zm[2].VehicleID)
}

func TestManagerPurgeUntouched(t *testing.T) {
	base := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	stale := base.Add(-time.Hour)
	oldSeen := base.Add(-26 * time.Hour)
	oldKey := MetricKey{VehicleID: "1", FieldID: "obd.speed.value"}
	liveKey := MetricKey{VehicleID: "2", FieldID: "obd.rpm.value"}
	readings := stubReadings{
		oldKey:  {Value: 1, LastSeen: &oldSeen},
		liveKey: {Value: 2, LastSeen: &stale},
	}
	mgr := testManager(readings, nil)

	mgr.Evaluate(oldKey, readings[oldKey], base.Add(-25*time.Hour))
	mgr.Evaluate(liveKey, readings[liveKey], base)

	removed, zeroed := mgr.PurgeUntouched(base.Add(-constants.ZeroStateRetention))

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, zeroed)
	assert.False(t, mgr.IsCurrentlyZeroed(oldKey))
	assert.True(t, mgr.IsCurrentlyZeroed(liveKey))

	// A metric the poller keeps evaluating is touched every cycle and
	// survives any number of sweeps, no matter how long it stays zeroed.
	removed, _ = mgr.PurgeUntouched(base.Add(-constants.ZeroStateRetention))
	assert.Equal(t, 0, removed)
	assert.True(t, mgr.IsCurrentlyZeroed(liveKey))
}

func TestManagerWriterFlushesOnStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mocks.NewMockCacheService(ctrl)
	cache.EXPECT().Set(gomock.Any(), snapshotKey, gomock.Any(), time.Duration(0)).
		Return(&redis.StatusCmd{}).MinTimes(1)

	base := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	key := MetricKey{VehicleID: "123", FieldID: "obd.speed.value"}
	stale := base.Add(-time.Hour)
	readings := stubReadings{key: {Value: 3, LastSeen: &stale}}

	logger := zerolog.Nop()
	mgr := NewManager(&logger, NewStore(cache), readings, true, nil)
	mgr.Start(context.Background())
	mgr.Evaluate(key, readings[key], base)
	mgr.Stop()
}

func TestIsStale(t *testing.T) {
	now := time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)
	fresh := now.Add(-5 * time.Minute)
	boundary := now.Add(-constants.StaleDataThreshold)
	old := now.Add(-20 * time.Minute)

	assert.True(t, IsStale(nil, now, constants.StaleDataThreshold))
	assert.False(t, IsStale(&fresh, now, constants.StaleDataThreshold))
	assert.True(t, IsStale(&boundary, now, constants.StaleDataThreshold))
	assert.True(t, IsStale(&old, now, constants.StaleDataThreshold))
}
