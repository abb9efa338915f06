package autozero

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DIMO-Network/shared/redis/mocks"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestStoreSaveWritesSnapshotJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snap := &Snapshot{ZeroedMetrics: []ZeroedMetric{
		{VehicleID: "123", FieldID: "obd.speed.value", ZeroedAt: time.Date(2025, 7, 29, 10, 30, 0, 0, time.UTC)},
	}}

	cache := mocks.NewMockCacheService(ctrl)
	cache.EXPECT().Set(gomock.Any(), snapshotKey, gomock.Any(), time.Duration(0)).
		DoAndReturn(func(_ context.Context, _ string, value any, _ time.Duration) *redis.StatusCmd {
			var got Snapshot
			require.NoError(t, json.Unmarshal(value.([]byte), &got))
			assert.Equal(t, snap.ZeroedMetrics, got.ZeroedMetrics)
			return &redis.StatusCmd{}
		})

	store := NewStore(cache)
	require.NoError(t, store.Save(context.Background(), snap))
}

func TestStoreSaveSurfacesCacheError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mocks.NewMockCacheService(ctrl)
	cache.EXPECT().Set(gomock.Any(), snapshotKey, gomock.Any(), time.Duration(0)).
		Return(redis.NewStatusResult("", errors.New("connection refused")))

	store := NewStore(cache)
	err := store.Save(context.Background(), &Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set cache value")
}

func TestStoreLoadColdStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mocks.NewMockCacheService(ctrl)
	cache.EXPECT().Get(gomock.Any(), snapshotKey).Return(redis.NewStringResult("", redis.Nil))

	store := NewStore(cache)
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.ZeroedMetrics)
}

func TestStoreLoadCorruptSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mocks.NewMockCacheService(ctrl)
	cache.EXPECT().Get(gomock.Any(), snapshotKey).Return(redis.NewStringResult("{not json", nil))

	store := NewStore(cache)
	snap, err := store.Load(context.Background())
	require.Error(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.ZeroedMetrics)
}

func TestStoreRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snap := &Snapshot{ZeroedMetrics: []ZeroedMetric{
		{VehicleID: "7", FieldID: "obd.rpm.value", ZeroedAt: time.Date(2025, 7, 29, 9, 0, 0, 0, time.UTC)},
		{VehicleID: "9", FieldID: "std.accelerometer_axis_x.value", ZeroedAt: time.Date(2025, 7, 29, 9, 5, 0, 0, time.UTC)},
	}}

	var written []byte
	cache := mocks.NewMockCacheService(ctrl)
	cache.EXPECT().Set(gomock.Any(), snapshotKey, gomock.Any(), time.Duration(0)).
		DoAndReturn(func(_ context.Context, _ string, value any, _ time.Duration) *redis.StatusCmd {
			written = value.([]byte)
			return &redis.StatusCmd{}
		})
	cache.EXPECT().Get(gomock.Any(), snapshotKey).
		DoAndReturn(func(_ context.Context, _ string) *redis.StringCmd {
			return redis.NewStringResult(string(written), nil)
		})

	store := NewStore(cache)
	require.NoError(t, store.Save(context.Background(), snap))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.ZeroedMetrics, got.ZeroedMetrics)
}

func TestStorePurge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mocks.NewMockCacheService(ctrl)
	cache.EXPECT().Del(gomock.Any(), snapshotKey).Return(redis.NewIntResult(1, nil))

	store := NewStore(cache)
	require.NoError(t, store.Purge(context.Background()))
}
