package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/constants"
)

// fakeStandardRedis backs task state with a plain map. Only Get and Set are
// exercised by the handler; the rest satisfy the interface.
type fakeStandardRedis struct {
	m map[string][]byte
}

func newFakeStandardRedis() *fakeStandardRedis {
	return &fakeStandardRedis{m: make(map[string][]byte)}
}

func (f *fakeStandardRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if b, ok := f.m[key]; ok {
		return redis.NewStringResult(string(b), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeStandardRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.m[key] = v
	case string:
		f.m[key] = []byte(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStandardRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.m, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeStandardRedis) SetNX(context.Context, string, interface{}, time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(false, nil)
}

func (f *fakeStandardRedis) Pipelined(context.Context, func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	return nil, nil
}

func (f *fakeStandardRedis) Eval(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, nil)
}

func (f *fakeStandardRedis) EvalSha(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, nil)
}

func (f *fakeStandardRedis) ScriptExists(context.Context, ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(nil, nil)
}

func (f *fakeStandardRedis) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func testBackfillService(api AutoPiAPIService, emitter EventService) (*eventsBackfillService, *fakeStandardRedis) {
	fake := newFakeStandardRedis()
	return &eventsBackfillService{
		settings:  &config.Settings{BackfillDefaultDays: 7},
		autoPiSvc: api,
		eventSvc:  emitter,
		redis:     fake,
		log:       zerolog.Nop(),
	}, fake
}

func TestBackfillEventsReplaysHistory(t *testing.T) {
	now := time.Now().UTC()
	api := &stubAutoPiAPI{
		vehicles: []AutoPiVehicle{{ID: 123, Devices: []string{"device-1"}}},
		events: map[string][]AutoPiEvent{
			"device-1": {
				{Ts: now.Add(-2 * time.Hour).Format(time.RFC3339), Tag: "vehicle/battery/charging", Area: "vehicle", Event: "battery"},
				{Ts: now.Add(-5 * time.Hour).Format(time.RFC3339), Tag: "vehicle/engine/stopped", Area: "vehicle", Event: "engine"},
			},
		},
	}
	emitter := &recordingEmitter{}
	ebs, _ := testBackfillService(api, emitter)

	err := ebs.backfillEvents(context.Background(), "task-1", 123, 2)
	require.NoError(t, err)

	// One profile lookup, then one events window per device per day.
	assert.Equal(t, 1, api.vehicleCalls)
	assert.Equal(t, 2, api.eventCalls)
	require.Len(t, emitter.events, 4)
	assert.Equal(t, constants.VehicleEventEventType, emitter.events[0].Type)
	assert.Equal(t, "123", emitter.events[0].Subject)
	data, ok := emitter.events[0].Data.(VehicleEventEventData)
	require.True(t, ok)
	assert.Equal(t, "device-1", data.DeviceID)
	assert.Equal(t, "vehicle/battery/charging", data.Tag)

	task, err := ebs.GetTaskStatus(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, string(TaskSuccess), task.Status)
	assert.Contains(t, task.Description, "replayed 4 events over 2 days")
	assert.GreaterOrEqual(t, task.Updates, 2)
}

func TestBackfillEventsVehicleNotFound(t *testing.T) {
	api := &stubAutoPiAPI{vehicles: []AutoPiVehicle{{ID: 1, Devices: []string{"dev"}}}}
	emitter := &recordingEmitter{}
	ebs, _ := testBackfillService(api, emitter)

	// Unknown vehicle fails the task without queueing a retry.
	err := ebs.backfillEvents(context.Background(), "task-2", 999, 1)
	require.NoError(t, err)
	assert.Empty(t, emitter.events)

	task, err := ebs.GetTaskStatus(context.Background(), "task-2")
	require.NoError(t, err)
	assert.Equal(t, string(TaskFailure), task.Status)
	assert.Equal(t, 400, task.Code)
}

func TestBackfillGetTaskStatusNotFound(t *testing.T) {
	ebs, _ := testBackfillService(&stubAutoPiAPI{}, &recordingEmitter{})

	_, err := ebs.GetTaskStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
