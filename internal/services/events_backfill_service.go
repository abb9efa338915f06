package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"github.com/vmihailenco/taskq/v3"
	"github.com/vmihailenco/taskq/v3/redisq"

	"github.com/homefleet/autopi-bridge/internal/appmetrics"
	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/constants"
)

//go:generate mockgen -source events_backfill_service.go -destination mocks/events_backfill_service_mock.go
type EventsBackfillService interface {
	StartBackfill(vehicleID, days int) (taskID string, err error)
	GetTaskStatus(ctx context.Context, taskID string) (task *BackfillTask, err error)
	StartConsumer(ctx context.Context)
}

// task names
const (
	backfillTaskPrefix = "backfillTask"
	backfillEventsTask = "backfillEventsTask"
)

var ErrTaskNotFound = errors.New("task not found")

func NewEventsBackfillService(settings *config.Settings, autoPiSvc AutoPiAPIService, eventSvc EventService, logger zerolog.Logger) EventsBackfillService {
	// setup redis connection
	var tlsConfig *tls.Config
	if settings.RedisTLS {
		tlsConfig = new(tls.Config)
	}
	var r StandardRedis
	// handle redis cluster in prod
	if settings.IsProduction() {
		r = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:     []string{settings.RedisURL},
			Password:  settings.RedisPassword,
			TLSConfig: tlsConfig,
		})
	} else {
		r = redis.NewClient(&redis.Options{
			Addr:      settings.RedisURL,
			Password:  settings.RedisPassword,
			TLSConfig: tlsConfig,
		})
	}

	var queueFactory = redisq.NewFactory()
	const workerQueueName = "autopi-backfill"
	queueOptions := &taskq.QueueOptions{
		Name:  workerQueueName,
		Redis: r, // go-redis client
	}
	if settings.BackfillWorkerQueueSize > 0 {
		queueOptions.BufferSize = settings.BackfillWorkerQueueSize
	}
	mainQueue := queueFactory.RegisterQueue(queueOptions)

	ebs := &eventsBackfillService{
		settings:  settings,
		mainQueue: mainQueue,
		autoPiSvc: autoPiSvc,
		eventSvc:  eventSvc,
		redis:     r,
		log:       logger.With().Str("worker queue", workerQueueName).Logger(),
	}
	ebs.backfillTask = taskq.RegisterTask(&taskq.TaskOptions{
		Name: backfillEventsTask,
		Handler: func(ctx context.Context, taskID string, vehicleID, days int) error {
			return ebs.backfillEvents(ctx, taskID, vehicleID, days)
		},
		RetryLimit: 3,
		MinBackoff: time.Second * 30,
		MaxBackoff: time.Minute * 5,
	})

	return ebs
}

type eventsBackfillService struct {
	settings     *config.Settings
	mainQueue    taskq.Queue
	backfillTask *taskq.Task
	redis        StandardRedis
	autoPiSvc    AutoPiAPIService
	eventSvc     EventService
	log          zerolog.Logger
}

func (ebs *eventsBackfillService) StartBackfill(vehicleID, days int) (taskID string, err error) {
	if days <= 0 {
		days = ebs.settings.BackfillDefaultDays
	}
	taskID = ksuid.New().String()
	msg := ebs.backfillTask.WithArgs(context.Background(), taskID, vehicleID, days)
	msg.Name = taskID
	err = ebs.mainQueue.Add(msg)
	if err != nil {
		return "", err
	}
	appmetrics.BackfillTasksTotalOps.Inc()

	err = ebs.updateTaskState(taskID, "waiting for task to be processed", TaskPending, 100, nil)
	if err != nil {
		return taskID, err
	}
	return taskID, nil
}

func (ebs *eventsBackfillService) StartConsumer(ctx context.Context) {
	if err := ebs.mainQueue.Consumer().Start(ctx); err != nil {
		ebs.log.Err(err).Msg("consumer failed")
	}
	ebs.log.Info().Msg("started backfill tasks consumer")
}

// GetTaskStatus reads task state from the redis backend. taskq has no way to
// retrieve a task, so state is persisted alongside as the handler moves along.
func (ebs *eventsBackfillService) GetTaskStatus(ctx context.Context, taskID string) (task *BackfillTask, err error) {
	taskRaw := ebs.redis.Get(ctx, buildBackfillTaskRedisKey(taskID))
	taskBytes, err := taskRaw.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	bfTask := new(BackfillTask)
	err = json.Unmarshal(taskBytes, bfTask)
	if err != nil {
		return nil, err
	}
	return bfTask, nil
}

// backfillEvents walks the requested history backwards one day at a time and
// re-emits everything found on the event stream. Downstream consumers dedupe
// replays by the event's unique id, so a retried task is safe.
func (ebs *eventsBackfillService) backfillEvents(ctx context.Context, taskID string, vehicleID, days int) error {
	log := ebs.log.With().Str("handler", backfillEventsTask).
		Str("taskID", taskID).
		Int("vehicleID", vehicleID).
		Int("days", days).Logger()
	log.Info().Msg("Started processing events backfill")

	err := ebs.updateTaskState(taskID, "Started", TaskInProcess, 110, nil)
	if err != nil {
		log.Err(err).Msg("failed to persist state to redis")
		return err
	}

	vehicles, err := ebs.autoPiSvc.GetVehicles(ctx)
	if err != nil {
		log.Err(err).Msg("failed to fetch vehicle profiles")
		_ = ebs.updateTaskState(taskID, "autopi api call failed", TaskFailure, 500, err)
		return err
	}
	var deviceIDs []string
	for i := range vehicles {
		if vehicles[i].ID == vehicleID {
			deviceIDs = vehicles[i].Devices
			break
		}
	}
	if len(deviceIDs) == 0 {
		log.Warn().Msg("vehicle not found or has no devices")
		_ = ebs.updateTaskState(taskID, "vehicle not found or has no devices", TaskFailure, 400, nil)
		return nil // bad input will not improve on retry
	}

	emitted := 0
	windowEnd := time.Now().UTC()
	for day := 0; day < days; day++ {
		windowStart := windowEnd.Add(-24 * time.Hour)

		for _, deviceID := range deviceIDs {
			raw, err := ebs.autoPiSvc.GetEvents(ctx, deviceID, windowStart, windowEnd)
			if err != nil {
				log.Err(err).Str("deviceID", deviceID).Time("windowStart", windowStart).Msg("failed to fetch events window")
				_ = ebs.updateTaskState(taskID, "autopi api call failed fetching events", TaskFailure, 500, err)
				appmetrics.BackfillTasksFailedOps.Inc()
				return err
			}
			for i := range raw {
				parsed, err := NewVehicleEvent(raw[i], deviceID)
				if err != nil {
					log.Debug().Err(err).Msg("skipping unparseable event")
					continue
				}
				err = ebs.eventSvc.Emit(&Event{
					Type:    constants.VehicleEventEventType,
					Subject: strconv.Itoa(vehicleID),
					Source:  constants.EventSource,
					Data: VehicleEventEventData{
						Timestamp: parsed.Timestamp,
						DeviceID:  parsed.DeviceID,
						Tag:       parsed.Tag,
						Area:      parsed.Area,
						EventType: parsed.EventType,
						Data:      parsed.Data,
					},
				})
				if err != nil {
					log.Err(err).Msg("failed to emit backfilled event")
					_ = ebs.updateTaskState(taskID, "failed to emit event to stream", TaskFailure, 500, err)
					appmetrics.BackfillTasksFailedOps.Inc()
					return err
				}
				emitted++
			}
		}

		_ = ebs.updateTaskState(taskID,
			fmt.Sprintf("replayed %d events through %s", emitted, windowStart.Format("2006-01-02")),
			TaskInProcess, 110, nil)
		windowEnd = windowStart
	}

	err = ebs.updateTaskState(taskID, fmt.Sprintf("replayed %d events over %d days", emitted, days), TaskSuccess, 200, nil)
	if err != nil {
		log.Err(err).Msg("failed to persist final state to redis")
		return err
	}
	log.Info().Int("emitted", emitted).Msg("Successfully backfilled events.")
	return nil // by not returning error, task will not be retried.
}

// updateTaskState updates the status of the task in redis
func (ebs *eventsBackfillService) updateTaskState(taskID, description string, status TaskStatusEnum, code int, err error) error {
	updateCnt := 0
	existing, _ := ebs.GetTaskStatus(context.Background(), taskID)
	if existing != nil {
		updateCnt = existing.Updates + 1
	}
	t := BackfillTask{
		TaskID:      taskID,
		Status:      string(status),
		Description: description,
		Code:        code,
		UpdatedAt:   time.Now().UTC(),
		Updates:     updateCnt,
	}
	if err != nil {
		errstr := err.Error()
		t.Error = &errstr
	}
	jb, errM := json.Marshal(t)
	if errM != nil {
		return errM
	}
	set := ebs.redis.Set(context.Background(), buildBackfillTaskRedisKey(taskID), jb, time.Hour*72)
	return set.Err()
}

func buildBackfillTaskRedisKey(taskID string) string {
	return backfillTaskPrefix + "_" + taskID
}

// BackfillTask describes an event replay that is being worked on asynchronously
type BackfillTask struct {
	TaskID      string    `json:"taskId"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Code        int       `json:"code"`
	Error       *string   `json:"error,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
	// Updates increments every time the job was updated.
	Updates int `json:"updates"`
}

type TaskStatusEnum string

const (
	TaskPending   TaskStatusEnum = "Pending"
	TaskInProcess TaskStatusEnum = "InProcess"
	TaskSuccess   TaskStatusEnum = "Success"
	TaskFailure   TaskStatusEnum = "Failure"
)

// StandardRedis combines methods of redis client and what taskq expects so can
// use it for both clustered redis client and regular client
type StandardRedis interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Pipelined(ctx context.Context, fn func(pipe redis.Pipeliner) error) ([]redis.Cmder, error)

	// Eval Required by redislock
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd
	ScriptExists(ctx context.Context, scripts ...string) *redis.BoolSliceCmd
	ScriptLoad(ctx context.Context, script string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}
