package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DIMO-Network/shared"
	"github.com/Shopify/sarama"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/homefleet/autopi-bridge/internal/config"
)

//go:generate mockgen -source event_service.go -destination mocks/event_service_mock.go -package mock_services

type Event struct {
	Type    string
	Subject string
	Source  string
	Data    any
}

type EventService interface {
	Emit(event *Event) error
}

type eventService struct {
	Settings *config.Settings
	Logger   *zerolog.Logger
	Producer sarama.SyncProducer
}

func NewEventService(logger *zerolog.Logger, settings *config.Settings, producer sarama.SyncProducer) EventService {
	return &eventService{
		Settings: settings,
		Logger:   logger,
		Producer: producer,
	}
}

func (e *eventService) Emit(event *Event) error {
	msgBytes, err := json.Marshal(shared.CloudEvent[any]{
		ID:          ksuid.New().String(),
		Source:      event.Source,
		SpecVersion: "1.0",
		Subject:     event.Subject,
		Time:        time.Now(),
		Type:        event.Type,
		Data:        event.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal CloudEvent: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: e.Settings.EventsTopic,
		Key:   sarama.StringEncoder(event.Subject),
		Value: sarama.ByteEncoder(msgBytes),
	}
	_, _, err = e.Producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to produce CloudEvent to Kafka: %w", err)
	}
	return nil
}

// loggingEventService stands in when no Kafka brokers are configured, so
// callers never need a nil check.
type loggingEventService struct {
	Logger *zerolog.Logger
}

func NewLoggingEventService(logger *zerolog.Logger) EventService {
	return &loggingEventService{Logger: logger}
}

func (e *loggingEventService) Emit(event *Event) error {
	e.Logger.Debug().
		Str("eventType", event.Type).
		Str("subject", event.Subject).
		Msg("Event not produced, kafka is disabled.")
	return nil
}

type VehicleDiscoveredEventData struct {
	Timestamp time.Time `json:"timestamp"`
	VehicleID int       `json:"vehicleId"`
	Name      string    `json:"name"`
	VIN       string    `json:"vin"`
	Year      int       `json:"year"`
	DeviceIDs []string  `json:"deviceIds"`
}

type MetricTransitionEventData struct {
	Timestamp time.Time `json:"timestamp"`
	VehicleID string    `json:"vehicleId"`
	FieldID   string    `json:"fieldId"`
}

type VehicleEventEventData struct {
	Timestamp time.Time      `json:"timestamp"`
	DeviceID  string         `json:"deviceId"`
	Tag       string         `json:"tag"`
	Area      string         `json:"area"`
	EventType string         `json:"eventType"`
	Data      map[string]any `json:"data,omitempty"`
}
