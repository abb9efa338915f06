package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/homefleet/autopi-bridge/internal/appmetrics"
	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/constants"
)

const (
	mqttQoS            = 1
	bridgeStatusSuffix = "/bridge/status"
	payloadOnline      = "online"
	payloadOffline     = "offline"
)

//go:generate mockgen -source mqtt_publisher.go -destination mocks/mqtt_publisher_mock.go -package mock_services
type StatePublisher interface {
	PublishDiscovery(vehicle *AutoPiVehicle, sensor constants.SensorDefinition) error
	PublishState(vehicleID, fieldID string, value any, attributes map[string]any) error
	PublishBridgeStatus(online bool) error
	Close()
}

type mqttStatePublisher struct {
	log             zerolog.Logger
	client          mqtt.Client
	topicPrefix     string
	discoveryPrefix string
}

// NewMQTTStatePublisher connects to the broker and returns a publisher that
// exposes vehicle metrics as Home Assistant MQTT sensors. The broker keeps an
// offline status via the last will, so consumers see the bridge drop out.
func NewMQTTStatePublisher(logger *zerolog.Logger, settings *config.Settings) (StatePublisher, error) {
	topicPrefix := settings.MQTTTopicPrefix
	if topicPrefix == "" {
		topicPrefix = "autopi"
	}
	discoveryPrefix := settings.MQTTDiscoveryPrefix
	if discoveryPrefix == "" {
		discoveryPrefix = "homeassistant"
	}

	log := logger.With().Str("component", "mqtt").Logger()
	statusTopic := topicPrefix + bridgeStatusSuffix

	opts := mqtt.NewClientOptions().
		AddBroker(settings.MQTTBrokerURL).
		SetClientID(settings.ServiceName).
		SetOrderMatters(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(statusTopic, payloadOffline, mqttQoS, true)

	if settings.MQTTUsername != "" {
		opts.SetUsername(settings.MQTTUsername)
	}
	if settings.MQTTPassword != "" {
		opts.SetPassword(settings.MQTTPassword)
	}

	opts.OnConnect = func(c mqtt.Client) {
		log.Info().Str("broker", settings.MQTTBrokerURL).Msg("Connected to MQTT broker.")
		if token := c.Publish(statusTopic, mqttQoS, true, payloadOnline); token.Wait() && token.Error() != nil {
			log.Err(token.Error()).Msg("Failed to publish online status.")
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost.")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "failed to connect to mqtt broker")
	}

	return &mqttStatePublisher{
		log:             log,
		client:          client,
		topicPrefix:     topicPrefix,
		discoveryPrefix: discoveryPrefix,
	}, nil
}

// sensorObjectID flattens a dotted field id into a discovery-safe object id.
func sensorObjectID(fieldID string) string {
	return strings.NewReplacer(".", "_", "/", "_").Replace(fieldID)
}

type discoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model,omitempty"`
}

type discoveryConfig struct {
	Name                string          `json:"name"`
	UniqueID            string          `json:"unique_id"`
	StateTopic          string          `json:"state_topic"`
	JSONAttributesTopic string          `json:"json_attributes_topic"`
	AvailabilityTopic   string          `json:"availability_topic"`
	Device              discoveryDevice `json:"device"`
	UnitOfMeasurement   string          `json:"unit_of_measurement,omitempty"`
	DeviceClass         string          `json:"device_class,omitempty"`
	StateClass          string          `json:"state_class,omitempty"`
	Icon                string          `json:"icon,omitempty"`
	EntityCategory      string          `json:"entity_category,omitempty"`
}

func (m *mqttStatePublisher) stateTopic(vehicleID, fieldID string) string {
	return fmt.Sprintf("%s/%s/%s/state", m.topicPrefix, vehicleID, fieldID)
}

func (m *mqttStatePublisher) attributesTopic(vehicleID, fieldID string) string {
	return fmt.Sprintf("%s/%s/%s/attributes", m.topicPrefix, vehicleID, fieldID)
}

// PublishDiscovery announces one sensor entity for a vehicle. Retained so
// Home Assistant picks it up across restarts on either side.
func (m *mqttStatePublisher) PublishDiscovery(vehicle *AutoPiVehicle, sensor constants.SensorDefinition) error {
	vehicleID := fmt.Sprintf("%d", vehicle.ID)
	nodeID := "autopi_vehicle_" + vehicleID
	objectID := sensorObjectID(sensor.FieldID)

	cfg := discoveryConfig{
		Name:                sensor.Name,
		UniqueID:            nodeID + "_" + objectID,
		StateTopic:          m.stateTopic(vehicleID, sensor.FieldID),
		JSONAttributesTopic: m.attributesTopic(vehicleID, sensor.FieldID),
		AvailabilityTopic:   m.topicPrefix + bridgeStatusSuffix,
		Device: discoveryDevice{
			Identifiers:  []string{nodeID},
			Name:         vehicle.DisplayName(),
			Manufacturer: "AutoPi",
			Model:        vehicle.Type,
		},
		UnitOfMeasurement: sensor.Unit,
		DeviceClass:       sensor.DeviceClass,
		StateClass:        sensor.StateClass,
		Icon:              sensor.Icon,
	}
	if sensor.Diagnostic {
		cfg.EntityCategory = "diagnostic"
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal discovery config")
	}

	topic := fmt.Sprintf("%s/sensor/%s/%s/config", m.discoveryPrefix, nodeID, objectID)
	return m.publish(topic, payload, true)
}

// PublishState pushes the current value and its attribute document.
func (m *mqttStatePublisher) PublishState(vehicleID, fieldID string, value any, attributes map[string]any) error {
	payload, err := statePayload(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode state for %s/%s", vehicleID, fieldID)
	}
	if err := m.publish(m.stateTopic(vehicleID, fieldID), payload, false); err != nil {
		return err
	}
	if len(attributes) == 0 {
		return nil
	}
	attrPayload, err := json.Marshal(attributes)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal attributes for %s/%s", vehicleID, fieldID)
	}
	return m.publish(m.attributesTopic(vehicleID, fieldID), attrPayload, false)
}

func (m *mqttStatePublisher) PublishBridgeStatus(online bool) error {
	payload := payloadOffline
	if online {
		payload = payloadOnline
	}
	return m.publish(m.topicPrefix+bridgeStatusSuffix, []byte(payload), true)
}

func (m *mqttStatePublisher) publish(topic string, payload []byte, retained bool) error {
	appmetrics.MQTTPublishTotalOps.Inc()
	token := m.client.Publish(topic, mqttQoS, retained, payload)
	if token.Wait() && token.Error() != nil {
		appmetrics.MQTTPublishFailedOps.Inc()
		return errors.Wrapf(token.Error(), "failed to publish to %s", topic)
	}
	return nil
}

func (m *mqttStatePublisher) Close() {
	// best effort offline marker before the clean disconnect
	_ = m.PublishBridgeStatus(false)
	m.client.Disconnect(250)
}

// statePayload renders a reading the way Home Assistant expects: bare
// strings, JSON for everything else.
func statePayload(value any) ([]byte, error) {
	if s, ok := value.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(value)
}

type noopStatePublisher struct{}

// NewNoopStatePublisher is used when no MQTT broker is configured.
func NewNoopStatePublisher() StatePublisher {
	return &noopStatePublisher{}
}

func (n *noopStatePublisher) PublishDiscovery(*AutoPiVehicle, constants.SensorDefinition) error {
	return nil
}

func (n *noopStatePublisher) PublishState(string, string, any, map[string]any) error {
	return nil
}

func (n *noopStatePublisher) PublishBridgeStatus(bool) error { return nil }

func (n *noopStatePublisher) Close() {}
