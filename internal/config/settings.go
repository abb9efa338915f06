package config

// Settings contains the application config
type Settings struct {
	Environment             string `yaml:"ENVIRONMENT"`
	Port                    string `yaml:"PORT"`
	MonitoringServerPort    string `yaml:"MONITORING_SERVER_PORT"`
	LogLevel                string `yaml:"LOG_LEVEL"`
	ServiceName             string `yaml:"SERVICE_NAME"`
	JwtKeySetURL            string `yaml:"JWT_KEY_SET_URL"`
	AdminPreSharedKey       string `yaml:"ADMIN_PRE_SHARED_KEY"`
	AutoPiAPIToken          string `yaml:"AUTO_PI_API_TOKEN"`
	AutoPiAPIURL            string `yaml:"AUTO_PI_API_URL"`
	PollIntervalMinutes     int    `yaml:"POLL_INTERVAL_MINUTES"`
	SlowPollCycles          int    `yaml:"SLOW_POLL_CYCLES"`
	AutoZeroEnabled         bool   `yaml:"AUTO_ZERO_ENABLED"`
	MinimumFirmwareVersion  string `yaml:"MINIMUM_FIRMWARE_VERSION"`
	RedisURL                string `yaml:"REDIS_URL"`
	RedisPassword           string `yaml:"REDIS_PASSWORD"`
	RedisTLS                bool   `yaml:"REDIS_TLS"`
	KafkaBrokers            string `yaml:"KAFKA_BROKERS"`
	EventsTopic             string `yaml:"EVENTS_TOPIC"`
	TelemetryTopic          string `yaml:"TELEMETRY_TOPIC"`
	TelemetryConsumerGroup  string `yaml:"TELEMETRY_CONSUMER_GROUP"`
	MQTTBrokerURL           string `yaml:"MQTT_BROKER_URL"`
	MQTTUsername            string `yaml:"MQTT_USERNAME"`
	MQTTPassword            string `yaml:"MQTT_PASSWORD"`
	MQTTTopicPrefix         string `yaml:"MQTT_TOPIC_PREFIX"`
	MQTTDiscoveryPrefix     string `yaml:"MQTT_DISCOVERY_PREFIX"`
	BackfillDefaultDays     int    `yaml:"BACKFILL_DEFAULT_DAYS"`
	BackfillWorkerQueueSize int    `yaml:"BACKFILL_WORKER_QUEUE_SIZE"`
}

func (s *Settings) IsProduction() bool {
	return s.Environment == "prod" // this string is set in the helm chart values-prod.yaml
}

// PollInterval returns the configured poll cadence in minutes, clamped to the
// 1-10 range AutoPi tolerates without rate limiting us.
func (s *Settings) PollInterval() int {
	if s.PollIntervalMinutes < 1 {
		return 5
	}
	if s.PollIntervalMinutes > 10 {
		return 10
	}
	return s.PollIntervalMinutes
}
