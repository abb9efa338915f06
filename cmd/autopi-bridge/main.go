package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/DIMO-Network/shared"
	credis "github.com/DIMO-Network/shared/redis"
	"github.com/Shopify/sarama"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	_ "github.com/homefleet/autopi-bridge/docs"
	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/constants"
	"github.com/homefleet/autopi-bridge/internal/kafka"
	"github.com/homefleet/autopi-bridge/internal/services"
	"github.com/homefleet/autopi-bridge/internal/services/autozero"
	"github.com/homefleet/autopi-bridge/internal/services/telemetry"
)

// @title                      AutoPi Bridge
// @version                    1.0
// @BasePath                   /v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @securityDefinitions.apikey PreSharedKeyAuth
// @in                         header
// @name                       Authorization
func main() {
	gitSha1 := os.Getenv("GIT_SHA1")
	ctx := context.Background()
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("app", "autopi-bridge").
		Str("git-sha1", gitSha1).
		Logger()

	settings, err := shared.LoadConfig[config.Settings]("settings.yaml")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load settings")
	}
	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msgf("could not parse LOG_LEVEL: %s", settings.LogLevel)
	}
	zerolog.SetGlobalLevel(level)

	deps := newDependencyContainer(&settings, logger)

	if len(os.Args) > 1 {
		subcommands.Register(subcommands.HelpCommand(), "")
		subcommands.Register(subcommands.FlagsCommand(), "")
		subcommands.Register(&checkAPICmd{logger: logger, settings: settings}, "")
		subcommands.Register(&backfillEventsCmd{logger: logger, settings: settings, container: &deps}, "")
		subcommands.Register(&purgeZeroStatesCmd{logger: logger, settings: settings}, "")

		flag.Parse()
		os.Exit(int(subcommands.Execute(ctx)))
	}

	monApp := startMonitoringServer(logger, &settings)

	eventService := services.NewLoggingEventService(&logger)
	if settings.KafkaBrokers != "" {
		eventService = services.NewEventService(&logger, &settings, deps.getKafkaProducer())
	} else {
		logger.Warn().Msg("No KAFKA_BROKERS set, events will be logged instead of produced.")
	}

	readings := telemetry.NewReadingStore()

	var store *autozero.Store
	if settings.RedisURL != "" {
		cache := credis.NewRedisCacheService(settings.IsProduction(), credis.Settings{
			URL:       settings.RedisURL,
			Password:  settings.RedisPassword,
			TLS:       settings.RedisTLS,
			KeyPrefix: "autopi-bridge",
		})
		store = autozero.NewStore(cache)
	} else {
		logger.Warn().Msg("No REDIS_URL set, zero states will not survive restarts.")
	}

	manager := autozero.NewManager(&logger, store, readings, settings.AutoZeroEnabled, transitionListener(logger, eventService))
	manager.Restore(ctx, time.Now())
	manager.Start(ctx)

	sweeper := autozero.NewSweeper(&logger, manager, readings, 0, 0)
	sweeper.Start(ctx)

	var publisher services.StatePublisher
	if settings.MQTTBrokerURL != "" {
		publisher, err = services.NewMQTTStatePublisher(&logger, &settings)
		if err != nil {
			logger.Fatal().Err(err).Msg("Could not connect to the MQTT broker.")
		}
	} else {
		logger.Warn().Msg("No MQTT_BROKER_URL set, Home Assistant publishing is disabled.")
		publisher = services.NewNoopStatePublisher()
	}

	autoPiSvc := services.NewAutoPiAPIService(&settings)
	poller := services.NewTelemetryPoller(&logger, &settings, autoPiSvc, readings, manager, eventService, publisher)

	backfillSvc := services.NewEventsBackfillService(&settings, autoPiSvc, eventService, logger)
	backfillSvc.StartConsumer(ctx)

	if settings.TelemetryTopic != "" {
		startTelemetryConsumer(logger, &settings, readings)
	}

	poller.Start(ctx)

	startWebAPI(logger, &settings, monApp, poller, readings, manager, sweeper, backfillSvc, publisher, &deps)
}

// transitionListener forwards zero-state transitions onto the event stream.
func transitionListener(logger zerolog.Logger, events services.EventService) autozero.TransitionListener {
	return func(key autozero.MetricKey, zeroed bool, at time.Time) {
		eventType := constants.MetricUnzeroedEventType
		if zeroed {
			eventType = constants.MetricZeroedEventType
		}
		err := events.Emit(&services.Event{
			Type:    eventType,
			Subject: key.VehicleID,
			Source:  constants.EventSource,
			Data: services.MetricTransitionEventData{
				Timestamp: at,
				VehicleID: key.VehicleID,
				FieldID:   key.FieldID,
			},
		})
		if err != nil {
			logger.Err(err).
				Str("vehicleId", key.VehicleID).
				Str("fieldId", key.FieldID).
				Msg("Failed to emit zero-state transition event.")
		}
	}
}

func startTelemetryConsumer(logger zerolog.Logger, settings *config.Settings, readings *telemetry.ReadingStore) {
	clusterConfig := sarama.NewConfig()
	clusterConfig.Version = sarama.V2_8_1_0
	clusterConfig.Consumer.Offsets.Initial = sarama.OffsetNewest

	cfg := &kafka.Config{
		ClusterConfig:   clusterConfig,
		BrokerAddresses: strings.Split(settings.KafkaBrokers, ","),
		Topic:           settings.TelemetryTopic,
		GroupID:         settings.TelemetryConsumerGroup,
		MaxInFlight:     int64(5),
	}
	consumer, err := kafka.NewConsumer(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not start telemetry ingest consumer")
	}
	ingestSvc := services.NewTelemetryIngestService(&logger, readings)
	consumer.Start(context.Background(), ingestSvc.ProcessTelemetryMessages)

	logger.Info().Msg("Telemetry ingest consumer started")
}

func startMonitoringServer(logger zerolog.Logger, settings *config.Settings) *fiber.App {
	monApp := fiber.New(fiber.Config{DisableStartupMessage: true})

	monApp.Use(pprof.New())

	monApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	monApp.Put("/loglevel", changeLogLevel)

	go func() {
		if err := monApp.Listen(":" + settings.MonitoringServerPort); err != nil {
			logger.Fatal().Err(err).Str("port", settings.MonitoringServerPort).Msg("Failed to start monitoring web server.")
		}
	}()

	logger.Info().Str("port", settings.MonitoringServerPort).Msg("Started monitoring web server.")
	return monApp
}

func changeLogLevel(c *fiber.Ctx) error {
	payload := struct {
		LogLevel string `json:"logLevel"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return err
	}
	level, err := zerolog.ParseLevel(payload.LogLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return c.Status(fiber.StatusOK).SendString("log level set to: " + level.String())
}
