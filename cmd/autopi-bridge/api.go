package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog"

	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/controllers"
	"github.com/homefleet/autopi-bridge/internal/controllers/helpers"
	"github.com/homefleet/autopi-bridge/internal/middleware"
	"github.com/homefleet/autopi-bridge/internal/middleware/metrics"
	"github.com/homefleet/autopi-bridge/internal/services"
	"github.com/homefleet/autopi-bridge/internal/services/autozero"
	"github.com/homefleet/autopi-bridge/internal/services/telemetry"
)

func startWebAPI(logger zerolog.Logger, settings *config.Settings, monApp *fiber.App,
	poller *services.TelemetryPoller, readings *telemetry.ReadingStore, manager *autozero.Manager,
	sweeper *autozero.Sweeper, backfillSvc services.EventsBackfillService,
	publisher services.StatePublisher, deps *dependencyContainer) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helpers.ErrorHandler(c, err, &logger, settings.IsProduction())
		},
		DisableStartupMessage: true,
		ReadBufferSize:        16000,
		BodyLimit:             10 * 1024 * 1024,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	vehiclesController := controllers.NewVehiclesController(settings, poller, &logger)
	metricsController := controllers.NewMetricsController(settings, poller, readings, manager, &logger)
	adminController := controllers.NewAdminController(settings, manager, backfillSvc, &logger)

	app.Use(metrics.HTTPMetricsPrometheusMiddleware)

	app.Use(fiberrecover.New(fiberrecover.Config{
		Next:              nil,
		EnableStackTrace:  true,
		StackTraceHandler: nil,
	}))

	// application routes
	app.Get("/", healthCheck)

	v1 := app.Group("/v1")

	v1.Get("/swagger/*", swagger.HandlerDefault)

	v1Data := v1
	if settings.JwtKeySetURL != "" {
		jwtAuth := jwtware.New(jwtware.Config{
			JWKSetURLs: []string{settings.JwtKeySetURL},
		})
		v1Data = app.Group("/v1", jwtAuth)
	} else {
		logger.Warn().Msg("No JWT_KEY_SET_URL set, the v1 routes are unauthenticated.")
	}

	v1Data.Get("/vehicles", vehiclesController.GetVehicles)
	v1Data.Get("/vehicles/:vehicleID", vehiclesController.GetVehicle)
	v1Data.Get("/vehicles/:vehicleID/position", vehiclesController.GetVehiclePosition)
	v1Data.Get("/vehicles/:vehicleID/trips", vehiclesController.GetVehicleTrips)
	v1Data.Get("/vehicles/:vehicleID/events", vehiclesController.GetVehicleEvents)
	v1Data.Get("/vehicles/:vehicleID/metrics", metricsController.GetVehicleMetrics)
	v1Data.Get("/vehicles/:vehicleID/metrics/:fieldID", metricsController.GetVehicleMetric)
	v1Data.Get("/fleet/alerts", vehiclesController.GetFleetAlerts)

	psk := middleware.NewPSKAuthMiddleware(settings.AdminPreSharedKey)
	admin := v1.Group("/admin", psk.Middleware)

	admin.Get("/autozero/states", adminController.GetAutoZeroStates)
	admin.Post("/backfill", adminController.StartBackfill)
	admin.Get("/backfill/:taskID", adminController.GetBackfillStatus)

	logger.Info().Msg("Server started on port " + settings.Port)
	// Start Server from a different go routine
	go func() {
		if err := app.Listen(":" + settings.Port); err != nil {
			logger.Fatal().Err(err)
		}
	}()

	c := make(chan os.Signal, 1)                    // Create channel to signify a signal being sent with length of 1
	signal.Notify(c, os.Interrupt, syscall.SIGTERM) // When an interrupt or termination signal is sent, notify the channel
	<-c                                             // This blocks the main thread until an interrupt is received
	logger.Info().Msg("Gracefully shutting down and running cleanup tasks...")
	poller.Stop()
	sweeper.Stop()
	// flushes a final snapshot
	manager.Stop()
	publisher.Close()
	_ = app.Shutdown()
	_ = monApp.Shutdown()
	if deps.kafkaProducer != nil {
		_ = deps.kafkaProducer.Close()
	}
}

func healthCheck(c *fiber.Ctx) error {
	res := map[string]interface{}{
		"data": "Server is up and running",
	}

	err := c.JSON(res)

	if err != nil {
		return err
	}

	return nil
}
