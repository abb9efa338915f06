package main

import (
	"context"
	"flag"
	"strconv"
	"time"

	"github.com/google/subcommands"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/services"
)

type backfillEventsCmd struct {
	logger    zerolog.Logger
	settings  config.Settings
	container *dependencyContainer
}

func (*backfillEventsCmd) Name() string { return "backfill-events" }
func (*backfillEventsCmd) Synopsis() string {
	return "replays historical AutoPi events onto the event stream."
}
func (*backfillEventsCmd) Usage() string {
	return `backfill-events <vehicleID|all> [days]:
	Enqueues a backfill task per vehicle and waits for the workers to finish.
  `
}

func (*backfillEventsCmd) SetFlags(_ *flag.FlagSet) {}

func (p *backfillEventsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		p.logger.Error().Msg("Expected a vehicle id or \"all\".")
		return subcommands.ExitUsageError
	}

	days := p.settings.BackfillDefaultDays
	if f.NArg() > 1 {
		d, err := strconv.Atoi(f.Arg(1))
		if err != nil || d < 1 {
			p.logger.Error().Msgf("Could not parse day span %q.", f.Arg(1))
			return subcommands.ExitUsageError
		}
		days = d
	}

	autoPiSvc := services.NewAutoPiAPIService(&p.settings)

	eventService := services.NewLoggingEventService(&p.logger)
	if p.settings.KafkaBrokers != "" {
		eventService = services.NewEventService(&p.logger, &p.settings, p.container.getKafkaProducer())
	} else {
		p.logger.Warn().Msg("No KAFKA_BROKERS set, replayed events will only be logged.")
	}

	var vehicleIDs []int
	if f.Arg(0) == "all" {
		vehicles, err := autoPiSvc.GetVehicles(ctx)
		if err != nil {
			p.logger.Err(err).Msg("Could not list vehicles.")
			return subcommands.ExitFailure
		}
		for i := range vehicles {
			vehicleIDs = append(vehicleIDs, vehicles[i].ID)
		}
	} else {
		id, err := strconv.Atoi(f.Arg(0))
		if err != nil {
			p.logger.Error().Msgf("Could not parse vehicle id %q.", f.Arg(0))
			return subcommands.ExitUsageError
		}
		vehicleIDs = []int{id}
	}
	if len(vehicleIDs) == 0 {
		p.logger.Warn().Msg("No vehicles to backfill.")
		return subcommands.ExitSuccess
	}

	backfillSvc := services.NewEventsBackfillService(&p.settings, autoPiSvc, eventService, p.logger)
	backfillSvc.StartConsumer(ctx)

	taskIDs := make(map[string]int, len(vehicleIDs))
	for _, vehicleID := range vehicleIDs {
		taskID, err := backfillSvc.StartBackfill(vehicleID, days)
		if err != nil {
			p.logger.Err(err).Int("vehicleId", vehicleID).Msg("Could not enqueue backfill task.")
			return subcommands.ExitFailure
		}
		p.logger.Info().Int("vehicleId", vehicleID).Str("taskId", taskID).Int("days", days).Msg("Backfill task enqueued.")
		taskIDs[taskID] = vehicleID
	}

	failed := 0
	for taskID, vehicleID := range taskIDs {
		log := p.logger.With().Int("vehicleId", vehicleID).Str("taskId", taskID).Logger()
		for {
			task, err := backfillSvc.GetTaskStatus(ctx, taskID)
			if err != nil {
				if errors.Is(err, services.ErrTaskNotFound) {
					time.Sleep(2 * time.Second)
					continue
				}
				log.Err(err).Msg("Could not read task status.")
				failed++
				break
			}
			switch services.TaskStatusEnum(task.Status) {
			case services.TaskSuccess:
				log.Info().Str("result", task.Description).Msg("Backfill finished.")
			case services.TaskFailure:
				log.Error().Str("result", task.Description).Msg("Backfill failed.")
				failed++
			default:
				time.Sleep(2 * time.Second)
				continue
			}
			break
		}
	}

	if failed > 0 {
		p.logger.Error().Int("failed", failed).Msg("Some backfill tasks failed.")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
