package main

import (
	"context"
	"errors"
	"flag"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/services"
)

type checkAPICmd struct {
	logger   zerolog.Logger
	settings config.Settings

	fields bool
}

func (*checkAPICmd) Name() string { return "check-api" }
func (*checkAPICmd) Synopsis() string {
	return "probes the AutoPi cloud with the configured token and prints the account's vehicles."
}
func (*checkAPICmd) Usage() string {
	return `check-api [-fields]:
	Lists the vehicles the configured API token can see. -fields also pulls
	the data fields of every device.
  `
}

func (p *checkAPICmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&p.fields, "fields", false, "also fetch the data fields of every device")
}

func (p *checkAPICmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	autoPiSvc := services.NewAutoPiAPIService(&p.settings)

	vehicles, err := autoPiSvc.GetVehicles(ctx)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			p.logger.Error().Msg("AutoPi rejected the configured API token.")
			return subcommands.ExitFailure
		}
		p.logger.Err(err).Msg("Could not reach the AutoPi API.")
		return subcommands.ExitFailure
	}

	p.logger.Info().Int("vehicles", len(vehicles)).Msg("AutoPi API reachable.")
	for i := range vehicles {
		v := &vehicles[i]
		p.logger.Info().
			Int("vehicleId", v.ID).
			Str("vin", v.Vin).
			Str("name", v.DisplayName()).
			Strs("devices", v.Devices).
			Msg("Vehicle found.")

		if !p.fields {
			continue
		}
		for _, deviceID := range v.Devices {
			fields, err := autoPiSvc.GetDataFields(ctx, v.ID, deviceID)
			if err != nil {
				p.logger.Err(err).Str("deviceId", deviceID).Msg("Could not fetch data fields.")
				return subcommands.ExitFailure
			}
			p.logger.Info().Str("deviceId", deviceID).Int("fields", len(fields)).Msg("Device data fields fetched.")
		}
	}

	return subcommands.ExitSuccess
}
