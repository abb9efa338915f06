package main

import (
	"context"
	"flag"

	credis "github.com/DIMO-Network/shared/redis"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/services/autozero"
)

type purgeZeroStatesCmd struct {
	logger   zerolog.Logger
	settings config.Settings
}

func (*purgeZeroStatesCmd) Name() string { return "purge-zero-states" }
func (*purgeZeroStatesCmd) Synopsis() string {
	return "deletes the persisted zero-state snapshot."
}
func (*purgeZeroStatesCmd) Usage() string {
	return `purge-zero-states:
	Deletes the zero-state snapshot from redis. The next service start begins
	with an empty table.
  `
}

func (*purgeZeroStatesCmd) SetFlags(_ *flag.FlagSet) {}

func (p *purgeZeroStatesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.settings.RedisURL == "" {
		p.logger.Error().Msg("No REDIS_URL set, nothing to purge.")
		return subcommands.ExitFailure
	}

	cache := credis.NewRedisCacheService(p.settings.IsProduction(), credis.Settings{
		URL:       p.settings.RedisURL,
		Password:  p.settings.RedisPassword,
		TLS:       p.settings.RedisTLS,
		KeyPrefix: "autopi-bridge",
	})
	store := autozero.NewStore(cache)

	if err := store.Purge(ctx); err != nil {
		p.logger.Err(err).Msg("Failed to delete the zero-state snapshot.")
		return subcommands.ExitFailure
	}
	p.logger.Info().Msg("Zero-state snapshot deleted.")
	return subcommands.ExitSuccess
}
