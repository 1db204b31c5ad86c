package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sirpyerre/item-catalog/internal/pkg/config"
	"github.com/sirpyerre/item-catalog/pkg/logger"
)

const serviceName = "item-catalog"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Item catalog API with token-based authentication",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.AddCommand(newServeCmd(), newSeedCmd())
	return root
}

// bootstrap loads configuration and initialises the process logger. A
// missing or blank JWT_SECRET fails here, before anything is served.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Version: version,
	})
	return cfg, log, nil
}
