package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirpyerre/item-catalog/internal/api"
	"github.com/sirpyerre/item-catalog/internal/api/middleware"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
	"github.com/sirpyerre/item-catalog/internal/core/service"
	redisstore "github.com/sirpyerre/item-catalog/internal/infrastructure/db/redis"
	httpserver "github.com/sirpyerre/item-catalog/internal/infrastructure/http"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/http/handlers"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/queue"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/security"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/seed"
	"github.com/sirpyerre/item-catalog/internal/pkg/config"
	"github.com/sirpyerre/item-catalog/pkg/logger"
)

func newServeCmd() *cobra.Command {
	var withSeed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), withSeed)
		},
	}
	cmd.Flags().BoolVar(&withSeed, "seed", false, "load SEED_FILE (or the demo fixture) before serving")
	return cmd
}

func runServe(ctx context.Context, withSeed bool) error {
	cfg, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	tokens, err := security.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close(context.WithoutCancel(ctx), log)

	if withSeed {
		seeder := seed.NewSeeder(st.users, st.items, hasher, logger.Component("seed"))
		if _, err := seeder.SeedFromFile(ctx, cfg.SeedFile); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	authOpts := []service.AuthOption{}
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		authOpts = append(authOpts, service.WithLoginLimiter(
			redisstore.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow),
		))
		st.pingers["redis"] = handlers.PingFunc(redisstore.Ping(rdb))
	} else {
		log.Warn().Msg("REDIS_ADDR not set, login throttling disabled")
	}

	var sink ports.AuditSink = st.audit
	if cfg.Audit.Sink == config.AuditSinkLog {
		sink = queue.NewLogSink(logger.Component("audit"))
	}
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, sink, logger.Component("audit"))
	dispatcher.Start(ctx)
	defer dispatcher.Close()
	authOpts = append(authOpts, service.WithAuditPublisher(dispatcher))

	authSvc, err := service.NewAuthService(st.users, hasher, tokens, logger.Component("auth"), authOpts...)
	if err != nil {
		return err
	}
	itemSvc := service.NewItemService(st.items, st.users, logger.Component("items"))

	e := api.NewRouter(api.Deps{
		AuthService:  authSvc,
		ItemService:  itemSvc,
		Tokens:       tokens,
		Policy:       middleware.DefaultAccessPolicy(),
		Logger:       logger.Component("http"),
		Version:      version,
		Dependencies: st.pingers,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("store", cfg.Store.Driver).
		Dur("token_ttl", cfg.Auth.TokenTTL).
		Time("started_at", time.Now()).
		Msg("item catalog starting")

	return httpserver.NewServer(":"+cfg.Port, e, log).Run(ctx)
}
