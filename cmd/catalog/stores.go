package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/item-catalog/internal/core/ports"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/db/memory"
	mongostore "github.com/sirpyerre/item-catalog/internal/infrastructure/db/mongo"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/db/postgres"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/http/handlers"
	"github.com/sirpyerre/item-catalog/internal/pkg/config"
)

// stores bundles the repositories selected by STORE_DRIVER together with
// their readiness checks and shutdown hooks.
type stores struct {
	users   ports.UserRepository
	items   ports.ItemRepository
	audit   ports.AuditSink
	pingers map[string]handlers.Pinger
	closers []func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	st := &stores{pingers: make(map[string]handlers.Pinger)}

	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, client.Disconnect)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			st.close(ctx, log)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		st.users = mongostore.NewUserRepository(db)
		st.items = mongostore.NewItemRepository(db)
		st.audit = mongostore.NewAuditRepository(db)
		st.pingers["mongodb"] = handlers.PingFunc(mongostore.Ping(db))

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func(context.Context) error { return db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			st.close(ctx, log)
			return nil, err
		}
		st.users = postgres.NewUserRepository(db)
		st.items = postgres.NewItemRepository(db)
		st.audit = postgres.NewAuditRepository(db)
		st.pingers["postgres"] = handlers.PingFunc(db.PingContext)

	case config.DriverMemory:
		mem := memory.NewStore()
		st.users = mem.Users()
		st.items = mem.Items()
		st.audit = mem
		st.pingers["memory"] = mem
	}

	log.Info().Str("driver", cfg.Store.Driver).Msg("store ready")
	return st, nil
}

func (s *stores) close(ctx context.Context, log zerolog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}
}
