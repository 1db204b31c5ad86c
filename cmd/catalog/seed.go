package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sirpyerre/item-catalog/internal/infrastructure/security"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/seed"
	"github.com/sirpyerre/item-catalog/pkg/logger"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users and items from a YAML fixture",
		Long: `seed writes the users and items of a YAML fixture into the configured store.
Users whose email already exists and items whose name already exists are
skipped, so the command can be re-run safely. Without --file it uses SEED_FILE,
and without either it loads the built-in demo fixture.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.SeedFile
			}

			st, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.close(ctx, log)

			seeder := seed.NewSeeder(st.users, st.items, security.NewBcryptHasher(cfg.Auth.BcryptCost), logger.Component("seed"))
			res, err := seeder.SeedFromFile(ctx, file)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "users: %d created, %d skipped\nitems: %d created, %d skipped\n",
				res.UsersCreated, res.UsersSkipped, res.ItemsCreated, res.ItemsSkipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture path (defaults to SEED_FILE)")
	return cmd
}
