package main

import (
	"github.com/spf13/cobra"

	"github.com/monopay/monopay/internal/server"
)

func newMigrateCommand(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := load(ctx)
			if err != nil {
				return err
			}

			st, err := server.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(ctx); err != nil {
				return err
			}
			log.Info().Str("store", cfg.StoreDriver).Msg("migrations applied")
			return nil
		},
	}
}
