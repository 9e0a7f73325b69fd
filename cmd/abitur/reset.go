package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"abitur/internal/admission/store"
	"abitur/internal/platform/config"
)

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the persisted campaign history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("no database configured, nothing to reset")
			}
			db, err := openDB(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			pg := store.NewPostgres(db)
			if err := pg.Migrate(ctx); err != nil {
				return err
			}
			if err := pg.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "campaign history cleared")
			return nil
		},
	}
}
