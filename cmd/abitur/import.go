package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"abitur/internal/admission/engine"
	"abitur/internal/admission/models"
	"abitur/internal/admission/service"
	"abitur/internal/admission/store"
	"abitur/internal/ingest"
	"abitur/internal/platform/config"
	"abitur/internal/platform/logger"
)

func newImportCmd() *cobra.Command {
	var through string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import CSV day folders and apply them in calendar order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), models.Day(through))
		},
	}
	cmd.Flags().StringVar(&through, "through", "", "last day to import (default: the whole campaign)")
	return cmd
}

func runImport(ctx context.Context, out io.Writer, through models.Day) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	svc, campaign, cleanup, err := buildLocalService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, day := range campaign.Days {
		if through != "" && day.Day > through {
			break
		}
		snapshot, err := ingest.ReadDay(cfg.DataDir, campaign, day.Day)
		if err != nil {
			return fmt.Errorf("day %s: %w", day.Day, err)
		}
		result, err := svc.ApplyDay(ctx, snapshot)
		if err != nil {
			return fmt.Errorf("day %s: %w", day.Day, err)
		}
		fmt.Fprintf(out, "%s: %d applicants\n", day.Day, len(snapshot.Records))
		for _, c := range result.Cutoffs {
			if c.Defined() {
				fmt.Fprintf(out, "  %-6s cutoff %d (%d/%d seats)\n", c.Program, *c.Score, c.Admitted, c.Seats)
			} else {
				fmt.Fprintf(out, "  %-6s open (%d/%d seats)\n", c.Program, c.Admitted, c.Seats)
			}
		}
	}
	return nil
}

// buildLocalService wires a service for offline commands: postgres-backed
// when a database is configured, in-memory otherwise.
func buildLocalService(ctx context.Context, cfg config.Config) (*service.Service, ingest.Campaign, func(), error) {
	campaign, err := loadCampaign(cfg)
	if err != nil {
		return nil, ingest.Campaign{}, nil, err
	}
	policy, err := policyFromConfig(cfg)
	if err != nil {
		return nil, ingest.Campaign{}, nil, err
	}
	eng, err := engine.New(campaign.Programs, policy)
	if err != nil {
		return nil, ingest.Campaign{}, nil, err
	}

	var dayStore store.Store = store.NewInMemory()
	cleanup := func() {}
	if cfg.DatabaseURL != "" {
		db, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, ingest.Campaign{}, nil, err
		}
		cleanup = func() { _ = db.Close() }
		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			cleanup()
			return nil, ingest.Campaign{}, nil, err
		}
		dayStore = pg
	}

	svc, err := service.New(eng, dayStore, service.WithLogger(logger.New()))
	if err != nil {
		cleanup()
		return nil, ingest.Campaign{}, nil, err
	}
	return svc, campaign, cleanup, nil
}
