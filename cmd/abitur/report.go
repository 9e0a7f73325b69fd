package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"abitur/internal/admission/models"
	"abitur/internal/ingest"
	"abitur/internal/platform/config"
	"abitur/internal/report"
)

func newReportCmd() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the campaign report for a day",
		Long: "Replays the CSV day folders through the engine up to the requested day " +
			"and prints the plain-text report (program standing, unified list, cutoff dynamics).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), cmd.OutOrStdout(), models.Day(day))
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "report day (default: the last campaign day with data)")
	return cmd
}

func runReport(ctx context.Context, out io.Writer, day models.Day) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	// The report command is stateless: it always replays from the CSV source
	// into an in-memory history, so it works with or without a database.
	cfg.DatabaseURL = ""

	svc, campaign, cleanup, err := buildLocalService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	applied := 0
	for _, campaignDay := range campaign.Days {
		if day != "" && campaignDay.Day > day {
			break
		}
		snapshot, err := ingest.ReadDay(cfg.DataDir, campaign, campaignDay.Day)
		if err != nil {
			// Days without data yet end the replay.
			break
		}
		if _, err := svc.ApplyDay(ctx, snapshot); err != nil {
			return fmt.Errorf("day %s: %w", campaignDay.Day, err)
		}
		applied++
	}
	if applied == 0 {
		return fmt.Errorf("no day data found under %s", cfg.DataDir)
	}

	data, err := report.Build(ctx, svc, campaign, day)
	if err != nil {
		return err
	}
	return report.Render(out, data)
}
