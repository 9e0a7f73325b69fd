package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"abitur/internal/ingest"
	"abitur/internal/platform/config"
)

func newGenerateCmd() *cobra.Command {
	opts := ingest.GenerateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample CSV day folders for the campaign",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			campaign, err := loadCampaign(cfg)
			if err != nil {
				return err
			}
			if err := ingest.Generate(cfg.DataDir, campaign, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d day folders under %s\n",
				len(campaign.Days), cfg.DataDir)
			return nil
		},
	}
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed")
	cmd.Flags().IntVar(&opts.ApplicantsPerDay, "applicants-per-day", 200, "new applicants per day")
	cmd.Flags().Float64Var(&opts.ConsentShare, "consent-share", 0.3, "consenting share by the last day")
	return cmd
}
