package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"abitur/internal/admission/engine"
	"abitur/internal/ingest"
	"abitur/internal/platform/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "abitur",
		Short:         "University admission campaign toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newImportCmd(),
		newReportCmd(),
		newGenerateCmd(),
		newResetCmd(),
	)
	return root
}

// loadCampaign resolves the campaign definition for the given config.
func loadCampaign(cfg config.Config) (ingest.Campaign, error) {
	return ingest.LoadCampaign(cfg.CampaignFile)
}

// policyFromConfig maps the config toggles onto the engine policy.
func policyFromConfig(cfg config.Config) (engine.Policy, error) {
	policy := engine.Policy{AllowConsentDowngrade: cfg.AllowConsentDowngrade}
	switch cfg.MissingApplicant {
	case "", string(engine.MissingReject):
		policy.MissingApplicant = engine.MissingReject
	case string(engine.MissingTreatAsWithdrawn):
		policy.MissingApplicant = engine.MissingTreatAsWithdrawn
	default:
		return engine.Policy{}, fmt.Errorf("unknown missing-applicant policy %q", cfg.MissingApplicant)
	}
	return policy, nil
}
