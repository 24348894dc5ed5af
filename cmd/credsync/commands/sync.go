package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/credsync/internal/config"
	"github.com/systmms/credsync/internal/metrics"
	"github.com/systmms/credsync/internal/syncer"
)

func NewSyncCommand(cfg *config.Config) *cobra.Command {
	var (
		remoteURL  string
		providers  []string
		timeout    time.Duration
		skipOAuth  bool
		dryRun     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push locally-available credentials to the remote service",
		Long: `Run one synchronization pass: read provider API keys from the
environment, validate them, and push the valid ones to the remote
service with retry and circuit breaking.

Examples:
  # Sync everything the environment provides
  credsync sync --remote http://127.0.0.1:8317

  # Skip providers already covered by OAuth
  credsync sync --skip-oauth-configured

  # Check what would be pushed without sending anything
  credsync sync --dry-run

  # Sync a single provider with a tight deadline
  credsync sync --provider anthropic --timeout 10s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			client, err := eng.remoteClient(remoteURL)
			if err != nil {
				return err
			}

			metrics.InitMetrics()
			metricsServer := metrics.NewServer(cfg.MetricsServerConfig())
			if err := metricsServer.Start(); err != nil {
				eng.logger.Warn("Failed to start metrics server: %v", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = metricsServer.Stop(ctx)
			}()

			skip := skipOAuth
			if !cmd.Flags().Changed("skip-oauth-configured") {
				skip = syncConfigOf(cfg).SkipOAuthConfigured
			}

			orch := eng.orchestrator(client)
			report, err := orch.Sync(cmd.Context(), syncer.Options{
				SkipOAuthConfigured: skip,
				GlobalTimeout:       timeout,
				Providers:           providers,
				DryRun:              dryRun,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			printReport(eng, report)
			if report.Summary() == syncer.SummaryTotalFailure {
				return fmt.Errorf("sync failed for all %d provider(s)", report.Total())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&remoteURL, "remote", "", "Remote service base URL (overrides config)")
	cmd.Flags().StringSliceVar(&providers, "provider", nil, "Restrict sync to the given provider(s)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Global timeout for the whole pass")
	cmd.Flags().BoolVar(&skipOAuth, "skip-oauth-configured", false, "Skip providers whose remote auth is already OAuth")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and plan without sending requests")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")

	return cmd
}

// printReport renders a human-readable pass summary.
func printReport(eng *engine, report *syncer.Report) {
	for _, o := range report.Synced {
		eng.logger.Info("%s: synced (%d attempt(s))", o.Provider, o.Attempts)
	}
	for _, o := range report.Skipped {
		eng.logger.Info("%s: skipped, %s", o.Provider, o.Detail)
	}
	for _, o := range report.ValidationFailed {
		eng.logger.Warn("%s: invalid credential (%s), not sent", o.Provider, o.Detail)
	}
	for _, o := range report.Failed {
		eng.logger.Error("%s: %s", o.Provider, o.Detail)
	}
	for _, o := range report.Cancelled {
		eng.logger.Warn("%s: aborted (%s)", o.Provider, o.Category)
	}

	switch report.Summary() {
	case syncer.SummaryNothingToSync:
		eng.logger.Info("Nothing to sync: no provider credentials found in the environment")
	case syncer.SummaryAllSkipped:
		eng.logger.Info("All providers already covered, nothing pushed")
	case syncer.SummaryAllSynced:
		eng.logger.Info("Synced %d provider(s) in %s", len(report.Synced), report.Duration.Round(time.Millisecond))
	case syncer.SummaryPartialFailure:
		eng.logger.Warn("Synced %d provider(s), %d failed", len(report.Synced), len(report.Failed)+len(report.ValidationFailed))
	case syncer.SummaryTotalFailure:
		eng.logger.Error("No provider synced")
	}
}
