package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/credsync/internal/config"
	"github.com/systmms/credsync/internal/storepath"
)

// providerStatus is the JSON shape of one provider's status row.
type providerStatus struct {
	Provider     string `json:"provider"`
	SourceEnvVar string `json:"source_env_var"`
	OAuthStatus  string `json:"oauth_status"`
	CircuitState string `json:"circuit_state"`
}

func NewStatusCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-provider auth status and circuit state",
		Long: `Display, for every registered provider, which auth mode the remote
service has configured (from the local credential store) and the state
of the provider's circuit breaker.

Examples:
  credsync status
  credsync status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			if path, err := storepath.Resolve(); err == nil {
				eng.logger.Debug("Credential store path: %s", path)
			} else {
				eng.logger.Warn("%v", err)
			}

			names := eng.registry.Names()
			statuses := eng.oauth.ResolveAll(names)
			circuits := eng.breakers.States()

			rows := make([]providerStatus, 0, len(names))
			for _, name := range names {
				def := eng.registry.Get(name)
				rows = append(rows, providerStatus{
					Provider:     name,
					SourceEnvVar: def.SourceEnvVar,
					OAuthStatus:  statuses[name].String(),
					CircuitState: circuits[name].String(),
				})
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			fmt.Printf("%-12s %-24s %-14s %s\n", "PROVIDER", "SOURCE", "AUTH", "CIRCUIT")
			for _, row := range rows {
				fmt.Printf("%-12s %-24s %-14s %s\n", row.Provider, row.SourceEnvVar, row.OAuthStatus, row.CircuitState)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
