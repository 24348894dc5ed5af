package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/systmms/credsync/internal/config"
)

// validationRow is the JSON shape of one provider's validation result.
// It never contains the candidate value.
type validationRow struct {
	Provider string `json:"provider"`
	Valid    bool   `json:"valid"`
	Length   int    `json:"length,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func NewValidateCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate locally-available credentials without syncing",
		Long: `Read every provider credential the environment offers and run it
through the key validator. Nothing is transmitted; use this to check
credentials before a sync.

Examples:
  credsync validate
  credsync validate --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			loaded := eng.loader.Load(eng.registry.All())
			defer loaded.Destroy()

			rows := make([]validationRow, 0, len(loaded.Valid)+len(loaded.Invalid))
			for name, secret := range loaded.Valid {
				rows = append(rows, validationRow{Provider: name, Valid: true, Length: secret.Len()})
			}
			for name, outcome := range loaded.Invalid {
				rows = append(rows, validationRow{
					Provider: name,
					Reason:   string(outcome.Reason),
					Detail:   outcome.Detail,
				})
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].Provider < rows[j].Provider })

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			if len(rows) == 0 {
				eng.logger.Info("No provider credentials found in the environment")
				return nil
			}

			invalid := 0
			for _, row := range rows {
				if row.Valid {
					eng.logger.Info("%s: valid (%d chars)", row.Provider, row.Length)
					continue
				}
				invalid++
				if row.Detail != "" {
					eng.logger.Warn("%s: invalid - %s (%s)", row.Provider, row.Reason, row.Detail)
				} else {
					eng.logger.Warn("%s: invalid - %s", row.Provider, row.Reason)
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d credential(s) failed validation", invalid)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
