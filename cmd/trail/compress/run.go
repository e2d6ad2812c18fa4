package compresscmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

const runLongDesc string = `Compact a session's memory and persist the result.

Runs the full compaction pipeline and rewrites the session snapshot
atomically. Prints the result as JSON: fragments deduped, demoted, merged,
and the token counts before and after.

Examples:
  trail compress run
  trail compress run prod-latency --tier historical`

const runShortDesc string = "Compact and persist a session's memory"

func newRunCmd() *cobra.Command {
	var tierName string

	cmd := &cobra.Command{
		Use:   "run [id]",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := parseTierFlag(tierName)
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.driver.Close()

			id, err := resolveSessionID(args, e.configDir)
			if err != nil {
				return err
			}

			result, err := e.repo.Compact(cmd.Context(), id, tier)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			return nil
		},
	}

	cmd.Flags().StringVar(&tierName, "tier", "", "Restrict compaction to one tier (head, key_evidence, recent, historical)")

	return cmd
}
