package compresscmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

const suggestLongDesc string = `Show what compaction would do, without writing.

Runs the full compaction pipeline against a copy of the session's memory and
prints the result as JSON: fragments deduped, demoted, merged, and the token
counts before and after. The stored snapshot is untouched.

Examples:
  trail compress suggest
  trail compress suggest prod-latency --tier recent`

const suggestShortDesc string = "Preview compaction without writing"

func newSuggestCmd() *cobra.Command {
	var tierName string

	cmd := &cobra.Command{
		Use:   "suggest [id]",
		Short: suggestShortDesc,
		Long:  suggestLongDesc,
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

			result, err := e.repo.SuggestCompact(cmd.Context(), id, tier)
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
