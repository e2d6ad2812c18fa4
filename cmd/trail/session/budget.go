package sessioncmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

const budgetLongDesc string = `Show the token budget snapshot for a session.

Prints the snapshot as JSON: total and used tokens, percentage, pressure
status, and per-tier token counts. Omitting the id uses the current session.

Examples:
  trail session budget
  trail session budget prod-latency`

const budgetShortDesc string = "Show a session's budget snapshot"

func newBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget [id]",
		Short: budgetShortDesc,
		Long:  budgetLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.driver.Close()

			id, err := resolveSessionID(args, e.configDir)
			if err != nil {
				return err
			}

			snap, err := e.repo.Budget(cmd.Context(), id)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			return nil
		},
	}

	return cmd
}
