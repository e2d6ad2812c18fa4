package sessioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/cliui"
	"github.com/papercomputeco/trail/pkg/dotdir"
	"github.com/papercomputeco/trail/pkg/utils"
)

const listLongDesc string = `List all sessions in the local store.

Shows each session's id, lifecycle status, and title. The current session
(set by create or use) is marked with an asterisk.

Examples:
  trail session list`

const listShortDesc string = "List all sessions"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.driver.Close()

			records, err := e.repo.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Printf("  %s No sessions. Create one with `trail session create <id>`.\n", cliui.DimStyle.Render("●"))
				return nil
			}

			current := ""
			if state, err := dotdir.NewManager().LoadCurrentState(e.configDir); err == nil && state != nil {
				current = state.SessionID
			}

			maxLen := 0
			for _, rec := range records {
				if len(rec.ID) > maxLen {
					maxLen = len(rec.ID)
				}
			}

			fmt.Println()
			for _, rec := range records {
				marker := " "
				if rec.ID == current {
					marker = "*"
				}
				// Pad before styling so ANSI codes don't skew the columns.
				fmt.Printf("  %s %-*s  %-12s  %s\n",
					marker,
					maxLen, rec.ID,
					rec.Status,
					cliui.DimStyle.Render(utils.Truncate(rec.Title, 48)),
				)
			}
			fmt.Println()

			return nil
		},
	}

	return cmd
}
