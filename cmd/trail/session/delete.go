package sessioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/cliui"
	"github.com/papercomputeco/trail/pkg/dotdir"
)

const deleteLongDesc string = `Delete a session from the local store.

Removes the session's snapshot directory. If the deleted session was the
current session, the current pointer is cleared too. The archive index is
not touched.

Examples:
  trail session delete prod-latency`

const deleteShortDesc string = "Delete a session"

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.driver.Close()

			if err := e.repo.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			ddm := dotdir.NewManager()
			if state, err := ddm.LoadCurrentState(e.configDir); err == nil && state != nil && state.SessionID == args[0] {
				if err := ddm.ClearCurrent(e.configDir); err != nil {
					return fmt.Errorf("clearing current session: %w", err)
				}
			}

			fmt.Printf("  %s Deleted session %s\n", cliui.SuccessMark, cliui.NameStyle.Render(args[0]))
			return nil
		},
	}

	return cmd
}
