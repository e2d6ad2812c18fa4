package sessioncmder

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/cliui"
	"github.com/papercomputeco/trail/pkg/dotdir"
)

const useLongDesc string = `Set the current session.

Saves the session id to the .trail/ directory so later commands (budget,
resume, transition, fork) can omit it. Running without an id clears the
current session.

Examples:
  trail session use prod-latency
  trail session use`

const useShortDesc string = "Set or clear the current session"

func newUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use [id]",
		Short: useShortDesc,
		Long:  useLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.driver.Close()

			ddm := dotdir.NewManager()

			if len(args) == 0 {
				if err := ddm.ClearCurrent(e.configDir); err != nil {
					return fmt.Errorf("clearing current session: %w", err)
				}
				fmt.Println("Current session cleared.")
				return nil
			}

			// Fail fast on unknown ids rather than saving a dangling pointer.
			rec, err := e.repo.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			state := &dotdir.CurrentState{SessionID: rec.ID, SetAt: time.Now().UTC()}
			if err := ddm.SaveCurrent(state, e.configDir); err != nil {
				return fmt.Errorf("saving current session: %w", err)
			}

			fmt.Printf("  %s Current session is %s\n", cliui.SuccessMark, cliui.NameStyle.Render(rec.ID))
			return nil
		},
	}

	return cmd
}
