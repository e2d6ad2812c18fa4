package sessioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/cliui"
	"github.com/papercomputeco/trail/pkg/session"
)

const transitionLongDesc string = `Move a session forward in its lifecycle.

Valid statuses, in order:
  backlog, exploring, tensions, synthesizing, formed

Transitions only move forward; skipping statuses is allowed, going back is
not, except the single reopen edge formed -> exploring. Each transition
appends a pass to the session's history. Omitting the id uses the current
session.

Examples:
  trail session transition exploring
  trail session transition formed prod-latency`

const transitionShortDesc string = "Move a session to a later status"

func newTransitionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transition <to> [id]",
		Short: transitionShortDesc,
		Long:  transitionLongDesc,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to := session.Status(args[0])
			if !to.Valid() {
				return fmt.Errorf("unknown status: %q", args[0])
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.driver.Close()

			id, err := resolveSessionID(args[1:], e.configDir)
			if err != nil {
				return err
			}

			rec, err := e.repo.Transition(cmd.Context(), id, to)
			if err != nil {
				return err
			}

			fmt.Printf("  %s %s is now %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(rec.ID),
				cliui.ValueStyle.Render(string(rec.Status)),
			)
			return nil
		},
	}

	return cmd
}
