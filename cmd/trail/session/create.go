package sessioncmder

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/cliui"
	"github.com/papercomputeco/trail/pkg/dotdir"
)

const createLongDesc string = `Create a new session in the local store.

The session starts in the backlog status with empty memory. The new session
becomes the current session, so later commands can omit the id.

Examples:
  trail session create prod-latency --title "why is prod slow"
  trail session create refactor-auth`

const createShortDesc string = "Create a new session"

func newCreateCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: createShortDesc,
		Long:  createLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.driver.Close()

			rec, err := e.repo.Create(cmd.Context(), args[0], title)
			if err != nil {
				return err
			}

			// Point the current session at the new record, git-HEAD style.
			state := &dotdir.CurrentState{SessionID: rec.ID, SetAt: time.Now().UTC()}
			if err := dotdir.NewManager().SaveCurrent(state, e.configDir); err != nil {
				return fmt.Errorf("saving current session: %w", err)
			}

			fmt.Printf("  %s Created session %s %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(rec.ID),
				cliui.DimStyle.Render("("+string(rec.Status)+")"),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Session title")

	return cmd
}
