package sessioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/cliui"
)

const forkLongDesc string = `Fork a session into a new child session.

The child carries the parent's entities and memory, records the parent's id
as its lineage, and starts exploring with a fresh cycle. Omitting the parent
id uses the current session.

Examples:
  trail session fork prod-latency-cache --title "cold cache angle"
  trail session fork child-id parent-id`

const forkShortDesc string = "Fork a session with its entities"

func newForkCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "fork <child-id> [parent-id]",
		Short: forkShortDesc,
		Long:  forkLongDesc,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.driver.Close()

			parentID, err := resolveSessionID(args[1:], e.configDir)
			if err != nil {
				return err
			}

			child, err := e.repo.Fork(cmd.Context(), parentID, args[0], title)
			if err != nil {
				return err
			}

			fmt.Printf("  %s Forked %s from %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(child.ID),
				cliui.DimStyle.Render(parentID),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Title for the child session")

	return cmd
}
