package sessioncmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/cliui"
	"github.com/papercomputeco/trail/pkg/memory"
)

const noteLongDesc string = `Append a memory fragment to a session.

The fragment lands in the recent tier, where it stays until compaction
demotes it. Omitting the id uses the current session.

Examples:
  trail session note "p99 spikes at 14:00"
  trail session note "cache is cold on deploy" --session prod-latency`

const noteShortDesc string = "Append a memory fragment"

func newNoteCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "note <text>...",
		Short: noteShortDesc,
		Long:  noteLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.driver.Close()

			id := sessionID
			if id == "" {
				id, err = resolveSessionID(nil, e.configDir)
				if err != nil {
					return err
				}
			}

			rec, err := e.repo.AppendMemory(cmd.Context(), id, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Printf("  %s Noted in %s %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(rec.ID),
				cliui.DimStyle.Render(fmt.Sprintf("(%d recent)", rec.Memory.FragmentCount(memory.TierRecent))),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id (default: current session)")

	return cmd
}

const headLongDesc string = `Set a session's head summary.

The head tier holds the always-loaded summary of where the session stands.
Setting it replaces the previous head. Omitting the id uses the current
session.

Examples:
  trail session head "investigating cold caches after deploys"`

const headShortDesc string = "Set the head summary"

func newHeadCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "head <text>...",
		Short: headShortDesc,
		Long:  headLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.driver.Close()

			id := sessionID
			if id == "" {
				id, err = resolveSessionID(nil, e.configDir)
				if err != nil {
					return err
				}
			}

			rec, err := e.repo.SetHead(cmd.Context(), id, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Printf("  %s Head updated for %s\n", cliui.SuccessMark, cliui.NameStyle.Render(rec.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id (default: current session)")

	return cmd
}
