package sessioncmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/cliui"
	"github.com/papercomputeco/trail/pkg/scratchpad"
)

const resumeLongDesc string = `Project the resume scratchpad for a session.

Builds the token-capped scratchpad a reasoning agent should load to pick the
session back up: head summary, key evidence, and the newest recent fragments
that fit the cap. Stamps the session's last-resumed timestamp.

Output is JSON by default; --pretty renders the scratchpad as markdown.
Omitting the id uses the current session.

Examples:
  trail session resume
  trail session resume prod-latency --cap 1500
  trail session resume --pretty --include-historical`

const resumeShortDesc string = "Project a session's resume scratchpad"

func newResumeCmd() *cobra.Command {
	var (
		cap               int
		includeHistorical bool
		pretty            bool
	)

	cmd := &cobra.Command{
		Use:   "resume [id]",
		Short: resumeShortDesc,
		Long:  resumeLongDesc,
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

			rec, err := e.repo.Resume(cmd.Context(), id)
			if err != nil {
				return err
			}

			payload := scratchpad.Project(rec, cap, e.repo.Count(), scratchpad.Options{
				IncludeHistorical: includeHistorical,
			})

			if pretty {
				rendered, err := cliui.RenderMarkdown(payload.Render())
				if err != nil {
					return err
				}
				fmt.Print(rendered)
				return nil
			}

			out, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			return nil
		},
	}

	cmd.Flags().IntVar(&cap, "cap", 0, "Token cap for the projection (default: 2000)")
	cmd.Flags().BoolVar(&includeHistorical, "include-historical", false, "Expand historical fragments instead of folding them into the older-count line")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Render the scratchpad as markdown")

	return cmd
}
