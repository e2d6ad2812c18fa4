// Package trailcmder
package trailcmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	archivecmder "github.com/papercomputeco/trail/cmd/trail/archive"
	compresscmder "github.com/papercomputeco/trail/cmd/trail/compress"
	configcmder "github.com/papercomputeco/trail/cmd/trail/config"
	initcmder "github.com/papercomputeco/trail/cmd/trail/init"
	servecmder "github.com/papercomputeco/trail/cmd/trail/serve"
	sessioncmder "github.com/papercomputeco/trail/cmd/trail/session"
	watchcmder "github.com/papercomputeco/trail/cmd/trail/watch"
	versioncmder "github.com/papercomputeco/trail/cmd/version"
)

const trailLongDesc string = `Trail is durable tiered working memory for long-running reasoning sessions.

Manage sessions locally:
  trail session create      Create a new session
  trail session resume      Project the scratchpad for a session
  trail compress run        Compact a session's memory

Run the API server:
  trail serve               Run the API server with the live engine`

const trailShortDesc string = "Trail - Durable Working Memory"

func NewTrailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trail",
		Short: trailShortDesc,
		Long:  trailLongDesc,

		// Errors are rendered by main as a structured object, matching the
		// JSON the contract surfaces emit on success.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .trail/ config directory")

	// Add subcommands
	cmd.AddCommand(sessioncmder.NewSessionCmd())
	cmd.AddCommand(compresscmder.NewCompressCmd())
	cmd.AddCommand(archivecmder.NewArchiveCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

// ErrorJSON renders a command failure as the CLI's structured error object.
// The shape matches the API's error responses.
func ErrorJSON(err error) string {
	payload, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(payload)
}
