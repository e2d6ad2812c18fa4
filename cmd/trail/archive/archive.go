// Package archivecmder provides the archive command for searching the
// SQLite index of archived fragments.
package archivecmder

import (
	"github.com/spf13/cobra"
)

const archiveLongDesc string = `Work with the archive index.

Fragments demoted out of live memory land in a SQLite index, searchable on
demand without loading them back into the session's budget.

Use subcommands to query the index:
  trail archive search <id> <term>    Search a session's archived fragments

Examples:
  trail archive search prod-latency "cache"`

const archiveShortDesc string = "Search archived fragments"

func NewArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: archiveShortDesc,
		Long:  archiveLongDesc,
	}

	cmd.AddCommand(newSearchCmd())

	return cmd
}
