// Package configcmder provides the config command for managing persistent
// trail configuration stored in the .trail/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent trail configuration.

Configuration is stored as config.toml in the .trail/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.root_dir, storage.archive_path,
  budget.total_tokens, watcher.debounce_ms,
  worker.num_workers, worker.queue_size,
  api.listen, client.api_target,
  eventstream.enabled, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  trail config set <key> <value>    Set a configuration value
  trail config get <key>            Get a configuration value
  trail config list                 List all configuration values

Examples:
  trail config set budget.total_tokens 8000
  trail config set api.listen :9090
  trail config get watcher.debounce_ms
  trail config list`

const configShortDesc string = "Manage persistent trail configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
