package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/trail/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the TRAIL_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (TRAIL_API_LISTEN, TRAIL_BUDGET_TOTAL_TOKENS, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: TRAIL_API_LISTEN, TRAIL_STORAGE_ROOT_DIR, etc.
	v.SetEnvPrefix("TRAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.root_dir", d.Storage.RootDir)
	v.SetDefault("storage.archive_path", d.Storage.ArchivePath)

	// Budget
	v.SetDefault("budget.total_tokens", d.Budget.TotalTokens)

	// Watcher
	v.SetDefault("watcher.debounce_ms", d.Watcher.DebounceMs)

	// Worker
	v.SetDefault("worker.num_workers", d.Worker.NumWorkers)
	v.SetDefault("worker.queue_size", d.Worker.QueueSize)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Eventstream
	v.SetDefault("eventstream.enabled", d.Eventstream.Enabled)
	v.SetDefault("eventstream.brokers", d.Eventstream.Brokers)
	v.SetDefault("eventstream.topic", d.Eventstream.Topic)
}
