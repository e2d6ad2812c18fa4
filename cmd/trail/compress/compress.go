// Package compresscmder provides the compress command for compacting a
// session's tiered memory.
package compresscmder

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/config"
	"github.com/papercomputeco/trail/pkg/dotdir"
	"github.com/papercomputeco/trail/pkg/logger"
	"github.com/papercomputeco/trail/pkg/memory"
	"github.com/papercomputeco/trail/pkg/store"
	"github.com/papercomputeco/trail/pkg/store/fs"
)

const compressLongDesc string = `Compact a session's tiered memory.

Compaction dedupes fragments, demotes aged-out fragments to colder tiers,
and merges the historical tier when it overflows its budget. The session
snapshot is rewritten atomically.

Use subcommands to preview or apply compaction:
  trail compress suggest [id]    Show what compaction would do, without writing
  trail compress run [id]        Compact and persist the result

Examples:
  trail compress suggest
  trail compress run prod-latency --tier recent`

const compressShortDesc string = "Compact a session's memory"

func NewCompressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress",
		Short: compressShortDesc,
		Long:  compressLongDesc,
	}

	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}

// env bundles the resolved config and an open repository.
type env struct {
	cfg       *config.Config
	configDir string
	driver    *fs.Driver
	repo      *store.Repository
}

func openEnv(cmd *cobra.Command) (*env, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	ddm := dotdir.NewManager()
	trailDir, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving .trail directory: %w", err)
	}
	if trailDir == "" {
		return nil, errors.New("no .trail/ directory found; run `trail init` first")
	}

	config.ResolveStoragePaths(cfg, trailDir)

	driver, err := fs.NewDriver(cfg.Storage.RootDir)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	repo := store.NewRepository(store.RepositoryConfig{
		Driver:      driver,
		TotalTokens: int(cfg.Budget.TotalTokens),
		Logger: logger.New(
			logger.WithDebug(debug),
			logger.WithPretty(true),
			logger.WithWriter(os.Stderr),
		),
	})

	return &env{cfg: cfg, configDir: configDir, driver: driver, repo: repo}, nil
}

func resolveSessionID(args []string, configDir string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	state, err := dotdir.NewManager().LoadCurrentState(configDir)
	if err != nil {
		return "", fmt.Errorf("loading current session: %w", err)
	}
	if state == nil {
		return "", errors.New("no session id given and no current session set; run `trail session use <id>`")
	}

	return state.SessionID, nil
}

func parseTierFlag(name string) (*memory.Tier, error) {
	if name == "" {
		return nil, nil
	}
	t, ok := memory.ParseTier(name)
	if !ok {
		return nil, fmt.Errorf("unknown tier: %q", name)
	}
	return &t, nil
}
