// Package sessioncmder provides the session command for managing trail
// sessions in the local store.
package sessioncmder

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/config"
	"github.com/papercomputeco/trail/pkg/dotdir"
	"github.com/papercomputeco/trail/pkg/logger"
	"github.com/papercomputeco/trail/pkg/store"
	"github.com/papercomputeco/trail/pkg/store/fs"
)

const sessionLongDesc string = `Manage trail sessions in the local store.

Sessions live as durable snapshots under the .trail/ directory (or the
configured storage.root_dir). Every command operates on the store directly;
no server needs to be running.

Use subcommands to manage sessions:
  trail session create <id>        Create a new session
  trail session list               List all sessions
  trail session note <text>        Append a memory fragment
  trail session head <text>        Set the head summary
  trail session budget [id]        Show the token budget snapshot
  trail session resume [id]        Project the resume scratchpad
  trail session transition <to>    Move a session forward in its lifecycle
  trail session fork <child-id>    Fork a session with its entities
  trail session use [id]           Set (or clear) the current session
  trail session delete <id>        Delete a session`

const sessionShortDesc string = "Manage trail sessions"

func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: sessionShortDesc,
		Long:  sessionLongDesc,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newNoteCmd())
	cmd.AddCommand(newHeadCmd())
	cmd.AddCommand(newBudgetCmd())
	cmd.AddCommand(newResumeCmd())
	cmd.AddCommand(newTransitionCmd())
	cmd.AddCommand(newForkCmd())
	cmd.AddCommand(newUseCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

// env bundles what every session subcommand needs: the resolved config,
// the filesystem driver, and a repository over it.
type env struct {
	cfg       *config.Config
	trailDir  string
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

	// Logs go to stderr so JSON output surfaces stay pipeable.
	repo := store.NewRepository(store.RepositoryConfig{
		Driver:      driver,
		TotalTokens: int(cfg.Budget.TotalTokens),
		Logger: logger.New(
			logger.WithDebug(debug),
			logger.WithPretty(true),
			logger.WithWriter(os.Stderr),
		),
	})

	return &env{
		cfg:       cfg,
		trailDir:  trailDir,
		configDir: configDir,
		driver:    driver,
		repo:      repo,
	}, nil
}

// resolveSessionID returns the explicit id argument, falling back to the
// current-session pointer set by `trail session use`.
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
