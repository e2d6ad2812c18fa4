package archivecmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/cliui"
	"github.com/papercomputeco/trail/pkg/config"
	"github.com/papercomputeco/trail/pkg/dotdir"
	"github.com/papercomputeco/trail/pkg/store/archive"
	"github.com/papercomputeco/trail/pkg/utils"
)

const searchLongDesc string = `Search a session's archived fragments.

Matches the term as a substring against the text of fragments demoted to
the archive, oldest first. Results never re-enter live memory.

Examples:
  trail archive search prod-latency "cache"
  trail archive search prod-latency "p99" --limit 10`

const searchShortDesc string = "Search archived fragments of a session"

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <session-id> <term>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSearch(cmd, args[0], args[1], limit, configDir)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, sessionID, term string, limit int, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	trailDir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return fmt.Errorf("resolving .trail directory: %w", err)
	}
	if trailDir == "" {
		return errors.New("no .trail/ directory found; run `trail init` first")
	}

	config.ResolveStoragePaths(cfg, trailDir)

	idx, err := archive.Open(cfg.Storage.ArchivePath)
	if err != nil {
		return err
	}
	defer idx.Close()

	entries, err := idx.Search(cmd.Context(), sessionID, term, limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Printf("  %s No archived fragments match %q.\n", cliui.DimStyle.Render("●"), term)
		return nil
	}

	fmt.Println()
	for _, e := range entries {
		fmt.Printf("  %s  %s\n",
			cliui.DimStyle.Render(e.ArchivedAt.Format("2006-01-02")),
			utils.Truncate(e.Text, 96),
		)
	}
	fmt.Printf("\n  %s %d result(s)\n\n", cliui.SuccessMark, len(entries))

	return nil
}
