// Package watchcmder provides the watch command for streaming a session's
// live events from a running API server.
package watchcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/pkg/cliui"
	"github.com/papercomputeco/trail/pkg/config"
	"github.com/papercomputeco/trail/pkg/sse"
)

type watchCommander struct {
	sessionID string
	apiTarget string
}

const watchLongDesc string = `Stream a session's live events from the API server.

Connects to the server's SSE endpoint and prints each event as it arrives:
session-updated when the settled snapshot's content changed, budget-alert
when the session crossed a pressure threshold. Runs until interrupted.

Requires a running server (trail serve).

Examples:
  trail watch prod-latency
  trail watch prod-latency --api-target http://localhost:8080`

const watchShortDesc string = "Stream a session's live events"

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch <session-id>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.sessionID = args[0]
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "Trail API server address")

	return cmd
}

func (c *watchCommander) run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	url := fmt.Sprintf("%s/sessions/%s/events", c.apiTarget, c.sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout: the stream stays open until interrupted.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	fmt.Printf("  %s Watching %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(c.sessionID),
		cliui.DimStyle.Render("(Ctrl+C to stop)"),
	)

	reader := sse.NewReader(resp.Body)
	for {
		ev, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				fmt.Println()
				return nil
			}
			return fmt.Errorf("reading event stream: %w", err)
		}

		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render(ev.Type), ev.Data)
	}
}
