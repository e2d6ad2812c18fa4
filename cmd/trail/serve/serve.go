// Package servecmder provides the serve command for running the trail API
// server with the live engine.
package servecmder

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/trail/api"
	"github.com/papercomputeco/trail/pkg/config"
	"github.com/papercomputeco/trail/pkg/dotdir"
	"github.com/papercomputeco/trail/pkg/engine"
	"github.com/papercomputeco/trail/pkg/eventstream"
	"github.com/papercomputeco/trail/pkg/eventstream/kafka"
	"github.com/papercomputeco/trail/pkg/logger"
	"github.com/papercomputeco/trail/pkg/store"
	"github.com/papercomputeco/trail/pkg/store/archive"
	"github.com/papercomputeco/trail/pkg/store/fs"
)

type ServeCommander struct {
	listen      string
	rootDir     string
	archivePath string
	brokers     string
	topic       string
	totalTokens uint
	debounceMs  uint
	numWorkers  uint
	queueSize   uint
	eventstream bool
	debug       bool

	logger *slog.Logger
}

// serveFlags is the flag registry for the serve command. Names, shorthands,
// and viper keys live here so they cannot drift from the config file keys.
var serveFlags = config.FlagSet{
	config.FlagAPIListen: {
		Name:        "api-listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagRootDir: {
		Name:        "root-dir",
		ViperKey:    "storage.root_dir",
		Description: "Directory holding session snapshots (default: .trail/sessions)",
	},
	config.FlagArchivePath: {
		Name:        "archive-path",
		ViperKey:    "storage.archive_path",
		Description: "Path to the SQLite archive index (default: .trail/archive.db)",
	},
	config.FlagTotalTokens: {
		Name:        "total-tokens",
		ViperKey:    "budget.total_tokens",
		Description: "Total live token budget per session",
	},
	config.FlagDebounceMs: {
		Name:        "debounce-ms",
		ViperKey:    "watcher.debounce_ms",
		Description: "Watcher settle window in milliseconds",
	},
	config.FlagNumWorkers: {
		Name:        "num-workers",
		ViperKey:    "worker.num_workers",
		Description: "Background compaction workers",
	},
	config.FlagQueueSize: {
		Name:        "queue-size",
		ViperKey:    "worker.queue_size",
		Description: "Background job queue size",
	},
	config.FlagBrokers: {
		Name:        "brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma-separated Kafka broker addresses",
	},
	config.FlagTopic: {
		Name:        "topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic for settle events",
	},
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagRootDir,
	config.FlagArchivePath,
	config.FlagTotalTokens,
	config.FlagDebounceMs,
	config.FlagNumWorkers,
	config.FlagQueueSize,
	config.FlagBrokers,
	config.FlagTopic,
}

const serveLongDesc string = `Run the trail API server with the live engine.

The engine watches session directories for settled writes, fans out
session-updated and budget-alert events to SSE subscribers, and schedules
compaction off the write path when a session crosses its pressure
thresholds. Archived fragments are indexed into SQLite for search.

With --eventstream (or eventstream.enabled in config.toml), every settled
batch is also published to Kafka.

Configuration follows viper precedence: flags over TRAIL_* environment
variables over config.toml over defaults.

Examples:
  trail serve
  trail serve --api-listen :9090 --total-tokens 8000
  trail serve --eventstream --brokers localhost:9092`

const serveShortDesc string = "Run the trail API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)
			if f := cmd.Flags().Lookup("eventstream"); f != nil {
				_ = v.BindPFlag("eventstream.enabled", f)
			}

			cmder.listen = v.GetString("api.listen")
			cmder.rootDir = v.GetString("storage.root_dir")
			cmder.archivePath = v.GetString("storage.archive_path")
			cmder.brokers = v.GetString("eventstream.brokers")
			cmder.topic = v.GetString("eventstream.topic")
			cmder.totalTokens = v.GetUint("budget.total_tokens")
			cmder.debounceMs = v.GetUint("watcher.debounce_ms")
			cmder.numWorkers = v.GetUint("worker.num_workers")
			cmder.queueSize = v.GetUint("worker.queue_size")
			cmder.eventstream = v.GetBool("eventstream.enabled")

			return cmder.resolvePaths(configDir)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagRootDir, &cmder.rootDir)
	config.AddStringFlag(cmd, serveFlags, config.FlagArchivePath, &cmder.archivePath)
	config.AddUintFlag(cmd, serveFlags, config.FlagTotalTokens, &cmder.totalTokens)
	config.AddUintFlag(cmd, serveFlags, config.FlagDebounceMs, &cmder.debounceMs)
	config.AddUintFlag(cmd, serveFlags, config.FlagNumWorkers, &cmder.numWorkers)
	config.AddUintFlag(cmd, serveFlags, config.FlagQueueSize, &cmder.queueSize)
	config.AddStringFlag(cmd, serveFlags, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, serveFlags, config.FlagTopic, &cmder.topic)
	cmd.Flags().BoolVar(&cmder.eventstream, "eventstream", false, "Publish settle events to Kafka")

	return cmd
}

// resolvePaths fills empty storage paths relative to the resolved .trail/
// directory, creating it when only an override was given.
func (c *ServeCommander) resolvePaths(configDir string) error {
	if c.rootDir != "" && c.archivePath != "" {
		return nil
	}

	trailDir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return fmt.Errorf("resolving .trail directory: %w", err)
	}
	if trailDir == "" {
		return errors.New("no .trail/ directory found; run `trail init` or set storage.root_dir")
	}

	cfg := &config.Config{}
	cfg.Storage.RootDir = c.rootDir
	cfg.Storage.ArchivePath = c.archivePath
	config.ResolveStoragePaths(cfg, trailDir)

	c.rootDir = cfg.Storage.RootDir
	c.archivePath = cfg.Storage.ArchivePath
	return nil
}

func (c *ServeCommander) run() error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
	)

	driver, err := fs.NewDriver(c.rootDir)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer driver.Close()

	repo := store.NewRepository(store.RepositoryConfig{
		Driver:      driver,
		TotalTokens: int(c.totalTokens),
		Logger:      c.logger,
	})

	idx, err := archive.Open(c.archivePath)
	if err != nil {
		return err
	}
	defer idx.Close()

	var publisher eventstream.Publisher
	if c.eventstream {
		brokers := strings.Split(c.brokers, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) == 0 || brokers[0] == "" {
			return errors.New("eventstream enabled but no brokers configured")
		}

		publisher = kafka.NewPublisher(brokers, c.topic)
		c.logger.Info("eventstream enabled",
			"brokers", c.brokers,
			"topic", c.topic,
		)
	}

	eng, err := engine.New(engine.Config{
		Repo:       repo,
		Dirs:       driver,
		Window:     time.Duration(c.debounceMs) * time.Millisecond,
		Publisher:  publisher,
		Archive:    idx,
		NumWorkers: c.numWorkers,
		QueueSize:  c.queueSize,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer eng.Close()

	server := api.NewServer(api.Config{ListenAddr: c.listen}, repo, eng, c.logger)

	c.logger.Info("starting API server",
		"listen", c.listen,
		"root_dir", c.rootDir,
		"archive_path", c.archivePath,
		"total_tokens", c.totalTokens,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
