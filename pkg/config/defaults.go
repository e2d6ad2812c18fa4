package config

const (
	defaultSessionRoot = "sessions"
	defaultArchiveFile = "archive.db"

	defaultTotalTokens = 6000
	defaultDebounceMs  = 300

	defaultNumWorkers = 2
	defaultQueueSize  = 64

	defaultAPIListen       = ":8080"
	defaultClientAPITarget = "http://localhost:8080"

	defaultEventstreamTopic = "trail.sessions"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
//
// Storage paths default to empty here: they resolve relative to the .trail/
// directory only once it is known, via ResolveStoragePaths.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Budget: BudgetConfig{
			TotalTokens: defaultTotalTokens,
		},
		Watcher: WatcherConfig{
			DebounceMs: defaultDebounceMs,
		},
		Worker: WorkerConfig{
			NumWorkers: defaultNumWorkers,
			QueueSize:  defaultQueueSize,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Eventstream: EventstreamConfig{
			Topic: defaultEventstreamTopic,
		},
	}
}
