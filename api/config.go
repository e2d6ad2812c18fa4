// Package api provides an HTTP API server for managing and querying trail
// sessions: lifecycle, memory writes, budget, compaction, resume projection,
// and a per-session SSE event stream.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string
}
