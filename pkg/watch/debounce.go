package watch

import (
	"sync"
	"time"
)

// DefaultWindow is the default settle window for change batching.
const DefaultWindow = 300 * time.Millisecond

// Debouncer collapses bursts of observations into a single settle signal.
// Every Observe while pending pushes the settle out by a full window, so a
// steady stream of writes produces one signal after the stream quiets down.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timer   *time.Timer
	pending bool
	settled chan struct{}
}

// NewDebouncer creates a debouncer with the given window; non-positive
// windows fall back to DefaultWindow.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Debouncer{
		window:  window,
		settled: make(chan struct{}, 1),
	}
}

// Observe records one raw change: idle starts the window, pending resets it.
func (d *Debouncer) Observe() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending {
		d.timer.Reset(d.window)
		return
	}

	d.pending = true
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.pending = false
	d.mu.Unlock()

	select {
	case d.settled <- struct{}{}:
	default:
		// A settle is already waiting to be consumed; batches coalesce.
	}
}

// Settled delivers one signal per settled batch.
func (d *Debouncer) Settled() <-chan struct{} {
	return d.settled
}

// Pending reports whether a batch is currently open.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any open batch without signalling.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending {
		d.timer.Stop()
		d.pending = false
	}
}
