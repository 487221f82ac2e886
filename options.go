package paint

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gogpu/paint/internal/buffermap"
	"github.com/gogpu/paint/internal/parallel"
	"github.com/gogpu/paint/text"
)

// Backend selects how tiles are painted.
type Backend int

const (
	// BackendCPU paints in host memory and copies pixels into native
	// surfaces.
	BackendCPU Backend = iota

	// BackendGPU paints into compositor textures and hands them over
	// without a copy.
	BackendGPU
)

// String returns the backend name.
func (b Backend) String() string {
	switch b {
	case BackendCPU:
		return "cpu"
	case BackendGPU:
		return "gpu"
	default:
		return "unknown"
	}
}

// ParseBackend parses "cpu" or "gpu", ignoring case.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpu":
		return BackendCPU, nil
	case "gpu":
		return BackendGPU, nil
	default:
		return BackendCPU, fmt.Errorf("paint: unknown backend %q", s)
	}
}

// DefaultMailboxSize is the default capacity of the channel created by
// NewChan(0).
const DefaultMailboxSize = 64

// Option configures a Task.
//
// Example:
//
//	done := paint.Create(id, port, compositor, controller,
//	    paint.WithBackend(paint.BackendGPU),
//	    paint.WithCacheBytes(32<<20),
//	)
type Option func(*options)

// options holds the configuration of a Task.
type options struct {
	backend    Backend
	workers    int
	cacheBytes int
	queueDepth int
	profiler   Profiler
	fonts      *text.FontCache

	// observe, when set, sees the task state after every message.
	observe func(taskState)
}

// defaultOptions returns the default task options.
func defaultOptions() options {
	return options{
		backend:    BackendCPU,
		workers:    runtime.GOMAXPROCS(0),
		cacheBytes: buffermap.DefaultBudget,
		queueDepth: parallel.DefaultQueueDepth,
	}
}

// WithBackend selects the paint backend. BackendGPU requires the
// compositor's GraphicsMetadata to carry a texture creator.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithWorkers sets the number of paint workers. Values below 1 are
// ignored. The GPU backend always uses one worker.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithCacheBytes sets the byte budget of the tile buffer cache. Values
// below 1 are ignored.
func WithCacheBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheBytes = n
		}
	}
}

// WithQueueDepth sets how many tiles each worker may have in flight.
// Values below 1 are ignored.
func WithQueueDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueDepth = n
		}
	}
}

// WithProfiler installs a time profiler.
func WithProfiler(p Profiler) Option {
	return func(o *options) {
		o.profiler = p
	}
}

// WithFontCache shares an existing font cache with the task's workers.
func WithFontCache(fc *text.FontCache) Option {
	return func(o *options) {
		o.fonts = fc
	}
}

// withObserver installs a hook that sees the task state after every
// message. It runs on the task goroutine.
func withObserver(fn func(taskState)) Option {
	return func(o *options) {
		o.observe = fn
	}
}
