package parallel

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/gogpu/paint/layers"
	"github.com/gogpu/paint/render"
	"github.com/gogpu/paint/text"
)

// DefaultQueueDepth is the capacity of each worker's request and response
// channels.
const DefaultQueueDepth = 4

// Config configures a Pool.
type Config struct {
	// Workers is the number of workers. Zero or less uses GOMAXPROCS.
	// The GPU backend always uses one worker.
	Workers int

	// QueueDepth bounds the tiles in flight per worker. Zero or less
	// uses DefaultQueueDepth.
	QueueDepth int

	// GPU selects the GPU backend.
	GPU bool

	// Metadata is the compositor's graphics environment.
	Metadata render.GraphicsMetadata

	// Fonts is shared read-only by all workers. Nil creates one.
	Fonts *text.FontCache

	// Logger receives worker logs. Nil discards them.
	Logger *slog.Logger

	// OnTile is called by workers after each tile with its paint time.
	// It must be safe for concurrent use.
	OnTile func(time.Duration)
}

// WorkerPanic is raised on the collecting goroutine when a worker
// panicked while painting a tile.
type WorkerPanic struct {
	Worker int
	Value  any
}

// Error implements error.
func (p *WorkerPanic) Error() string {
	return fmt.Sprintf("parallel: worker %d panicked: %v", p.Worker, p.Value)
}

// Unwrap returns the panic value if it is an error.
func (p *WorkerPanic) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// Proxy is the paint task's handle on one worker.
type Proxy struct {
	id        int
	requests  chan<- request
	responses <-chan response
}

// PaintTile queues a tile. It blocks while the worker's request channel
// is full.
func (p *Proxy) PaintTile(t Tile) {
	p.requests <- request{kind: requestPaintTile, tile: t}
}

// PaintedTile waits for the next painted tile. If the worker panicked
// while painting it, PaintedTile panics with a *WorkerPanic.
func (p *Proxy) PaintedTile() *layers.LayerBuffer {
	resp := <-p.responses
	if resp.failed != nil {
		panic(&WorkerPanic{Worker: p.id, Value: resp.failed})
	}
	return resp.buffer
}

// Exit asks the worker to stop once its queued tiles are done.
func (p *Proxy) Exit() {
	p.requests <- request{kind: requestExit}
}

// Pool is a fixed set of paint workers driven by a single goroutine.
//
// Thread safety: Pool is NOT safe for concurrent use; only the paint
// task calls it.
type Pool struct {
	proxies []*Proxy
	depth   int
	gpu     bool
	wg      sync.WaitGroup
	exited  bool
}

// New starts the workers described by cfg.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if cfg.GPU {
		workers = 1
	}
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fonts := cfg.Fonts
	if fonts == nil {
		fonts = text.NewFontCache()
	}

	p := &Pool{
		proxies: make([]*Proxy, workers),
		depth:   depth,
		gpu:     cfg.GPU,
	}
	p.wg.Add(workers)
	for i := range workers {
		requests := make(chan request, depth)
		responses := make(chan response, depth)
		p.proxies[i] = &Proxy{id: i, requests: requests, responses: responses}

		w := &worker{
			id:         i,
			requests:   requests,
			responses:  responses,
			logger:     logger,
			onTile:     cfg.OnTile,
			gpuBackend: cfg.GPU,
			metadata:   cfg.Metadata,
		}
		go func() {
			defer p.wg.Done()
			w.run(fonts)
		}()
	}
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return len(p.proxies)
}

// QueueDepth returns the per-worker channel capacity.
func (p *Pool) QueueDepth() int {
	return p.depth
}

// GPU reports whether the pool paints with the GPU backend.
func (p *Pool) GPU() bool {
	return p.gpu
}

// Proxy returns the handle on worker i.
func (p *Pool) Proxy(i int) *Proxy {
	return p.proxies[i]
}

// PaintTiles paints tiles and returns the buffers in the same order.
//
// Tile i goes to worker i mod W. Before tile i is queued, the result of
// tile i - W*QueueDepth is collected; it belongs to the same worker, so no
// worker ever holds more than QueueDepth tiles and neither channel can
// fill up while the other side waits.
func (p *Pool) PaintTiles(tiles []Tile) []*layers.LayerBuffer {
	n := len(p.proxies)
	window := n * p.depth
	out := make([]*layers.LayerBuffer, 0, len(tiles))

	for i, t := range tiles {
		if i >= window {
			out = append(out, p.proxies[(i-window)%n].PaintedTile())
		}
		p.proxies[i%n].PaintTile(t)
	}
	for i := max(len(tiles)-window, 0); i < len(tiles); i++ {
		out = append(out, p.proxies[i%n].PaintedTile())
	}
	return out
}

// Exit stops every worker and waits for them to return. Calling Exit
// more than once is a no-op.
func (p *Pool) Exit() {
	if p.exited {
		return
	}
	p.exited = true
	for _, proxy := range p.proxies {
		proxy.Exit()
	}
	p.wg.Wait()
}
