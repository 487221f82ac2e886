package paint

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/paint/displaylist"
	"github.com/gogpu/paint/internal/buffermap"
	"github.com/gogpu/paint/internal/parallel"
	"github.com/gogpu/paint/layers"
	"github.com/gogpu/paint/render"
	"github.com/gogpu/paint/text"
)

// Compositor receives layers and painted tiles from a task. All methods
// are called from the task goroutine.
type Compositor interface {
	// GraphicsMetadata describes where painted tiles will be displayed.
	// It is called once, when the task starts.
	GraphicsMetadata() render.GraphicsMetadata

	// InitializeLayersForPipeline announces the layers of a newly
	// installed render tree. Paint requests must carry epoch.
	InitializeLayersForPipeline(id layers.PipelineID, metadata []layers.LayerMetadata, epoch layers.Epoch)

	// SetPaintState reports the start and end of each paint batch.
	SetPaintState(id layers.PipelineID, state layers.PaintState)

	// Paint delivers the painted tiles of a batch. The compositor owns
	// the buffers until it returns them with UnusedBuffer.
	Paint(id layers.PipelineID, epoch layers.Epoch, replies []layers.LayerReply)

	// PaintMsgDiscarded reports a Paint batch that was not painted.
	PaintMsgDiscarded()
}

// Controller is the task's owner, usually the pipeline's constellation.
type Controller interface {
	// PainterReady reports that the task has work but lacks paint
	// permission.
	PainterReady(id layers.PipelineID)

	// PaintFailed reports that the task stopped because of err.
	PaintFailed(id layers.PipelineID, err error)
}

// Create starts a paint task for pipeline id receiving from port. The
// returned channel is closed once the task has exited, its buffer cache
// has been released and all workers have stopped.
func Create(id layers.PipelineID, port *Port, compositor Compositor, controller Controller, opts ...Option) <-chan struct{} {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		runTask(id, port, compositor, controller, o)
	}()
	return done
}

// Task is the state of a running paint task. It is confined to the task
// goroutine.
type Task struct {
	id         layers.PipelineID
	port       *Port
	compositor Compositor
	controller Controller
	logger     *slog.Logger
	profiler   Profiler
	backend    Backend

	native  *render.NativeContext
	buffers *buffermap.BufferMap
	pool    *parallel.Pool

	root       *displaylist.StackingContext
	epoch      layers.Epoch
	permission bool

	// usedBufferCount is the number of buffers lent to the compositor.
	// lent holds them, so a buffer returned twice or never lent cannot
	// enter the cache.
	usedBufferCount int
	lent            map[*layers.LayerBuffer]struct{}

	draining     bool
	exitResponse chan<- struct{}

	observe func(taskState)
}

// taskState is a snapshot of a task's bookkeeping.
type taskState struct {
	epoch       layers.Epoch
	outstanding int
	cached      int
	cachedBytes int
}

func runTask(id layers.PipelineID, port *Port, compositor Compositor, controller Controller, o options) {
	logger := Logger().With("pipeline", id)

	t := &Task{
		id:         id,
		port:       port,
		compositor: compositor,
		controller: controller,
		logger:     logger,
		profiler:   o.profiler,
		backend:    o.backend,
		buffers:    buffermap.New(o.cacheBytes),
		lent:       make(map[*layers.LayerBuffer]struct{}),
		observe:    o.observe,
	}
	defer t.shutdown()
	defer t.recoverFailure()

	md := compositor.GraphicsMetadata()
	if o.backend == BackendGPU && !md.HasGPU() {
		panic(fmt.Errorf("paint: gpu backend: %w", render.ErrNoTextureCreator))
	}
	t.native = render.NewNativeContext(md)

	fonts := o.fonts
	if fonts == nil {
		fonts = text.NewFontCache()
	}
	cfg := parallel.Config{
		Workers:    o.workers,
		QueueDepth: o.queueDepth,
		GPU:        o.backend == BackendGPU,
		Metadata:   md,
		Fonts:      fonts,
		Logger:     logger,
	}
	if p := o.profiler; p != nil {
		cfg.OnTile = func(d time.Duration) { p.Record(PaintingPerTile, d) }
	}
	t.pool = parallel.New(cfg)

	logger.Info("paint task started", "backend", o.backend, "workers", t.pool.Workers())
	t.start()
}

// start runs the message loop until the task exits.
func (t *Task) start() {
	for {
		more := t.handle(t.port.recv())
		if t.observe != nil {
			t.observe(taskState{
				epoch:       t.epoch,
				outstanding: t.usedBufferCount,
				cached:      t.buffers.Len(),
				cachedBytes: t.buffers.Mem(),
			})
		}
		if !more {
			return
		}
	}
}

// handle processes one message and reports whether the loop continues.
func (t *Task) handle(msg Msg) bool {
	if t.draining {
		return t.handleDraining(msg)
	}

	switch m := msg.(type) {
	case PaintInit:
		t.epoch = t.epoch.Next()
		t.root = m.Root
		t.logger.Debug("render tree installed", "epoch", t.epoch)
		if !t.permission {
			t.controller.PainterReady(t.id)
			return true
		}
		t.initializeLayers()

	case Paint:
		if !t.permission {
			t.controller.PainterReady(t.id)
			t.compositor.PaintMsgDiscarded()
			return true
		}
		t.paintBatch(m.Requests)

	case UnusedBuffer:
		t.returnBuffers(m.Buffers)

	case PaintPermissionGranted:
		t.permission = true
		if t.root != nil {
			t.epoch = t.epoch.Next()
			t.initializeLayers()
		}

	case PaintPermissionRevoked:
		t.permission = false

	case Exit:
		if m.Kind == CompleteExit || t.usedBufferCount == 0 {
			t.acknowledge(m.Response)
			return false
		}
		// The compositor must return what it holds before the buffers
		// can be released.
		t.logger.Warn("exit waiting for buffers", "kind", m.Kind, "outstanding", t.usedBufferCount)
		t.draining = true
		t.exitResponse = m.Response

	default:
		t.logger.Warn("unknown message", "type", fmt.Sprintf("%T", msg))
	}
	return true
}

// handleDraining processes msg while a pipeline-only exit waits for the
// compositor's buffers. Only UnusedBuffer has an effect.
func (t *Task) handleDraining(msg Msg) bool {
	switch m := msg.(type) {
	case UnusedBuffer:
		t.returnBuffers(m.Buffers)
		if t.usedBufferCount == 0 {
			t.acknowledge(t.exitResponse)
			return false
		}
	case Paint:
		t.compositor.PaintMsgDiscarded()
	default:
		t.logger.Warn("ignoring message while exiting", "type", fmt.Sprintf("%T", msg))
	}
	return true
}

// acknowledge stops receiving and then answers an Exit, so no send can
// succeed once the sender has seen the acknowledgement.
func (t *Task) acknowledge(response chan<- struct{}) {
	t.closePort()
	t.logger.Info("paint task exiting", "outstanding", t.usedBufferCount)
	if response != nil {
		response <- struct{}{}
	}
}

// initializeLayers publishes the layers of the current render tree.
func (t *Task) initializeLayers() {
	md := t.root.LayerMetadata()
	t.logger.Debug("initializing layers", "epoch", t.epoch, "layers", len(md))
	t.compositor.InitializeLayersForPipeline(t.id, md, t.epoch)
}

// paintBatch paints every request of the current epoch and sends the
// replies to the compositor.
func (t *Task) paintBatch(requests []PaintRequest) {
	var replies []layers.LayerReply

	t.compositor.SetPaintState(t.id, layers.Painting)
	for _, req := range requests {
		if t.root == nil || req.Epoch != t.epoch {
			t.logger.Debug("paint epoch mismatch", "current", t.epoch, "request", req.Epoch)
			continue
		}
		if reply, ok := t.paintLayer(req); ok {
			replies = append(replies, reply)
		}
	}
	t.compositor.SetPaintState(t.id, layers.Idle)

	for _, r := range replies {
		for _, buf := range r.Buffers.Buffers {
			t.lent[buf] = struct{}{}
		}
		t.usedBufferCount += r.Buffers.Len()
	}
	t.logger.Debug("painted batch", "layers", len(replies), "outstanding", t.usedBufferCount)
	t.compositor.Paint(t.id, t.epoch, replies)
}

// paintLayer paints the tiles of one layer. Unknown layers are skipped.
func (t *Task) paintLayer(req PaintRequest) (reply layers.LayerReply, ok bool) {
	profile(t.profiler, Painting, func() {
		sc, found := t.root.FindLayer(req.LayerID)
		if !found {
			t.logger.Debug("no stacking context for layer", "layer", req.LayerID)
			return
		}

		tiles := make([]parallel.Tile, len(req.Buffers))
		for i, br := range req.Buffers {
			tiles[i] = parallel.Tile{
				Request: br,
				Buffer:  t.findOrCreateBuffer(br, req.Scale),
				Context: sc,
				Scale:   req.Scale,
			}
		}
		reply = layers.LayerReply{
			LayerID: req.LayerID,
			Buffers: &layers.LayerBufferSet{Buffers: t.pool.PaintTiles(tiles)},
		}
		ok = true
	})
	return reply, ok
}

// findOrCreateBuffer returns a buffer for a CPU tile, reusing a cached
// one of the same size when possible. The GPU backend paints into fresh
// textures and gets nil.
func (t *Task) findOrCreateBuffer(req layers.BufferRequest, scale float64) *layers.LayerBuffer {
	if t.backend == BackendGPU {
		return nil
	}
	if buf, ok := t.buffers.Find(req.Size()); ok {
		parallel.Stamp(buf, req, scale)
		return buf
	}
	return parallel.NewBuffer(t.native, req, scale)
}

// returnBuffers takes back buffers from the compositor. They are cached
// in reverse so the most recently used one is found first. Buffers that
// are not currently lent are dropped, and the outstanding count never
// goes below zero.
func (t *Task) returnBuffers(bufs []*layers.LayerBuffer) {
	accepted := 0
	for i := len(bufs) - 1; i >= 0; i-- {
		buf := bufs[i]
		if _, ok := t.lent[buf]; !ok {
			continue
		}
		delete(t.lent, buf)
		accepted++
		t.buffers.Insert(buf)
	}

	t.usedBufferCount -= accepted
	if t.usedBufferCount < 0 {
		t.usedBufferCount = 0
	}
	if excess := len(bufs) - accepted; excess > 0 {
		t.logger.Warn("compositor returned buffers it did not hold", "excess", excess)
	}
	t.logger.Debug("buffers returned", "count", accepted, "outstanding", t.usedBufferCount, "cached_bytes", t.buffers.Mem())
}

// recoverFailure turns a panic on the task goroutine into a failure
// report to the controller.
func (t *Task) recoverFailure() {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("paint: task panicked: %v", r)
	}
	t.logger.Error("paint task failed", "err", err)
	t.controller.PaintFailed(t.id, err)
}

// shutdown releases everything the task owns once its loop has ended.
func (t *Task) shutdown() {
	t.closePort()
	st := t.buffers.Stats()
	t.buffers.Clear()
	if t.pool != nil {
		t.pool.Exit()
	}
	t.logger.Debug("paint task shut down",
		"cache_hits", st.Hits, "cache_misses", st.Misses, "cache_peak_bytes", st.PeakBytes)
}

// closePort stops the mailbox and logs messages that arrived too late.
func (t *Task) closePort() {
	if n := t.port.close(); n > 0 {
		t.logger.Warn("dropped messages queued after exit", "count", n)
	}
}
