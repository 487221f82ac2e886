package parallel

import (
	"fmt"
	"image/color"
	"log/slog"
	"runtime"
	"time"

	"github.com/gogpu/paint/displaylist"
	"github.com/gogpu/paint/layers"
	"github.com/gogpu/paint/render"
	"github.com/gogpu/paint/text"
)

// Tile is one unit of work: paint request Request of the stacking context
// Context at Scale.
type Tile struct {
	Request layers.BufferRequest

	// Buffer is a reusable buffer for the CPU backend, already stamped
	// with the tile's placement. Nil makes the worker allocate one. The
	// GPU backend ignores it.
	Buffer *layers.LayerBuffer

	Context *displaylist.StackingContext
	Scale   float64
}

type requestKind uint8

const (
	requestPaintTile requestKind = iota
	requestExit
)

type request struct {
	kind requestKind
	tile Tile
}

// response carries a painted buffer, or the value a worker panicked with.
type response struct {
	buffer *layers.LayerBuffer
	failed any
}

// worker owns everything a tile paint needs. Nothing here is shared with
// other workers.
type worker struct {
	id        int
	requests  <-chan request
	responses chan<- response
	logger    *slog.Logger
	onTile    func(time.Duration)

	gpuBackend bool
	metadata   render.GraphicsMetadata
	native     *render.NativeContext
	gpu        *render.GPUContext
	gpuErr     error
	fonts      *text.Context
}

// run is the worker loop. It returns after an exit request.
func (w *worker) run(fontCache *text.FontCache) {
	if w.gpuBackend {
		// GPU contexts are bound to the thread that created them.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		w.gpu, w.gpuErr = render.NewGPUContext(w.metadata)
	}
	w.native = render.NewNativeContext(w.metadata)
	w.fonts = text.NewContext(fontCache)

	w.logger.Debug("paint worker started", "worker", w.id, "gpu", w.gpuBackend)
	for req := range w.requests {
		switch req.kind {
		case requestExit:
			w.logger.Debug("paint worker exiting", "worker", w.id)
			return
		case requestPaintTile:
			w.responses <- w.paintSafely(req.tile)
		}
	}
}

// paintSafely paints a tile and turns a panic into a failed response so
// it resurfaces on the paint task goroutine.
func (w *worker) paintSafely(t Tile) (resp response) {
	defer func() {
		if r := recover(); r != nil {
			resp = response{failed: r}
		}
	}()
	return response{buffer: w.paint(t)}
}

// paint rasterizes one tile. Backend failures are programming errors and
// panic.
func (w *worker) paint(t Tile) *layers.LayerBuffer {
	start := time.Now()
	req := t.Request
	size := req.Size()

	var (
		target  render.DrawTarget
		texture *render.TextureTarget
	)
	if w.gpuBackend {
		if w.gpuErr != nil {
			panic(fmt.Errorf("parallel: worker %d has no gpu context: %w", w.id, w.gpuErr))
		}
		texture = w.gpu.NewTextureTarget(size.X, size.Y)
		target = texture
	} else {
		target = render.NewPixmapTarget(size.X, size.Y)
	}

	tileBounds := t.Context.TileBounds(req.PageRect)
	pc := render.NewPaintContext(target, w.fonts, req.PageRect, req.ScreenRect)
	pc.SetTransform(render.Identity().
		Scale(t.Scale, t.Scale).
		Translate(-tileBounds.X, -tileBounds.Y))
	pc.Clear(color.Transparent)

	if err := t.Context.Draw(pc, tileBounds); err != nil {
		panic(fmt.Errorf("parallel: draw tile %v: %w", req.ScreenRect, err))
	}
	if err := target.Flush(); err != nil {
		panic(fmt.Errorf("parallel: flush tile %v: %w", req.ScreenRect, err))
	}

	var buf *layers.LayerBuffer
	if texture != nil {
		tex, err := texture.StealTexture()
		if err != nil {
			panic(fmt.Errorf("parallel: steal tile texture: %w", err))
		}
		buf = &layers.LayerBuffer{
			Surface:        render.StolenSurface(tex),
			Rect:           req.PageRect,
			ScreenPos:      req.ScreenRect,
			Resolution:     t.Scale,
			Stride:         size.X * 4,
			PaintedWithCPU: false,
			ContentAge:     req.ContentAge,
		}
	} else {
		buf = t.Buffer
		if buf == nil {
			buf = NewBuffer(w.native, req, t.Scale)
		}
		pixmap := target.(*render.PixmapTarget)
		if err := buf.Surface.Upload(pixmap.Pixels()); err != nil {
			panic(fmt.Errorf("parallel: upload tile %v: %w", req.ScreenRect, err))
		}
		buf.PaintedWithCPU = true
	}

	elapsed := time.Since(start)
	if w.onTile != nil {
		w.onTile(elapsed)
	}
	w.logger.Debug("painted tile", "worker", w.id, "rect", req.ScreenRect, "elapsed", elapsed)
	return buf
}

// NewBuffer allocates a CPU layer buffer for req on nc.
func NewBuffer(nc *render.NativeContext, req layers.BufferRequest, scale float64) *layers.LayerBuffer {
	size := req.Size()
	stride := size.X * 4
	buf := &layers.LayerBuffer{
		Surface: nc.NewSurface(size.X, size.Y, stride),
		Stride:  stride,
	}
	Stamp(buf, req, scale)
	return buf
}

// Stamp sets a buffer's placement for req, as needed when a pooled
// buffer is reused for a new tile.
func Stamp(buf *layers.LayerBuffer, req layers.BufferRequest, scale float64) {
	buf.Rect = req.PageRect
	buf.ScreenPos = req.ScreenRect
	buf.Resolution = scale
	buf.PaintedWithCPU = true
	buf.ContentAge = req.ContentAge
}
