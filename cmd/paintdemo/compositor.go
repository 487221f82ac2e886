package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/gogpu/paint"
	"github.com/gogpu/paint/layers"
	"github.com/gogpu/paint/render"
)

// Events sent from the task goroutine to the compositor loop.
type (
	initEvent struct {
		metadata []layers.LayerMetadata
		epoch    layers.Epoch
	}
	paintEvent struct {
		epoch   layers.Epoch
		replies []layers.LayerReply
	}
	failedEvent struct{ err error }
	readyEvent  struct{}
)

// eventQueue is an unbounded queue from the task goroutine to the
// compositor loop. Pushing never blocks, so the task keeps draining its
// mailbox while the loop is blocked sending to it.
type eventQueue struct {
	mu     sync.Mutex
	items  []any
	notify chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{notify: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev any) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// take removes and returns every queued event.
func (q *eventQueue) take() []any {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// requeue puts events back in front of the queue.
func (q *eventQueue) requeue(items []any) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(slices.Clip(items), q.items...)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// frame is one complete picture of the page.
type frame struct {
	seq    int
	epoch  layers.Epoch
	size   image.Point
	layers []frameLayer
}

// frameLayer is a layer placed in device pixels with its tiles.
type frameLayer struct {
	meta   layers.LayerMetadata
	bounds image.Rectangle
	tiles  []placedTile
}

// placedTile is a tile surface and its position inside the layer,
// captured while the compositor still owns the buffer.
type placedTile struct {
	rect    image.Rectangle
	surface render.NativeSurface
}

// presenter consumes finished frames.
type presenter interface {
	present(f *frame) error
}

// layerState is the compositor's view of one layer.
type layerState struct {
	meta    layers.LayerMetadata
	grid    *layers.TileGrid
	tiles   map[image.Rectangle]*layers.LayerBuffer
	pending bool
}

// compositor plays the compositor and controller for one pipeline. Its
// interface methods run on the task goroutine and only forward events;
// all state belongs to run.
type compositor struct {
	id       layers.PipelineID
	md       render.GraphicsMetadata
	ch       paint.Chan
	tileSize int
	scale    float64
	out      presenter
	logger   *slog.Logger

	events *eventQueue

	epoch  layers.Epoch
	layers map[layers.LayerID]*layerState
	order  []layers.LayerID
	frames int
}

func newCompositor(id layers.PipelineID, md render.GraphicsMetadata, ch paint.Chan, tileSize int, scale float64, out presenter, logger *slog.Logger) *compositor {
	return &compositor{
		id:       id,
		md:       md,
		ch:       ch,
		tileSize: tileSize,
		scale:    scale,
		out:      out,
		logger:   logger,
		events:   newEventQueue(),
		layers:   make(map[layers.LayerID]*layerState),
	}
}

func (c *compositor) GraphicsMetadata() render.GraphicsMetadata { return c.md }

func (c *compositor) InitializeLayersForPipeline(_ layers.PipelineID, md []layers.LayerMetadata, epoch layers.Epoch) {
	c.events.push(initEvent{metadata: md, epoch: epoch})
}

func (c *compositor) SetPaintState(_ layers.PipelineID, state layers.PaintState) {
	c.logger.Debug("paint state", "state", state)
}

func (c *compositor) Paint(_ layers.PipelineID, epoch layers.Epoch, replies []layers.LayerReply) {
	c.events.push(paintEvent{epoch: epoch, replies: replies})
}

func (c *compositor) PaintMsgDiscarded() {
	c.logger.Debug("paint request discarded")
}

func (c *compositor) PainterReady(layers.PipelineID) {
	c.events.push(readyEvent{})
}

func (c *compositor) PaintFailed(_ layers.PipelineID, err error) {
	c.events.push(failedEvent{err: err})
}

// run handles events until ctx is done, the task fails, or, when once
// is set, the first frame has been presented.
func (c *compositor) run(ctx context.Context, once bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.events.notify:
			evs := c.events.take()
			for i, ev := range evs {
				presented, err := c.handle(ev)
				if err != nil {
					return err
				}
				if presented && once {
					// shutdown still needs the buffers of later batches.
					c.events.requeue(evs[i+1:])
					return nil
				}
			}
		}
	}
}

func (c *compositor) handle(ev any) (presented bool, err error) {
	switch ev := ev.(type) {
	case readyEvent:
		c.logger.Info("painter ready, granting permission")
		c.ch.Send(paint.PaintPermissionGranted{})

	case initEvent:
		c.initialize(ev.metadata, ev.epoch)
		c.requestPaint()

	case paintEvent:
		return c.receive(ev.epoch, ev.replies)

	case failedEvent:
		return false, fmt.Errorf("paint task failed: %w", ev.err)
	}
	return false, nil
}

// initialize replaces the layer set. Buffers of the previous tree go back
// to the task.
func (c *compositor) initialize(md []layers.LayerMetadata, epoch layers.Epoch) {
	c.releaseAll()
	c.epoch = epoch
	c.layers = make(map[layers.LayerID]*layerState, len(md))
	c.order = c.order[:0]
	for _, m := range md {
		size := scalePoint(m.Position.Size(), c.scale)
		c.layers[m.ID] = &layerState{
			meta:  m,
			grid:  layers.NewTileGrid(size, c.tileSize, c.scale),
			tiles: make(map[image.Rectangle]*layers.LayerBuffer),
		}
		c.order = append(c.order, m.ID)
	}
	c.logger.Info("layers initialized", "epoch", epoch, "layers", len(md))
}

// requestPaint asks for every dirty tile of every layer in one batch.
func (c *compositor) requestPaint() {
	var reqs []paint.PaintRequest
	for _, id := range c.order {
		ls := c.layers[id]
		tiles := ls.grid.Requests()
		if len(tiles) == 0 {
			continue
		}
		reqs = append(reqs, paint.PaintRequest{
			LayerID: id,
			Buffers: tiles,
			Scale:   c.scale,
			Epoch:   c.epoch,
		})
		ls.grid.ClearDirty()
		ls.pending = true
	}
	if len(reqs) > 0 {
		c.ch.Send(paint.Paint{Requests: reqs})
	}
}

// receive stores painted tiles and presents a frame once no layer is
// waiting for tiles.
func (c *compositor) receive(epoch layers.Epoch, replies []layers.LayerReply) (bool, error) {
	var unused []*layers.LayerBuffer
	for _, r := range replies {
		ls, ok := c.layers[r.LayerID]
		if epoch != c.epoch || !ok {
			unused = append(unused, r.Buffers.Buffers...)
			continue
		}
		for _, b := range r.Buffers.Buffers {
			if old, ok := ls.tiles[b.ScreenPos]; ok {
				unused = append(unused, old)
			}
			ls.tiles[b.ScreenPos] = b
		}
		ls.pending = false
	}
	if len(unused) > 0 {
		c.ch.Send(paint.UnusedBuffer{Buffers: unused})
	}
	if epoch != c.epoch {
		c.logger.Debug("dropped stale tiles", "epoch", epoch, "current", c.epoch)
		return false, nil
	}
	for _, ls := range c.layers {
		if ls.pending {
			return false, nil
		}
	}

	c.frames++
	f := c.frame()
	c.logger.Info("presenting frame", "seq", f.seq, "epoch", f.epoch, "size", f.size)
	if err := c.out.present(f); err != nil {
		return false, err
	}
	return true, nil
}

func (c *compositor) frame() *frame {
	f := &frame{seq: c.frames, epoch: c.epoch}
	var all image.Rectangle
	for _, id := range c.order {
		ls := c.layers[id]
		bounds := image.Rectangle{
			Min: scalePoint(ls.meta.Position.Min, c.scale),
			Max: scalePoint(ls.meta.Position.Max, c.scale),
		}
		all = all.Union(bounds)
		tiles := make([]placedTile, 0, len(ls.tiles))
		for _, b := range ls.tiles {
			tiles = append(tiles, placedTile{rect: b.ScreenPos, surface: b.Surface})
		}
		slices.SortFunc(tiles, func(a, b placedTile) int {
			if a.rect.Min.Y != b.rect.Min.Y {
				return a.rect.Min.Y - b.rect.Min.Y
			}
			return a.rect.Min.X - b.rect.Min.X
		})
		f.layers = append(f.layers, frameLayer{meta: ls.meta, bounds: bounds, tiles: tiles})
	}
	f.size = all.Max
	return f
}

// releaseAll returns every held buffer to the task.
func (c *compositor) releaseAll() {
	var unused []*layers.LayerBuffer
	for _, ls := range c.layers {
		for _, b := range ls.tiles {
			unused = append(unused, b)
		}
		clear(ls.tiles)
	}
	if len(unused) == 0 {
		return
	}
	if err := c.ch.TrySend(paint.UnusedBuffer{Buffers: unused}); err != nil {
		c.logger.Debug("buffers not returned", "count", len(unused), "err", err)
	}
}

// shutdown asks the task to exit and hands back the buffers it waits
// for, including those of batches still in flight.
func (c *compositor) shutdown(ctx context.Context) error {
	ack := make(chan struct{}, 1)
	if err := c.ch.TrySend(paint.Exit{Response: ack, Kind: paint.PipelineExitOnly}); err != nil {
		return nil
	}
	c.releaseAll()
	for {
		select {
		case <-ack:
			c.logger.Info("pipeline exited", "frames", c.frames)
			return nil
		case <-c.events.notify:
			for _, ev := range c.events.take() {
				switch ev := ev.(type) {
				case paintEvent:
					var bufs []*layers.LayerBuffer
					for _, r := range ev.replies {
						bufs = append(bufs, r.Buffers.Buffers...)
					}
					if len(bufs) > 0 {
						_ = c.ch.TrySend(paint.UnusedBuffer{Buffers: bufs})
					}
				case failedEvent:
					return fmt.Errorf("paint task failed: %w", ev.err)
				}
			}
		case <-c.ch.Exited():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func scalePoint(p image.Point, s float64) image.Point {
	return image.Pt(int(math.Round(float64(p.X)*s)), int(math.Round(float64(p.Y)*s)))
}
