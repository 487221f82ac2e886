package parallel

import (
	"errors"
	"image"
	"image/color"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/paint/displaylist"
	"github.com/gogpu/paint/layers"
	"github.com/gogpu/paint/render"
)

// fakeTexture is an in-memory gpucontext.Texture.
type fakeTexture struct {
	w, h int
	data []byte
}

func (t *fakeTexture) Width() int  { return t.w }
func (t *fakeTexture) Height() int { return t.h }

func (t *fakeTexture) UpdateData(data []byte) error {
	t.data = append(t.data[:0], data...)
	return nil
}

type fakeCreator struct {
	mu      sync.Mutex
	created int
}

func (c *fakeCreator) NewTextureFromRGBA(w, h int, data []byte) (gpucontext.Texture, error) {
	c.mu.Lock()
	c.created++
	c.mu.Unlock()
	return &fakeTexture{w: w, h: h, data: append([]byte(nil), data...)}, nil
}

// slowItem sleeps on tiles whose page X is a multiple of 3 tiles, so
// workers finish out of order.
type slowItem struct {
	displaylist.Base
}

func (it *slowItem) Draw(pc *render.PaintContext) error {
	if int(pc.PageRect().X/16)%3 == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	pc.FillRect(it.Rect, color.RGBA{R: 0xFF, A: 0xFF})
	return nil
}

func testScene() *displaylist.StackingContext {
	return displaylist.NewStackingContext(render.R(0, 0, 1024, 16), &displaylist.DisplayList{
		Content: []displaylist.Item{&slowItem{Base: displaylist.Base{Rect: render.R(0, 0, 1024, 16)}}},
	})
}

func testTiles(n int, sc *displaylist.StackingContext) []Tile {
	tiles := make([]Tile, n)
	for i := range tiles {
		tiles[i] = Tile{
			Request: layers.BufferRequest{
				PageRect:   render.R(float64(i*16), 0, 16, 16),
				ScreenRect: image.Rect(i*16, 0, i*16+16, 16),
				ContentAge: layers.ContentAge(i),
			},
			Context: sc,
			Scale:   1,
		}
	}
	return tiles
}

// =============================================================================
// Pool Creation Tests
// =============================================================================

func TestPool_Create(t *testing.T) {
	pool := New(Config{Workers: 4})
	defer pool.Exit()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if pool.QueueDepth() != DefaultQueueDepth {
		t.Errorf("QueueDepth() = %d, want %d", pool.QueueDepth(), DefaultQueueDepth)
	}
}

func TestPool_CreateZeroWorkers(t *testing.T) {
	pool := New(Config{})
	defer pool.Exit()

	expected := runtime.GOMAXPROCS(0)
	if pool.Workers() != expected {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), expected)
	}
}

func TestPool_GPUForcesOneWorker(t *testing.T) {
	pool := New(Config{
		Workers:  8,
		GPU:      true,
		Metadata: render.GraphicsMetadata{Textures: &fakeCreator{}},
	})
	defer pool.Exit()

	if pool.Workers() != 1 {
		t.Errorf("Workers() = %d, want 1 for the GPU backend", pool.Workers())
	}
	if !pool.GPU() {
		t.Error("GPU() = false")
	}
}

// =============================================================================
// Painting Tests
// =============================================================================

func TestPool_PaintTiles_PreservesOrder(t *testing.T) {
	pool := New(Config{Workers: 3, QueueDepth: 2})
	defer pool.Exit()

	tiles := testTiles(40, testScene())
	bufs := pool.PaintTiles(tiles)

	if len(bufs) != len(tiles) {
		t.Fatalf("len(bufs) = %d, want %d", len(bufs), len(tiles))
	}
	for i, b := range bufs {
		if b.ContentAge != layers.ContentAge(i) || b.ScreenPos != tiles[i].Request.ScreenRect {
			t.Fatalf("bufs[%d] is for tile age %d at %v", i, b.ContentAge, b.ScreenPos)
		}
	}
}

func TestPool_PaintTiles_SmallQueueNoDeadlock(t *testing.T) {
	pool := New(Config{Workers: 2, QueueDepth: 1})
	defer pool.Exit()

	done := make(chan []*layers.LayerBuffer)
	go func() { done <- pool.PaintTiles(testTiles(50, testScene())) }()

	select {
	case bufs := <-done:
		if len(bufs) != 50 {
			t.Errorf("len(bufs) = %d, want 50", len(bufs))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("PaintTiles deadlocked")
	}
}

func TestPool_PaintTiles_Empty(t *testing.T) {
	pool := New(Config{Workers: 2})
	defer pool.Exit()

	if bufs := pool.PaintTiles(nil); len(bufs) != 0 {
		t.Errorf("len(bufs) = %d, want 0", len(bufs))
	}
}

func TestPool_CPUBackend_CopiesIntoGivenBuffer(t *testing.T) {
	pool := New(Config{Workers: 2})
	defer pool.Exit()

	nc := render.NewNativeContext(render.GraphicsMetadata{})
	tiles := testTiles(2, testScene())
	reused := NewBuffer(nc, tiles[0].Request, 1)
	reused.PaintedWithCPU = false
	tiles[0].Buffer = reused

	bufs := pool.PaintTiles(tiles)
	if bufs[0] != reused {
		t.Error("worker did not paint into the supplied buffer")
	}
	for i, b := range bufs {
		if !b.PaintedWithCPU {
			t.Errorf("bufs[%d].PaintedWithCPU = false", i)
		}
		host, ok := b.Surface.(*render.HostSurface)
		if !ok {
			t.Fatalf("bufs[%d].Surface is %T", i, b.Surface)
		}
		if host.Uploads() != 1 {
			t.Errorf("bufs[%d] uploads = %d, want 1", i, host.Uploads())
		}
		if host.Pixels()[0] != 0xFF {
			t.Errorf("bufs[%d] first pixel red = %#x, want 0xff", i, host.Pixels()[0])
		}
	}
}

func TestPool_GPUBackend_StealsTexture(t *testing.T) {
	creator := &fakeCreator{}
	pool := New(Config{GPU: true, Metadata: render.GraphicsMetadata{Textures: creator}})
	defer pool.Exit()

	nc := render.NewNativeContext(render.GraphicsMetadata{})
	tiles := testTiles(5, testScene())
	ignored := NewBuffer(nc, tiles[0].Request, 1)
	tiles[0].Buffer = ignored

	bufs := pool.PaintTiles(tiles)
	for i, b := range bufs {
		if b.PaintedWithCPU {
			t.Errorf("bufs[%d].PaintedWithCPU = true", i)
		}
		ts, ok := b.Surface.(*render.TextureSurface)
		if !ok {
			t.Fatalf("bufs[%d].Surface is %T, want *render.TextureSurface", i, b.Surface)
		}
		if !ts.Stolen() || ts.Uploads() != 0 {
			t.Errorf("bufs[%d]: stolen = %v, uploads = %d", i, ts.Stolen(), ts.Uploads())
		}
		if ts.Size() != image.Pt(16, 16) {
			t.Errorf("bufs[%d] size = %v", i, ts.Size())
		}
	}
	if bufs[0] == ignored || ignored.Surface.Uploads() != 0 {
		t.Error("GPU backend used the supplied CPU buffer")
	}
	if creator.created != 5 {
		t.Errorf("created %d textures, want 5", creator.created)
	}
}

func TestPool_OnTile(t *testing.T) {
	var calls atomic.Int64
	pool := New(Config{Workers: 2, OnTile: func(time.Duration) { calls.Add(1) }})
	defer pool.Exit()

	pool.PaintTiles(testTiles(7, testScene()))
	if calls.Load() != 7 {
		t.Errorf("OnTile called %d times, want 7", calls.Load())
	}
}

func TestPool_WorkerPanicResurfaces(t *testing.T) {
	// GPU backend without a texture creator cannot paint.
	pool := New(Config{GPU: true})
	defer pool.Exit()

	defer func() {
		r := recover()
		wp, ok := r.(*WorkerPanic)
		if !ok {
			t.Fatalf("recovered %v, want *WorkerPanic", r)
		}
		if !errors.Is(wp, render.ErrNoTextureCreator) {
			t.Errorf("panic = %v, want ErrNoTextureCreator", wp)
		}
	}()
	pool.PaintTiles(testTiles(1, testScene()))
	t.Fatal("PaintTiles did not panic")
}

func TestPool_ExitTwice(t *testing.T) {
	pool := New(Config{Workers: 2})
	pool.Exit()
	pool.Exit()
}
