package main

import (
	"context"
	"image"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/paint/render"
)

// ebitenTexture is a tile texture living on ebiten's graphics device.
type ebitenTexture struct {
	img  *ebiten.Image
	w, h int
}

func (t *ebitenTexture) Width() int  { return t.w }
func (t *ebitenTexture) Height() int { return t.h }

// UpdateData replaces the texture pixels. ebiten images accept writes
// from any goroutine.
func (t *ebitenTexture) UpdateData(data []byte) error {
	if len(data) != t.w*t.h*4 {
		return render.ErrSurfaceSize
	}
	t.img.WritePixels(data)
	return nil
}

// ebitenTextures creates tile textures for the viewer window.
type ebitenTextures struct{}

func (ebitenTextures) NewTextureFromRGBA(w, h int, data []byte) (gpucontext.Texture, error) {
	t := &ebitenTexture{img: ebiten.NewImage(w, h), w: w, h: h}
	if err := t.UpdateData(data); err != nil {
		t.img.Deallocate()
		return nil, err
	}
	return t, nil
}

// viewer shows the latest frame in a window. It implements both
// ebiten.Game and presenter.
type viewer struct {
	ctx   context.Context
	title string

	mu    sync.Mutex
	frame *frame
	size  image.Point
}

func newViewer(ctx context.Context, title string, size image.Point) *viewer {
	return &viewer{ctx: ctx, title: title, size: size}
}

func (v *viewer) present(f *frame) error {
	v.mu.Lock()
	v.frame = f
	if f.size.X > 0 && f.size.Y > 0 {
		v.size = f.size
	}
	v.mu.Unlock()
	return nil
}

// Update implements ebiten.Game.
func (v *viewer) Update() error {
	select {
	case <-v.ctx.Done():
		return ebiten.Termination
	default:
		return nil
	}
}

// Draw implements ebiten.Game.
func (v *viewer) Draw(screen *ebiten.Image) {
	v.mu.Lock()
	f := v.frame
	v.mu.Unlock()

	screen.Fill(image.White)
	if f == nil {
		return
	}
	for _, l := range f.layers {
		if l.meta.BackgroundColor.A != 0 {
			screen.SubImage(l.bounds).(*ebiten.Image).Fill(l.meta.BackgroundColor)
		}
		for _, t := range l.tiles {
			surf, ok := t.surface.(*render.TextureSurface)
			if !ok {
				continue
			}
			tex, ok := surf.Texture().(*ebitenTexture)
			if !ok {
				continue
			}
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Translate(float64(l.bounds.Min.X+t.rect.Min.X), float64(l.bounds.Min.Y+t.rect.Min.Y))
			screen.DrawImage(tex.img, op)
		}
	}
}

// Layout implements ebiten.Game.
func (v *viewer) Layout(int, int) (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size.X, v.size.Y
}

// run opens the window and blocks until it is closed or ctx is done. It
// must be called on the main goroutine.
func (v *viewer) run() error {
	ebiten.SetWindowSize(v.size.X, v.size.Y)
	ebiten.SetWindowTitle(v.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(v)
}
