package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gogpu/gpucontext"
	"golang.org/x/image/draw"

	"github.com/gogpu/paint/render"
)

// memTexture is a host-memory texture for running the GPU backend
// without a window.
type memTexture struct {
	img *image.RGBA
}

func (t *memTexture) Width() int  { return t.img.Rect.Dx() }
func (t *memTexture) Height() int { return t.img.Rect.Dy() }

func (t *memTexture) UpdateData(data []byte) error {
	if len(data) != len(t.img.Pix) {
		return render.ErrSurfaceSize
	}
	copy(t.img.Pix, data)
	return nil
}

// memTextures creates memTextures.
type memTextures struct{}

func (memTextures) NewTextureFromRGBA(w, h int, data []byte) (gpucontext.Texture, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if len(data) != len(img.Pix) {
		return nil, render.ErrSurfaceSize
	}
	copy(img.Pix, data)
	return &memTexture{img: img}, nil
}

// surfaceImage returns the pixels of a surface held in host memory.
func surfaceImage(s render.NativeSurface) image.Image {
	switch s := s.(type) {
	case *render.HostSurface:
		return s.Image()
	case *render.TextureSurface:
		if t, ok := s.Texture().(*memTexture); ok {
			return t.img
		}
	}
	return nil
}

// compose flattens a frame into one image. Layers are drawn in order
// over their background colors.
func compose(f *frame) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: f.size})
	for _, l := range f.layers {
		if l.meta.BackgroundColor.A != 0 {
			draw.Draw(dst, l.bounds, image.NewUniform(l.meta.BackgroundColor), image.Point{}, draw.Over)
		}
		for _, t := range l.tiles {
			src := surfaceImage(t.surface)
			if src == nil {
				continue
			}
			draw.Draw(dst, t.rect.Add(l.bounds.Min), src, src.Bounds().Min, draw.Over)
		}
	}
	return dst
}

// pngPresenter writes each frame to dir as frame-NNN.png.
type pngPresenter struct {
	dir string
}

func (p pngPresenter) present(f *frame) error {
	path := filepath.Join(p.dir, fmt.Sprintf("frame-%03d.png", f.seq))
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, compose(f)); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return out.Close()
}
