// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DrawTarget is the surface that receives the rasterized output of one
// tile.
//
// Implementations:
//   - PixmapTarget: CPU-backed *image.RGBA, read back through Pixels
//   - TextureTarget: GPU-backed; the frame leaves through StealTexture
//
// Drawing goes through Canvas. Flush is a synchronous barrier: when it
// returns, every drawing command issued so far has completed.
type DrawTarget interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Format returns the pixel format of the target.
	Format() gputypes.TextureFormat

	// Canvas returns the image drawing commands write into.
	Canvas() *image.RGBA

	// Flush completes all pending drawing.
	Flush() error
}

// PixmapTarget is a CPU-backed draw target using *image.RGBA.
//
// Example:
//
//	target := render.NewPixmapTarget(256, 256)
//	pc := render.NewPaintContext(target, fonts, pageRect, screenRect)
//	...
//	_ = target.Flush()
//	surface.Upload(target.Pixels())
type PixmapTarget struct {
	img *image.RGBA
}

// NewPixmapTarget creates a new CPU-backed draw target.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return &PixmapTarget{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int {
	return t.img.Bounds().Dx()
}

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int {
	return t.img.Bounds().Dy()
}

// Format returns the pixel format (RGBA8).
func (t *PixmapTarget) Format() gputypes.TextureFormat {
	return SurfaceFormat
}

// Canvas returns the underlying *image.RGBA.
func (t *PixmapTarget) Canvas() *image.RGBA {
	return t.img
}

// Pixels returns direct access to the pixel data.
func (t *PixmapTarget) Pixels() []byte {
	return t.img.Pix
}

// Stride returns the number of bytes per row.
func (t *PixmapTarget) Stride() int {
	return t.img.Stride
}

// Flush is a no-op: CPU drawing is synchronous.
func (t *PixmapTarget) Flush() error {
	return nil
}

// Clear fills the entire target with the given color.
func (t *PixmapTarget) Clear(c color.Color) {
	fillRGBA(t.img, t.img.Bounds(), c)
}

// Ensure PixmapTarget implements DrawTarget.
var _ DrawTarget = (*PixmapTarget)(nil)

// TextureTarget is a GPU-backed draw target.
//
// Drawing commands accumulate in GPU-visible staging memory; Flush submits
// the frame to the GPU context, which turns it into a texture owned by the
// compositor's device. StealTexture then detaches that texture so it can
// travel to the compositor without any further pixel copy.
type TextureTarget struct {
	gpu     *GPUContext
	staging *image.RGBA
	tex     gpucontext.Texture
	flushed bool
	stolen  bool
}

// Width returns the target width in pixels.
func (t *TextureTarget) Width() int {
	return t.staging.Bounds().Dx()
}

// Height returns the target height in pixels.
func (t *TextureTarget) Height() int {
	return t.staging.Bounds().Dy()
}

// Format returns the pixel format.
func (t *TextureTarget) Format() gputypes.TextureFormat {
	return SurfaceFormat
}

// Canvas returns the staging image drawing commands write into.
func (t *TextureTarget) Canvas() *image.RGBA {
	return t.staging
}

// Flush submits the frame to the GPU and waits for it to complete.
// Flushing after the texture was stolen is an error.
func (t *TextureTarget) Flush() error {
	if t.stolen {
		return ErrTextureAlreadyStolen
	}
	tex, err := t.gpu.submit(t.tex, t.staging)
	if err != nil {
		return err
	}
	t.tex = tex
	t.flushed = true
	return nil
}

// StealTexture detaches the texture from the target. The target no
// longer owns it and will not release it; the caller must.
func (t *TextureTarget) StealTexture() (gpucontext.Texture, error) {
	if t.stolen {
		return nil, ErrTextureAlreadyStolen
	}
	if !t.flushed {
		return nil, ErrTextureNotFlushed
	}
	tex := t.tex
	t.tex = nil
	t.stolen = true
	return tex, nil
}

// Destroy releases the texture unless it was stolen.
func (t *TextureTarget) Destroy() {
	if t.tex != nil {
		releaseTexture(t.tex)
		t.tex = nil
	}
}

// Ensure TextureTarget implements DrawTarget.
var _ DrawTarget = (*TextureTarget)(nil)

// fillRGBA sets every pixel of r in img to c.
func fillRGBA(img *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	px := [4]byte{rgba.R, rgba.G, rgba.B, rgba.A}

	// Fill first row, then copy it down.
	first := img.PixOffset(r.Min.X, r.Min.Y)
	rowLen := r.Dx() * 4
	for i := 0; i < rowLen; i += 4 {
		copy(img.Pix[first+i:first+i+4], px[:])
	}
	for y := r.Min.Y + 1; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		copy(img.Pix[off:off+rowLen], img.Pix[first:first+rowLen])
	}
}
