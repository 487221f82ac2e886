package layers

import (
	"image"
	"image/color"

	"github.com/gogpu/paint/render"
)

// LayerMetadata is what the compositor needs to create or update one
// layer.
type LayerMetadata struct {
	ID LayerID

	// Position is the layer's rectangle in device pixels of the page.
	Position image.Rectangle

	BackgroundColor color.RGBA
	ScrollPolicy    ScrollPolicy
}

// BufferRequest asks for one tile of a layer.
type BufferRequest struct {
	// PageRect is the tile in page coordinates (CSS pixels).
	PageRect render.Rect

	// ScreenRect is the tile in device pixels. Its size is the size of
	// the buffer that will be painted.
	ScreenRect image.Rectangle

	ContentAge ContentAge
}

// Size returns the pixel size of the requested tile.
func (r BufferRequest) Size() image.Point {
	return r.ScreenRect.Size()
}

// LayerBuffer is one painted tile.
type LayerBuffer struct {
	// Surface holds the pixels, in host memory or as a GPU texture.
	Surface render.NativeSurface

	// Rect is the tile in page coordinates.
	Rect render.Rect

	// ScreenPos is the tile in device pixels.
	ScreenPos image.Rectangle

	// Resolution is the scale factor the tile was painted at.
	Resolution float64

	// Stride is the number of bytes per row.
	Stride int

	// PaintedWithCPU is set when pixels were copied into Surface by the
	// CPU backend and clear when Surface wraps a texture painted on the
	// GPU.
	PaintedWithCPU bool

	ContentAge ContentAge
}

// Size returns the buffer's pixel size.
func (b *LayerBuffer) Size() image.Point {
	if b.Surface != nil {
		return b.Surface.Size()
	}
	return b.ScreenPos.Size()
}

// ByteSize returns the memory held by the buffer.
func (b *LayerBuffer) ByteSize() int {
	return b.Stride * b.Size().Y
}

// Destroy releases the native surface.
func (b *LayerBuffer) Destroy() {
	if b.Surface != nil {
		b.Surface.Destroy()
	}
}

// LayerBufferSet is the painted tiles of one layer, in request order.
type LayerBufferSet struct {
	Buffers []*LayerBuffer
}

// Len returns the number of buffers in the set.
func (s *LayerBufferSet) Len() int {
	return len(s.Buffers)
}

// LayerReply pairs a layer with its painted tiles.
type LayerReply struct {
	LayerID LayerID
	Buffers *LayerBufferSet
}
