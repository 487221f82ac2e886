package displaylist

import (
	"image"
	"image/color"

	"github.com/gogpu/paint/render"
	"github.com/gogpu/paint/text"
)

// Item is one drawable entry of a display list. Coordinates are in the
// space of the stacking context that owns the list.
type Item interface {
	// Bounds returns the area the item may touch.
	Bounds() render.Rect

	// ClipRect returns the item's clip, or an empty rect for none.
	ClipRect() render.Rect

	// Draw paints the item.
	Draw(pc *render.PaintContext) error
}

// Base carries the geometry shared by all items.
type Base struct {
	Rect render.Rect
	Clip render.Rect
}

// Bounds returns the item rectangle.
func (b Base) Bounds() render.Rect { return b.Rect }

// ClipRect returns the item clip.
func (b Base) ClipRect() render.Rect { return b.Clip }

// SolidColor fills its rectangle with one color.
type SolidColor struct {
	Base
	Color color.RGBA
}

// Draw implements Item.
func (it *SolidColor) Draw(pc *render.PaintContext) error {
	pc.FillRect(it.Rect, it.Color)
	return nil
}

// Border strokes the inside edge of its rectangle. Colors are in top,
// right, bottom, left order.
type Border struct {
	Base
	Widths render.SideOffsets
	Colors [4]color.RGBA
}

// Draw implements Item.
func (it *Border) Draw(pc *render.PaintContext) error {
	var colors [4]color.Color
	for i, c := range it.Colors {
		colors[i] = c
	}
	pc.DrawBorder(it.Rect, it.Widths, colors)
	return nil
}

// Image draws a decoded image scaled to its rectangle.
type Image struct {
	Base
	Image image.Image
}

// Draw implements Item.
func (it *Image) Draw(pc *render.PaintContext) error {
	return pc.DrawImage(it.Rect, it.Image)
}

// Text draws a line of text. Glyphs from Run are used when present;
// otherwise Text is shaped with Font at Size while painting.
type Text struct {
	Base
	Run      text.GlyphRun
	Font     text.FontKey
	Size     float64
	Text     string
	Baseline render.Point
	Color    color.RGBA
}

// Draw implements Item.
func (it *Text) Draw(pc *render.PaintContext) error {
	if !it.Run.IsEmpty() {
		return pc.DrawGlyphs(it.Run, it.Baseline, it.Color)
	}
	if it.Text == "" {
		return nil
	}
	return pc.DrawText(it.Font, it.Size, it.Text, it.Baseline, it.Color)
}

var (
	_ Item = (*SolidColor)(nil)
	_ Item = (*Border)(nil)
	_ Item = (*Image)(nil)
	_ Item = (*Text)(nil)
)
