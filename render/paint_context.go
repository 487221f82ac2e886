// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/gogpu/paint/text"
)

// ErrNilImage is returned by DrawImage for a nil image.
var ErrNilImage = errors.New("render: nil image")

// PaintContext draws display items into one tile's DrawTarget.
//
// Coordinates passed to drawing methods are in layer space. The current
// transform maps them to device pixels of the target; for tiles it is
// scale(s) followed by a translation by minus the tile origin.
//
// PaintContext is not safe for concurrent use. Each worker creates one
// per tile.
type PaintContext struct {
	target DrawTarget
	canvas *image.RGBA
	fonts  *text.Context

	pageRect   Rect
	screenRect image.Rectangle

	transform Matrix
	clip      image.Rectangle

	raster vector.Rasterizer
}

// NewPaintContext creates a paint context over target. pageRect is the
// tile's rectangle in page coordinates and screenRect its rectangle on
// screen; fonts may be nil if no text is drawn.
func NewPaintContext(target DrawTarget, fonts *text.Context, pageRect Rect, screenRect image.Rectangle) *PaintContext {
	canvas := target.Canvas()
	return &PaintContext{
		target:     target,
		canvas:     canvas,
		fonts:      fonts,
		pageRect:   pageRect,
		screenRect: screenRect,
		transform:  Identity(),
		clip:       canvas.Bounds(),
	}
}

// Target returns the draw target.
func (pc *PaintContext) Target() DrawTarget { return pc.target }

// PageRect returns the tile's page rectangle.
func (pc *PaintContext) PageRect() Rect { return pc.pageRect }

// ScreenRect returns the tile's screen rectangle.
func (pc *PaintContext) ScreenRect() image.Rectangle { return pc.screenRect }

// Transform returns the current transform.
func (pc *PaintContext) Transform() Matrix { return pc.transform }

// SetTransform replaces the current transform.
func (pc *PaintContext) SetTransform(m Matrix) { pc.transform = m }

// Clip returns the current device-space clip.
func (pc *PaintContext) Clip() image.Rectangle { return pc.clip }

// DeviceRect maps a layer-space rectangle to device space.
func (pc *PaintContext) DeviceRect(r Rect) Rect {
	return pc.transform.TransformRect(r)
}

// Visible reports whether any part of r lands inside the current clip.
func (pc *PaintContext) Visible(r Rect) bool {
	return pc.DeviceRect(r).RoundOut().Overlaps(pc.clip)
}

// Clear replaces every pixel of the target with c, ignoring the clip.
func (pc *PaintContext) Clear(c color.Color) {
	fillRGBA(pc.canvas, pc.canvas.Bounds(), c)
}

// WithClip narrows the clip to r for the duration of fn.
func (pc *PaintContext) WithClip(r Rect, fn func() error) error {
	saved := pc.clip
	pc.clip = pc.clip.Intersect(pc.DeviceRect(r).RoundOut())
	defer func() { pc.clip = saved }()
	if pc.clip.Empty() {
		return nil
	}
	return fn()
}

// WithOpacity runs fn against a transparent scratch canvas and composites
// the result over the target with the given opacity.
func (pc *PaintContext) WithOpacity(opacity float64, fn func() error) error {
	if opacity >= 1 {
		return fn()
	}
	if opacity <= 0 || pc.clip.Empty() {
		return nil
	}

	saved := pc.canvas
	layer := image.NewRGBA(saved.Bounds())
	pc.canvas = layer
	err := fn()
	pc.canvas = saved
	if err != nil {
		return err
	}

	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(saved, pc.clip, layer, pc.clip.Min, mask, image.Point{}, draw.Over)
	return nil
}

// FillRect fills a layer-space rectangle with c.
func (pc *PaintContext) FillRect(r Rect, c color.Color) {
	if r.IsEmpty() {
		return
	}
	m := pc.transform
	if m.IsAxisAligned() {
		d := m.TransformRect(r)
		if snapped, ok := pixelAligned(d); ok {
			src := image.NewUniform(c)
			draw.Draw(pc.canvas, snapped.Intersect(pc.clip), src, image.Point{}, draw.Over)
			return
		}
	}
	pc.fillPolygon(c, r.Origin(), Pt(r.X+r.Width, r.Y), r.Max(), Pt(r.X, r.Y+r.Height))
}

// DrawBorder draws a box border with per-side widths and colors, in
// top, right, bottom, left order.
func (pc *PaintContext) DrawBorder(r Rect, widths SideOffsets, colors [4]color.Color) {
	if r.IsEmpty() || widths.IsZero() {
		return
	}

	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width, r.Y+r.Height
	ix0, iy0 := x0+widths.Left, y0+widths.Top
	ix1, iy1 := x1-widths.Right, y1-widths.Bottom

	if widths.Top > 0 {
		pc.fillPolygon(colors[0], Pt(x0, y0), Pt(x1, y0), Pt(ix1, iy0), Pt(ix0, iy0))
	}
	if widths.Right > 0 {
		pc.fillPolygon(colors[1], Pt(x1, y0), Pt(x1, y1), Pt(ix1, iy1), Pt(ix1, iy0))
	}
	if widths.Bottom > 0 {
		pc.fillPolygon(colors[2], Pt(x1, y1), Pt(x0, y1), Pt(ix0, iy1), Pt(ix1, iy1))
	}
	if widths.Left > 0 {
		pc.fillPolygon(colors[3], Pt(x0, y1), Pt(x0, y0), Pt(ix0, iy0), Pt(ix0, iy1))
	}
}

// DrawImage draws img stretched over the layer-space rectangle r.
func (pc *PaintContext) DrawImage(r Rect, img image.Image) error {
	if img == nil {
		return ErrNilImage
	}
	b := img.Bounds()
	if r.IsEmpty() || b.Empty() {
		return nil
	}
	clip := pc.clip.Intersect(pc.DeviceRect(r).RoundOut())
	if clip.Empty() {
		return nil
	}

	s2d := pc.transform.
		Translate(r.X, r.Y).
		Scale(r.Width/float64(b.Dx()), r.Height/float64(b.Dy())).
		Translate(-float64(b.Min.X), -float64(b.Min.Y))

	dst, ok := pc.canvas.SubImage(clip).(*image.RGBA)
	if !ok {
		return nil
	}
	xdraw.ApproxBiLinear.Transform(dst, s2d.Aff3(), img, b, xdraw.Over, nil)
	return nil
}

// DrawText shapes s with the paint context's fonts and draws it with its
// baseline starting at origin.
func (pc *PaintContext) DrawText(font text.FontKey, size float64, s string, origin Point, c color.Color) error {
	if pc.fonts == nil {
		return errors.New("render: no font context")
	}
	run, err := pc.fonts.Shape(font, size, s)
	if err != nil {
		return err
	}
	return pc.DrawGlyphs(run, origin, c)
}

// DrawGlyphs draws a glyph run with its baseline starting at origin.
// All glyphs are rasterized in one pass.
func (pc *PaintContext) DrawGlyphs(run text.GlyphRun, origin Point, c color.Color) error {
	if run.IsEmpty() {
		return nil
	}
	if pc.fonts == nil {
		return errors.New("render: no font context")
	}

	type placed struct {
		outline *text.Outline
		at      Point
	}
	glyphs := make([]placed, 0, len(run.Glyphs))
	var bounds Rect
	for _, g := range run.Glyphs {
		o, err := pc.fonts.Outline(run.Font, g.ID, run.Size)
		if err != nil {
			return err
		}
		if o.IsEmpty() {
			continue
		}
		at := Pt(origin.X+g.X, origin.Y+g.Y)
		gb := R(at.X+o.MinX, at.Y+o.MinY, o.MaxX-o.MinX, o.MaxY-o.MinY)
		if len(glyphs) == 0 {
			bounds = gb
		} else {
			bounds = bounds.Union(gb)
		}
		glyphs = append(glyphs, placed{outline: o, at: at})
	}
	if len(glyphs) == 0 {
		return nil
	}

	area, ok := pc.beginPath(pc.DeviceRect(bounds))
	if !ok {
		return nil
	}
	for _, g := range glyphs {
		for _, seg := range g.outline.Segments {
			switch seg.Op {
			case text.SegmentMoveTo:
				pc.raster.ClosePath()
				p := pc.devicePoint(area, g.at, seg.Args[0])
				pc.raster.MoveTo(p[0], p[1])
			case text.SegmentLineTo:
				p := pc.devicePoint(area, g.at, seg.Args[0])
				pc.raster.LineTo(p[0], p[1])
			case text.SegmentQuadTo:
				b := pc.devicePoint(area, g.at, seg.Args[0])
				p := pc.devicePoint(area, g.at, seg.Args[1])
				pc.raster.QuadTo(b[0], b[1], p[0], p[1])
			case text.SegmentCubeTo:
				b := pc.devicePoint(area, g.at, seg.Args[0])
				d := pc.devicePoint(area, g.at, seg.Args[1])
				p := pc.devicePoint(area, g.at, seg.Args[2])
				pc.raster.CubeTo(b[0], b[1], d[0], d[1], p[0], p[1])
			}
		}
		pc.raster.ClosePath()
	}
	pc.raster.Draw(pc.canvas, area, image.NewUniform(c), image.Point{})
	return nil
}

// fillPolygon fills a closed layer-space polygon with c.
func (pc *PaintContext) fillPolygon(c color.Color, pts ...Point) {
	if len(pts) < 3 {
		return
	}
	dev := make([]Point, len(pts))
	for i, p := range pts {
		dev[i] = pc.transform.TransformPoint(p)
	}

	area, ok := pc.beginPath(pointBounds(dev))
	if !ok {
		return
	}
	off := area.Min
	for i, p := range dev {
		x := float32(p.X - float64(off.X))
		y := float32(p.Y - float64(off.Y))
		if i == 0 {
			pc.raster.MoveTo(x, y)
		} else {
			pc.raster.LineTo(x, y)
		}
	}
	pc.raster.ClosePath()
	pc.raster.Draw(pc.canvas, area, image.NewUniform(c), image.Point{})
}

// pointBounds returns the smallest rectangle containing pts. Unlike
// Rect.Union it keeps degenerate extents, so collinear points still give
// a zero-width rectangle spanning them.
func pointBounds(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	x0, y0 := pts[0].X, pts[0].Y
	x1, y1 := x0, y0
	for _, p := range pts[1:] {
		x0 = math.Min(x0, p.X)
		y0 = math.Min(y0, p.Y)
		x1 = math.Max(x1, p.X)
		y1 = math.Max(y1, p.Y)
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// beginPath resets the rasterizer to cover the device rectangle bounds
// within the clip. Path points must then be offset by minus area.Min.
func (pc *PaintContext) beginPath(bounds Rect) (area image.Rectangle, ok bool) {
	// Zero-width bounds still have to cover the pixel they sit on.
	area = image.Rect(
		int(math.Floor(bounds.X)), int(math.Floor(bounds.Y)),
		int(math.Ceil(bounds.X+bounds.Width))+1, int(math.Ceil(bounds.Y+bounds.Height))+1,
	).Intersect(pc.clip)
	if area.Empty() {
		return area, false
	}
	pc.raster.Reset(area.Dx(), area.Dy())
	pc.raster.DrawOp = draw.Over
	return area, true
}

// devicePoint maps an outline point placed at glyph origin at into
// rasterizer coordinates for area.
func (pc *PaintContext) devicePoint(area image.Rectangle, at Point, v text.Vec) [2]float32 {
	p := pc.transform.TransformPoint(Pt(at.X+v.X, at.Y+v.Y))
	return [2]float32{
		float32(p.X - float64(area.Min.X)),
		float32(p.Y - float64(area.Min.Y)),
	}
}

// pixelAligned returns r as an integer rectangle if all edges lie on
// pixel boundaries.
func pixelAligned(r Rect) (image.Rectangle, bool) {
	ir := r.RoundNearest()
	const eps = 1e-6
	if math.Abs(float64(ir.Min.X)-r.X) > eps || math.Abs(float64(ir.Min.Y)-r.Y) > eps ||
		math.Abs(float64(ir.Max.X)-(r.X+r.Width)) > eps || math.Abs(float64(ir.Max.Y)-(r.Y+r.Height)) > eps {
		return image.Rectangle{}, false
	}
	return ir, true
}
