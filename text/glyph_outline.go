package text

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Vec is a point in pixel space, y-down.
type Vec struct {
	X, Y float64
}

// SegmentOp is the type of an outline segment.
type SegmentOp uint8

const (
	// SegmentMoveTo starts a new contour at Args[0].
	SegmentMoveTo SegmentOp = iota

	// SegmentLineTo draws a line to Args[0].
	SegmentLineTo

	// SegmentQuadTo draws a quadratic curve through control Args[0] to Args[1].
	SegmentQuadTo

	// SegmentCubeTo draws a cubic curve through Args[0], Args[1] to Args[2].
	SegmentCubeTo
)

// String returns a string representation of the operation.
func (op SegmentOp) String() string {
	switch op {
	case SegmentMoveTo:
		return "MoveTo"
	case SegmentLineTo:
		return "LineTo"
	case SegmentQuadTo:
		return "QuadTo"
	case SegmentCubeTo:
		return "CubeTo"
	default:
		return "Unknown"
	}
}

// Segment is one outline path operation.
type Segment struct {
	Op   SegmentOp
	Args [3]Vec
}

// Outline is the vector outline of a glyph scaled to a pixel size,
// relative to the glyph origin on the baseline.
type Outline struct {
	Segments []Segment

	// Bounds of all segment points. Zero for empty outlines.
	MinX, MinY, MaxX, MaxY float64

	Advance float64
}

// IsEmpty reports whether the outline has no segments (e.g. a space).
func (o *Outline) IsEmpty() bool {
	return len(o.Segments) == 0
}

// Outline returns the outline of glyph gid in font key at size pixels
// per em. Results are cached per Context.
func (c *Context) Outline(key FontKey, gid GlyphID, size float64) (*Outline, error) {
	k := outlineKey{font: key, gid: gid, size: size}
	if o, ok := c.outlines.Get(k); ok {
		return o, nil
	}

	f, err := c.fonts.Font(key)
	if err != nil {
		return nil, err
	}
	o, err := c.extract(f, gid, size)
	if err != nil {
		return nil, err
	}
	c.outlines.Add(k, o)
	return o, nil
}

func (c *Context) extract(f *Font, gid GlyphID, size float64) (*Outline, error) {
	ppem := fixed.Int26_6(size * 64)

	segments, err := f.sfnt.LoadGlyph(&c.buf, sfnt.GlyphIndex(gid), ppem, nil)
	if err != nil {
		return nil, fmt.Errorf("text: load glyph %d of %q: %w", gid, f.key, err)
	}

	out := &Outline{Segments: make([]Segment, 0, len(segments))}
	if adv, err := f.sfnt.GlyphAdvance(&c.buf, sfnt.GlyphIndex(gid), ppem, font.HintingNone); err == nil {
		out.Advance = fixedToFloat(adv)
	}

	first := true
	for _, seg := range segments {
		var s Segment
		n := 1
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			s.Op = SegmentMoveTo
		case sfnt.SegmentOpLineTo:
			s.Op = SegmentLineTo
		case sfnt.SegmentOpQuadTo:
			s.Op = SegmentQuadTo
			n = 2
		case sfnt.SegmentOpCubeTo:
			s.Op = SegmentCubeTo
			n = 3
		}
		for i := 0; i < n; i++ {
			p := fixedPointToVec(seg.Args[i])
			s.Args[i] = p
			out.extend(p, first)
			first = false
		}
		out.Segments = append(out.Segments, s)
	}
	return out, nil
}

// fixedPointToVec converts a 26.6 point to a Vec.
func fixedPointToVec(p fixed.Point26_6) Vec {
	return Vec{X: fixedToFloat(p.X), Y: fixedToFloat(p.Y)}
}

func (o *Outline) extend(p Vec, first bool) {
	if first {
		o.MinX, o.MaxX = p.X, p.X
		o.MinY, o.MaxY = p.Y, p.Y
		return
	}
	o.MinX = min(o.MinX, p.X)
	o.MinY = min(o.MinY, p.Y)
	o.MaxX = max(o.MaxX, p.X)
	o.MaxY = max(o.MaxY, p.Y)
}
