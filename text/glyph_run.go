package text

// GlyphID is a font-specific glyph index.
type GlyphID uint16

// Glyph is a positioned glyph within a GlyphRun. X and Y are relative to
// the run origin (the baseline start) in pixels, y-down.
type Glyph struct {
	ID GlyphID
	X  float64
	Y  float64
}

// GlyphRun is a sequence of glyphs from a single font at a single size.
type GlyphRun struct {
	Font    FontKey
	Size    float64
	Glyphs  []Glyph
	Advance float64
}

// IsEmpty reports whether the run has no glyphs.
func (r GlyphRun) IsEmpty() bool {
	return len(r.Glyphs) == 0
}

// Append appends other's glyphs to r, offset by r's advance. Both runs
// must use the same font and size.
func (r GlyphRun) Append(other GlyphRun) GlyphRun {
	out := GlyphRun{
		Font:    r.Font,
		Size:    r.Size,
		Glyphs:  make([]Glyph, 0, len(r.Glyphs)+len(other.Glyphs)),
		Advance: r.Advance + other.Advance,
	}
	out.Glyphs = append(out.Glyphs, r.Glyphs...)
	for _, g := range other.Glyphs {
		g.X += r.Advance
		out.Glyphs = append(out.Glyphs, g)
	}
	return out
}
