package text

import (
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// Shape converts s into a GlyphRun using HarfBuzz shaping from
// go-text/typesetting. The text is split into bidi runs first; runs are
// shaped independently and laid out left to right in visual order.
func (c *Context) Shape(key FontKey, size float64, s string) (GlyphRun, error) {
	out := GlyphRun{Font: key, Size: size}
	if s == "" {
		return out, nil
	}

	f, err := c.fonts.Font(key)
	if err != nil {
		return out, err
	}
	face := c.face(f)

	runes := []rune(s)
	for _, r := range visualRuns(s, runes) {
		output := c.shaper.Shape(shaping.Input{
			Text:      runes,
			RunStart:  r.start,
			RunEnd:    r.end,
			Direction: r.dir,
			Face:      face,
			Size:      floatToFixed(size),
			Script:    r.script,
			Language:  c.lang,
		})
		out = out.Append(convertGlyphs(key, size, output.Glyphs, r.dir))
	}
	return out, nil
}

// face returns the worker-local go-text face for f. font.Face is not
// safe for concurrent use, so faces never leave their Context.
func (c *Context) face(f *Font) *font.Face {
	if face, ok := c.faces[f]; ok {
		return face
	}
	face := font.NewFace(f.shaping)
	c.faces[f] = face
	return face
}

func floatToFixed(size float64) fixed.Int26_6 {
	return fixed.Int26_6(size * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

// convertGlyphs converts shaper output to a GlyphRun. The shaper reports
// y offsets upwards; glyph positions are y-down.
func convertGlyphs(key FontKey, size float64, glyphs []shaping.Glyph, dir di.Direction) GlyphRun {
	run := GlyphRun{Font: key, Size: size, Glyphs: make([]Glyph, 0, len(glyphs))}

	var x float64
	for _, g := range glyphs {
		run.Glyphs = append(run.Glyphs, Glyph{
			ID: GlyphID(uint16(g.GlyphID)), //nolint:gosec // glyph indices fit in 16 bits
			X:  x + fixedToFloat(g.XOffset),
			Y:  -fixedToFloat(g.YOffset),
		})
		if !dir.IsVertical() {
			x += fixedToFloat(g.Advance)
		}
	}
	run.Advance = x
	return run
}

var defaultLanguage = language.NewLanguage("en")
