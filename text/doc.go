// Package text provides the font side of tile painting.
//
// The pipeline follows a separation of concerns:
//
//   - FontCache: heavyweight, shared font registry. Fonts are parsed once
//     and are read-only afterwards, so every paint worker can use them.
//   - Context: lightweight, per-worker font context. It owns the mutable
//     state parsing and shaping need (sfnt buffers, go-text faces, the
//     HarfBuzz shaper) plus a bounded cache of glyph outlines.
//   - GlyphRun: positioned glyphs, normally produced upstream by layout
//     and carried by text display items.
//
// # Example usage
//
//	fonts := text.NewFontCache() // once, shared
//	ctx := text.NewContext(fonts) // once per worker
//
//	run, err := ctx.Shape(text.Sans, 16, "Hello, tiles")
//	outline, err := ctx.Outline(run.Font, run.Glyphs[0].ID, run.Size)
//
// Shaping is delegated to go-text/typesetting; this package does not
// implement shaping itself.
//
// # Thread Safety
//
// FontCache is safe for concurrent use. Context is NOT: each worker
// goroutine creates its own.
package text
