package text

import (
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font/sfnt"
)

// DefaultOutlineCacheSize is the number of glyph outlines a Context keeps.
const DefaultOutlineCacheSize = 1024

// outlineKey identifies a glyph outline at a specific size.
type outlineKey struct {
	font FontKey
	gid  GlyphID
	size float64
}

// Context is the per-worker font context. It is NOT safe for concurrent
// use.
type Context struct {
	fonts *FontCache
	lang  language.Language

	buf      sfnt.Buffer
	faces    map[*Font]*font.Face
	shaper   shaping.HarfbuzzShaper
	outlines *lru.Cache[outlineKey, *Outline]
}

// NewContext creates a font context over the shared font cache.
func NewContext(fonts *FontCache) *Context {
	return NewContextSize(fonts, DefaultOutlineCacheSize)
}

// NewContextSize creates a font context that caches up to n outlines.
// Values below 1 select DefaultOutlineCacheSize.
func NewContextSize(fonts *FontCache, n int) *Context {
	if n < 1 {
		n = DefaultOutlineCacheSize
	}
	outlines, err := lru.New[outlineKey, *Outline](n)
	if err != nil {
		// Only returned for non-positive sizes.
		panic(err)
	}
	return &Context{
		fonts:    fonts,
		lang:     defaultLanguage,
		faces:    make(map[*Font]*font.Face),
		outlines: outlines,
	}
}

// Fonts returns the shared font cache.
func (c *Context) Fonts() *FontCache {
	return c.fonts
}

// CachedOutlines returns the number of outlines currently cached.
func (c *Context) CachedOutlines() int {
	return c.outlines.Len()
}
