package text

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sync"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// FontKey names a font registered in a FontCache.
type FontKey string

// Fonts registered by NewFontCache.
const (
	Sans     FontKey = "sans"
	SansBold FontKey = "sans-bold"
	Mono     FontKey = "mono"
)

// ErrUnknownFont is returned for keys that were never registered.
var ErrUnknownFont = errors.New("text: unknown font")

// Font is a parsed font. It is immutable and safe for concurrent use;
// per-use mutable state lives in Context.
type Font struct {
	key  FontKey
	data []byte

	// sfnt is used for glyph outlines. sfnt.Font is safe for concurrent
	// use as long as every caller brings its own sfnt.Buffer.
	sfnt *sfnt.Font

	// shaping is the go-text font used for shaping. font.Font is
	// read-only; the non-concurrent font.Face is created per Context.
	shaping *gotext.Font
}

// Key returns the key the font was registered under.
func (f *Font) Key() FontKey {
	return f.key
}

// Name returns the font's full name, or its key if the font has none.
func (f *Font) Name() string {
	if name, err := f.sfnt.Name(nil, sfnt.NameIDFull); err == nil && name != "" {
		return name
	}
	return string(f.key)
}

// FontCache is the shared registry of parsed fonts.
//
// FontCache is safe for concurrent use.
type FontCache struct {
	mu    sync.RWMutex
	fonts map[FontKey]*Font
}

// NewFontCache creates a font cache preloaded with the Go fonts under
// the Sans, SansBold and Mono keys.
func NewFontCache() *FontCache {
	c := &FontCache{fonts: make(map[FontKey]*Font)}
	for key, data := range map[FontKey][]byte{
		Sans:     goregular.TTF,
		SansBold: gobold.TTF,
		Mono:     gomono.TTF,
	} {
		// The Go fonts are embedded and known to parse.
		if err := c.Register(key, data); err != nil {
			panic(err)
		}
	}
	return c
}

// Register parses data and stores it under key, replacing any font
// previously registered with that key.
func (c *FontCache) Register(key FontKey, data []byte) error {
	parsed, err := sfnt.Parse(data)
	if err != nil {
		return fmt.Errorf("text: parse %q: %w", key, err)
	}
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("text: parse %q for shaping: %w", key, err)
	}

	f := &Font{
		key:     key,
		data:    data,
		sfnt:    parsed,
		shaping: face.Font,
	}

	c.mu.Lock()
	c.fonts[key] = f
	c.mu.Unlock()
	return nil
}

// Font returns the font registered under key.
func (c *FontCache) Font(key FontKey) (*Font, error) {
	c.mu.RLock()
	f, ok := c.fonts[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFont, key)
	}
	return f, nil
}

// Keys returns the registered keys in sorted order.
func (c *FontCache) Keys() []FontKey {
	c.mu.RLock()
	keys := make([]FontKey, 0, len(c.fonts))
	for k := range c.fonts {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	slices.Sort(keys)
	return keys
}
