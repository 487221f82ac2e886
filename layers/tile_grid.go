package layers

import (
	"image"

	"github.com/gogpu/paint/render"
)

// DefaultTileSize is the edge length of a tile in device pixels.
const DefaultTileSize = 256

// TileGrid divides a layer into tiles and tracks which of them need
// repainting. Edge tiles are smaller when the layer size is not a
// multiple of the tile size. Tiles are stored row-major.
//
// TileGrid is used by compositors; it is NOT safe for concurrent use.
type TileGrid struct {
	size     image.Point
	tileSize int
	scale    float64
	tilesX   int
	tilesY   int
	ages     []ContentAge
	dirty    []bool
}

// NewTileGrid creates a grid over a layer of size device pixels painted
// at scale. All tiles start dirty.
func NewTileGrid(size image.Point, tileSize int, scale float64) *TileGrid {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	if scale <= 0 {
		scale = 1
	}
	g := &TileGrid{tileSize: tileSize, scale: scale}
	g.Resize(size)
	return g
}

// Resize changes the layer size. All tiles are marked dirty.
func (g *TileGrid) Resize(size image.Point) {
	if size.X <= 0 || size.Y <= 0 {
		size = image.Point{}
	}
	g.size = size
	g.tilesX = (size.X + g.tileSize - 1) / g.tileSize
	g.tilesY = (size.Y + g.tileSize - 1) / g.tileSize
	n := g.tilesX * g.tilesY
	g.ages = make([]ContentAge, n)
	g.dirty = make([]bool, n)
	g.MarkAllDirty()
}

// TileCount returns the number of tiles.
func (g *TileGrid) TileCount() int {
	return len(g.dirty)
}

// Scale returns the scale tiles are painted at.
func (g *TileGrid) Scale() float64 {
	return g.scale
}

// MarkAllDirty marks every tile for repainting and advances its content
// age.
func (g *TileGrid) MarkAllDirty() {
	for i := range g.dirty {
		if !g.dirty[i] {
			g.ages[i] = g.ages[i].Next()
		}
		g.dirty[i] = true
	}
}

// MarkRectDirty marks the tiles overlapping r, in device pixels.
func (g *TileGrid) MarkRectDirty(r image.Rectangle) {
	r = r.Intersect(image.Rectangle{Max: g.size})
	if r.Empty() {
		return
	}
	for ty := r.Min.Y / g.tileSize; ty <= (r.Max.Y-1)/g.tileSize; ty++ {
		for tx := r.Min.X / g.tileSize; tx <= (r.Max.X-1)/g.tileSize; tx++ {
			i := ty*g.tilesX + tx
			if !g.dirty[i] {
				g.ages[i] = g.ages[i].Next()
			}
			g.dirty[i] = true
		}
	}
}

// DirtyCount returns the number of dirty tiles.
func (g *TileGrid) DirtyCount() int {
	n := 0
	for _, d := range g.dirty {
		if d {
			n++
		}
	}
	return n
}

// Requests returns a paint request for every dirty tile, in row-major
// order.
func (g *TileGrid) Requests() []BufferRequest {
	reqs := make([]BufferRequest, 0, g.DirtyCount())
	for i, d := range g.dirty {
		if d {
			reqs = append(reqs, g.request(i))
		}
	}
	return reqs
}

// ClearDirty marks every tile clean.
func (g *TileGrid) ClearDirty() {
	clear(g.dirty)
}

func (g *TileGrid) request(i int) BufferRequest {
	tx, ty := i%g.tilesX, i/g.tilesX
	screen := image.Rect(tx*g.tileSize, ty*g.tileSize, (tx+1)*g.tileSize, (ty+1)*g.tileSize).
		Intersect(image.Rectangle{Max: g.size})
	return BufferRequest{
		PageRect: render.R(
			float64(screen.Min.X)/g.scale, float64(screen.Min.Y)/g.scale,
			float64(screen.Dx())/g.scale, float64(screen.Dy())/g.scale,
		),
		ScreenRect: screen,
		ContentAge: g.ages[i],
	}
}
