package displaylist

import (
	"cmp"
	"image"
	"image/color"
	"slices"

	"github.com/gogpu/paint/layers"
	"github.com/gogpu/paint/render"
)

// PaintLayer marks a stacking context that the compositor keeps as its
// own layer.
type PaintLayer struct {
	ID              layers.LayerID
	BackgroundColor color.RGBA
	ScrollPolicy    layers.ScrollPolicy
}

// DisplayList holds the items of one stacking context split into the
// sections of the CSS painting order.
type DisplayList struct {
	BackgroundsAndBorders      []Item
	BlockBackgroundsAndBorders []Item
	Floats                     []Item
	Content                    []Item
	PositionedContent          []Item
	Children                   []*StackingContext
}

// StackingContext is a node of the render tree.
type StackingContext struct {
	DisplayList *DisplayList

	// Bounds is the context's rectangle relative to its parent's origin.
	Bounds render.Rect

	// Overflow is the area content may paint into, relative to Bounds'
	// origin. Layer positions and tile coordinates are relative to its
	// origin.
	Overflow render.Rect

	ZIndex int

	// Opacity applies to the whole context, 0 to 1.
	Opacity float64

	// Layer is set when the context is composited as its own layer.
	Layer *PaintLayer
}

// NewStackingContext returns an opaque stacking context whose overflow
// equals its own area.
func NewStackingContext(bounds render.Rect, list *DisplayList) *StackingContext {
	if list == nil {
		list = &DisplayList{}
	}
	return &StackingContext{
		DisplayList: list,
		Bounds:      bounds,
		Overflow:    render.R(0, 0, bounds.Width, bounds.Height),
		Opacity:     1,
	}
}

// FindLayer returns the stacking context tagged with layer id, searching
// depth-first.
func (sc *StackingContext) FindLayer(id layers.LayerID) (*StackingContext, bool) {
	if sc == nil {
		return nil, false
	}
	if sc.Layer != nil && sc.Layer.ID == id {
		return sc, true
	}
	for _, child := range sc.children() {
		if found, ok := child.FindLayer(id); ok {
			return found, true
		}
	}
	return nil, false
}

// LayerMetadata returns the metadata of every layer in the tree, in
// depth-first order. Positions accumulate bounds origins from the root
// and are rounded to the nearest pixel.
func (sc *StackingContext) LayerMetadata() []layers.LayerMetadata {
	var out []layers.LayerMetadata
	sc.collectLayers(render.Point{}, &out)
	return out
}

func (sc *StackingContext) collectLayers(parent render.Point, out *[]layers.LayerMetadata) {
	if sc == nil {
		return
	}
	pagePos := parent.Add(sc.Bounds.Origin())
	if sc.Layer != nil {
		origin := pagePos.Add(sc.Overflow.Origin())
		pos := render.R(origin.X, origin.Y, sc.Overflow.Width, sc.Overflow.Height).RoundNearest()
		*out = append(*out, layers.LayerMetadata{
			ID:              sc.Layer.ID,
			Position:        pos,
			BackgroundColor: sc.Layer.BackgroundColor,
			ScrollPolicy:    sc.Layer.ScrollPolicy,
		})
	}
	for _, child := range sc.children() {
		child.collectLayers(pagePos, out)
	}
}

// TileBounds maps a tile's page rectangle into this context's space.
func (sc *StackingContext) TileBounds(pageRect render.Rect) render.Rect {
	return pageRect.Translate(sc.Overflow.Origin())
}

// Draw paints the context into pc. tileBounds is the tile in this
// context's space; items outside it are skipped. Children that own a
// layer are painted into their own layer and are skipped here.
func (sc *StackingContext) Draw(pc *render.PaintContext, tileBounds render.Rect) error {
	list := sc.DisplayList
	if list == nil {
		return nil
	}

	negative, positive := sc.splitChildren()

	if err := drawItems(pc, tileBounds, list.BackgroundsAndBorders); err != nil {
		return err
	}
	for _, child := range negative {
		if err := child.drawAsChild(pc, tileBounds); err != nil {
			return err
		}
	}
	for _, section := range [][]Item{list.BlockBackgroundsAndBorders, list.Floats, list.Content} {
		if err := drawItems(pc, tileBounds, section); err != nil {
			return err
		}
	}
	for _, child := range positive {
		if err := child.drawAsChild(pc, tileBounds); err != nil {
			return err
		}
	}
	return drawItems(pc, tileBounds, list.PositionedContent)
}

// drawAsChild paints sc in its parent's space.
func (sc *StackingContext) drawAsChild(pc *render.PaintContext, parentTile render.Rect) error {
	if sc.Layer != nil || sc.Opacity <= 0 {
		return nil
	}
	if !sc.overflowRect().Intersects(parentTile) {
		return nil
	}

	saved := pc.Transform()
	pc.SetTransform(saved.Translate(sc.Bounds.X, sc.Bounds.Y))
	defer pc.SetTransform(saved)

	tile := parentTile.Translate(sc.Bounds.Origin().Neg())
	return pc.WithOpacity(sc.Opacity, func() error {
		return sc.Draw(pc, tile)
	})
}

// overflowRect returns the overflow area in the parent's space.
func (sc *StackingContext) overflowRect() render.Rect {
	return sc.Overflow.Translate(sc.Bounds.Origin())
}

func (sc *StackingContext) children() []*StackingContext {
	if sc.DisplayList == nil {
		return nil
	}
	return sc.DisplayList.Children
}

// splitChildren returns the children with negative and non-negative
// z-index, each stably sorted by z-index.
func (sc *StackingContext) splitChildren() (negative, positive []*StackingContext) {
	children := slices.Clone(sc.children())
	slices.SortStableFunc(children, func(a, b *StackingContext) int {
		return cmp.Compare(a.ZIndex, b.ZIndex)
	})
	split, _ := slices.BinarySearchFunc(children, 0, func(c *StackingContext, z int) int {
		return cmp.Compare(c.ZIndex, z)
	})
	return children[:split], children[split:]
}

func drawItems(pc *render.PaintContext, tileBounds render.Rect, items []Item) error {
	for _, it := range items {
		bounds := it.Bounds()
		clip := it.ClipRect()
		if !clip.IsEmpty() {
			bounds = bounds.Intersect(clip)
		}
		if !bounds.Intersects(tileBounds) {
			continue
		}
		if clip.IsEmpty() {
			if err := it.Draw(pc); err != nil {
				return err
			}
			continue
		}
		if err := pc.WithClip(clip, func() error { return it.Draw(pc) }); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the overflow size rounded to whole pixels.
func (sc *StackingContext) Size() image.Point {
	r := sc.Overflow.RoundNearest()
	return r.Size()
}
