package displaylist

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/paint/layers"
	"github.com/gogpu/paint/render"
)

var (
	red   = color.RGBA{R: 0xFF, A: 0xFF}
	green = color.RGBA{G: 0xFF, A: 0xFF}
	blue  = color.RGBA{B: 0xFF, A: 0xFF}
)

// recordingItem records the order it was drawn in.
type recordingItem struct {
	Base
	name string
	log  *[]string
}

func (it *recordingItem) Draw(*render.PaintContext) error {
	*it.log = append(*it.log, it.name)
	return nil
}

func rec(name string, r render.Rect, log *[]string) Item {
	return &recordingItem{Base: Base{Rect: r}, name: name, log: log}
}

func newPC(w, h int) (*render.PaintContext, *render.PixmapTarget) {
	target := render.NewPixmapTarget(w, h)
	return render.NewPaintContext(target, nil, render.R(0, 0, float64(w), float64(h)), image.Rect(0, 0, w, h)), target
}

// =============================================================================
// Tree Queries
// =============================================================================

func layerTree() *StackingContext {
	grandchild := NewStackingContext(render.R(5, 5, 10, 10), nil)
	grandchild.Layer = &PaintLayer{ID: 3, ScrollPolicy: layers.FixedPosition}

	child := NewStackingContext(render.R(100, 50, 200, 100), &DisplayList{
		Children: []*StackingContext{grandchild},
	})
	child.Overflow = render.R(-10.4, -10.6, 220, 120)
	child.Layer = &PaintLayer{ID: 2, BackgroundColor: red}

	root := NewStackingContext(render.R(0, 0, 800, 600), &DisplayList{
		Children: []*StackingContext{child},
	})
	root.Layer = &PaintLayer{ID: 1}
	return root
}

func TestFindLayer(t *testing.T) {
	root := layerTree()

	for _, id := range []layers.LayerID{1, 2, 3} {
		sc, ok := root.FindLayer(id)
		if !ok || sc.Layer.ID != id {
			t.Errorf("FindLayer(%d) = %v, %v", id, sc, ok)
		}
	}
	if _, ok := root.FindLayer(99); ok {
		t.Error("FindLayer(99) found a layer")
	}
	var nilRoot *StackingContext
	if _, ok := nilRoot.FindLayer(1); ok {
		t.Error("FindLayer on nil tree found a layer")
	}
}

func TestLayerMetadata(t *testing.T) {
	md := layerTree().LayerMetadata()
	if len(md) != 3 {
		t.Fatalf("len(LayerMetadata()) = %d, want 3", len(md))
	}

	tests := []struct {
		id  layers.LayerID
		pos image.Rectangle
	}{
		{1, image.Rect(0, 0, 800, 600)},
		// (100,50) + (-10.4,-10.6) rounds to (90,39).
		{2, image.Rect(90, 39, 310, 159)},
		// (100,50) + (5,5), own overflow at origin.
		{3, image.Rect(105, 55, 115, 65)},
	}
	for i, tt := range tests {
		if md[i].ID != tt.id || md[i].Position != tt.pos {
			t.Errorf("md[%d] = {%d %v}, want {%d %v}", i, md[i].ID, md[i].Position, tt.id, tt.pos)
		}
	}
	if md[1].BackgroundColor != red {
		t.Errorf("background = %v, want red", md[1].BackgroundColor)
	}
	if md[2].ScrollPolicy != layers.FixedPosition {
		t.Errorf("scroll policy = %v, want fixed", md[2].ScrollPolicy)
	}
}

func TestLayerMetadata_EmptyTree(t *testing.T) {
	root := NewStackingContext(render.R(0, 0, 10, 10), nil)
	if md := root.LayerMetadata(); len(md) != 0 {
		t.Errorf("LayerMetadata() = %v, want none", md)
	}
}

// =============================================================================
// Drawing
// =============================================================================

func TestDraw_PaintingOrder(t *testing.T) {
	var log []string
	full := render.R(0, 0, 10, 10)

	below := NewStackingContext(full, &DisplayList{Content: []Item{rec("z-1", full, &log)}})
	below.ZIndex = -1
	above := NewStackingContext(full, &DisplayList{Content: []Item{rec("z2", full, &log)}})
	above.ZIndex = 2
	zero := NewStackingContext(full, &DisplayList{Content: []Item{rec("z0", full, &log)}})

	root := NewStackingContext(full, &DisplayList{
		BackgroundsAndBorders:      []Item{rec("bg", full, &log)},
		BlockBackgroundsAndBorders: []Item{rec("block", full, &log)},
		Floats:                     []Item{rec("float", full, &log)},
		Content:                    []Item{rec("content", full, &log)},
		PositionedContent:          []Item{rec("positioned", full, &log)},
		Children:                   []*StackingContext{above, below, zero},
	})

	pc, _ := newPC(10, 10)
	if err := root.Draw(pc, full); err != nil {
		t.Fatal(err)
	}

	want := []string{"bg", "z-1", "block", "float", "content", "z0", "z2", "positioned"}
	if len(log) != len(want) {
		t.Fatalf("drawn = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("drawn = %v, want %v", log, want)
		}
	}
}

func TestDraw_CullsOutsideTile(t *testing.T) {
	var log []string
	root := NewStackingContext(render.R(0, 0, 1000, 1000), &DisplayList{
		Content: []Item{
			rec("in", render.R(10, 10, 5, 5), &log),
			rec("out", render.R(500, 500, 5, 5), &log),
			&recordingItem{
				Base: Base{Rect: render.R(0, 0, 100, 100), Clip: render.R(600, 600, 10, 10)},
				name: "clipped-out", log: &log,
			},
		},
	})

	pc, _ := newPC(64, 64)
	if err := root.Draw(pc, render.R(0, 0, 64, 64)); err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || log[0] != "in" {
		t.Errorf("drawn = %v, want [in]", log)
	}
}

func TestDraw_SkipsLayerChildren(t *testing.T) {
	var log []string
	full := render.R(0, 0, 10, 10)
	child := NewStackingContext(full, &DisplayList{Content: []Item{rec("child", full, &log)}})
	child.Layer = &PaintLayer{ID: 7}
	root := NewStackingContext(full, &DisplayList{Children: []*StackingContext{child}})

	pc, _ := newPC(10, 10)
	if err := root.Draw(pc, full); err != nil {
		t.Fatal(err)
	}
	if len(log) != 0 {
		t.Errorf("layer child drawn into parent: %v", log)
	}

	// The child paints itself when its own layer is requested.
	if err := child.Draw(pc, full); err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 {
		t.Errorf("drawn = %v, want [child]", log)
	}
}

func TestDraw_ChildOffsetAndOpacity(t *testing.T) {
	child := NewStackingContext(render.R(4, 4, 4, 4), &DisplayList{
		Content: []Item{&SolidColor{Base: Base{Rect: render.R(0, 0, 4, 4)}, Color: blue}},
	})
	child.Opacity = 0.5
	root := NewStackingContext(render.R(0, 0, 8, 8), &DisplayList{
		BackgroundsAndBorders: []Item{&SolidColor{Base: Base{Rect: render.R(0, 0, 4, 4)}, Color: green}},
		Children:              []*StackingContext{child},
	})

	pc, target := newPC(8, 8)
	if err := root.Draw(pc, render.R(0, 0, 8, 8)); err != nil {
		t.Fatal(err)
	}

	img := target.Canvas()
	if got := img.RGBAAt(1, 1); got != green {
		t.Errorf("(1,1) = %v, want green", got)
	}
	got := img.RGBAAt(5, 5)
	if got.B < 120 || got.B > 135 || got.A < 120 || got.A > 135 {
		t.Errorf("(5,5) = %v, want half-transparent blue", got)
	}
	if pc.Transform() != render.Identity() {
		t.Errorf("transform not restored: %+v", pc.Transform())
	}
}

func TestTileBounds(t *testing.T) {
	sc := NewStackingContext(render.R(0, 0, 100, 100), nil)
	sc.Overflow = render.R(-20, -10, 140, 120)
	got := sc.TileBounds(render.R(0, 0, 64, 64))
	if want := render.R(-20, -10, 64, 64); got != want {
		t.Errorf("TileBounds = %+v, want %+v", got, want)
	}
}
