package scenefile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"

	// Image items may reference PNG, JPEG, GIF, BMP or WebP files.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/paint/displaylist"
	"github.com/gogpu/paint/layers"
	"github.com/gogpu/paint/render"
	"github.com/gogpu/paint/text"
)

// Errors returned while loading scene files.
var (
	ErrNoScene        = errors.New("scenefile: paint.scene is not defined")
	ErrDuplicateLayer = errors.New("scenefile: duplicate layer id")
	ErrLimitExceeded  = errors.New("scenefile: resource limit exceeded")
)

// Execution limits for one scene chunk.
const (
	cpuLimit    = 10_000_000
	memoryLimit = 50 * 1024 * 1024
)

// Scene is a loaded scene file.
type Scene struct {
	Config Config

	// Root is the render tree. It always owns a layer.
	Root *displaylist.StackingContext

	// Size is the page size in CSS pixels.
	Size image.Point
}

// Load reads and evaluates the scene file at path. Image files are
// resolved relative to the scene file's directory.
func Load(path string) (*Scene, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	return Parse(filepath.Base(path), src, filepath.Dir(path))
}

// Parse evaluates a scene chunk named name. dir is the base directory for
// image files.
func Parse(name string, src []byte, dir string) (*Scene, error) {
	r := rt.New(io.Discard)
	cleanup := lib.LoadAll(r)
	defer cleanup()

	paintTable := rt.NewTable()
	paintTable.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	r.GlobalEnv().Set(rt.StringValue("paint"), rt.TableValue(paintTable))

	closure, err := r.CompileAndLoadLuaChunk(name, src, rt.TableValue(r.GlobalEnv()))
	if err != nil {
		return nil, fmt.Errorf("scenefile: compile %s: %w", name, err)
	}

	if err := run(r, closure); err != nil {
		return nil, fmt.Errorf("scenefile: run %s: %w", name, err)
	}

	// The chunk may have replaced the paint table altogether.
	paintTable, ok := r.GlobalEnv().Get(rt.StringValue("paint")).TryTable()
	if !ok {
		return nil, ErrNoScene
	}

	sc := &Scene{Config: DefaultConfig()}
	if cfg := getTableTable(paintTable, "config"); cfg != nil {
		if err := extractConfig(&sc.Config, cfg); err != nil {
			return nil, err
		}
	}

	sceneTable := getTableTable(paintTable, "scene")
	if sceneTable == nil {
		return nil, ErrNoScene
	}
	b := builder{dir: dir, layerIDs: make(map[layers.LayerID]bool)}
	root, err := b.node(sceneTable, "scene")
	if err != nil {
		return nil, err
	}
	if root.Layer == nil {
		id := b.freeLayerID()
		root.Layer = &displaylist.PaintLayer{ID: id}
	}
	sc.Root = root
	sc.Size = root.Overflow.RoundOut().Size()
	return sc, nil
}

// run executes closure under the chunk limits. golua panics when a hard
// limit is exceeded; that panic is returned as ErrLimitExceeded.
func run(r *rt.Runtime, closure *rt.Closure) (err error) {
	r.PushContext(rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    cpuLimit,
			Memory: memoryLimit,
		},
	})
	defer r.PopContext()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrLimitExceeded, p)
		}
	}()

	_, err = rt.Call1(r.MainThread(), rt.FunctionValue(closure))
	return err
}

// builder turns Lua tables into stacking contexts.
type builder struct {
	dir      string
	layerIDs map[layers.LayerID]bool
}

func (b *builder) freeLayerID() layers.LayerID {
	id := layers.LayerID(1)
	for b.layerIDs[id] {
		id++
	}
	b.layerIDs[id] = true
	return id
}

func (b *builder) node(t *rt.Table, path string) (*displaylist.StackingContext, error) {
	bounds := tableRect(t)
	list := &displaylist.DisplayList{}
	sc := displaylist.NewStackingContext(bounds, list)

	if ov := getTableTable(t, "overflow"); ov != nil {
		sc.Overflow = tableRect(ov)
	}
	if z := getTableInt(t, "z"); z != nil {
		sc.ZIndex = *z
	}
	if op := getTableFloat(t, "opacity"); op != nil {
		sc.Opacity = min(max(*op, 0), 1)
	}

	if lt := getTableTable(t, "layer"); lt != nil {
		layer, err := b.layer(lt, path)
		if err != nil {
			return nil, err
		}
		sc.Layer = layer
	}

	if items := getTableTable(t, "items"); items != nil {
		elems, bad := arrayTables(items)
		if bad != 0 {
			return nil, fmt.Errorf("scenefile: %s.items[%d] is not a table", path, bad)
		}
		for i, it := range elems {
			if err := b.item(list, it, fmt.Sprintf("%s.items[%d]", path, i+1)); err != nil {
				return nil, err
			}
		}
	}

	if children := getTableTable(t, "children"); children != nil {
		elems, bad := arrayTables(children)
		if bad != 0 {
			return nil, fmt.Errorf("scenefile: %s.children[%d] is not a table", path, bad)
		}
		for i, ct := range elems {
			child, err := b.node(ct, fmt.Sprintf("%s.children[%d]", path, i+1))
			if err != nil {
				return nil, err
			}
			list.Children = append(list.Children, child)
		}
	}
	return sc, nil
}

func (b *builder) layer(t *rt.Table, path string) (*displaylist.PaintLayer, error) {
	layer := &displaylist.PaintLayer{}
	if id := getTableInt(t, "id"); id != nil && *id > 0 {
		layer.ID = layers.LayerID(*id)
		if b.layerIDs[layer.ID] {
			return nil, fmt.Errorf("%w %d at %s", ErrDuplicateLayer, *id, path)
		}
		b.layerIDs[layer.ID] = true
	} else {
		layer.ID = b.freeLayerID()
	}
	if s := getTableString(t, "background"); s != nil {
		c, err := parseColor(*s)
		if err != nil {
			return nil, fmt.Errorf("%s.layer: %w", path, err)
		}
		layer.BackgroundColor = c
	}
	if fixed := getTableBool(t, "fixed"); fixed != nil && *fixed {
		layer.ScrollPolicy = layers.FixedPosition
	}
	return layer, nil
}

// item appends one display item to the section it names.
func (b *builder) item(list *displaylist.DisplayList, t *rt.Table, path string) error {
	base := displaylist.Base{Rect: tableRect(t)}
	if ct := getTableTable(t, "clip"); ct != nil {
		base.Clip = tableRect(ct)
	}

	kind := "rect"
	if s := getTableString(t, "type"); s != nil {
		kind = *s
	}

	var it displaylist.Item
	switch kind {
	case "rect":
		c, err := colorField(t, "color", color.RGBA{A: 255})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		it = &displaylist.SolidColor{Base: base, Color: c}

	case "border":
		border, err := borderItem(base, t)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		it = border

	case "text":
		txt, err := textItem(base, t)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		it = txt

	case "image":
		img, err := b.image(t)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if base.Rect.IsEmpty() {
			sz := img.Bounds().Size()
			base.Rect.Width, base.Rect.Height = float64(sz.X), float64(sz.Y)
		}
		it = &displaylist.Image{Base: base, Image: img}

	default:
		return fmt.Errorf("scenefile: %s: unknown item type %q", path, kind)
	}

	section := "content"
	if s := getTableString(t, "section"); s != nil {
		section = *s
	}
	switch section {
	case "background":
		list.BackgroundsAndBorders = append(list.BackgroundsAndBorders, it)
	case "block":
		list.BlockBackgroundsAndBorders = append(list.BlockBackgroundsAndBorders, it)
	case "float":
		list.Floats = append(list.Floats, it)
	case "content":
		list.Content = append(list.Content, it)
	case "positioned":
		list.PositionedContent = append(list.PositionedContent, it)
	default:
		return fmt.Errorf("scenefile: %s: unknown section %q", path, section)
	}
	return nil
}

func borderItem(base displaylist.Base, t *rt.Table) (*displaylist.Border, error) {
	border := &displaylist.Border{Base: base, Widths: render.UniformSides(floatOr(t, "width", 1))}
	if wt := getTableTable(t, "widths"); wt != nil {
		w := arrayFloats(wt)
		if len(w) != 4 {
			return nil, fmt.Errorf("scenefile: border widths need 4 values, got %d", len(w))
		}
		border.Widths = render.SideOffsets{Top: w[0], Right: w[1], Bottom: w[2], Left: w[3]}
	}

	c, err := colorField(t, "color", color.RGBA{A: 255})
	if err != nil {
		return nil, err
	}
	border.Colors = [4]color.RGBA{c, c, c, c}
	if ct := getTableTable(t, "colors"); ct != nil {
		names := arrayStrings(ct)
		if len(names) != 4 {
			return nil, fmt.Errorf("scenefile: border colors need 4 values, got %d", len(names))
		}
		for i, name := range names {
			if border.Colors[i], err = parseColor(name); err != nil {
				return nil, err
			}
		}
	}
	return border, nil
}

func textItem(base displaylist.Base, t *rt.Table) (*displaylist.Text, error) {
	s := getTableString(t, "text")
	if s == nil {
		return nil, errors.New("scenefile: text item without text")
	}
	size := floatOr(t, "size", 16)
	font := text.Sans
	if f := getTableString(t, "font"); f != nil {
		font = text.FontKey(*f)
	}
	c, err := colorField(t, "color", color.RGBA{A: 255})
	if err != nil {
		return nil, err
	}

	// x, y is the baseline origin. Without an explicit box the bounds are
	// estimated from the font size.
	origin := render.Pt(floatOr(t, "x", 0), floatOr(t, "y", 0))
	rect := base.Rect
	if getTableFloat(t, "w") == nil {
		rect = render.R(origin.X, origin.Y-size, float64(len([]rune(*s)))*size*0.7, size*1.3)
	}
	base.Rect = rect
	return &displaylist.Text{
		Base:     base,
		Font:     font,
		Size:     size,
		Text:     *s,
		Baseline: origin,
		Color:    c,
	}, nil
}

// image loads the image of an image item: either a file relative to the
// scene directory or a generated checkerboard.
func (b *builder) image(t *rt.Table) (image.Image, error) {
	if p := getTableString(t, "checker"); p != nil {
		c, err := parseColor(*p)
		if err != nil {
			return nil, err
		}
		return checkerboard(int(floatOr(t, "cell", 8)), c), nil
	}

	name := getTableString(t, "file")
	if name == nil {
		return nil, errors.New("scenefile: image item needs file or checker")
	}
	path := *name
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("scenefile: decode %s: %w", path, err)
	}
	return img, nil
}

// checkerboard returns an 8x8-cell board alternating c and white.
func checkerboard(cell int, c color.RGBA) image.Image {
	cell = max(cell, 1)
	img := image.NewRGBA(image.Rect(0, 0, cell*8, cell*8))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := range img.Rect.Dy() {
		for x := range img.Rect.Dx() {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, c)
			} else {
				img.SetRGBA(x, y, white)
			}
		}
	}
	return img
}

func colorField(t *rt.Table, key string, def color.RGBA) (color.RGBA, error) {
	s := getTableString(t, key)
	if s == nil {
		return def, nil
	}
	return parseColor(*s)
}

// tableRect reads x, y, w and h.
func tableRect(t *rt.Table) render.Rect {
	return render.R(floatOr(t, "x", 0), floatOr(t, "y", 0), floatOr(t, "w", 0), floatOr(t, "h", 0))
}
