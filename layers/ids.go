package layers

import "fmt"

// PipelineID identifies the page pipeline a paint task belongs to.
type PipelineID uint64

// String returns a short, log-friendly form.
func (id PipelineID) String() string {
	return fmt.Sprintf("pipeline#%d", uint64(id))
}

// LayerID identifies a paint layer. It is stable across render trees of
// the same pipeline, so a compositor can keep its layer while the page is
// repainted.
type LayerID uint64

// String returns a short, log-friendly form.
func (id LayerID) String() string {
	return fmt.Sprintf("layer#%d", uint64(id))
}

// Epoch versions the render tree installed in a paint task. It advances
// by one for every installation; paint requests carry the epoch they were
// computed against and are dropped when it is not current.
type Epoch uint32

// Next returns the following epoch.
func (e Epoch) Next() Epoch {
	return e + 1
}

// ContentAge tracks how many times the content of a tile has changed.
// The compositor uses it to decide whether a cached buffer is still valid.
type ContentAge uint64

// Next returns the following content age.
func (a ContentAge) Next() ContentAge {
	return a + 1
}

// ScrollPolicy tells the compositor how a layer moves when the page
// scrolls.
type ScrollPolicy uint8

const (
	// Scrollable layers move with the page.
	Scrollable ScrollPolicy = iota

	// FixedPosition layers stay put in the viewport.
	FixedPosition
)

// String returns the policy name.
func (p ScrollPolicy) String() string {
	switch p {
	case Scrollable:
		return "scrollable"
	case FixedPosition:
		return "fixed"
	default:
		return fmt.Sprintf("ScrollPolicy(%d)", uint8(p))
	}
}

// PaintState is reported to the compositor around every paint batch.
type PaintState uint8

const (
	// Idle means no batch is being painted.
	Idle PaintState = iota

	// Painting means a batch is in progress.
	Painting
)

// String returns the state name.
func (s PaintState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Painting:
		return "painting"
	default:
		return fmt.Sprintf("PaintState(%d)", uint8(s))
	}
}
