package paint

import (
	"github.com/gogpu/paint/displaylist"
	"github.com/gogpu/paint/layers"
)

// Msg is a message to a paint task. The concrete types are PaintInit,
// Paint, UnusedBuffer, PaintPermissionGranted, PaintPermissionRevoked and
// Exit.
type Msg interface {
	isMsg()
}

// PaintInit installs a new render tree and advances the epoch. The tree
// must not be modified afterwards.
type PaintInit struct {
	Root *displaylist.StackingContext
}

// PaintRequest asks for tiles of one layer, computed against Epoch.
type PaintRequest struct {
	LayerID layers.LayerID
	Buffers []layers.BufferRequest
	Scale   float64
	Epoch   layers.Epoch
}

// Paint asks for a batch of paint requests.
type Paint struct {
	Requests []PaintRequest
}

// UnusedBuffer returns buffers the compositor no longer needs.
type UnusedBuffer struct {
	Buffers []*layers.LayerBuffer
}

// PaintPermissionGranted allows the task to publish layers and paint.
type PaintPermissionGranted struct{}

// PaintPermissionRevoked stops the task from painting. The render tree
// is kept.
type PaintPermissionRevoked struct{}

// ExitKind selects how a task exits.
type ExitKind int

const (
	// CompleteExit acknowledges at once. Buffers still held by the
	// compositor are abandoned.
	CompleteExit ExitKind = iota

	// PipelineExitOnly waits until the compositor has returned every
	// buffer before acknowledging.
	PipelineExitOnly
)

// String returns the exit kind name.
func (k ExitKind) String() string {
	switch k {
	case CompleteExit:
		return "complete"
	case PipelineExitOnly:
		return "pipeline-only"
	default:
		return "unknown"
	}
}

// Exit stops the task. Response, if non-nil, receives one value when the
// task acknowledges; it should be buffered.
type Exit struct {
	Response chan<- struct{}
	Kind     ExitKind
}

func (PaintInit) isMsg()              {}
func (Paint) isMsg()                  {}
func (UnusedBuffer) isMsg()           {}
func (PaintPermissionGranted) isMsg() {}
func (PaintPermissionRevoked) isMsg() {}
func (Exit) isMsg()                   {}
