package layers

import (
	"image"
	"testing"

	"github.com/gogpu/paint/render"
)

func TestEpoch_Next(t *testing.T) {
	var e Epoch
	if e.Next() != 1 || e.Next().Next() != 2 {
		t.Errorf("Next() chain = %d, %d; want 1, 2", e.Next(), e.Next().Next())
	}
}

func TestLayerBuffer_ByteSize(t *testing.T) {
	nc := render.NewNativeContext(render.GraphicsMetadata{})
	buf := &LayerBuffer{
		Surface:   nc.NewSurface(64, 32, 256),
		ScreenPos: image.Rect(0, 0, 64, 32),
		Stride:    256,
	}
	if got := buf.ByteSize(); got != 256*32 {
		t.Errorf("ByteSize() = %d, want %d", got, 256*32)
	}
	if got := buf.Size(); got != image.Pt(64, 32) {
		t.Errorf("Size() = %v, want (64,32)", got)
	}

	buf.Destroy()
	if host := buf.Surface.(*render.HostSurface); !host.Destroyed() {
		t.Error("Destroy did not release the surface")
	}
}

func TestBufferRequest_Size(t *testing.T) {
	req := BufferRequest{ScreenRect: image.Rect(256, 512, 512, 768)}
	if got := req.Size(); got != image.Pt(256, 256) {
		t.Errorf("Size() = %v, want (256,256)", got)
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{PipelineID(3).String(), "pipeline#3"},
		{LayerID(7).String(), "layer#7"},
		{Scrollable.String(), "scrollable"},
		{FixedPosition.String(), "fixed"},
		{Idle.String(), "idle"},
		{Painting.String(), "painting"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
