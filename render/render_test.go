// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/gogpu/gpucontext"
)

// fakeTexture is an in-memory gpucontext.Texture.
type fakeTexture struct {
	w, h      int
	data      []byte
	updates   int
	destroyed bool
}

func (t *fakeTexture) Width() int  { return t.w }
func (t *fakeTexture) Height() int { return t.h }

func (t *fakeTexture) UpdateData(data []byte) error {
	t.data = append(t.data[:0], data...)
	t.updates++
	return nil
}

func (t *fakeTexture) Destroy() { t.destroyed = true }

// fakeCreator records every texture it creates.
type fakeCreator struct {
	created []*fakeTexture
	fail    error
}

func (c *fakeCreator) NewTextureFromRGBA(w, h int, data []byte) (gpucontext.Texture, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	t := &fakeTexture{w: w, h: h, data: append([]byte(nil), data...)}
	c.created = append(c.created, t)
	return t, nil
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// =============================================================================
// Geometry and Matrix Tests
// =============================================================================

func TestRect_Intersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"overlap", R(0, 0, 10, 10), R(5, 5, 10, 10), R(5, 5, 5, 5)},
		{"contained", R(0, 0, 10, 10), R(2, 2, 3, 3), R(2, 2, 3, 3)},
		{"disjoint", R(0, 0, 10, 10), R(20, 20, 5, 5), Rect{}},
		{"touching", R(0, 0, 10, 10), R(10, 0, 5, 5), Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersect(tt.b); got != tt.want {
				t.Errorf("Intersect = %+v, want %+v", got, tt.want)
			}
			if got := tt.a.Intersects(tt.b); got != !tt.want.IsEmpty() {
				t.Errorf("Intersects = %v, want %v", got, !tt.want.IsEmpty())
			}
		})
	}
}

func TestRect_Rounding(t *testing.T) {
	r := R(0.4, 0.6, 10.2, 9.8)
	if got, want := r.RoundOut(), image.Rect(0, 0, 11, 11); got != want {
		t.Errorf("RoundOut = %v, want %v", got, want)
	}
	if got, want := r.RoundNearest(), image.Rect(0, 1, 10, 11); got != want {
		t.Errorf("RoundNearest = %v, want %v", got, want)
	}
	if got := (Rect{}).RoundOut(); !got.Empty() {
		t.Errorf("RoundOut of empty = %v", got)
	}
}

func TestMatrix_TileTransform(t *testing.T) {
	// scale(2) then translate(-100, -50): x' = 2*(x-100)
	m := Identity().Scale(2, 2).Translate(-100, -50)

	p := m.TransformPoint(Pt(100, 50))
	if !approx(p.X, 0) || !approx(p.Y, 0) {
		t.Errorf("tile origin maps to %+v, want (0,0)", p)
	}
	p = m.TransformPoint(Pt(110, 60))
	if !approx(p.X, 20) || !approx(p.Y, 20) {
		t.Errorf("(110,60) maps to %+v, want (20,20)", p)
	}
}

func TestMatrix_Invert(t *testing.T) {
	m := Identity().Scale(3, 2).Translate(7, -4)
	got := m.Multiply(m.Invert())
	for _, v := range []struct{ got, want float64 }{
		{got.A, 1}, {got.B, 0}, {got.C, 0}, {got.D, 0}, {got.E, 1}, {got.F, 0},
	} {
		if !approx(v.got, v.want) {
			t.Fatalf("m * m^-1 = %+v, want identity", got)
		}
	}

	if inv := Scaling(0, 1).Invert(); !inv.IsIdentity() {
		t.Errorf("singular Invert = %+v, want identity", inv)
	}
}

func TestMatrix_TransformRect(t *testing.T) {
	r := Scaling(2, 3).Translate(1, 1).TransformRect(R(0, 0, 10, 10))
	if want := R(2, 3, 20, 30); r != want {
		t.Errorf("TransformRect = %+v, want %+v", r, want)
	}
}

// =============================================================================
// Surface Tests
// =============================================================================

func TestNativeContext_HostSurface(t *testing.T) {
	nc := NewNativeContext(GraphicsMetadata{})
	s := nc.NewSurface(4, 2, 16)

	host, ok := s.(*HostSurface)
	if !ok {
		t.Fatalf("NewSurface returned %T, want *HostSurface", s)
	}
	if host.ByteSize() != 32 {
		t.Errorf("ByteSize() = %d, want 32", host.ByteSize())
	}

	if err := host.Upload(make([]byte, 31)); !errors.Is(err, ErrSurfaceSize) {
		t.Errorf("short Upload error = %v, want ErrSurfaceSize", err)
	}
	pix := make([]byte, 32)
	pix[0] = 0xAB
	if err := host.Upload(pix); err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if host.Uploads() != 1 || host.Pixels()[0] != 0xAB {
		t.Errorf("Uploads() = %d, Pixels()[0] = %#x", host.Uploads(), host.Pixels()[0])
	}

	host.Destroy()
	host.Destroy()
	if !host.Destroyed() {
		t.Error("Destroyed() = false after Destroy")
	}
	if err := host.Upload(pix); !errors.Is(err, ErrSurfaceDestroyed) {
		t.Errorf("Upload after Destroy error = %v", err)
	}
}

func TestNativeContext_TextureSurface(t *testing.T) {
	creator := &fakeCreator{}
	nc := NewNativeContext(GraphicsMetadata{Textures: creator})
	s := nc.NewSurface(2, 2, 8)

	ts, ok := s.(*TextureSurface)
	if !ok {
		t.Fatalf("NewSurface returned %T, want *TextureSurface", s)
	}
	if ts.Texture() != nil {
		t.Error("texture allocated before first Upload")
	}

	pix := make([]byte, 16)
	if err := ts.Upload(pix); err != nil {
		t.Fatalf("first Upload: %v", err)
	}
	if err := ts.Upload(pix); err != nil {
		t.Fatalf("second Upload: %v", err)
	}
	if len(creator.created) != 1 {
		t.Fatalf("created %d textures, want 1", len(creator.created))
	}
	if creator.created[0].updates != 1 {
		t.Errorf("updates = %d, want 1", creator.created[0].updates)
	}
	if ts.Uploads() != 2 {
		t.Errorf("Uploads() = %d, want 2", ts.Uploads())
	}

	ts.Destroy()
	if !creator.created[0].destroyed {
		t.Error("Destroy did not release the texture")
	}
}

func TestStolenSurface_RejectsUpload(t *testing.T) {
	s := StolenSurface(&fakeTexture{w: 8, h: 4})
	if s.Size() != image.Pt(8, 4) {
		t.Errorf("Size() = %v, want (8,4)", s.Size())
	}
	if !s.Stolen() {
		t.Error("Stolen() = false")
	}
	if err := s.Upload(make([]byte, 128)); !errors.Is(err, ErrStolenSurfaceUpload) {
		t.Errorf("Upload error = %v, want ErrStolenSurfaceUpload", err)
	}
	if s.Uploads() != 0 {
		t.Errorf("Uploads() = %d, want 0", s.Uploads())
	}
}

// =============================================================================
// Target and GPU Context Tests
// =============================================================================

func TestNewGPUContext_RequiresTextures(t *testing.T) {
	if _, err := NewGPUContext(GraphicsMetadata{}); !errors.Is(err, ErrNoTextureCreator) {
		t.Errorf("error = %v, want ErrNoTextureCreator", err)
	}

	gpu, err := NewGPUContext(GraphicsMetadata{Textures: &fakeCreator{}})
	if err != nil {
		t.Fatal(err)
	}
	if gpu.DeviceHandle().AdapterInfo().Name != "null" {
		t.Errorf("nil device did not fall back to NullDeviceHandle")
	}
}

func TestTextureTarget_FlushAndSteal(t *testing.T) {
	creator := &fakeCreator{}
	gpu, _ := NewGPUContext(GraphicsMetadata{Textures: creator})
	target := gpu.NewTextureTarget(4, 4)

	if _, err := target.StealTexture(); !errors.Is(err, ErrTextureNotFlushed) {
		t.Errorf("steal before flush error = %v", err)
	}

	fillRGBA(target.Canvas(), target.Canvas().Bounds(), opaqueRed)
	if err := target.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := target.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(creator.created) != 1 || gpu.Submits() != 2 {
		t.Errorf("created = %d, submits = %d; want 1, 2", len(creator.created), gpu.Submits())
	}

	tex, err := target.StealTexture()
	if err != nil {
		t.Fatal(err)
	}
	if got := tex.(*fakeTexture).data[0]; got != 0xFF {
		t.Errorf("texture red = %#x, want 0xff", got)
	}

	target.Destroy()
	if tex.(*fakeTexture).destroyed {
		t.Error("Destroy released a stolen texture")
	}
	if _, err := target.StealTexture(); !errors.Is(err, ErrTextureAlreadyStolen) {
		t.Errorf("second steal error = %v", err)
	}
	if err := target.Flush(); !errors.Is(err, ErrTextureAlreadyStolen) {
		t.Errorf("flush after steal error = %v", err)
	}
}

func TestPixmapTarget_Clear(t *testing.T) {
	target := NewPixmapTarget(3, 2)
	target.Clear(opaqueRed)
	if err := target.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(target.Pixels()) != 3*2*4 || target.Stride() != 12 {
		t.Fatalf("len = %d, stride = %d", len(target.Pixels()), target.Stride())
	}
	for i := 0; i < len(target.Pixels()); i += 4 {
		if target.Pixels()[i] != 0xFF || target.Pixels()[i+3] != 0xFF {
			t.Fatalf("pixel %d = %v, want opaque red", i/4, target.Pixels()[i:i+4])
		}
	}
}
