// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/paint/text"
)

var (
	opaqueRed  = color.RGBA{R: 0xFF, A: 0xFF}
	opaqueBlue = color.RGBA{B: 0xFF, A: 0xFF}
)

func newTestPaintContext(w, h int) (*PaintContext, *PixmapTarget) {
	target := NewPixmapTarget(w, h)
	pc := NewPaintContext(target, text.NewContext(text.NewFontCache()),
		R(0, 0, float64(w), float64(h)), image.Rect(0, 0, w, h))
	return pc, target
}

func TestPaintContext_FillRectAligned(t *testing.T) {
	pc, target := newTestPaintContext(8, 8)
	pc.FillRect(R(2, 2, 4, 4), opaqueRed)

	img := target.Canvas()
	if got := img.RGBAAt(3, 3); got != opaqueRed {
		t.Errorf("inside = %v, want red", got)
	}
	if got := img.RGBAAt(1, 1); got.A != 0 {
		t.Errorf("outside = %v, want transparent", got)
	}
	if got := img.RGBAAt(6, 6); got.A != 0 {
		t.Errorf("max edge = %v, want transparent", got)
	}
}

func TestPaintContext_TileTransform(t *testing.T) {
	pc, target := newTestPaintContext(10, 10)
	// Tile at page (100, 100) painted at scale 2.
	pc.SetTransform(Identity().Scale(2, 2).Translate(-100, -100))
	pc.FillRect(R(101, 101, 2, 2), opaqueBlue)

	img := target.Canvas()
	if got := img.RGBAAt(3, 3); got != opaqueBlue {
		t.Errorf("(3,3) = %v, want blue", got)
	}
	if got := img.RGBAAt(1, 1); got.A != 0 {
		t.Errorf("(1,1) = %v, want transparent", got)
	}
	if got := img.RGBAAt(6, 6); got.A != 0 {
		t.Errorf("(6,6) = %v, want transparent", got)
	}
}

func TestPaintContext_FillRectFractional(t *testing.T) {
	pc, target := newTestPaintContext(8, 8)
	pc.FillRect(R(1.5, 1.5, 4, 4), opaqueRed)

	img := target.Canvas()
	if got := img.RGBAAt(3, 3); got != opaqueRed {
		t.Errorf("inside = %v, want red", got)
	}
	edge := img.RGBAAt(1, 3)
	if edge.A == 0 || edge.A == 0xFF {
		t.Errorf("half-covered edge alpha = %d, want partial", edge.A)
	}
}

func TestPaintContext_ScaledBorder(t *testing.T) {
	pc, target := newTestPaintContext(16, 16)
	pc.SetTransform(Identity().Scale(2, 2))
	pc.DrawBorder(R(0, 0, 8, 8), UniformSides(2),
		[4]color.Color{opaqueRed, opaqueRed, opaqueRed, opaqueRed})

	img := target.Canvas()
	painted := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			inner := x >= 4 && x < 12 && y >= 4 && y < 12
			a := img.RGBAAt(x, y).A
			if inner && a != 0 {
				t.Errorf("interior (%d,%d) alpha = %d, want 0", x, y, a)
			}
			if !inner && a >= 0x80 {
				painted++
			}
		}
	}
	if painted != 192 {
		t.Errorf("painted %d pixels, want 192", painted)
	}
}

func TestPointBounds(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want Rect
	}{
		{"empty", nil, Rect{}},
		{"quad", []Point{Pt(4, 1), Pt(10, 1), Pt(8, 3), Pt(2, 3)}, R(2, 1, 8, 2)},
		{"collinear", []Point{Pt(5, 0), Pt(5, 4), Pt(5, 2)}, R(5, 0, 0, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pointBounds(tt.pts); got != tt.want {
				t.Errorf("pointBounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPaintContext_WithClip(t *testing.T) {
	pc, target := newTestPaintContext(8, 8)
	err := pc.WithClip(R(0, 0, 4, 8), func() error {
		pc.FillRect(R(0, 0, 8, 8), opaqueRed)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if pc.Clip() != image.Rect(0, 0, 8, 8) {
		t.Errorf("clip not restored: %v", pc.Clip())
	}

	img := target.Canvas()
	if got := img.RGBAAt(2, 2); got != opaqueRed {
		t.Errorf("inside clip = %v", got)
	}
	if got := img.RGBAAt(6, 2); got.A != 0 {
		t.Errorf("outside clip = %v", got)
	}
}

func TestPaintContext_WithOpacity(t *testing.T) {
	pc, target := newTestPaintContext(4, 4)
	err := pc.WithOpacity(0.5, func() error {
		pc.FillRect(R(0, 0, 4, 4), opaqueRed)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	got := target.Canvas().RGBAAt(1, 1)
	if got.A < 120 || got.A > 135 {
		t.Errorf("alpha = %d, want about 128", got.A)
	}

	if err := pc.WithOpacity(0, func() error {
		t.Error("fn called for zero opacity")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestPaintContext_DrawBorder(t *testing.T) {
	pc, target := newTestPaintContext(10, 10)
	colors := [4]color.Color{opaqueRed, opaqueRed, opaqueBlue, opaqueBlue}
	pc.DrawBorder(R(0, 0, 10, 10), UniformSides(2), colors)

	img := target.Canvas()
	if got := img.RGBAAt(5, 0); got != opaqueRed {
		t.Errorf("top = %v, want red", got)
	}
	if got := img.RGBAAt(5, 9); got != opaqueBlue {
		t.Errorf("bottom = %v, want blue", got)
	}
	if got := img.RGBAAt(5, 5); got.A != 0 {
		t.Errorf("interior = %v, want transparent", got)
	}
}

func TestPaintContext_DrawImage(t *testing.T) {
	pc, target := newTestPaintContext(8, 8)
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.SetRGBA(x, y, opaqueBlue)
		}
	}
	if err := pc.DrawImage(R(4, 4, 4, 4), src); err != nil {
		t.Fatal(err)
	}

	img := target.Canvas()
	if got := img.RGBAAt(6, 6); got != opaqueBlue {
		t.Errorf("inside = %v, want blue", got)
	}
	if got := img.RGBAAt(2, 2); got.A != 0 {
		t.Errorf("outside = %v, want transparent", got)
	}
	if err := pc.DrawImage(R(0, 0, 1, 1), nil); err != ErrNilImage {
		t.Errorf("nil image error = %v", err)
	}
}

func TestPaintContext_DrawText(t *testing.T) {
	pc, target := newTestPaintContext(64, 32)
	if err := pc.DrawText(text.Sans, 20, "Hi", Pt(4, 24), opaqueRed); err != nil {
		t.Fatal(err)
	}

	var inked int
	img := target.Canvas()
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			if img.RGBAAt(x, y).A != 0 {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Error("DrawText left the target blank")
	}
	// Nothing is drawn below the baseline for "Hi".
	for x := 0; x < 64; x++ {
		if img.RGBAAt(x, 30).A != 0 {
			t.Fatalf("pixel (%d,30) inked below baseline", x)
		}
	}
}

func TestPaintContext_Visible(t *testing.T) {
	pc, _ := newTestPaintContext(8, 8)
	if !pc.Visible(R(6, 6, 4, 4)) {
		t.Error("overlapping rect not visible")
	}
	if pc.Visible(R(9, 9, 4, 4)) {
		t.Error("outside rect visible")
	}
}
