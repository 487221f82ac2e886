// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Errors returned by native surfaces.
var (
	ErrSurfaceDestroyed     = errors.New("render: native surface destroyed")
	ErrSurfaceSize          = errors.New("render: pixel data does not match surface size")
	ErrTextureNotUpdatable  = errors.New("render: texture does not implement gpucontext.TextureUpdater")
	ErrStolenSurfaceUpload  = errors.New("render: cannot upload into a stolen texture surface")
	ErrNoTextureCreator     = errors.New("render: graphics metadata has no texture creator")
	ErrTextureNotFlushed    = errors.New("render: texture target has not been flushed")
	ErrTextureAlreadyStolen = errors.New("render: texture already stolen from target")
)

// NativeSurface is a pixel surface the compositor can display: host
// memory or a GPU texture. Ownership is exclusive and moves between the
// buffer cache, a worker, the paint task and the compositor.
type NativeSurface interface {
	// ID returns a process-unique identifier, useful for logging.
	ID() uint64

	// Size returns the surface dimensions in pixels.
	Size() image.Point

	// Stride returns the number of bytes per row of uploaded data.
	Stride() int

	// Format returns the pixel format.
	Format() gputypes.TextureFormat

	// Upload copies pixel data into the surface. The data must hold
	// Stride()*Size().Y bytes.
	Upload(pix []byte) error

	// Uploads returns how many times Upload has succeeded.
	Uploads() int

	// ByteSize returns the memory held by the surface.
	ByteSize() int

	// Destroy releases the native resource. Destroying twice is a no-op.
	Destroy()
}

// HostSurface is a NativeSurface in host-visible memory.
type HostSurface struct {
	id        uint64
	size      image.Point
	stride    int
	pix       []byte
	uploads   int
	destroyed bool
}

// NewHostSurface allocates a host surface. Most callers use
// NativeContext.NewSurface instead.
func NewHostSurface(width, height, stride int) *HostSurface {
	return &HostSurface{
		id:     surfaceIDs.Add(1),
		size:   image.Pt(width, height),
		stride: stride,
		pix:    make([]byte, stride*height),
	}
}

// ID returns the surface identifier.
func (s *HostSurface) ID() uint64 { return s.id }

// Size returns the surface dimensions.
func (s *HostSurface) Size() image.Point { return s.size }

// Stride returns the number of bytes per row.
func (s *HostSurface) Stride() int { return s.stride }

// Format returns SurfaceFormat.
func (s *HostSurface) Format() gputypes.TextureFormat { return SurfaceFormat }

// Uploads returns the number of successful uploads.
func (s *HostSurface) Uploads() int { return s.uploads }

// ByteSize returns stride * height.
func (s *HostSurface) ByteSize() int { return s.stride * s.size.Y }

// Pixels returns the surface memory. The slice is nil once destroyed.
func (s *HostSurface) Pixels() []byte { return s.pix }

// Image returns an *image.RGBA view sharing the surface memory.
func (s *HostSurface) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    s.pix,
		Stride: s.stride,
		Rect:   image.Rect(0, 0, s.size.X, s.size.Y),
	}
}

// Upload copies pix into the surface.
func (s *HostSurface) Upload(pix []byte) error {
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	if len(pix) != len(s.pix) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSurfaceSize, len(pix), len(s.pix))
	}
	copy(s.pix, pix)
	s.uploads++
	return nil
}

// Destroy releases the host memory.
func (s *HostSurface) Destroy() {
	s.destroyed = true
	s.pix = nil
}

// Destroyed reports whether Destroy has been called.
func (s *HostSurface) Destroyed() bool { return s.destroyed }

// TextureSurface is a NativeSurface backed by a gpucontext.Texture.
//
// A surface created by NativeContext allocates its texture on the first
// Upload and updates it in place afterwards. A surface created by
// StolenSurface wraps a texture produced directly on the GPU and never
// accepts uploads.
type TextureSurface struct {
	id        uint64
	size      image.Point
	creator   gpucontext.TextureCreator
	tex       gpucontext.Texture
	uploads   int
	stolen    bool
	destroyed bool
}

// StolenSurface wraps a texture detached from a TextureTarget.
func StolenSurface(tex gpucontext.Texture) *TextureSurface {
	return &TextureSurface{
		id:     surfaceIDs.Add(1),
		size:   image.Pt(tex.Width(), tex.Height()),
		tex:    tex,
		stolen: true,
	}
}

// ID returns the surface identifier.
func (s *TextureSurface) ID() uint64 { return s.id }

// Size returns the surface dimensions.
func (s *TextureSurface) Size() image.Point { return s.size }

// Stride returns width * 4; texture uploads are densely packed.
func (s *TextureSurface) Stride() int { return s.size.X * 4 }

// Format returns SurfaceFormat.
func (s *TextureSurface) Format() gputypes.TextureFormat { return SurfaceFormat }

// Uploads returns the number of successful uploads.
func (s *TextureSurface) Uploads() int { return s.uploads }

// ByteSize returns the texture memory estimate.
func (s *TextureSurface) ByteSize() int { return s.Stride() * s.size.Y }

// Texture returns the backing texture, or nil before the first upload.
func (s *TextureSurface) Texture() gpucontext.Texture { return s.tex }

// Stolen reports whether the surface wraps a texture stolen from a draw
// target rather than one filled by Upload.
func (s *TextureSurface) Stolen() bool { return s.stolen }

// Upload copies pix into the texture, creating it on first use.
func (s *TextureSurface) Upload(pix []byte) error {
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	if s.stolen {
		return ErrStolenSurfaceUpload
	}
	if want := s.Stride() * s.size.Y; len(pix) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSurfaceSize, len(pix), want)
	}

	if s.tex == nil {
		tex, err := s.creator.NewTextureFromRGBA(s.size.X, s.size.Y, pix)
		if err != nil {
			return fmt.Errorf("render: create texture: %w", err)
		}
		s.tex = tex
		s.uploads++
		return nil
	}

	updater, ok := s.tex.(gpucontext.TextureUpdater)
	if !ok {
		return ErrTextureNotUpdatable
	}
	if err := updater.UpdateData(pix); err != nil {
		return fmt.Errorf("render: update texture: %w", err)
	}
	s.uploads++
	return nil
}

// Destroy releases the texture if it supports explicit destruction.
func (s *TextureSurface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	releaseTexture(s.tex)
	s.tex = nil
}

// Destroyed reports whether Destroy has been called.
func (s *TextureSurface) Destroyed() bool { return s.destroyed }

// releaseTexture destroys tex when the implementation exposes Destroy.
func releaseTexture(tex gpucontext.Texture) {
	if d, ok := tex.(interface{ Destroy() }); ok {
		d.Destroy()
	}
}

var (
	_ NativeSurface = (*HostSurface)(nil)
	_ NativeSurface = (*TextureSurface)(nil)
)
