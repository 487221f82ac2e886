// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
)

// GPUContext is a thread-affine GPU painting context.
//
// It uses the texture creator provided by the host compositor; it does
// NOT create its own device. A GPUContext must be created and used on a
// single locked OS thread:
//
//	runtime.LockOSThread()
//	defer runtime.UnlockOSThread()
//	gpu, err := render.NewGPUContext(md)
type GPUContext struct {
	// handle is the GPU device handle from the host, possibly nil.
	handle DeviceHandle

	// textures creates textures on the host device.
	textures gpucontext.TextureCreator

	// submits counts frames submitted through Flush.
	submits int
}

// NewGPUContext creates a GPU context from the compositor's metadata.
// Returns ErrNoTextureCreator if the metadata cannot back GPU resources.
func NewGPUContext(md GraphicsMetadata) (*GPUContext, error) {
	if md.Textures == nil {
		return nil, ErrNoTextureCreator
	}
	handle := md.Device
	if handle == nil {
		handle = NullDeviceHandle{}
	}
	return &GPUContext{
		handle:   handle,
		textures: md.Textures,
	}, nil
}

// DeviceHandle returns the underlying device handle.
func (c *GPUContext) DeviceHandle() DeviceHandle {
	return c.handle
}

// Submits returns the number of frames submitted so far.
func (c *GPUContext) Submits() int {
	return c.submits
}

// NewTextureTarget creates a GPU-backed draw target.
func (c *GPUContext) NewTextureTarget(width, height int) *TextureTarget {
	return &TextureTarget{
		gpu:     c,
		staging: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// submit hands a finished frame to the device. An existing texture is
// updated in place when it supports it; otherwise a new texture is made.
func (c *GPUContext) submit(tex gpucontext.Texture, frame *image.RGBA) (gpucontext.Texture, error) {
	if tex != nil {
		if updater, ok := tex.(gpucontext.TextureUpdater); ok {
			if err := updater.UpdateData(frame.Pix); err != nil {
				return nil, fmt.Errorf("render: gpu submit: %w", err)
			}
			c.submits++
			return tex, nil
		}
		releaseTexture(tex)
	}

	b := frame.Bounds()
	out, err := c.textures.NewTextureFromRGBA(b.Dx(), b.Dy(), frame.Pix)
	if err != nil {
		return nil, fmt.Errorf("render: gpu submit: %w", err)
	}
	c.submits++
	return out, nil
}
