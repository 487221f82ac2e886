// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host compositor.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// paint-specific name for the interface while maintaining full
// compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// SurfaceFormat is the pixel format of every draw target and native
// surface produced by this package. Pixels are stored R, G, B, A with
// premultiplied alpha, matching *image.RGBA.
const SurfaceFormat = gputypes.TextureFormatRGBA8Unorm

// GraphicsMetadata describes the native graphics environment of the
// compositor that receives painted tiles. It is plain data and may be
// copied to every goroutine that needs to build its own context.
type GraphicsMetadata struct {
	// Device is the host GPU device, or nil when the compositor has none.
	Device DeviceHandle

	// Textures creates GPU textures owned by the compositor's device.
	// When nil, native surfaces live in host memory and the GPU backend
	// is unavailable.
	Textures gpucontext.TextureCreator
}

// HasGPU reports whether the metadata can back GPU resources.
func (md GraphicsMetadata) HasGPU() bool {
	return md.Textures != nil
}

// surfaceIDs hands out process-unique native surface identifiers.
var surfaceIDs atomic.Uint64

// NativeContext creates native surfaces for one goroutine.
//
// The paint task holds one NativeContext and each worker holds its own;
// they are never shared.
type NativeContext struct {
	metadata GraphicsMetadata
}

// NewNativeContext builds a native painting context from metadata.
func NewNativeContext(md GraphicsMetadata) *NativeContext {
	return &NativeContext{metadata: md}
}

// Metadata returns the metadata the context was built from.
func (c *NativeContext) Metadata() GraphicsMetadata {
	return c.metadata
}

// NewSurface creates an empty native surface of the given size. The
// surface lives in host memory unless the metadata carries a texture
// creator, in which case its first Upload allocates a GPU texture.
func (c *NativeContext) NewSurface(width, height, stride int) NativeSurface {
	id := surfaceIDs.Add(1)
	size := image.Pt(width, height)
	if c.metadata.Textures != nil {
		return &TextureSurface{
			id:      id,
			size:    size,
			creator: c.metadata.Textures,
		}
	}
	return &HostSurface{
		id:     id,
		size:   size,
		stride: stride,
		pix:    make([]byte, stride*height),
	}
}

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only painting where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo reports an unknown adapter.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "null", Type: gpucontext.AdapterTypeUnknown}
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
