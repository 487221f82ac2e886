// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides the drawing layer used by paint workers.
//
// It defines where a tile is rasterized (a DrawTarget), how the pixels
// leave the worker (a NativeSurface or a stolen GPU texture), and the
// PaintContext that display items draw through.
//
// # Key Principle
//
// The paint pipeline RECEIVES its graphics environment from the host
// compositor, it does NOT create one. GraphicsMetadata carries the
// host's gpucontext.DeviceProvider and gpucontext.TextureCreator; every
// goroutine that needs native resources builds its own NativeContext (or
// GPUContext) from that metadata.
//
// # Draw Targets
//
//   - PixmapTarget: CPU-backed *image.RGBA, snapshot read through Pixels
//   - TextureTarget: GPU-backed target; Flush submits the frame to the
//     GPU context and StealTexture detaches the resulting texture
//
// # Native Surfaces
//
//   - HostSurface: host-visible memory, filled by Upload
//   - TextureSurface: a gpucontext.Texture, filled by Upload through
//     gpucontext.TextureUpdater, or wrapping a stolen texture as is
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. A PaintContext, a
// NativeContext and a GPUContext belong to exactly one goroutine.
// GPUContext is additionally thread-affine: create it after
// runtime.LockOSThread and never hand it to another goroutine.
package render
