// Package layers defines the vocabulary shared by the paint task and the
// compositor: pipeline and layer identities, epochs, layer metadata and
// the layer buffers that carry painted tiles between them.
//
// All types are plain values except LayerBuffer, whose native surface has
// exactly one owner at a time. Ownership moves from the buffer cache to a
// worker, from the worker to the paint task, from the task to the
// compositor, and back to the task when the compositor returns unused
// buffers.
package layers
