// Package buffermap provides the tile buffer cache of a paint task.
//
// Painted tiles that the compositor no longer needs come back to the
// paint task, which keeps them keyed by pixel size so the next tile of
// the same size reuses the native surface instead of allocating a new
// one. The total byte size of pooled buffers is bounded; when an insert
// goes over the budget, buffers of the least recently used size are
// destroyed until it fits again.
//
// BufferMap is NOT safe for concurrent use. It is owned by the paint task
// goroutine and never touched by workers.
package buffermap
