// Package parallel implements the paint worker pool.
//
// Each worker is a goroutine with its own font context and, for the GPU
// backend, its own GPU context on a locked OS thread. The paint task talks
// to a worker only through its Proxy: one bounded request channel and one
// bounded response channel, both strictly FIFO.
//
// Tile i of a batch always goes to worker i mod W, and results are
// collected in the same order, so the reply list lines up with the
// request list without tagging results.
package parallel
