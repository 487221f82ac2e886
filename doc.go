// Package paint implements the tile paint task of a page pipeline.
//
// A Task turns an immutable render tree (a displaylist.StackingContext)
// into painted tiles and hands them to a compositor. It runs on its own
// goroutine, processes one message at a time from a single mailbox, and
// drives a fixed pool of paint workers.
//
// # Overview
//
// The compositor side of the conversation:
//
//	port, ch := paint.NewChan(0)
//	done := paint.Create(pipelineID, port, compositor, controller,
//	    paint.WithBackend(paint.BackendCPU),
//	    paint.WithWorkers(4),
//	)
//
//	ch.Send(paint.PaintInit{Root: tree})
//	ch.Send(paint.PaintPermissionGranted{})
//	// compositor.InitializeLayersForPipeline is called with an epoch
//	ch.Send(paint.Paint{Requests: []paint.PaintRequest{...}})
//	// compositor.Paint receives the tiles; unused ones come back with
//	ch.Send(paint.UnusedBuffer{Buffers: bufs})
//
//	ack := make(chan struct{}, 1)
//	ch.Send(paint.Exit{Response: ack, Kind: paint.PipelineExitOnly})
//	<-ack
//	<-done
//
// # Epochs
//
// Every installed render tree advances the task's epoch. The compositor
// learns the epoch from InitializeLayersForPipeline and stamps it on paint
// requests; requests for any other epoch are dropped.
//
// # Backends
//
// The CPU backend paints into host memory and copies the pixels into a
// native surface, reusing surfaces from a size-keyed buffer cache. The
// GPU backend paints into a texture created through the compositor's
// gpucontext.TextureCreator and hands that texture over without a copy;
// it uses a single worker on a locked OS thread.
//
// # Logging
//
// The package is silent by default. Call SetLogger to receive structured
// logs through log/slog.
package paint
