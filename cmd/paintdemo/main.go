// Command paintdemo paints a Lua scene through a paint task and plays the
// compositor: it writes every frame as a PNG or shows it in a window.
//
// Usage:
//
//	paintdemo -scene page.lua [-out dir] [-view] [-watch] [-backend gpu]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/paint"
	"github.com/gogpu/paint/internal/scenefile"
	"github.com/gogpu/paint/layers"
	"github.com/gogpu/paint/render"
)

const pipeline layers.PipelineID = 1

func main() {
	var (
		scenePath = flag.String("scene", "", "Lua scene file")
		outDir    = flag.String("out", ".", "directory for frame PNGs")
		view      = flag.Bool("view", false, "show frames in a window instead of writing PNGs")
		watch     = flag.Bool("watch", false, "repaint when the scene file changes")
		backend   = flag.String("backend", "", "override the scene's backend (cpu or gpu)")
		workers   = flag.Int("workers", 0, "override the scene's worker count")
		verbose   = flag.Bool("v", false, "log task activity")
	)
	flag.Parse()

	if *scenePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	paint.SetLogger(logger)

	sc, err := scenefile.Load(*scenePath)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}
	cfg := sc.Config
	if *backend != "" {
		if cfg.Backend, err = paint.ParseBackend(*backend); err != nil {
			log.Fatalf("Invalid -backend: %v", err)
		}
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	d := demo{
		scenePath: *scenePath,
		scene:     sc,
		cfg:       cfg,
		watch:     *watch || *view,
		logger:    logger,
	}
	if *view {
		err = d.runWindow(ctx)
	} else {
		err = d.runHeadless(ctx, *outDir)
	}
	if err != nil {
		log.Fatalf("paintdemo: %v", err)
	}
}

// demo wires a scene, a paint task and a compositor together.
type demo struct {
	scenePath string
	scene     *scenefile.Scene
	cfg       scenefile.Config
	watch     bool
	logger    *slog.Logger
}

// runHeadless paints into host memory and writes PNGs. Without -watch it
// stops after the first frame.
func (d *demo) runHeadless(ctx context.Context, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	var md render.GraphicsMetadata
	if d.cfg.Backend == paint.BackendGPU {
		md.Textures = memTextures{}
	}
	return d.run(ctx, md, pngPresenter{dir: outDir}, nil)
}

// runWindow paints into ebiten textures and shows them. ebiten owns the
// main goroutine; everything else runs in the group.
func (d *demo) runWindow(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	title := fmt.Sprintf("paintdemo - %s (%s)", filepath.Base(d.scenePath), d.cfg.Backend)
	v := newViewer(ctx, title, scalePoint(d.scene.Size, d.cfg.Scale))
	md := render.GraphicsMetadata{Textures: ebitenTextures{}}
	return d.run(ctx, md, v, func() error {
		defer cancel()
		return v.run()
	})
}

// run starts the task and the compositor. fg, when set, runs on the
// calling goroutine and ends the demo when it returns.
func (d *demo) run(ctx context.Context, md render.GraphicsMetadata, out presenter, fg func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	port, ch := paint.NewChan(0)
	comp := newCompositor(pipeline, md, ch, d.cfg.TileSize, d.cfg.Scale, out, d.logger)
	done := paint.Create(pipeline, port, comp, comp, d.cfg.Options()...)

	g, gctx := errgroup.WithContext(ctx)
	once := !d.watch && fg == nil
	g.Go(func() error {
		defer cancel()
		return comp.run(gctx, once)
	})

	var w *scenefile.Watcher
	if d.watch {
		var err error
		w, err = scenefile.NewWatcher(d.scenePath, 0, func() error {
			sc, err := scenefile.Load(d.scenePath)
			if err != nil {
				return err
			}
			d.logger.Info("scene reloaded", "path", d.scenePath)
			return ch.TrySend(paint.PaintInit{Root: sc.Root})
		}, func(err error) {
			d.logger.Warn("scene reload failed", "err", err)
		})
		if err != nil {
			cancel()
			_ = g.Wait()
			return errors.Join(err, comp.shutdown(context.Background()))
		}
		w.Start()
	}

	// The task answers with PainterReady; the compositor grants permission.
	ch.Send(paint.PaintInit{Root: d.scene.Root})

	var fgErr error
	if fg != nil {
		fgErr = fg()
		cancel()
	}
	err := g.Wait()
	if w != nil {
		w.Stop()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if serr := comp.shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		err = errors.Join(err, errors.New("paint task did not exit"))
	}
	return errors.Join(fgErr, err)
}
