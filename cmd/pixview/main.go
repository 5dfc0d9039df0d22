// Command pixview renders a test pattern or an image file through a
// pixview display and writes the presented frame as PNG.
//
// The GPU variant runs on a headless wgpu backend (the CPU software
// rasterizer by default). The image variant is the fallback used when no
// GPU is available. With -watch, the named image is reloaded and shown
// again each time it changes.
//
// Build with CGO_ENABLED=0: the software backend loads its blitter
// through goffi.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/gogpu/wgpu/hal/software"

	"github.com/gogpu/pixview"
	"github.com/gogpu/pixview/gpu"
	"github.com/gogpu/pixview/surface"
)

var backends = map[string]hal.Backend{
	"software": software.API{},
	"noop":     noop.API{},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "pixview:", err)
		os.Exit(1)
	}
}

// capture returns the last presented frame.
type capture func() (pixview.PixelBuffer, error)

func run(ctx context.Context, args []string) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	pixview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	defer pixview.SetLogger(nil)

	disp, grab, err := openDisplay(cfg)
	if err != nil {
		return err
	}
	view, err := pixview.NewView(disp, producer(cfg))
	if err != nil {
		_ = disp.Close()
		return err
	}
	defer view.Close()

	if err := view.Resize(cfg.Width, cfg.Height); err != nil {
		return err
	}
	save(cfg.Output, grab)

	if cfg.Watch == "" {
		return nil
	}
	return watch(ctx, cfg.Watch, func() {
		if err := view.Refresh(); err != nil {
			pixview.Logger().Warn("pixview: refresh", "err", err)
			return
		}
		save(cfg.Output, grab)
	})
}

// openDisplay creates the configured display variant. The GPU variant falls
// back to the image variant when it cannot be created.
func openDisplay(cfg Config) (pixview.Display, capture, error) {
	if cfg.Variant == "gpu" {
		h, err := gpu.OpenHeadless(backends[cfg.Backend], gpu.WithScaleFactor(cfg.Scale))
		if err == nil {
			return h, h.Framebuffer, nil
		}
		pixview.Logger().Warn("pixview: gpu display unavailable, using image display",
			"backend", cfg.Backend, "err", err)
	}

	d := surface.NewImageDisplay(surface.WithScaleFactor(cfg.Scale))
	return d, func() (pixview.PixelBuffer, error) {
		img := d.Snapshot()
		if img == nil {
			return pixview.PixelBuffer{}, errNoFrame
		}
		return pixview.FromImage(img), nil
	}, nil
}

var errNoFrame = errors.New("no frame presented")

// save writes the presented frame to path. A display that cannot read
// back its frame is logged and skipped.
func save(path string, grab capture) {
	if path == "" {
		return
	}
	pb, err := grab()
	if err != nil {
		pixview.Logger().Warn("pixview: frame not saved", "path", path, "err", err)
		return
	}
	if err := pb.SavePNG(path); err != nil {
		pixview.Logger().Error("pixview: save frame", "path", path, "err", err)
		return
	}
	pixview.Logger().Info("pixview: frame saved", "path", path,
		"size", image.Pt(pb.Width, pb.Height))
}

// watch calls changed each time the file at path is written or replaced,
// until ctx is done. The parent directory is watched so editors that save
// by rename are seen.
func watch(ctx context.Context, path string, changed func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	pixview.Logger().Info("pixview: watching", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			pixview.Logger().Debug("pixview: file changed", "op", ev.Op.String())
			changed()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			pixview.Logger().Warn("pixview: watcher", "err", err)
		}
	}
}
