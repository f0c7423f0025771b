// Command rtview renders the compute ray tracer offscreen for a number of
// frames, printing the viewport, the dispatch grid and the GPU compute
// time of each frame, and optionally saves the last frame as a PNG.
//
// Usage:
//
//	rtview -frames 8 -width 1280 -height 720 -drag 15 -out frame.png -scale 0.5
//	rtview -config rtview.toml -backend webgpu
//
// Flags given on the command line override the values of the -config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"

	"github.com/gogpu/rtview"
	"github.com/gogpu/rtview/backend"
	"github.com/gogpu/rtview/backend/native"
	_ "github.com/gogpu/rtview/backend/webgpu"
	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/rtview/integration/host"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errDumpConfig):
		if err := cfg.writeTOML(stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	case err != nil:
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	rtview.SetLogger(logger)
	native.SetLogger(logger)

	dev, err := backend.Open(cfg.Backend, backend.Config{})
	if err != nil {
		logger.Error("rtview: no device", "backend", cfg.Backend, "available", backend.Available(), "error", err)
		return 1
	}
	defer dev.Destroy()

	if err := render(ctx, dev, cfg, stdout); err != nil {
		logger.Error("rtview: run aborted", "error", err)
		return 1
	}
	return 0
}

// render builds the pipeline on dev and drives cfg.Frames frames.
func render(ctx context.Context, dev gpucore.Device, cfg config, stdout io.Writer) error {
	capW, capH, err := cfg.capacity()
	if err != nil {
		return err
	}
	timeout, err := cfg.pollTimeout()
	if err != nil {
		return err
	}

	res, err := rtview.NewResources(dev,
		rtview.WithCapacity(capW, capH),
		rtview.WithTargetFormat(rtview.OutputFormat),
		rtview.WithPollTimeout(timeout),
	)
	if err != nil {
		return err
	}
	defer res.Close()

	tw := uint32(max(1, math.Ceil(cfg.Width)))
	th := uint32(max(1, math.Ceil(cfg.Height)))
	tgt, err := newTarget(dev, tw, th, rtview.OutputFormat)
	if err != nil {
		return err
	}
	defer tgt.destroy()

	cb := res.Callback()
	cb.SetAngle(float32(cfg.Angle))
	frame := host.NewFrame(dev, tgt.view)
	size := rtview.Size{Width: float32(cfg.Width), Height: float32(cfg.Height)}
	p := message.NewPrinter(language.English)

	for i := 0; i < cfg.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cfg.Drag != 0 {
			cb.Drag(float32(cfg.Drag))
		}
		if err := frame.Run(ctx, cb, size); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		printStatus(p, stdout, cb.Stats(), cb.Timing())
	}

	if cfg.Out == "" {
		return nil
	}
	img, err := tgt.read(ctx, timeout)
	if err != nil {
		return err
	}
	if err := writePNG(cfg.Out, scaleImage(img, cfg.Scale)); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Out, err)
	}
	slog.Default().Info("rtview: snapshot written", "path", cfg.Out)
	return nil
}

// printStatus writes one status line. The timing shown is the previous
// frame's compute time.
func printStatus(p *message.Printer, w io.Writer, s rtview.FrameStats, t *rtview.Timing) {
	p.Fprintf(w, "frame %d: viewport %.0fx%.0f effective %.0fx%.0f grid %dx%d (%d groups) compute %s\n",
		s.Frame,
		s.Requested.Width, s.Requested.Height,
		s.Effective.Width, s.Effective.Height,
		s.GridX, s.GridY, uint64(s.GridX)*uint64(s.GridY),
		t.String())
}
