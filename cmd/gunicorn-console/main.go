// Command gunicorn-console is a live terminal dashboard for the gunicorn
// servers running on this host. It lists each master with its port, memory
// and worker count, and sends reload, scale and shutdown signals to the
// selected master.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/Dicklesworthstone/gunicorn_console/internal/config"
	"github.com/Dicklesworthstone/gunicorn_console/internal/control"
	"github.com/Dicklesworthstone/gunicorn_console/internal/engine"
	"github.com/Dicklesworthstone/gunicorn_console/internal/logging"
	"github.com/Dicklesworthstone/gunicorn_console/internal/sampler"
	"github.com/Dicklesworthstone/gunicorn_console/internal/ui"
)

var version = "0.1"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// source is what the engine reads processes and sockets from.
type source interface {
	engine.ProcessSource
	engine.SocketSource
	Check() error
}

// signaller is what the engine sends signals through.
type signaller interface {
	engine.Signaller
	Check() error
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.FromFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "gunicorn-console: %v\n", err)
		return 2
	}
	if cfg.Version {
		fmt.Fprintf(stdout, "gunicorn-console %s\n", version)
		return 0
	}

	logger, err := logging.New(cfg.Logging, version)
	if err != nil {
		fmt.Fprintf(stderr, "gunicorn-console: %v\n", err)
		return 1
	}
	defer logger.Close()

	src, sig := build(cfg, logger)
	if err := preflight(cfg, src, sig); err != nil {
		fmt.Fprintf(stderr, "gunicorn-console: %v\n", err)
		return 1
	}

	eng := engine.New(engine.Options{
		Processes:    src,
		Sockets:      src,
		Signaller:    sig,
		TicksPerPoll: cfg.TicksPerPoll(),
		FrameEvery:   cfg.FrameEvery,
		Frames:       ui.Frames,
		Log:          logger.With("component", "engine").Logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JSON {
		return dumpJSON(ctx, eng, stdout, stderr)
	}

	logger.Info("starting", "source", cfg.Source, "signaller", cfg.Signaller,
		"interval", cfg.PollInterval, "tick", cfg.Tick)
	if err := ui.RunTUI(ctx, cfg, eng); err != nil {
		logger.Error("display session failed", "err", err)
		fmt.Fprintf(stderr, "gunicorn-console: %v\n", err)
		return 1
	}
	return 0
}

func build(cfg config.Config, logger *logging.Logger) (source, signaller) {
	var src source
	switch cfg.Source {
	case config.SourceNative:
		src = sampler.NewNative(cfg.Marker, logger.With("component", "sampler").Logger)
	default:
		src = sampler.New(cfg.Marker, cfg.CommandTimeout, logger.With("component", "sampler").Logger)
	}

	var sig signaller
	switch cfg.Signaller {
	case config.SignallerNative:
		sig = control.Native{}
	default:
		sig = control.NewKill(cfg.CommandTimeout)
	}
	return src, sig
}

// preflight checks the helpers the run needs. A --json run never signals,
// so the signaller is only checked for the display session.
func preflight(cfg config.Config, src source, sig signaller) error {
	if err := src.Check(); err != nil {
		return err
	}
	if cfg.JSON {
		return nil
	}
	return sig.Check()
}

// dumpJSON polls once and prints the group table.
func dumpJSON(ctx context.Context, eng *engine.Engine, stdout, stderr io.Writer) int {
	if err := eng.Poll(ctx); err != nil {
		fmt.Fprintf(stderr, "gunicorn-console: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(eng.Groups()); err != nil {
		fmt.Fprintf(stderr, "gunicorn-console: %v\n", err)
		return 1
	}
	return 0
}
