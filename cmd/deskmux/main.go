package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/deskmux/deskmux/internal/config"
	"github.com/deskmux/deskmux/internal/coordinator"
	"github.com/deskmux/deskmux/internal/host"
	"github.com/deskmux/deskmux/internal/logger"
	"github.com/deskmux/deskmux/internal/version"
	"github.com/deskmux/deskmux/internal/workspace"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Printf("deskmux %s\n", version.Short())
		return
	}

	if err := run(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "deskmux: %v\n", err)
		os.Exit(1)
	}
}

func run(debug bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	if err := logger.Init(cfg.DataDir); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Close()
	logger.SetDebug(cfg.Debug || debug)

	log := logger.Get()
	log.Info("starting", "version", version.Short())

	backend, err := workspace.NewFileBackend(filepath.Join(cfg.DataDir, "projects.yaml"), log)
	if err != nil {
		return fmt.Errorf("opening project manifest: %w", err)
	}
	defer backend.Close()

	h := host.NewPTYHost(cfg.DefaultShell, log)

	coord, err := coordinator.New(cfg, h, backend, log)
	if err != nil {
		return err
	}
	defer coord.Close()

	stopWatch, err := cfg.Watch(coord.ReloadConfig)
	if err != nil {
		log.Warn("config watch unavailable", "err", err)
	} else {
		defer stopWatch()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := coord.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
