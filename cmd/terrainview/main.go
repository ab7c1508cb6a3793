// Package main is the entry point for the streaming terrain viewer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/heightstream/internal/app"
	"github.com/Faultbox/heightstream/internal/config"
	"github.com/Faultbox/heightstream/internal/engine/gpu"
	"github.com/Faultbox/heightstream/internal/engine/input"
	"github.com/Faultbox/heightstream/internal/engine/window"
	"github.com/Faultbox/heightstream/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== heightstream terrain viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create window (this also creates the OpenGL context)
	win, err := window.New(window.Config{
		Title:      "heightstream",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Close()

	// Create renderer (AFTER window, since OpenGL context must exist)
	dw, dh := win.DrawableSize()
	renderer, err := gpu.New(gpu.Config{
		Width:    dw,
		Height:   dh,
		TileSide: cfg.Terrain.TileSide,
		LODCount: cfg.Terrain.LODCount,
		ShowLOD:  cfg.Graphics.ShowLOD,
	})
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer renderer.Close()

	viewer, err := app.New(cfg, app.Deps{
		Window:   win,
		Input:    input.New(),
		Renderer: renderer,
	})
	if err != nil {
		return fmt.Errorf("failed to create viewer: %w", err)
	}
	// Runs before renderer.Close so tile textures are freed first.
	defer viewer.Close()

	if err := viewer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
