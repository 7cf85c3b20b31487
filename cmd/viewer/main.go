// Package main is the entry point for the lightshow model viewer.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/assets"
	"github.com/Faultbox/lightshow/internal/config"
	"github.com/Faultbox/lightshow/internal/engine/gpu"
	"github.com/Faultbox/lightshow/internal/logger"
	"github.com/Faultbox/lightshow/internal/viewer"
)

func init() {
	// OpenGL calls must be made from the main thread.
	runtime.LockOSThread()
}

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== lightshow ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	app, err := viewer.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(); err != nil {
		if errors.Is(err, gpu.ErrNotFound) || errors.Is(err, assets.ErrNotFound) {
			logger.Fatal("resource missing", zap.Error(err))
		}
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
