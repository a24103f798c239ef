package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/imgseal/internal/batch"
	"github.com/dmitrijs2005/imgseal/internal/buildinfo"
	"github.com/dmitrijs2005/imgseal/internal/config"
	"github.com/dmitrijs2005/imgseal/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := batch.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = app.Run(ctx)
	app.Close()
	if err != nil {
		logger.Error(ctx, "imgseal failed", "error", err)
	}

	// zap buffers entries
	if s, ok := logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}
