// Package batch wires the mapping store, the encryption pipeline and the
// database sync into one invocation and exposes them as entry points:
// RunBatch, SyncMapping and Decrypt.
package batch

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/imgseal/internal/artifacts"
	"github.com/dmitrijs2005/imgseal/internal/common"
	"github.com/dmitrijs2005/imgseal/internal/config"
	"github.com/dmitrijs2005/imgseal/internal/cryptox"
	"github.com/dmitrijs2005/imgseal/internal/logging"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// sqlOpen is a test seam for sql.Open.
var sqlOpen = sql.Open

// newS3Client is a test seam for artifacts.NewS3Client.
var newS3Client = func(ctx context.Context, o artifacts.S3Options) (artifacts.S3API, error) {
	return artifacts.NewS3Client(ctx, o)
}

type App struct {
	config *config.Config
	logger logging.Logger
	key    []byte
}

// NewApp checks c and, for modes that encrypt or decrypt, resolves the key.
// A key of the wrong size fails with common.ErrInvalidKeySize before any
// file or database is touched.
func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger}

	if c.Mode != config.ModeSync {
		key, err := resolveKey(c.HexKey, os.Stderr)
		if err != nil {
			return nil, err
		}
		app.key = key
	}

	return app, nil
}

// Close wipes the key from memory.
func (app *App) Close() {
	cryptox.Wipe(app.key)
	app.key = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) (stop func()) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			app.logger.Warn(context.Background(), "signal received, canceling batch")
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run executes the configured mode. SIGINT, SIGTERM and SIGQUIT cancel
// in-flight work; the mapping is still saved with whatever completed.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	c := app.config
	app.logger.Info(ctx, "starting imgseal", "mode", c.Mode)
	app.logger.Debug(ctx, "effective config",
		"input_img_dir", c.SourceDir, "sink", c.Sink, "output_img_dir", c.DestDir,
		"mapping_file", c.MappingPath, "database_dsn", c.DatabaseDSN, "table", c.Table,
		"concurrency", c.Concurrency, "continue_on_error", c.ContinueOnError)

	switch c.Mode {
	case config.ModeRun:
		if _, err := app.RunBatch(ctx); err != nil {
			return err
		}
		_, err := app.SyncMapping(ctx)
		return err
	case config.ModeEncrypt:
		_, err := app.RunBatch(ctx)
		return err
	case config.ModeSync:
		_, err := app.SyncMapping(ctx)
		return err
	case config.ModeDecrypt:
		_, err := app.Decrypt(ctx)
		return err
	default:
		return fmt.Errorf("%w: unknown mode %q", common.ErrInvalidConfig, c.Mode)
	}
}

// newSink builds the artifact sink selected by the config.
func (app *App) newSink(ctx context.Context) (artifacts.Sink, error) {
	c := app.config
	switch c.Sink {
	case config.SinkS3:
		client, err := newS3Client(ctx, artifacts.S3Options{
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
		})
		if err != nil {
			return nil, err
		}
		return artifacts.NewS3Sink(client, c.S3Bucket, c.S3Prefix), nil
	case config.SinkDir, "":
		return artifacts.NewDirSink(c.DestDir)
	default:
		return nil, fmt.Errorf("%w: unknown sink %q", common.ErrInvalidConfig, c.Sink)
	}
}
