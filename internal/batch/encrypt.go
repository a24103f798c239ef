package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/imgseal/internal/mapping"
	"github.com/dmitrijs2005/imgseal/internal/pipeline"
	"github.com/dustin/go-humanize"
)

// BatchSummary reports one RunBatch call.
type BatchSummary struct {
	Processed   int
	Failed      int
	Skipped     int
	Canceled    int
	BytesIn     int64
	BytesOut    int64
	Written     []string
	MappingPath string
	Duration    time.Duration
}

// RunBatch loads the mapping, encrypts every unmapped input file and saves
// the mapping. Keys encrypted before a failure or cancellation are saved
// too, so their artifacts stay reachable; the failure is returned alongside
// the summary.
func (app *App) RunBatch(ctx context.Context) (*BatchSummary, error) {
	started := time.Now()
	c := app.config

	store, err := mapping.Load(c.MappingPath)
	if err != nil {
		return nil, err
	}

	sink, err := app.newSink(ctx)
	if err != nil {
		return nil, fmt.Errorf("artifact sink: %w", err)
	}

	enc, err := pipeline.New(app.key, sink, app.logger, pipeline.Options{
		SourceDir:       c.SourceDir,
		Ext:             c.InputExt,
		Concurrency:     c.Concurrency,
		FileTimeout:     c.FileTimeout,
		ContinueOnError: c.ContinueOnError,
	})
	if err != nil {
		return nil, err
	}

	res, runErr := enc.Run(ctx, store)
	if res == nil {
		return nil, runErr
	}

	summary := &BatchSummary{
		Processed:   res.Processed(),
		Failed:      len(res.Failed),
		Skipped:     res.Skipped,
		Canceled:    res.Canceled,
		BytesIn:     res.BytesIn,
		BytesOut:    res.BytesOut,
		Written:     res.Written,
		MappingPath: c.MappingPath,
	}

	if summary.Processed > 0 {
		if err := store.Save(c.MappingPath); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("save mapping: %w", err))
		}
	}
	summary.Duration = time.Since(started)

	args := []any{
		"processed", summary.Processed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"canceled", summary.Canceled,
		"read", humanize.Bytes(uint64(summary.BytesIn)),
		"written", humanize.Bytes(uint64(summary.BytesOut)),
		"mapping", summary.MappingPath,
		"entries", store.Len(),
		"duration", summary.Duration.String(),
	}
	if runErr != nil {
		app.logger.Error(ctx, "batch finished with errors", append(args, "error", runErr)...)
		return summary, runErr
	}
	app.logger.Info(ctx, "batch finished", args...)
	return summary, nil
}
