// Package pipeline encrypts unprocessed input images concurrently.
//
// A run lists the source directory in name order, skips every file whose
// business key is already in the mapping store, assigns each remaining file
// a fresh generated identifier and encrypts the files in a bounded worker
// group. Workers never touch the store: each outcome is sent back to the
// calling goroutine, which records successful keys one at a time in
// completion order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/imgseal/internal/artifacts"
	"github.com/dmitrijs2005/imgseal/internal/cryptox"
	"github.com/dmitrijs2005/imgseal/internal/logging"
	"github.com/dmitrijs2005/imgseal/internal/mapping"
	"golang.org/x/sync/errgroup"
)

// Options tunes a pipeline run.
type Options struct {
	// SourceDir holds input files named {business_key}{Ext}.
	SourceDir string
	// Ext is the input extension, matched case-insensitively. Defaults to ".png".
	Ext string
	// Concurrency caps in-flight files. Values below 1 mean 1.
	Concurrency int
	// FileTimeout bounds one file's read, encrypt and store. Zero disables it.
	FileTimeout time.Duration
	// ContinueOnError keeps processing after a failure instead of canceling
	// the rest of the batch.
	ContinueOnError bool
}

// Task is one unprocessed input file scheduled for encryption.
type Task struct {
	Key  string
	Path string
	ID   string
}

// Result summarizes a run.
type Result struct {
	// Written lists artifact locations in completion order.
	Written []string
	// Skipped counts inputs whose key was already mapped.
	Skipped int
	// Failed holds one *FileError per failed file.
	Failed []error
	// Canceled counts scheduled files that never ran because the batch was aborted.
	Canceled int
	BytesIn  int64
	BytesOut int64
}

// Processed returns the number of files encrypted in this run.
func (r *Result) Processed() int {
	return len(r.Written)
}

type outcome struct {
	task     Task
	location string
	bytesIn  int64
	bytesOut int64
	err      error
	canceled bool
}

// Encryptor runs the encryption pipeline against one artifact sink.
type Encryptor struct {
	key    []byte
	sink   artifacts.Sink
	logger logging.Logger
	opts   Options

	newID func() string
}

// New validates key and returns an Encryptor. It fails with
// common.ErrInvalidKeySize before any I/O when the key is not 16, 24 or 32 bytes.
func New(key []byte, sink artifacts.Sink, logger logging.Logger, opts Options) (*Encryptor, error) {
	if err := cryptox.ValidateKey(key); err != nil {
		return nil, err
	}
	if opts.Ext == "" {
		opts.Ext = ".png"
	}
	if !strings.HasPrefix(opts.Ext, ".") {
		opts.Ext = "." + opts.Ext
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Encryptor{
		key:    key,
		sink:   sink,
		logger: logger,
		opts:   opts,
		newID:  cryptox.NewGeneratedID,
	}, nil
}

// Discover lists input files in name order and returns a task for every
// file whose key is not yet in store. It also returns how many inputs were
// skipped as already mapped. The store is not modified.
func (e *Encryptor) Discover(ctx context.Context, store *mapping.Store) ([]Task, int, error) {
	entries, err := os.ReadDir(e.opts.SourceDir)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", e.opts.SourceDir, err)
	}

	var (
		tasks   []Task
		skipped int
		seen    = make(map[string]struct{})
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if len(name) <= len(e.opts.Ext) || !strings.EqualFold(name[len(name)-len(e.opts.Ext):], e.opts.Ext) {
			continue
		}
		key := name[:len(name)-len(e.opts.Ext)]

		if store.Contains(key) {
			skipped++
			continue
		}
		if _, dup := seen[key]; dup {
			e.logger.Warn(ctx, "duplicate business key in input directory, keeping first file", "key", key, "file", name)
			continue
		}
		seen[key] = struct{}{}

		tasks = append(tasks, Task{
			Key:  key,
			Path: filepath.Join(e.opts.SourceDir, name),
			ID:   e.newID(),
		})
	}
	return tasks, skipped, nil
}

// Run encrypts every unmapped input and records each success in store.
//
// With the default abort policy the first failure cancels in-flight and
// pending files and is returned; files already written stay written and
// their keys stay recorded. With ContinueOnError all failures are returned
// joined. Either way the caller persists store afterwards.
func (e *Encryptor) Run(ctx context.Context, store *mapping.Store) (*Result, error) {
	tasks, skipped, err := e.Discover(ctx, store)
	if err != nil {
		return nil, err
	}

	res := &Result{Skipped: skipped}
	e.logger.Info(ctx, "discovered input files",
		"dir", e.opts.SourceDir, "pending", len(tasks), "skipped", skipped, "concurrency", e.opts.Concurrency)
	if len(tasks) == 0 {
		return res, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	results := make(chan outcome)
	var groupErr error
	go func() {
		defer close(results)
		for _, t := range tasks {
			g.Go(func() error {
				o := e.process(gctx, t)
				results <- o
				if o.err != nil && !e.opts.ContinueOnError {
					return o.err
				}
				return nil
			})
		}
		groupErr = g.Wait()
	}()

	for o := range results {
		switch {
		case o.canceled:
			res.Canceled++
		case o.err != nil:
			res.Failed = append(res.Failed, o.err)
			e.logger.Error(ctx, "file encryption failed", "key", o.task.Key, "file", o.task.Path, "error", o.err)
		default:
			store.Put(o.task.Key, o.task.ID)
			res.Written = append(res.Written, o.location)
			res.BytesIn += o.bytesIn
			res.BytesOut += o.bytesOut
			e.logger.Debug(ctx, "file encrypted", "key", o.task.Key, "id", o.task.ID, "location", o.location)
		}
	}

	if groupErr != nil {
		return res, groupErr
	}
	if len(res.Failed) > 0 {
		return res, errors.Join(res.Failed...)
	}
	if err := ctx.Err(); err != nil && res.Canceled > 0 {
		return res, err
	}
	return res, nil
}

// process handles one file. It never touches the mapping store.
func (e *Encryptor) process(ctx context.Context, t Task) outcome {
	if ctx.Err() != nil {
		return outcome{task: t, canceled: true}
	}

	if e.opts.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.FileTimeout)
		defer cancel()
	}

	fail := func(op string, err error) outcome {
		// Aborted by another file's failure or by the caller, not a failure of its own.
		if errors.Is(err, context.Canceled) {
			return outcome{task: t, canceled: true}
		}
		return outcome{task: t, err: &FileError{Key: t.Key, Path: t.Path, Op: op, Err: err}}
	}

	plaintext, err := os.ReadFile(t.Path)
	if err != nil {
		return fail("read", err)
	}
	if err := ctx.Err(); err != nil {
		return fail("read", err)
	}

	artifact, err := cryptox.EncryptArtifact(plaintext, e.key)
	if err != nil {
		return fail("encrypt", err)
	}

	location, err := e.sink.Put(ctx, t.ID, artifact)
	if err != nil {
		return fail("write", err)
	}

	return outcome{
		task:     t,
		location: location,
		bytesIn:  int64(len(plaintext)),
		bytesOut: int64(len(artifact)),
	}
}
