// Package dbsync projects the persisted key -> id mapping onto the clients
// table. All updates of one sync run in a single transaction: either every
// matching row gets its reference or none does.
package dbsync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/imgseal/internal/clients"
	"github.com/dmitrijs2005/imgseal/internal/common"
	"github.com/dmitrijs2005/imgseal/internal/dbx"
	"github.com/dmitrijs2005/imgseal/internal/logging"
	"github.com/dmitrijs2005/imgseal/internal/mapping"
	"github.com/dmitrijs2005/imgseal/internal/models"
	"github.com/sethvargo/go-retry"
)

// Options configures a Syncer.
type Options struct {
	Target models.Target
	// BatchSize caps refs per UPDATE statement.
	BatchSize int
	// Retries is how many times a transaction that failed transiently is
	// rerun. Zero disables retrying.
	Retries int
	// Backoff is the first retry delay; it doubles on every retry.
	Backoff time.Duration
}

// Summary reports one sync.
type Summary struct {
	// Attempted is the number of mapping entries sent to the database.
	Attempted int
	// Updated is the number of rows whose reference column was set.
	Updated int64
	// Attempts counts transactions started, including retries.
	Attempts int
}

// RepositoryFactory binds a clients repository to a connection or transaction.
type RepositoryFactory func(db dbx.DBTX) (clients.Repository, error)

// Syncer writes mapping entries to the database.
type Syncer struct {
	db      *sql.DB
	logger  logging.Logger
	opts    Options
	newRepo RepositoryFactory
}

// NewSyncer returns a Syncer backed by the Postgres clients repository.
// Identifiers in opts.Target are validated up front.
func NewSyncer(db *sql.DB, logger logging.Logger, opts Options) (*Syncer, error) {
	if _, err := clients.NewPostgresRepository(nil, opts.Target, opts.BatchSize); err != nil {
		return nil, err
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 100 * time.Millisecond
	}

	return &Syncer{
		db:     db,
		logger: logger,
		opts:   opts,
		newRepo: func(db dbx.DBTX) (clients.Repository, error) {
			return clients.NewPostgresRepository(db, opts.Target, opts.BatchSize)
		},
	}, nil
}

// SyncFile loads the mapping at path and syncs it. A missing file syncs
// nothing; an unreadable one fails with common.ErrCorruptState before any
// database access.
func (s *Syncer) SyncFile(ctx context.Context, path string) (*Summary, error) {
	store, err := mapping.Load(path)
	if err != nil {
		return nil, err
	}
	return s.Sync(ctx, store)
}

// Sync writes every entry of store in one transaction. An empty store
// returns immediately without touching the database. Keys with no matching
// row, and rows with no mapping entry, are left alone. Any failure rolls the
// whole transaction back and is reported as common.ErrDatabaseSync.
func (s *Syncer) Sync(ctx context.Context, store *mapping.Store) (*Summary, error) {
	entries := store.Entries()
	summary := &Summary{Attempted: len(entries)}
	if len(entries) == 0 {
		s.logger.Info(ctx, "mapping is empty, nothing to sync")
		return summary, nil
	}

	refs := make([]models.ImageRef, len(entries))
	for i, e := range entries {
		refs[i] = models.ImageRef{BusinessKey: e.OriginalKey, GeneratedID: e.GeneratedID}
	}

	backoff := retry.WithMaxRetries(uint64(s.opts.Retries), retry.NewExponential(s.opts.Backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		summary.Attempts++
		updated, err := s.apply(ctx, refs)
		if err != nil {
			if IsTransient(err) {
				s.logger.Warn(ctx, "transient database error, retrying", "attempt", summary.Attempts, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		summary.Updated = updated
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("%w: %w", common.ErrDatabaseSync, err)
	}

	s.logger.Info(ctx, "mapping synced",
		"table", s.opts.Target.Table, "attempted", summary.Attempted, "updated", summary.Updated, "attempts", summary.Attempts)
	return summary, nil
}

func (s *Syncer) apply(ctx context.Context, refs []models.ImageRef) (int64, error) {
	var updated int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo, err := s.newRepo(tx)
		if err != nil {
			return err
		}
		updated, err = repo.ApplyImageRefs(ctx, refs)
		return err
	})
	return updated, err
}
