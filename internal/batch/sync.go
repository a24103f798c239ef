package batch

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/imgseal/internal/common"
	"github.com/dmitrijs2005/imgseal/internal/dbsync"
	"github.com/dmitrijs2005/imgseal/internal/models"
)

// SyncMapping applies the persisted mapping to the configured table in one
// transaction.
func (app *App) SyncMapping(ctx context.Context) (*dbsync.Summary, error) {
	c := app.config

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", common.ErrDatabaseSync, err)
	}
	defer db.Close()

	syncer, err := dbsync.NewSyncer(db, app.logger, dbsync.Options{
		Target: models.Target{
			Table:     c.Table,
			KeyColumn: c.KeyColumn,
			RefColumn: c.RefColumn,
			RefType:   c.RefType,
		},
		BatchSize: c.SyncBatchSize,
		Retries:   c.SyncRetries,
		Backoff:   c.SyncBackoff,
	})
	if err != nil {
		return nil, err
	}

	return syncer.SyncFile(ctx, c.MappingPath)
}
