package batch

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/imgseal/internal/cryptox"
	"github.com/dmitrijs2005/imgseal/internal/filex"
	"github.com/dustin/go-humanize"
)

// Decrypt restores the artifact named by DecryptID to DecryptOut and
// returns the path written. A tampered or foreign artifact fails with
// common.ErrInvalidArtifact and nothing is written.
func (app *App) Decrypt(ctx context.Context) (string, error) {
	c := app.config

	sink, err := app.newSink(ctx)
	if err != nil {
		return "", fmt.Errorf("artifact sink: %w", err)
	}

	artifact, err := sink.Get(ctx, c.DecryptID)
	if err != nil {
		return "", err
	}

	plaintext, err := cryptox.DecryptArtifact(artifact, app.key)
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", c.DecryptID, err)
	}

	if err := filex.WriteFileAtomic(c.DecryptOut, plaintext, 0o600); err != nil {
		return "", err
	}

	app.logger.Info(ctx, "artifact decrypted", "id", c.DecryptID, "out", c.DecryptOut, "size", humanize.Bytes(uint64(len(plaintext))))
	return c.DecryptOut, nil
}
