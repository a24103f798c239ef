// Package clients updates the reference column of the clients table from
// the business key -> generated identifier mapping.
package clients

import (
	"context"

	"github.com/dmitrijs2005/imgseal/internal/models"
)

type Repository interface {
	// ApplyImageRefs sets the reference column of every row whose business
	// key matches a ref and returns the number of rows updated. Refs that
	// match no row are ignored.
	ApplyImageRefs(ctx context.Context, refs []models.ImageRef) (int64, error)
}
