package clients

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/imgseal/internal/common"
	"github.com/dmitrijs2005/imgseal/internal/dbx"
	"github.com/dmitrijs2005/imgseal/internal/models"
	"github.com/jackc/pgx/v5"
)

// DefaultBatchSize keeps one statement well under the 65535 bind-parameter
// limit (two parameters per ref).
const DefaultBatchSize = 1000

var identPart = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
// Run it on a transaction to make a multi-statement apply all-or-nothing.
type PostgresRepository struct {
	db        dbx.DBTX
	batchSize int

	table     string
	keyColumn string
	refColumn string
	refCast   string
}

// NewPostgresRepository validates and quotes the target identifiers.
// batchSize <= 0 selects DefaultBatchSize.
func NewPostgresRepository(db dbx.DBTX, target models.Target, batchSize int) (*PostgresRepository, error) {
	table, err := quoteIdent(target.Table, 2)
	if err != nil {
		return nil, err
	}
	keyColumn, err := quoteIdent(target.KeyColumn, 1)
	if err != nil {
		return nil, err
	}
	refColumn, err := quoteIdent(target.RefColumn, 1)
	if err != nil {
		return nil, err
	}

	var refCast string
	if target.RefType != "" {
		if !identPart.MatchString(target.RefType) {
			return nil, fmt.Errorf("%w: type %q", common.ErrInvalidIdentifier, target.RefType)
		}
		refCast = "::" + strings.ToLower(target.RefType)
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &PostgresRepository{
		db:        db,
		batchSize: batchSize,
		table:     table,
		keyColumn: keyColumn,
		refColumn: refColumn,
		refCast:   refCast,
	}, nil
}

// quoteIdent validates a dotted identifier of at most maxParts parts and
// returns it quoted for Postgres.
func quoteIdent(name string, maxParts int) (string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > maxParts {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidIdentifier, name)
	}
	for _, p := range parts {
		if !identPart.MatchString(p) {
			return "", fmt.Errorf("%w: %q", common.ErrInvalidIdentifier, name)
		}
	}
	return pgx.Identifier(parts).Sanitize(), nil
}

// updateQuery builds one bulk UPDATE joining the table against a VALUES
// list of n (generated_id, business_key) pairs.
func (r *PostgresRepository) updateQuery(n int) string {
	var values strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			values.WriteString(", ")
		}
		fmt.Fprintf(&values, "($%d, $%d)", 2*i+1, 2*i+2)
	}

	return fmt.Sprintf(`
		UPDATE %s AS t
		SET %s = data.generated_id%s
		FROM (VALUES %s) AS data(generated_id, business_key)
		WHERE t.%s = data.business_key`,
		r.table, r.refColumn, r.refCast, values.String(), r.keyColumn)
}

// ApplyImageRefs issues one UPDATE per batch of refs and sums rows affected.
func (r *PostgresRepository) ApplyImageRefs(ctx context.Context, refs []models.ImageRef) (int64, error) {
	var total int64

	for start := 0; start < len(refs); start += r.batchSize {
		end := min(start+r.batchSize, len(refs))
		batch := refs[start:end]

		args := make([]any, 0, 2*len(batch))
		for _, ref := range batch {
			args = append(args, ref.GeneratedID, ref.BusinessKey)
		}

		res, err := r.db.ExecContext(ctx, r.updateQuery(len(batch)), args...)
		if err != nil {
			return total, fmt.Errorf("update %s: %w", r.table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected error: %w", err)
		}
		total += n
	}

	return total, nil
}

var _ Repository = (*PostgresRepository)(nil)
