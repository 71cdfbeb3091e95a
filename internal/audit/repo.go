package audit

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Repo is the bun-backed Store implementation.
type Repo struct {
	db *bun.DB
}

var _ Store = (*Repo)(nil)

// NewRepo builds a Repo over the given database.
func NewRepo(db *bun.DB) *Repo {
	return &Repo{db: db}
}

// Append inserts the record and fills in its autoincrement id.
func (r *Repo) Append(ctx context.Context, record *Record) (*Record, error) {
	if record == nil {
		return nil, goerrors.New("audit record must not be nil", goerrors.CategoryBadInput)
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to append audit record")
	}

	return record, nil
}

// ListAll returns every record in insertion order.
func (r *Repo) ListAll(ctx context.Context) ([]*Record, error) {
	var records []*Record

	err := r.db.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list audit records")
	}

	return records, nil
}
