package store

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/fcglabs/authd/internal/audit"
	"github.com/fcglabs/authd/internal/identity"
)

// EnsureSchema creates the tables this service owns when they do not exist
// yet. Schema evolution beyond that is left to operators.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*identity.User)(nil),
		(*RoleAssignment)(nil),
		(*audit.Record)(nil),
	}

	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create table")
		}
	}

	return nil
}
