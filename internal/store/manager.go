package store

import (
	"context"
	"database/sql"
	"log"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/fcglabs/authd/internal/audit"
)

// Manager exposes every repository plus transaction control.
type Manager interface {
	repository.Validator
	repository.TransactionManager
	Users() *Users
	Audit() audit.Store
}

type mngr struct {
	db    *bun.DB
	users *Users
	audit audit.Store
}

// NewManager wires the repositories over one database handle.
func NewManager(db *bun.DB, opts ...UsersOption) Manager {
	return &mngr{
		db:    db,
		users: NewUsers(db, opts...),
		audit: audit.NewRepo(db),
	}
}

func (m *mngr) Validate() error {
	if m.users == nil {
		return goerrors.New("repository users should be initialized", goerrors.CategoryInternal)
	}

	if m.audit == nil {
		return goerrors.New("repository audit should be initialized", goerrors.CategoryInternal)
	}

	return nil
}

func (m *mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *mngr) Users() *Users {
	return m.users
}

func (m *mngr) Audit() audit.Store {
	return m.audit
}
