// Package flows orchestrates the authentication use cases. Each flow runs
// once per request: it validates input, drives the credential store, and
// publishes exactly one domain event describing the outcome before returning.
package flows

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/fcglabs/authd/internal/events"
	"github.com/fcglabs/authd/internal/identity"
	"github.com/fcglabs/authd/internal/logging"
)

// User-facing messages. These mirror the audit descriptions so that what the
// caller reads matches what the trail records.
const (
	MsgRegisterSuccess      = "Usuário criado com sucesso e associado à role Usuario!"
	MsgInvalidCredentials   = "Usuário ou senha inválidos."
	MsgPasswordChanged      = "Senha alterada com sucesso!"
	MsgCurrentPasswordWrong = "Senha atual incorreta."
	MsgNotAuthenticated     = "Usuário não autenticado."
	MsgUserNotFound         = "Usuário não encontrado."
)

// Audit descriptions for outcomes that have no dedicated caller message.
const (
	descInvalidParams   = "Parâmetros inválidos"
	descEmailInUse      = "E-mail já está em uso"
	descUserCreated     = "Usuário Criado com sucesso"
	descLoggedIn        = "Usuário logado com sucesso"
	descUnexpectedError = "Falha com exceção"
)

// ErrInvalidCredentials is the single answer for absent user, wrong password,
// and locked-out account. Collapsing the three keeps response content from
// confirming whether an email is registered.
var ErrInvalidCredentials = goerrors.New(MsgInvalidCredentials, goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrNotAuthenticated is returned when a protected flow runs without a
// resolved login name.
var ErrNotAuthenticated = goerrors.New(MsgNotAuthenticated, goerrors.CategoryAuth).
	WithTextCode("NOT_AUTHENTICATED").
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountNotFound is returned when the authenticated login no longer maps
// to an account.
var ErrAccountNotFound = goerrors.New(MsgUserNotFound, goerrors.CategoryAuth).
	WithTextCode("ACCOUNT_NOT_FOUND").
	WithCode(goerrors.CodeUnauthorized)

// ErrCurrentPasswordWrong is returned by ChangePassword when the supplied
// current password does not match.
var ErrCurrentPasswordWrong = goerrors.New(MsgCurrentPasswordWrong, goerrors.CategoryValidation).
	WithTextCode("CURRENT_PASSWORD_WRONG").
	WithCode(goerrors.CodeBadRequest)

// CredentialStore is the capability set the flows need from user storage.
type CredentialStore interface {
	FindByLogin(ctx context.Context, login string) (*identity.User, error)
	FindByEmail(ctx context.Context, email string) (*identity.User, error)
	CreateWithPasswordTx(ctx context.Context, tx bun.IDB, user *identity.User, senha string) (*identity.User, error)
	AssignRoleTx(ctx context.Context, tx bun.IDB, user *identity.User, role string) error
	VerifyPassword(ctx context.Context, user *identity.User, senha string) error
	ChangePassword(ctx context.Context, user *identity.User, atual, nova string) error
}

// TransactionManager runs a unit of work in one database transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

// TokenIssuer mints a signed bearer credential for an authenticated user.
type TokenIssuer interface {
	Issue(user *identity.User, role string) (string, time.Time, error)
}

// Publisher dispatches a domain event to its subscribers and reports the
// first handler failure.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service wires the authentication flows to their collaborators.
type Service struct {
	store  CredentialStore
	tx     TransactionManager
	tokens TokenIssuer
	bus    Publisher
	logger logging.Logger
}

type Option func(*Service)

// WithLogger sets the logger used by the flows.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(store CredentialStore, tx TransactionManager, tokens TokenIssuer, bus Publisher, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tx:     tx,
		tokens: tokens,
		bus:    bus,
		logger: logging.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// publish sends the event and fails loudly. Event dispatch is synchronous
// with the response: if the audit trail cannot record the outcome, the flow
// does not report that outcome to the caller.
func (s *Service) publish(ctx context.Context, event events.Event) error {
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Error(ctx, "event publish failed", "kind", string(event.EventKind()), "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record audit event").
			WithCode(goerrors.CodeInternal)
	}
	return nil
}

// failureDescription extracts a human-readable audit description from a
// domain error, falling back to a generic label for unexpected failures.
func failureDescription(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	return descUnexpectedError
}
