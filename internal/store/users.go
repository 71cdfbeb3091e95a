// Package store persists accounts and role assignments and verifies
// credentials. Email uniqueness is enforced by the database constraint, not
// by an in-process lock: a losing racer surfaces as ErrEmailInUse.
package store

import (
	"context"
	"errors"
	"database/sql"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fcglabs/authd/internal/identity"
)

// Users is the credential-store capability set over the users table.
type Users struct {
	repository.Repository[*identity.User]

	db               *bun.DB
	bcryptCost       int
	maxAttempts      int
	lockoutWindow    time.Duration
	deterministicIDs bool
	now              func() time.Time
}

// UsersOption configures the repository.
type UsersOption func(*Users)

// WithBcryptCost overrides the hashing cost.
func WithBcryptCost(cost int) UsersOption {
	return func(u *Users) { u.bcryptCost = cost }
}

// WithLockoutPolicy sets the failed-attempt threshold and lockout window.
func WithLockoutPolicy(maxAttempts int, window time.Duration) UsersOption {
	return func(u *Users) {
		if maxAttempts > 0 {
			u.maxAttempts = maxAttempts
		}
		if window > 0 {
			u.lockoutWindow = window
		}
	}
}

// WithDeterministicIDs derives new account ids from the email.
func WithDeterministicIDs(enabled bool) UsersOption {
	return func(u *Users) { u.deterministicIDs = enabled }
}

// WithUsersClock overrides the time source, useful for lockout tests.
func WithUsersClock(fn func() time.Time) UsersOption {
	return func(u *Users) {
		if fn != nil {
			u.now = fn
		}
	}
}

// NewUsers builds the users repository.
func NewUsers(db *bun.DB, opts ...UsersOption) *Users {
	repo := repository.NewRepository[*identity.User](db, repository.ModelHandlers[*identity.User]{
		NewRecord: func() *identity.User { return &identity.User{} },
		GetID: func(u *identity.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *identity.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string { return "email" },
	})

	users := &Users{
		Repository:    repo,
		db:            db,
		bcryptCost:    DefaultBcryptCost,
		maxAttempts:   5,
		lockoutWindow: 5 * time.Minute,
		now:           time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(users)
		}
	}

	return users
}

// FindByLogin looks an account up by login name.
func (u *Users) FindByLogin(ctx context.Context, login string) (*identity.User, error) {
	return u.findByColumn(ctx, "username", strings.TrimSpace(login))
}

// FindByEmail looks an account up by email.
func (u *Users) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return u.findByColumn(ctx, "email", strings.TrimSpace(email))
}

func (u *Users) findByColumn(ctx context.Context, column, value string) (*identity.User, error) {
	if value == "" {
		return nil, ErrUserNotFound
	}

	record := &identity.User{}
	err := u.db.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user")
	}

	return record, nil
}

// Create persists a new account with a policy-checked, bcrypt-hashed
// credential.
func (u *Users) Create(ctx context.Context, user *identity.User, senha string) (*identity.User, error) {
	return u.CreateWithPasswordTx(ctx, u.db, user, senha)
}

// CreateWithPasswordTx is the transactional variant of Create.
func (u *Users) CreateWithPasswordTx(ctx context.Context, tx bun.IDB, user *identity.User, senha string) (*identity.User, error) {
	if user == nil {
		return nil, goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	if err := identity.ValidateSenha(senha); err != nil {
		return nil, err
	}

	hash, err := HashPassword(senha, u.bcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if user.ID == uuid.Nil {
		user.ID = u.newUserID(user.Email)
	}

	created, err := u.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailInUse
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
	}

	return created, nil
}

func (u *Users) newUserID(email string) uuid.UUID {
	if u.deterministicIDs {
		if id, err := hashid.NewUUID(email); err == nil {
			return id
		}
	}
	return uuid.New()
}

// VerifyPassword checks the supplied credential. Failed attempts are tracked
// and an account exceeding the threshold is locked for the configured window;
// a successful verification resets the counters.
func (u *Users) VerifyPassword(ctx context.Context, user *identity.User, senha string) error {
	if user == nil {
		return goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	now := u.now()
	if user.IsLockedOut(now) {
		return ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(senha, user.PasswordHash); err != nil {
		if !errors.Is(err, ErrPasswordMismatch) {
			return err
		}
		if trackErr := u.trackAttemptedLogin(ctx, user, now); trackErr != nil {
			return trackErr
		}
		return ErrPasswordMismatch
	}

	return u.trackSuccessfulLogin(ctx, user, now)
}

func (u *Users) trackAttemptedLogin(ctx context.Context, user *identity.User, now time.Time) error {
	attempts := user.LoginAttempts + 1

	var lockedUntil *time.Time
	if attempts >= u.maxAttempts {
		until := now.Add(u.lockoutWindow)
		lockedUntil = &until
		attempts = 0
	}

	_, err := u.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"login_attempts" = ?,
			"login_attempt_at" = ?,
			"locked_out_until" = ?
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, attempts, now, lockedUntil, user.ID).Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to track attempted login")
	}

	user.LoginAttempts = attempts
	user.LoginAttemptAt = &now
	user.LockedOutUntil = lockedUntil
	return nil
}

func (u *Users) trackSuccessfulLogin(ctx context.Context, user *identity.User, now time.Time) error {
	// Updating through the ORM would skip resetting the nullable columns, so
	// this goes through raw SQL.
	_, err := u.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0,
			"locked_out_until" = NULL
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, now, user.ID).Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to track successful login")
	}

	user.LoggedInAt = &now
	user.LoginAttempts = 0
	user.LoginAttemptAt = nil
	user.LockedOutUntil = nil
	return nil
}

// ChangePassword verifies the current credential, policy-checks the new one,
// and applies the change.
func (u *Users) ChangePassword(ctx context.Context, user *identity.User, atual, nova string) error {
	if user == nil {
		return goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	if err := ComparePasswordAndHash(atual, user.PasswordHash); err != nil {
		return err
	}

	if err := identity.ValidateSenha(nova); err != nil {
		return err
	}

	hash, err := HashPassword(nova, u.bcryptCost)
	if err != nil {
		return err
	}

	res, err := u.db.NewUpdate().
		Model((*identity.User)(nil)).
		Set("password_hash = ?", hash).
		Where("id = ?", user.ID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}

	user.PasswordHash = hash
	return nil
}

// AssignRole grants the role to the user.
func (u *Users) AssignRole(ctx context.Context, user *identity.User, role string) error {
	return u.AssignRoleTx(ctx, u.db, user, role)
}

// AssignRoleTx is the transactional variant of AssignRole. Granting an
// already-held role is a no-op.
func (u *Users) AssignRoleTx(ctx context.Context, tx bun.IDB, user *identity.User, role string) error {
	if user == nil || user.ID == uuid.Nil {
		return goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	if strings.TrimSpace(role) == "" {
		return goerrors.New("role is required", goerrors.CategoryBadInput)
	}

	assignment := &RoleAssignment{
		ID:     uuid.New(),
		UserID: user.ID,
		Role:   role,
	}

	_, err := tx.NewInsert().
		Model(assignment).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to assign role")
	}

	return nil
}

// IsInRole reports whether the user holds the role.
func (u *Users) IsInRole(ctx context.Context, user *identity.User, role string) (bool, error) {
	if user == nil || user.ID == uuid.Nil {
		return false, goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	exists, err := u.db.NewSelect().
		Model((*RoleAssignment)(nil)).
		Where("user_id = ?", user.ID).
		Where("role = ?", role).
		Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query role assignment")
	}

	return exists, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
