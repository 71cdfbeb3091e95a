// Package identity holds the account domain model and its validation rules.
// Everything here is pure: no I/O, no persistence concerns beyond the mapping
// tags consumed by the store layer.
package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleUsuario is the default role granted to every new account.
const RoleUsuario = "Usuario"

// User is the account model. Email doubles as the login name and the two are
// kept identical at all times; construction and mutation go through the
// validated paths only.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Nome           string     `bun:"nome,notnull" json:"nome,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"userName,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	EmailConfirmed bool       `bun:"email_confirmed" json:"email_confirmed,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"-"`
	LockedOutUntil *time.Time `bun:"locked_out_until" json:"-"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"-"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"-"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// New builds a validated User. The email becomes the login name.
func New(email, nome string) (*User, error) {
	u := &User{}

	if err := u.SetEmail(email); err != nil {
		return nil, err
	}

	if err := u.SetNome(nome); err != nil {
		return nil, err
	}

	return u, nil
}

// NewConfirmed builds a validated User with the email-confirmation flag set.
func NewConfirmed(email, nome string, emailConfirmed bool) (*User, error) {
	u, err := New(email, nome)
	if err != nil {
		return nil, err
	}

	u.EmailConfirmed = emailConfirmed
	return u, nil
}

// SetEmail re-validates and updates the email, keeping the login name in sync.
func (u *User) SetEmail(email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}

	u.Email = email
	u.Username = email
	return nil
}

// SetNome re-validates and updates the display name.
func (u *User) SetNome(nome string) error {
	if err := ValidateNome(nome); err != nil {
		return err
	}

	u.Nome = nome
	return nil
}

// IsLockedOut reports whether the account is still inside a lockout window.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockedOutUntil != nil && now.Before(*u.LockedOutUntil)
}
