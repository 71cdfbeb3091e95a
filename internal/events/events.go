// Package events defines the authentication domain events and the in-process
// bus that fans them out to subscribers. The event set is closed: every flow
// produces exactly one of the kinds below per execution, success or failure.
package events

import "time"

// Kind enumerates the supported event kinds.
type Kind string

const (
	KindRegistration   Kind = "auth.registration"
	KindLogin          Kind = "auth.login"
	KindPasswordChange Kind = "auth.password.change"
)

// Event is an immutable fact about an authentication attempt. Concrete
// variants are Registration, Login, and PasswordChange; consumers switch on
// the concrete type.
type Event interface {
	EventKind() Kind
	OccurredAt() time.Time
}

// Registration records a registration attempt.
type Registration struct {
	Email     string
	Nome      string
	Descricao string
	Sucesso   bool
	Timestamp time.Time
}

// NewRegistration stamps a Registration event with the current UTC time.
func NewRegistration(email, nome, descricao string, sucesso bool) Registration {
	return Registration{
		Email:     email,
		Nome:      nome,
		Descricao: descricao,
		Sucesso:   sucesso,
		Timestamp: time.Now().UTC(),
	}
}

func (e Registration) EventKind() Kind       { return KindRegistration }
func (e Registration) OccurredAt() time.Time { return e.Timestamp }

// Login records a login attempt.
type Login struct {
	Email     string
	Descricao string
	Sucesso   bool
	Timestamp time.Time
}

// NewLogin stamps a Login event with the current UTC time.
func NewLogin(email, descricao string, sucesso bool) Login {
	return Login{
		Email:     email,
		Descricao: descricao,
		Sucesso:   sucesso,
		Timestamp: time.Now().UTC(),
	}
}

func (e Login) EventKind() Kind       { return KindLogin }
func (e Login) OccurredAt() time.Time { return e.Timestamp }

// PasswordChange records a password-change attempt.
type PasswordChange struct {
	Email     string
	Descricao string
	Sucesso   bool
	Timestamp time.Time
}

// NewPasswordChange stamps a PasswordChange event with the current UTC time.
func NewPasswordChange(email, descricao string, sucesso bool) PasswordChange {
	return PasswordChange{
		Email:     email,
		Descricao: descricao,
		Sucesso:   sucesso,
		Timestamp: time.Now().UTC(),
	}
}

func (e PasswordChange) EventKind() Kind       { return KindPasswordChange }
func (e PasswordChange) OccurredAt() time.Time { return e.Timestamp }
