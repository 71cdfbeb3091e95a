package store

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrUserNotFound is returned by the lookup methods when no account matches.
var ErrUserNotFound = goerrors.New("usuário não encontrado", goerrors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrEmailInUse is returned when the unique-email constraint rejects a create.
var ErrEmailInUse = goerrors.New("E-mail já está em uso.", goerrors.CategoryConflict).
	WithTextCode("EMAIL_IN_USE").
	WithCode(goerrors.CodeConflict)

// ErrPasswordMismatch is returned when a supplied password does not match the
// stored credential.
var ErrPasswordMismatch = goerrors.New("password does not match stored credential", goerrors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned while an account sits inside its
// lockout window.
var ErrTooManyLoginAttempts = goerrors.New(
	"Conta bloqueada por excesso de tentativas de login.",
	goerrors.CategoryRateLimit,
).
	WithTextCode("TOO_MANY_LOGIN_ATTEMPTS").
	WithCode(goerrors.CodeUnauthorized)
