package flows

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"

	"github.com/fcglabs/authd/internal/events"
	"github.com/fcglabs/authd/internal/identity"
	"github.com/fcglabs/authd/internal/store"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (i LoginInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required, is.Email),
		validation.Field(&i.Password, validation.Required),
	)
}

// LoginUser is the caller-visible projection of an authenticated account.
type LoginUser struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Nome     string `json:"nome"`
}

type LoginResult struct {
	Token      string    `json:"token"`
	User       LoginUser `json:"user"`
	Expiration time.Time `json:"expiration"`
}

// Login authenticates by login name and password and issues a bearer token.
// Absent user, wrong password, and locked-out account all answer with
// ErrInvalidCredentials; only the audit trail distinguishes them.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := input.Validate(); err != nil {
		if pubErr := s.publish(ctx, events.NewLogin(input.Email, descInvalidParams, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "dados de login inválidos").
			WithTextCode("LOGIN_INVALID_INPUT").
			WithCode(goerrors.CodeBadRequest)
	}

	user, err := s.store.FindByLogin(ctx, input.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			if pubErr := s.publish(ctx, events.NewLogin(input.Email, MsgInvalidCredentials, false)); pubErr != nil {
				return nil, pubErr
			}
			return nil, ErrInvalidCredentials
		}

		s.logger.Error(ctx, "login lookup failed", "email", input.Email, "error", err)
		if pubErr := s.publish(ctx, events.NewLogin(input.Email, descUnexpectedError, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user").
			WithCode(goerrors.CodeInternal)
	}

	if err := s.store.VerifyPassword(ctx, user, input.Password); err != nil {
		switch {
		case errors.Is(err, store.ErrPasswordMismatch):
			if pubErr := s.publish(ctx, events.NewLogin(input.Email, MsgInvalidCredentials, false)); pubErr != nil {
				return nil, pubErr
			}
			return nil, ErrInvalidCredentials
		case errors.Is(err, store.ErrTooManyLoginAttempts):
			// The audit record names the lockout; the caller gets the same
			// generic answer as any other failed attempt.
			if pubErr := s.publish(ctx, events.NewLogin(input.Email, failureDescription(err), false)); pubErr != nil {
				return nil, pubErr
			}
			return nil, ErrInvalidCredentials
		default:
			s.logger.Error(ctx, "password verification failed", "email", input.Email, "error", err)
			if pubErr := s.publish(ctx, events.NewLogin(input.Email, descUnexpectedError, false)); pubErr != nil {
				return nil, pubErr
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify password").
				WithCode(goerrors.CodeInternal)
		}
	}

	token, expiresAt, err := s.tokens.Issue(user, identity.RoleUsuario)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "email", input.Email, "error", err)
		if pubErr := s.publish(ctx, events.NewLogin(input.Email, descUnexpectedError, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue token").
			WithCode(goerrors.CodeInternal)
	}

	if pubErr := s.publish(ctx, events.NewLogin(input.Email, descLoggedIn, true)); pubErr != nil {
		return nil, pubErr
	}

	s.logger.Info(ctx, "user logged in", "email", user.Email, "id", user.ID.String())

	return &LoginResult{
		Token: token,
		User: LoginUser{
			ID:       user.ID.String(),
			UserName: user.Username,
			Email:    user.Email,
			Nome:     user.Nome,
		},
		Expiration: expiresAt,
	}, nil
}
