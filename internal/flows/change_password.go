package flows

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"

	"github.com/fcglabs/authd/internal/events"
	"github.com/fcglabs/authd/internal/store"
)

type ChangePasswordInput struct {
	SenhaAtual        string `json:"senhaAtual"`
	NovaSenha         string `json:"novaSenha"`
	ConfirmaNovaSenha string `json:"confirmaNovaSenha"`
}

func (i ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.SenhaAtual, validation.Required),
		validation.Field(&i.NovaSenha, validation.Required),
		validation.Field(&i.ConfirmaNovaSenha,
			validation.Required,
			validation.In(i.NovaSenha).Error("As senhas não conferem."),
		),
	)
}

type ChangePasswordResult struct {
	Message string `json:"message"`
}

// ChangePassword rotates the credential of the authenticated caller. The
// login comes from the verified token's claims, never from the payload.
// Every exit publishes a PasswordChange event: missing authentication,
// unknown account, malformed input, wrong current password, policy failure,
// and success.
func (s *Service) ChangePassword(ctx context.Context, login string, input ChangePasswordInput) (*ChangePasswordResult, error) {
	if login == "" {
		if pubErr := s.publish(ctx, events.NewPasswordChange(login, MsgNotAuthenticated, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, ErrNotAuthenticated
	}

	user, err := s.store.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			if pubErr := s.publish(ctx, events.NewPasswordChange(login, MsgUserNotFound, false)); pubErr != nil {
				return nil, pubErr
			}
			return nil, ErrAccountNotFound
		}

		s.logger.Error(ctx, "password change lookup failed", "login", login, "error", err)
		if pubErr := s.publish(ctx, events.NewPasswordChange(login, descUnexpectedError, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user").
			WithCode(goerrors.CodeInternal)
	}

	if err := input.Validate(); err != nil {
		if pubErr := s.publish(ctx, events.NewPasswordChange(login, descInvalidParams, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "dados de alteração de senha inválidos").
			WithTextCode("CHANGE_PASSWORD_INVALID_INPUT").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := s.store.ChangePassword(ctx, user, input.SenhaAtual, input.NovaSenha); err != nil {
		switch {
		case errors.Is(err, store.ErrPasswordMismatch):
			if pubErr := s.publish(ctx, events.NewPasswordChange(login, MsgCurrentPasswordWrong, false)); pubErr != nil {
				return nil, pubErr
			}
			return nil, ErrCurrentPasswordWrong
		case errors.Is(err, store.ErrUserNotFound):
			if pubErr := s.publish(ctx, events.NewPasswordChange(login, MsgUserNotFound, false)); pubErr != nil {
				return nil, pubErr
			}
			return nil, ErrAccountNotFound
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			// New password failed the credential policy; the audit record
			// carries the specific rule that failed.
			if pubErr := s.publish(ctx, events.NewPasswordChange(login, failureDescription(err), false)); pubErr != nil {
				return nil, pubErr
			}
			return nil, err
		}

		s.logger.Error(ctx, "password change failed", "login", login, "error", err)
		if pubErr := s.publish(ctx, events.NewPasswordChange(login, descUnexpectedError, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "Ocorreu um erro interno ao alterar a senha.").
			WithCode(goerrors.CodeInternal)
	}

	if pubErr := s.publish(ctx, events.NewPasswordChange(login, MsgPasswordChanged, true)); pubErr != nil {
		return nil, pubErr
	}

	s.logger.Info(ctx, "password changed", "login", login)

	return &ChangePasswordResult{Message: MsgPasswordChanged}, nil
}
