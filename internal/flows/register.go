package flows

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"

	"github.com/fcglabs/authd/internal/events"
	"github.com/fcglabs/authd/internal/identity"
	"github.com/fcglabs/authd/internal/store"
)

// RegisterInput is the payload for account creation. Phone is optional; when
// present it must parse as a valid number.
type RegisterInput struct {
	Email    string `json:"email"`
	Nome     string `json:"nome"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

func (i RegisterInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required),
		validation.Field(&i.Nome, validation.Required),
		validation.Field(&i.Password, validation.Required),
		validation.Field(&i.Phone, validation.By(optionalPhone)),
	)
}

func optionalPhone(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "BR")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return goerrors.New("Telefone inválido.", goerrors.CategoryValidation).
			WithTextCode("PHONE_INVALID").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

type RegisterResult struct {
	Message string `json:"message"`
}

// Register creates an account with the default role. Credential creation and
// role assignment run in one transaction so a role failure leaves no
// half-created account behind. Every exit after shape validation publishes a
// Registration event carrying the outcome.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if err := input.Validate(); err != nil {
		if pubErr := s.publish(ctx, events.NewRegistration(input.Email, input.Nome, descInvalidParams, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "dados de registro inválidos").
			WithTextCode("REGISTER_INVALID_INPUT").
			WithCode(goerrors.CodeBadRequest)
	}

	user, err := identity.New(input.Email, input.Nome)
	if err != nil {
		if pubErr := s.publish(ctx, events.NewRegistration(input.Email, input.Nome, failureDescription(err), false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, err
	}

	if err := identity.ValidateSenha(input.Password); err != nil {
		if pubErr := s.publish(ctx, events.NewRegistration(input.Email, input.Nome, failureDescription(err), false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, err
	}

	if input.Phone != "" {
		num, perr := phonenumbers.Parse(input.Phone, "BR")
		if perr != nil {
			return nil, goerrors.Wrap(perr, goerrors.CategoryValidation, "Telefone inválido.").
				WithCode(goerrors.CodeBadRequest)
		}
		user.Phone = phonenumbers.Format(num, phonenumbers.E164)
	}

	// Early existence check for a friendlier error. The unique constraint in
	// the store remains the authority when two registrations race.
	if _, err := s.store.FindByEmail(ctx, user.Email); err == nil {
		if pubErr := s.publish(ctx, events.NewRegistration(input.Email, input.Nome, descEmailInUse, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, store.ErrEmailInUse
	} else if !errors.Is(err, store.ErrUserNotFound) {
		if pubErr := s.publish(ctx, events.NewRegistration(input.Email, input.Nome, descUnexpectedError, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability").
			WithCode(goerrors.CodeInternal)
	}

	err = s.tx.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.store.CreateWithPasswordTx(ctx, tx, user, input.Password); err != nil {
			return err
		}
		return s.store.AssignRoleTx(ctx, tx, user, identity.RoleUsuario)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailInUse) {
			if pubErr := s.publish(ctx, events.NewRegistration(input.Email, input.Nome, descEmailInUse, false)); pubErr != nil {
				return nil, pubErr
			}
			return nil, store.ErrEmailInUse
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			if pubErr := s.publish(ctx, events.NewRegistration(input.Email, input.Nome, failureDescription(err), false)); pubErr != nil {
				return nil, pubErr
			}
			return nil, err
		}

		s.logger.Error(ctx, "registration failed", "email", input.Email, "error", err)
		if pubErr := s.publish(ctx, events.NewRegistration(input.Email, input.Nome, descUnexpectedError, false)); pubErr != nil {
			return nil, pubErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "Ocorreu um erro interno ao registrar o usuário.").
			WithCode(goerrors.CodeInternal)
	}

	if pubErr := s.publish(ctx, events.NewRegistration(user.Email, user.Nome, descUserCreated, true)); pubErr != nil {
		return nil, pubErr
	}

	s.logger.Info(ctx, "user registered", "email", user.Email, "id", user.ID.String())

	return &RegisterResult{Message: MsgRegisterSuccess}, nil
}
