package identity

import (
	"regexp"
	"strings"
	"unicode/utf8"

	goerrors "github.com/goliatone/go-errors"
)

// MaxNomeLength is the maximum accepted display-name length, in runes.
const MaxNomeLength = 50

// MinSenhaLength is the minimum accepted password length.
const MinSenhaLength = 8

// Validation rule errors. Each rule fails with its own error so callers can
// surface the specific rule that was violated.
var (
	ErrEmailRequired = goerrors.New("E-mail é obrigatório.", goerrors.CategoryValidation).
				WithTextCode("EMAIL_REQUIRED").
				WithCode(goerrors.CodeBadRequest)

	ErrEmailInvalid = goerrors.New(
		"E-mail inválido. Deve ter pelo menos 8 caracteres antes do @ e um domínio válido.",
		goerrors.CategoryValidation,
	).
		WithTextCode("EMAIL_INVALID").
		WithCode(goerrors.CodeBadRequest)

	ErrNomeRequired = goerrors.New("Nome é obrigatório.", goerrors.CategoryValidation).
			WithTextCode("NOME_REQUIRED").
			WithCode(goerrors.CodeBadRequest)

	ErrNomeTooLong = goerrors.New("Nome não pode ter mais que 50 caracteres.", goerrors.CategoryValidation).
			WithTextCode("NOME_TOO_LONG").
			WithCode(goerrors.CodeBadRequest)

	ErrSenhaRequired = goerrors.New("Senha é obrigatória.", goerrors.CategoryValidation).
				WithTextCode("SENHA_REQUIRED").
				WithCode(goerrors.CodeBadRequest)

	ErrSenhaTooShort = goerrors.New("Senha deve ter no mínimo 8 caracteres.", goerrors.CategoryValidation).
				WithTextCode("SENHA_TOO_SHORT").
				WithCode(goerrors.CodeBadRequest)

	ErrSenhaMissingDigit = goerrors.New("Senha deve conter pelo menos um número.", goerrors.CategoryValidation).
				WithTextCode("SENHA_MISSING_DIGIT").
				WithCode(goerrors.CodeBadRequest)

	ErrSenhaMissingLetter = goerrors.New("Senha deve conter pelo menos uma letra.", goerrors.CategoryValidation).
				WithTextCode("SENHA_MISSING_LETTER").
				WithCode(goerrors.CodeBadRequest)

	ErrSenhaMissingUpper = goerrors.New("Senha deve conter pelo menos uma letra maiúscula.", goerrors.CategoryValidation).
				WithTextCode("SENHA_MISSING_UPPER").
				WithCode(goerrors.CodeBadRequest)

	ErrSenhaMissingSpecial = goerrors.New("Senha deve conter pelo menos um caractere especial.", goerrors.CategoryValidation).
				WithTextCode("SENHA_MISSING_SPECIAL").
				WithCode(goerrors.CodeBadRequest)
)

// emailRe requires a local part of at least 8 characters, an @, and a dotted
// domain, with no whitespace anywhere.
var emailRe = regexp.MustCompile(`^[^@\s]{8,}@[^@\s]+\.[^@\s]+$`)

var (
	senhaDigitRe   = regexp.MustCompile(`[0-9]`)
	senhaLetterRe  = regexp.MustCompile(`[a-zA-Z]`)
	senhaUpperRe   = regexp.MustCompile(`[A-Z]`)
	senhaSpecialRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// ValidateEmail checks the login/email shape. The local part must have at
// least 8 characters and the domain must carry a TLD.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}

	if !emailRe.MatchString(email) {
		return ErrEmailInvalid
	}

	return nil
}

// ValidateNome checks the display name: non-blank and at most 50 runes.
func ValidateNome(nome string) error {
	if strings.TrimSpace(nome) == "" {
		return ErrNomeRequired
	}

	if utf8.RuneCountInString(nome) > MaxNomeLength {
		return ErrNomeTooLong
	}

	return nil
}

// ValidateSenha applies the credential policy: at least 8 characters with at
// least one digit, one letter, one uppercase letter, and one character outside
// [A-Za-z0-9]. It reports the first missing category.
func ValidateSenha(senha string) error {
	if strings.TrimSpace(senha) == "" {
		return ErrSenhaRequired
	}

	if len(senha) < MinSenhaLength {
		return ErrSenhaTooShort
	}

	if !senhaDigitRe.MatchString(senha) {
		return ErrSenhaMissingDigit
	}

	if !senhaLetterRe.MatchString(senha) {
		return ErrSenhaMissingLetter
	}

	if !senhaUpperRe.MatchString(senha) {
		return ErrSenhaMissingUpper
	}

	if !senhaSpecialRe.MatchString(senha) {
		return ErrSenhaMissingSpecial
	}

	return nil
}
