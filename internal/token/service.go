// Package token issues and validates the signed bearer credentials handed out
// after a successful login. The service is stateless: validity is decided by
// the signature and the expiration claim alone, there is no revocation table.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"

	"github.com/fcglabs/authd/internal/identity"
	"github.com/fcglabs/authd/internal/logging"
)

// MinSigningKeyLength mirrors the startup requirement on the symmetric key.
const MinSigningKeyLength = 32

// clockSkew absorbs clock drift between issuer and verifier.
const clockSkew = 5 * time.Minute

var (
	// ErrSigningKeyTooShort is a fatal configuration condition.
	ErrSigningKeyTooShort = goerrors.New(
		"JWT Key não configurada ou inválida. A chave deve ter pelo menos 32 caracteres.",
		goerrors.CategoryBadInput,
	).WithTextCode("SIGNING_KEY_TOO_SHORT")

	// ErrTokenExpired marks a token past its expiration claim.
	ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
			WithTextCode("TOKEN_EXPIRED").
			WithCode(goerrors.CodeUnauthorized)

	// ErrTokenMalformed covers every other verification failure.
	ErrTokenMalformed = goerrors.New("token is malformed or invalid", goerrors.CategoryAuth).
				WithTextCode("TOKEN_MALFORMED").
				WithCode(goerrors.CodeUnauthorized)
)

// Claims carried by every issued token.
type Claims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Nome     string `json:"nome,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Service signs and verifies bearer tokens with a symmetric key.
type Service struct {
	signingKey []byte
	duration   time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     logging.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, useful for tests.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService builds a token Service. A signing key shorter than
// MinSigningKeyLength is rejected so the caller can refuse to start.
func NewService(signingKey string, duration time.Duration, issuer string, audience []string, opts ...Option) (*Service, error) {
	if len(signingKey) < MinSigningKeyLength {
		return nil, ErrSigningKeyTooShort
	}

	if duration <= 0 {
		return nil, goerrors.New("token duration must be positive", goerrors.CategoryBadInput)
	}

	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	s := &Service{
		signingKey: []byte(signingKey),
		duration:   duration,
		issuer:     issuer,
		audience:   aud,
		logger:     logging.Nop(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Issue signs a token for the user and returns it with its expiration instant.
func (s *Service) Issue(user *identity.User, role string) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, goerrors.New("identity is required", goerrors.CategoryBadInput)
	}

	now := s.now()
	expiresAt := now.Add(s.duration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			Audience:  s.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:      user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Nome:     user.Nome,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, expiresAt, nil
}

// Validate parses a raw token, checking signature, issuer, audience, and
// expiration (with clock-skew leeway), and returns the structured claims.
func (s *Service) Validate(raw string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(s.issuer))
	}
	if len(s.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(s.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
