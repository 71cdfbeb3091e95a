// Package httpapi exposes the authentication flows over HTTP. The surface is
// deliberately thin: handlers decode the payload, delegate to a flow, and
// translate the outcome.
package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/fcglabs/authd/internal/audit"
	"github.com/fcglabs/authd/internal/flows"
	"github.com/fcglabs/authd/internal/logging"
)

// AuthFlows is the flow surface the handlers drive.
type AuthFlows interface {
	Register(ctx context.Context, input flows.RegisterInput) (*flows.RegisterResult, error)
	Login(ctx context.Context, input flows.LoginInput) (*flows.LoginResult, error)
	ChangePassword(ctx context.Context, login string, input flows.ChangePasswordInput) (*flows.ChangePasswordResult, error)
}

// AuditLog lists the persisted audit trail.
type AuditLog interface {
	ListAll(ctx context.Context) ([]*audit.Record, error)
}

type Server struct {
	app    *fiber.App
	flows  AuthFlows
	log    AuditLog
	tokens TokenValidator
	logger logging.Logger
}

type Option func(*Server)

func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewServer(authFlows AuthFlows, log AuditLog, tokens TokenValidator, opts ...Option) *Server {
	s := &Server{
		flows:  authFlows,
		log:    log,
		tokens: tokens,
		logger: logging.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Use(Correlation())

	auth := s.app.Group("/auth")
	auth.Post("/register", s.handleRegister)
	auth.Post("/login", s.handleLogin)
	auth.Post("/change-password", RequireAuth(s.tokens), s.handleChangePassword)
	auth.Post("/list-events", s.handleListEvents)
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var input flows.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "corpo da requisição inválido").
			WithCode(goerrors.CodeBadRequest))
	}

	result, err := s.flows.Register(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(result)
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var input flows.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "corpo da requisição inválido").
			WithCode(goerrors.CodeBadRequest))
	}

	result, err := s.flows.Login(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(result)
}

func (s *Server) handleChangePassword(c *fiber.Ctx) error {
	var input flows.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "corpo da requisição inválido").
			WithCode(goerrors.CodeBadRequest))
	}

	login := claimsFromLocals(c)

	result, err := s.flows.ChangePassword(c.UserContext(), login, input)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(result)
}

func (s *Server) handleListEvents(c *fiber.Ctx) error {
	records, err := s.log.ListAll(c.UserContext())
	if err != nil {
		s.logger.Error(c.UserContext(), "failed to list audit records", "error", err)
		return writeError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list audit records"))
	}

	return c.JSON(records)
}
