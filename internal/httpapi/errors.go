package httpapi

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

const msgInternalError = "Ocorreu um erro interno."

// writeError maps a domain error to an HTTP response. Validation, rule, and
// conflict failures answer 400 with the specific message; authentication
// failures answer 401 with their generic message; everything else collapses
// into a 500 that exposes no internal detail.
func writeError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": msgInternalError,
		})
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": richErr.Message,
		})
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": richErr.Message,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": msgInternalError,
		})
	}
}
