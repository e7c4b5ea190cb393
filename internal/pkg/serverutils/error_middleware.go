package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"cardforge-be/internal/pkg/security"
)

// ErrorHandlerMiddleware converts errors escaping controllers into the
// error envelope. Unknown errors become opaque 500s; their detail goes to
// the log, not the client.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *AppError
		if errors.As(err, &appErr) {
			body := ErrorResponse(appErr.Message, appErr.Code)
			body.Hint = appErr.Hint
			return ctx.Status(appErr.Status).JSON(body)
		}

		var blocked *security.BlockedError
		if errors.As(err, &blocked) {
			return ctx.Status(fiber.StatusForbidden).
				JSON(ErrorResponse(blocked.Message, string(blocked.Reason)))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).
				JSON(ErrorResponse(fiberErr.Message, CodeInternalError))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse("An unexpected error occurred", CodeInternalError))
	}
}
