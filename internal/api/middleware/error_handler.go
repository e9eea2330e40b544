package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

// ErrorHandler renders every handler error as {"error":{"code","message"}}.
// The wrapped cause of an AppError is logged, never returned to the client.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := asAppError(err)

		if appErr.StatusCode >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("request_id", requestID(c)),
				slog.String("path", c.Path()),
				slog.String("code", appErr.Code),
				slog.Any("error", err),
			)
		}

		return writeError(c, appErr)
	}
}

func asAppError(err error) *domain.AppError {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// routing errors (404, 405, body too large) come from fiber itself
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &domain.AppError{
			Code:       "HTTP_ERROR",
			Message:    fiberErr.Message,
			StatusCode: fiberErr.Code,
		}
	}

	return domain.ErrInternal.WithError(err)
}

func writeError(c *fiber.Ctx, appErr *domain.AppError) error {
	return c.Status(appErr.StatusCode).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

func requestID(c *fiber.Ctx) string {
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
