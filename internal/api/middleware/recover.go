package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

// Recover turns a panicking handler into a 500 response. Decoders for
// uploaded frames are the usual suspects.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error("panic recovered",
				slog.String("request_id", requestID(c)),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = writeError(c, domain.ErrInternal.WithError(fmt.Errorf("panic: %v", r)))
		}()

		return c.Next()
	}
}
