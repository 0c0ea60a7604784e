package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/blockrelease/internal/tracing"
)

// Trace wraps each request in a span and hands the span context to handlers
// through c.UserContext().
func Trace() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, span := tracing.StartSpan(c.UserContext(), "http "+c.Method()+" "+c.Path())
		c.SetUserContext(ctx)

		err := c.Next()

		span.WithAttributes(map[string]string{
			"http.method": c.Method(),
			"http.route":  c.Route().Path,
			"http.status": strconv.Itoa(c.Response().StatusCode()),
		})
		tracing.EndSpan(span, err)
		return err
	}
}
