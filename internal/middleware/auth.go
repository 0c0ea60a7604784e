package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/blockrelease/internal/services"
	"github.com/localnerve/blockrelease/internal/types"
)

// ActorKey is the Locals key holding the authenticated actor id
const ActorKey = "actor"

// Actor authenticates the request with provider and stores the actor id in
// c.Locals(ActorKey). Requests without a usable credential get a 401.
func Actor(provider services.IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creds := credentials(c)

		identity, err := provider.Authenticate(c.UserContext(), creds)
		if err != nil {
			code := fiber.StatusUnauthorized
			if !errors.Is(err, services.ErrUnauthenticated) {
				code = fiber.StatusForbidden
			}
			return &types.CustomError{
				Code:    code,
				Message: fmt.Sprintf("Authentication failed (%s): %v", provider.Name(), err),
				Type:    "authentication." + provider.Name(),
				Err:     err,
			}
		}

		c.Locals(ActorKey, identity.ActorID)
		return c.Next()
	}
}

// ActorID returns the actor set by Actor, or "".
func ActorID(c *fiber.Ctx) string {
	actor, _ := c.Locals(ActorKey).(string)
	return actor
}

func credentials(c *fiber.Ctx) services.Credentials {
	bearer := c.Cookies("admin_token")
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			bearer = strings.TrimSpace(token)
		}
	}
	return services.Credentials{
		SessionCookie: c.Cookies("cookie_session"),
		BearerToken:   bearer,
		ActorHeader:   c.Get("X-Actor-Id"),
		Origin:        c.BaseURL(),
	}
}
