package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/kazimoto/shule/core/auth"
	"github.com/kazimoto/shule/core/profile"
)

var contextAuthKey = "auth"

// authMiddleware authenticates the request via the Guard and stores the
// resulting auth.Auth in the echo context for handlers downstream.
func authMiddleware(guard *auth.Guard, opts auth.Options) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			a, err := guard.Authenticate(
				ctx.Request().Context(),
				ctx.Request().Header.Get(echo.HeaderAuthorization),
				opts,
			)
			if err != nil {
				return err
			}
			ctx.Set(contextAuthKey, a)
			return next(ctx)
		}
	}
}

func contextAuth(ctx echo.Context) (auth.Auth, error) {
	if a, ok := ctx.Get(contextAuthKey).(auth.Auth); ok {
		return a, nil
	}
	return auth.Auth{}, errUnauthorized
}

// contextProfile returns the caller's stored Profile; it fails for callers
// admitted via AllowMissingProfile.
func contextProfile(ctx echo.Context) (profile.Profile, error) {
	a, err := contextAuth(ctx)
	if err != nil {
		return profile.Profile{}, err
	}
	if a.Profile == nil {
		return profile.Profile{}, errUnauthorized
	}
	return *a.Profile, nil
}
