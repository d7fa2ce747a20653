package echoapi

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/ratelimit"
)

var errTooManyRequests = core.NewError(core.KindRateLimited, "ratelimit/exceeded", "too many requests, try again later")

// per-action admission limits
const (
	inviteCreateLimit  = 10
	inviteVerifyLimit  = 20
	inviteAcceptLimit  = 5
	adminReadLimit     = 60
	adminMutateLimit   = 10
	recoveryLimit      = 20
	studentLimit       = 120
	rateLimitWindow    = time.Minute
	actionInviteCreate = "invite-create"
	actionInviteVerify = "invite-verify"
	actionInviteAccept = "invite-accept"
	actionAdminRead    = "admin-read"
	actionAdminMutate  = "admin-mutate"
	actionRecovery     = "recovery"
	actionStudent      = "student"
)

// rateLimitMiddleware gates an action behind the sliding-window limiter,
// keyed on the caller's forwarded address. Rejections carry a Retry-After
// hint rounded up to whole seconds.
func rateLimitMiddleware(limiter *ratelimit.Limiter, action string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			identity := ratelimit.ClientIdentity(ctx.Request())
			res := limiter.Check(identity, action, limit, window)
			if !res.Allowed {
				retryAfter := int(math.Ceil(res.ResetIn.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				ctx.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}
