package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core/auth"
	"github.com/kazimoto/shule/core/profile"
	"github.com/kazimoto/shule/core/recovery"
)

type recoveryApi struct {
	deps ServerDeps
}

// registerRecoveryAPI mounts the data-recovery surface. It is super-admin
// only: restores rewrite live collections.
func registerRecoveryAPI(g *echo.Group, deps ServerDeps) {
	api := recoveryApi{deps: deps}

	rg := g.Group("/recovery",
		rateLimitMiddleware(deps.Limiter, actionRecovery, recoveryLimit, rateLimitWindow),
		authMiddleware(deps.Guard, auth.Options{
			RequireRoles:       []string{profile.RoleSuperAdmin},
			RequireWriteAccess: true,
		}))
	rg.GET("/deleted", api.queryDeleted)
	rg.POST("/deleted/:id/restore", api.restore)
	rg.GET("/suspensions", api.listSuspensions)
	rg.POST("/suspensions/:id", api.suspend)
	rg.DELETE("/suspensions/:id", api.reinstate)
}

// Handlers

func (api *recoveryApi) queryDeleted(ctx echo.Context) error {
	filter := new(recovery.Filter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}

	entries, total, err := api.deps.RecoverySvc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying recovery entries")
	}
	return ctx.JSON(http.StatusOK, recoveryPageResponse{Entries: entries, Total: total})
}

func (api *recoveryApi) restore(ctx echo.Context) error {
	actor, err := contextProfile(ctx)
	if err != nil {
		return err
	}

	entry, err := api.deps.RecoverySvc.Restore(ctx.Request().Context(), ctx.Param("id"), actor.ID, actor.Email)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *recoveryApi) listSuspensions(ctx echo.Context) error {
	suspended, err := api.deps.RecoverySvc.ListActiveSuspensions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing suspensions")
	}
	return ctx.JSON(http.StatusOK, suspended)
}

func (api *recoveryApi) suspend(ctx echo.Context) error {
	p, err := api.deps.RecoverySvc.Suspend(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *recoveryApi) reinstate(ctx echo.Context) error {
	p, err := api.deps.RecoverySvc.Reinstate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

// Responses

type recoveryPageResponse struct {
	Entries []recovery.Entry `json:"entries"`
	Total   int              `json:"total"`
}
