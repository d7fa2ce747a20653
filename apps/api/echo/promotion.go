package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/auth"
	"github.com/kazimoto/shule/core/profile"
	"github.com/kazimoto/shule/core/promotion"
)

type promotionApi struct {
	deps ServerDeps
}

func registerPromotionAPI(g *echo.Group, deps ServerDeps) {
	api := promotionApi{deps: deps}

	ag := g.Group("/admins",
		rateLimitMiddleware(deps.Limiter, actionAdminRead, adminReadLimit, rateLimitWindow),
		authMiddleware(deps.Guard, auth.Options{RequireRoles: []string{profile.RoleAdmin}}))
	ag.GET("", api.listAdmins)
	ag.GET("/promotable", api.listPromotable)
	ag.GET("/:id/history", api.history)

	// mutations are gated one tier above the role they manipulate, and
	// additionally require effective write access
	wg := g.Group("/admins",
		rateLimitMiddleware(deps.Limiter, actionAdminMutate, adminMutateLimit, rateLimitWindow),
		authMiddleware(deps.Guard, auth.Options{
			RequireRoles:       []string{profile.RoleSuperAdmin},
			RequireWriteAccess: true,
		}))
	wg.POST("/:id/promote", api.promote)
	wg.POST("/:id/demote", api.demote)
}

// Handlers

func (api *promotionApi) listAdmins(ctx echo.Context) error {
	admins, err := api.deps.PromotionSvc.ListAdmins(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing admins")
	}
	return ctx.JSON(http.StatusOK, admins)
}

func (api *promotionApi) listPromotable(ctx echo.Context) error {
	promotable, err := api.deps.PromotionSvc.ListPromotable(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing promotable profiles")
	}
	return ctx.JSON(http.StatusOK, promotable)
}

func (api *promotionApi) promote(ctx echo.Context) error {
	return api.mutate(ctx, api.deps.PromotionSvc.Promote, "promoted to admin")
}

func (api *promotionApi) demote(ctx echo.Context) error {
	return api.mutate(ctx, api.deps.PromotionSvc.Demote, "demoted from admin")
}

// mutate runs one promotion-path mutation and renders the uniform response
// envelope. Precondition failures are reported as a structured non-success
// payload rather than a bare error, so the admin UI can surface them inline.
func (api *promotionApi) mutate(
	ctx echo.Context,
	op func(ctx context.Context, subjectID, actorID, actorEmail, reason string) (promotion.Record, error),
	message string,
) error {
	var data promotionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to promotionRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	actor, err := contextProfile(ctx)
	if err != nil {
		return err
	}

	rec, err := op(ctx.Request().Context(), ctx.Param("id"), actor.ID, actor.Email, data.Reason)
	if err != nil {
		if appErr, ok := core.AsError(err); ok && appErr.Kind == core.KindConflict {
			return ctx.JSON(http.StatusBadRequest, promotionResponse{Success: false, Error: appErr.Error()})
		}
		return err
	}
	return ctx.JSON(http.StatusOK, promotionResponse{Success: true, Message: message, Promotion: &rec})
}

func (api *promotionApi) history(ctx echo.Context) error {
	records, err := api.deps.PromotionSvc.History(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying promotion history")
	}
	return ctx.JSON(http.StatusOK, records)
}

// Requests & Responses

type promotionRequest struct {
	Reason string `json:"reason"`
}

func (r *promotionRequest) Validate(validate *validator.Validate) error {
	r.Reason = core.CleanString(r.Reason)
	return validate.Struct(r)
}

type promotionResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	Promotion *promotion.Record `json:"promotion,omitempty"`
}
