package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/auth"
	"github.com/kazimoto/shule/core/invite"
	"github.com/kazimoto/shule/core/profile"
)

type inviteApi struct {
	deps ServerDeps
}

func registerInviteAPI(g *echo.Group, deps ServerDeps) {
	api := inviteApi{deps: deps}

	ig := g.Group("/invites")

	// un-authed endpoints
	ig.GET("/verify", api.verify,
		rateLimitMiddleware(deps.Limiter, actionInviteVerify, inviteVerifyLimit, rateLimitWindow))

	// any verified identity may redeem; a Profile is not required yet
	ig.POST("/accept", api.accept,
		rateLimitMiddleware(deps.Limiter, actionInviteAccept, inviteAcceptLimit, rateLimitWindow),
		authMiddleware(deps.Guard, auth.Options{AllowMissingProfile: true}))

	// admin endpoints
	ig.GET("", api.query,
		authMiddleware(deps.Guard, auth.Options{RequireRoles: []string{profile.RoleAdmin}}))
	ig.POST("", api.create,
		rateLimitMiddleware(deps.Limiter, actionInviteCreate, inviteCreateLimit, rateLimitWindow),
		authMiddleware(deps.Guard, auth.Options{RequireRoles: []string{profile.RoleAdmin}, RequireWriteAccess: true}))
}

// Handlers

func (api *inviteApi) create(ctx echo.Context) error {
	var data invite.NewInvite
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvite")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	a, err := contextAuth(ctx)
	if err != nil {
		return err
	}

	inv, err := api.deps.InviteSvc.Issue(ctx.Request().Context(), data, a.Claims.UID)
	if err != nil {
		return errors.Wrap(err, "issuing invite")
	}
	return ctx.JSON(http.StatusCreated, inv)
}

func (api *inviteApi) verify(ctx echo.Context) error {
	token := core.CleanString(ctx.QueryParam("token"))
	if token == "" {
		return invite.ErrNotFound
	}

	inv, err := api.deps.InviteSvc.Verify(ctx.Request().Context(), token)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *inviteApi) accept(ctx echo.Context) error {
	var data acceptInviteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to acceptInviteRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	a, err := contextAuth(ctx)
	if err != nil {
		return err
	}

	prof, err := api.deps.InviteSvc.Accept(ctx.Request().Context(), data.Token, a)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *inviteApi) query(ctx echo.Context) error {
	invites, err := api.deps.InviteSvc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying invites")
	}
	return ctx.JSON(http.StatusOK, invites)
}

// Requests

type acceptInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

func (r *acceptInviteRequest) Validate(validate *validator.Validate) error {
	r.Token = core.CleanString(r.Token)
	return validate.Struct(r)
}
