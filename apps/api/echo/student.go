package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core/auth"
	"github.com/kazimoto/shule/core/profile"
	"github.com/kazimoto/shule/core/student"
)

type studentApi struct {
	deps ServerDeps
}

func registerStudentAPI(g *echo.Group, deps ServerDeps) {
	api := studentApi{deps: deps}

	staffOpts := auth.Options{RequireRoles: []string{profile.RoleTeacher, profile.RoleAdmin}}
	writeOpts := auth.Options{RequireRoles: []string{profile.RoleAdmin}, RequireWriteAccess: true}

	sg := g.Group("/students",
		rateLimitMiddleware(deps.Limiter, actionStudent, studentLimit, rateLimitWindow))
	sg.GET("", api.query, authMiddleware(deps.Guard, staffOpts))
	sg.GET("/:id", api.retrieve, authMiddleware(deps.Guard, staffOpts))
	sg.POST("", api.create, authMiddleware(deps.Guard, writeOpts))
	sg.PUT("/:id", api.update, authMiddleware(deps.Guard, writeOpts))
	sg.DELETE("/:id", api.destroy, authMiddleware(deps.Guard, writeOpts))
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	s, err := api.deps.StudentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()

	students, err := api.deps.StudentSvc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := api.deps.StudentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	s, err := api.deps.StudentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(s, api.deps.Validate); err != nil {
		return err
	}

	s, err = api.deps.StudentSvc.Update(ctx.Request().Context(), s.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	actor, err := contextProfile(ctx)
	if err != nil {
		return err
	}

	if err = api.deps.StudentSvc.Delete(ctx.Request().Context(), ctx.Param("id"), actor.ID, actor.Email); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
