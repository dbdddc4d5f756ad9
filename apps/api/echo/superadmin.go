package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type superAdminApi struct {
	deps *ServerDeps
}

func registerSuperAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := superAdminApi{deps: deps}

	sg := g.Group("/super-admin", jwt, requireRole(user.RoleSuperAdmin, deps))

	sg.GET("/stats", api.stats)

	sg.GET("/schools", api.querySchools)
	sg.POST("/schools", api.createSchool)
	sg.GET("/schools/:id", api.retrieveSchool)
	sg.PUT("/schools/:id", api.updateSchool)
	sg.DELETE("/schools/:id", api.destroySchool)

	sg.GET("/admins", api.queryAdmins)
	sg.POST("/admins/:id/toggle", api.toggleAdmin)
}

// pathID parses the ":id" path param; any garbage reads as "no such thing".
func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// Handlers

func (api *superAdminApi) stats(ctx echo.Context) error {
	stats, err := api.deps.ReportSvc.PlatformStats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing platform stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *superAdminApi) querySchools(ctx echo.Context) error {
	schools, err := api.deps.SchoolSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, schools)
}

// createSchool provisions a school and its school_admin account atomically.
func (api *superAdminApi) createSchool(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.deps.Validate, api.deps.SchoolSvc); err != nil {
		return err
	}

	sch, err := api.deps.SchoolSvc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *superAdminApi) retrieveSchool(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	sch, err := api.deps.SchoolSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding school by ID")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *superAdminApi) updateSchool(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	sch, err := api.deps.SchoolSvc.GetByID(reqCtx, id)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding school by ID")
	}

	var data school.UpdateSchool
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err = data.Validate(sch, api.deps.Validate); err != nil {
		return err
	}

	sch, err = api.deps.SchoolSvc.Update(reqCtx, sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

// destroySchool removes the school row; the admin account survives and shows
// up under "No School".
func (api *superAdminApi) destroySchool(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if _, err = api.deps.SchoolSvc.GetByID(reqCtx, id); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding school by ID")
	}
	if err = api.deps.SchoolSvc.Delete(reqCtx, id); err != nil {
		return errors.Wrap(err, "deleting school")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *superAdminApi) queryAdmins(ctx echo.Context) error {
	admins, err := api.deps.SchoolSvc.Admins(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying admins")
	}
	if admins == nil {
		admins = []school.Admin{}
	}
	return ctx.JSON(http.StatusOK, admins)
}

func (api *superAdminApi) toggleAdmin(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	usr, err := api.deps.UserSvc.GetByID(reqCtx, id)
	if err != nil || !usr.IsSchoolAdmin() {
		if err != nil && errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "finding user by ID")
		}
		return errHttpNotFound
	}

	usr, err = api.deps.SchoolSvc.ToggleAdmin(reqCtx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "toggling admin")
	}
	return ctx.JSON(http.StatusOK, usr)
}
