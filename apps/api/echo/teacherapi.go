package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/user"
)

type teacherApi struct {
	deps *ServerDeps
}

func registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := teacherApi{deps: deps}

	tg := g.Group("/teacher", jwt, requireRole(user.RoleTeacher, deps))

	tg.GET("/stats", api.stats)

	tg.GET("/assignments", api.queryAssignments)
	tg.POST("/assignments", api.createAssignment)
	tg.GET("/assignments/:id", api.retrieveAssignment)
	tg.PUT("/assignments/:id", api.updateAssignment)
	tg.DELETE("/assignments/:id", api.destroyAssignment)
	tg.GET("/assignments/:id/submissions", api.querySubmissions)

	tg.POST("/submissions/:id/grade", api.gradeSubmission)

	tg.GET("/reports/performance", api.performanceReport)
	tg.GET("/reports/summary", api.summaryReport)
	tg.GET("/reports/attendance", api.attendanceReport)
}

// getAssignment fetches an assignment by path id and enforces both the tenant
// and the owning teacher.
func (api *teacherApi) getAssignment(ctx echo.Context) (assignment.Assignment, error) {
	id, err := pathID(ctx)
	if err != nil {
		return assignment.Assignment{}, err
	}
	asg, err := api.deps.AssignmentSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return assignment.Assignment{}, errHttpNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment by ID")
	}
	target := access.Target{SchoolID: asg.SchoolID, OwnerTeacherID: asg.TeacherID}
	if err = checkTarget(ctx, user.RoleTeacher, target); err != nil {
		return assignment.Assignment{}, err
	}
	return asg, nil
}

// Handlers

func (api *teacherApi) stats(ctx echo.Context) error {
	stats, err := api.deps.ReportSvc.TeacherStats(ctx.Request().Context(), contextTeacher(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "computing teacher stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *teacherApi) queryAssignments(ctx echo.Context) error {
	assignments, err := api.deps.AssignmentSvc.ListByTeacher(ctx.Request().Context(), contextTeacher(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

// createAssignment issues an assignment for one of the caller's classes; the
// subject comes from the caller's profile.
func (api *teacherApi) createAssignment(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	asg, err := api.deps.AssignmentSvc.Create(ctx.Request().Context(), contextTeacher(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *teacherApi) retrieveAssignment(ctx echo.Context) error {
	asg, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *teacherApi) updateAssignment(ctx echo.Context) error {
	asg, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}

	var data assignment.UpdateAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err = data.Validate(asg, api.deps.Validate); err != nil {
		return err
	}

	asg, err = api.deps.AssignmentSvc.Update(ctx.Request().Context(), asg.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, asg)
}

// destroyAssignment removes the assignment and all its submissions.
func (api *teacherApi) destroyAssignment(ctx echo.Context) error {
	asg, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.AssignmentSvc.Delete(ctx.Request().Context(), asg.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) querySubmissions(ctx echo.Context) error {
	asg, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}
	subs, err := api.deps.AssignmentSvc.ListSubmissions(ctx.Request().Context(), asg.ID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []assignment.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

// gradeSubmission sets grade and feedback; only the owning teacher passes the
// gate.
func (api *teacherApi) gradeSubmission(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	sub, err := api.deps.AssignmentSvc.GetSubmission(reqCtx, id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrSubmissionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding submission by ID")
	}
	asg, err := api.deps.AssignmentSvc.GetByID(reqCtx, sub.AssignmentID)
	if err != nil {
		return errors.Wrap(err, "finding submission's assignment")
	}
	target := access.Target{SchoolID: asg.SchoolID, OwnerTeacherID: asg.TeacherID}
	if err = checkTarget(ctx, user.RoleTeacher, target); err != nil {
		return err
	}

	var data assignment.GradeSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sub, err = api.deps.AssignmentSvc.Grade(reqCtx, sub.ID, data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *teacherApi) performanceReport(ctx echo.Context) error {
	breakdown, err := api.deps.ReportSvc.ClassPerformance(ctx.Request().Context(), contextTeacher(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "computing class performance")
	}
	return ctx.JSON(http.StatusOK, breakdown)
}

func (api *teacherApi) summaryReport(ctx echo.Context) error {
	sum, err := api.deps.ReportSvc.TeacherSummary(ctx.Request().Context(), contextTeacher(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "computing teacher summary")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *teacherApi) attendanceReport(ctx echo.Context) error {
	class := core.CleanString(ctx.QueryParam("class"))
	if class == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "class", Error: "class is required"})
	}
	month, err := queryMonth(ctx)
	if err != nil {
		return err
	}

	rep, err := api.deps.ReportSvc.AttendanceReport(ctx.Request().Context(), contextTeacher(ctx).SchoolID, class, month)
	if err != nil {
		return errors.Wrap(err, "computing attendance report")
	}
	return ctx.JSON(http.StatusOK, rep)
}
