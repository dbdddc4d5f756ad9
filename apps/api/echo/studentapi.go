package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/user"
)

type studentApi struct {
	deps *ServerDeps
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := studentApi{deps: deps}

	sg := g.Group("/student", jwt, requireRole(user.RoleStudent, deps))

	sg.GET("/profile", api.profile)
	sg.GET("/attendance", api.attendance)
	sg.GET("/fees", api.fees)
	sg.GET("/assignments", api.queryAssignments)
	sg.POST("/assignments/:id/submit", api.submit)
}

// Handlers

func (api *studentApi) profile(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, contextStudent(ctx))
}

// attendance returns the caller's records for one month with the attendance
// percentage; the current month is the default.
func (api *studentApi) attendance(ctx echo.Context) error {
	month, err := queryMonth(ctx)
	if err != nil {
		return err
	}
	std := contextStudent(ctx)

	from, to := month.Range()
	records, err := api.deps.AttendanceSvc.ListByStudent(ctx.Request().Context(), std.ID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	var present int
	for _, rec := range records {
		if rec.Status == attendance.StatusPresent {
			present++
		}
	}
	return ctx.JSON(http.StatusOK, StudentAttendanceResponse{
		Month:   month.String(),
		Records: records,
		Present: present,
		Total:   len(records),
		Percent: report.AttendancePercent(present, len(records)),
	})
}

func (api *studentApi) fees(ctx echo.Context) error {
	std := contextStudent(ctx)
	reqCtx := ctx.Request().Context()

	fees, err := api.deps.FeeSvc.ListByStudent(reqCtx, std.ID)
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	totals, err := api.deps.ReportSvc.StudentFeeTotals(reqCtx, std.ID)
	if err != nil {
		return errors.Wrap(err, "computing fee totals")
	}
	if fees == nil {
		fees = []fee.Fee{}
	}
	return ctx.JSON(http.StatusOK, StudentFeesResponse{Fees: fees, Totals: totals})
}

// queryAssignments lists the caller's class assignments with their own
// submission state attached.
func (api *studentApi) queryAssignments(ctx echo.Context) error {
	std := contextStudent(ctx)
	reqCtx := ctx.Request().Context()

	assignments, err := api.deps.AssignmentSvc.ListByClass(reqCtx, std.SchoolID, std.ClassName)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}

	items := make([]StudentAssignment, 0, len(assignments))
	for _, asg := range assignments {
		item := StudentAssignment{Assignment: asg}
		sub, err := api.deps.AssignmentSvc.GetStudentSubmission(reqCtx, asg.ID, std.ID)
		switch errors.Cause(err) {
		case nil:
			item.Submission = &sub
		case assignment.ErrSubmissionNotFound:
		default:
			return errors.Wrap(err, "finding submission")
		}
		items = append(items, item)
	}
	return ctx.JSON(http.StatusOK, items)
}

// submit records the caller's response; resubmitting is allowed until the
// submission is graded.
func (api *studentApi) submit(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	std := contextStudent(ctx)
	reqCtx := ctx.Request().Context()

	asg, err := api.deps.AssignmentSvc.GetByID(reqCtx, id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding assignment by ID")
	}
	// the assignment must be addressed to the caller's class
	if asg.SchoolID != std.SchoolID || asg.ClassName != std.ClassName {
		return errHttpNotFound
	}

	sub, err := api.deps.AssignmentSvc.Submit(reqCtx, std, asg.ID)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusOK, sub)
}

type (
	StudentAttendanceResponse struct {
		Month   string              `json:"month"`
		Records []attendance.Record `json:"records"`
		Present int                 `json:"present"`
		Total   int                 `json:"total"`
		Percent float64             `json:"percent"`
	}

	StudentAssignment struct {
		assignment.Assignment
		Submission *assignment.Submission `json:"submission,omitempty"`
	}
)
