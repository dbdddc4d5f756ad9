package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/user"
)

type schoolAdminApi struct {
	deps *ServerDeps
}

func registerSchoolAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := schoolAdminApi{deps: deps}

	ag := g.Group("/school-admin", jwt, requireRole(user.RoleSchoolAdmin, deps))

	ag.GET("/stats", api.stats)
	ag.GET("/school", api.retrieveSchool)
	ag.PUT("/school", api.updateSchool)

	ag.GET("/students", api.queryStudents)
	ag.POST("/students", api.createStudent)
	ag.POST("/students/import", api.importStudents)
	ag.GET("/students/classes", api.queryClassNames)
	ag.GET("/students/:id", api.retrieveStudent)
	ag.PUT("/students/:id", api.updateStudent)
	ag.DELETE("/students/:id", api.destroyStudent)
	ag.GET("/students/:id/fees", api.studentFees)

	ag.GET("/teachers", api.queryTeachers)
	ag.POST("/teachers", api.createTeacher)
	ag.GET("/teachers/:id", api.retrieveTeacher)
	ag.PUT("/teachers/:id", api.updateTeacher)
	ag.DELETE("/teachers/:id", api.destroyTeacher)

	ag.POST("/attendance", api.recordAttendance)
	ag.GET("/attendance", api.attendanceDay)

	ag.POST("/fees", api.createFee)
	ag.GET("/fees", api.queryFees)
	ag.POST("/fees/:id/pay", api.payFee)

	ag.GET("/reports/attendance", api.attendanceReport)
	ag.GET("/reports/fees", api.feeReport)
}

// checkTarget runs gate rules 4-5 against a fetched snapshot.
func checkTarget(ctx echo.Context, required user.Role, t access.Target) error {
	return access.Check(contextCaller(ctx), required, &t).Err()
}

// getStudent fetches a student by path id and enforces the caller's tenant.
func (api *schoolAdminApi) getStudent(ctx echo.Context) (student.Student, error) {
	id, err := pathID(ctx)
	if err != nil {
		return student.Student{}, err
	}
	std, err := api.deps.StudentSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, errHttpNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	if err = checkTarget(ctx, user.RoleSchoolAdmin, access.Target{SchoolID: std.SchoolID}); err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (api *schoolAdminApi) getTeacher(ctx echo.Context) (teacher.Teacher, error) {
	id, err := pathID(ctx)
	if err != nil {
		return teacher.Teacher{}, err
	}
	tcr, err := api.deps.TeacherSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == teacher.ErrNotFound {
			return teacher.Teacher{}, errHttpNotFound
		}
		return teacher.Teacher{}, errors.Wrap(err, "finding teacher by ID")
	}
	if err = checkTarget(ctx, user.RoleSchoolAdmin, access.Target{SchoolID: tcr.SchoolID}); err != nil {
		return teacher.Teacher{}, err
	}
	return tcr, nil
}

// Handlers

func (api *schoolAdminApi) stats(ctx echo.Context) error {
	stats, err := api.deps.ReportSvc.SchoolStats(ctx.Request().Context(), contextSchool(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "computing school stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *schoolAdminApi) retrieveSchool(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, contextSchool(ctx))
}

// updateSchool patches the caller's own school settings.
func (api *schoolAdminApi) updateSchool(ctx echo.Context) error {
	sch := contextSchool(ctx)

	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(sch, api.deps.Validate); err != nil {
		return err
	}

	sch, err := api.deps.SchoolSvc.Update(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolAdminApi) queryStudents(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sch := contextSchool(ctx)

	var students []student.Student
	var err error
	if class := core.CleanString(ctx.QueryParam("class")); class != "" {
		students, err = api.deps.StudentSvc.ListByClass(reqCtx, sch.ID, class)
	} else {
		students, err = api.deps.StudentSvc.ListBySchool(reqCtx, sch.ID)
	}
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolAdminApi) createStudent(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.deps.Validate, api.deps.StudentSvc); err != nil {
		return err
	}

	std, err := api.deps.StudentSvc.Create(reqCtx, contextSchool(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

// importStudents takes a multipart CSV under "file" and reports per-row
// outcomes; bad rows never block the good ones.
func (api *schoolAdminApi) importStudents(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(errors.New("a CSV file is required under the \"file\" field"))
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	res, err := api.deps.StudentSvc.BulkImport(ctx.Request().Context(), contextSchool(ctx), src, api.deps.Validate)
	if err != nil {
		if errors.Cause(err) == student.ErrBadCSVHeader {
			return core.NewValidationError(student.ErrBadCSVHeader)
		}
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *schoolAdminApi) queryClassNames(ctx echo.Context) error {
	classes, err := api.deps.StudentSvc.ClassNames(ctx.Request().Context(), contextSchool(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "querying class names")
	}
	if classes == nil {
		classes = []string{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolAdminApi) retrieveStudent(ctx echo.Context) error {
	std, err := api.getStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *schoolAdminApi) updateStudent(ctx echo.Context) error {
	std, err := api.getStudent(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(std, api.deps.Validate); err != nil {
		return err
	}

	std, err = api.deps.StudentSvc.Update(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

// destroyStudent removes the profile and its account together.
func (api *schoolAdminApi) destroyStudent(ctx echo.Context) error {
	std, err := api.getStudent(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.StudentSvc.Delete(ctx.Request().Context(), std.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolAdminApi) studentFees(ctx echo.Context) error {
	std, err := api.getStudent(ctx)
	if err != nil {
		return err
	}
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

func (api *schoolAdminApi) queryTeachers(ctx echo.Context) error {
	teachers, err := api.deps.TeacherSvc.ListBySchool(ctx.Request().Context(), contextSchool(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []teacher.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *schoolAdminApi) createTeacher(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.deps.Validate, api.deps.TeacherSvc); err != nil {
		return err
	}

	tcr, err := api.deps.TeacherSvc.Create(reqCtx, contextSchool(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, tcr)
}

func (api *schoolAdminApi) retrieveTeacher(ctx echo.Context) error {
	tcr, err := api.getTeacher(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tcr)
}

func (api *schoolAdminApi) updateTeacher(ctx echo.Context) error {
	tcr, err := api.getTeacher(ctx)
	if err != nil {
		return err
	}

	var data teacher.UpdateTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err = data.Validate(tcr, api.deps.Validate); err != nil {
		return err
	}

	tcr, err = api.deps.TeacherSvc.Update(ctx.Request().Context(), tcr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, tcr)
}

func (api *schoolAdminApi) destroyTeacher(ctx echo.Context) error {
	tcr, err := api.getTeacher(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.TeacherSvc.Delete(ctx.Request().Context(), tcr.ID); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// recordAttendance batch-upserts one class for one date; students of the
// class missing from the payload are recorded absent.
func (api *schoolAdminApi) recordAttendance(ctx echo.Context) error {
	var data attendance.ClassAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassAttendance")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	records, err := api.deps.AttendanceSvc.RecordClass(ctx.Request().Context(), contextSchool(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *schoolAdminApi) attendanceDay(ctx echo.Context) error {
	class := core.CleanString(ctx.QueryParam("class"))
	if class == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "class", Error: "class is required"})
	}
	date, err := attendance.ParseDate(ctx.QueryParam("date"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid date"})
	}

	records, err := api.deps.AttendanceSvc.DayView(ctx.Request().Context(), contextSchool(ctx).ID, class, date)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *schoolAdminApi) createFee(ctx echo.Context) error {
	var data fee.NewFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFee")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	std, err := api.deps.StudentSvc.GetByID(reqCtx, data.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}
	if err = checkTarget(ctx, user.RoleSchoolAdmin, access.Target{SchoolID: std.SchoolID}); err != nil {
		return err
	}

	f, err := api.deps.FeeSvc.Create(reqCtx, std, data)
	if err != nil {
		return errors.Wrap(err, "creating fee")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *schoolAdminApi) queryFees(ctx echo.Context) error {
	fees, err := api.deps.FeeSvc.ListBySchool(ctx.Request().Context(), contextSchool(ctx).ID, ctx.QueryParam("class"))
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	if fees == nil {
		fees = []fee.Fee{}
	}
	return ctx.JSON(http.StatusOK, fees)
}

// payFee marks a fee paid and stamps today's date.
func (api *schoolAdminApi) payFee(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	f, err := api.deps.FeeSvc.GetByID(reqCtx, id)
	if err != nil {
		if errors.Cause(err) == fee.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding fee by ID")
	}
	if err = checkTarget(ctx, user.RoleSchoolAdmin, access.Target{SchoolID: f.SchoolID}); err != nil {
		return err
	}

	f, err = api.deps.FeeSvc.MarkPaid(reqCtx, f.ID)
	if err != nil {
		return errors.Wrap(err, "marking fee paid")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *schoolAdminApi) attendanceReport(ctx echo.Context) error {
	class := core.CleanString(ctx.QueryParam("class"))
	if class == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "class", Error: "class is required"})
	}
	month, err := queryMonth(ctx)
	if err != nil {
		return err
	}

	rep, err := api.deps.ReportSvc.AttendanceReport(ctx.Request().Context(), contextSchool(ctx).ID, class, month)
	if err != nil {
		return errors.Wrap(err, "computing attendance report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *schoolAdminApi) feeReport(ctx echo.Context) error {
	rep, err := api.deps.ReportSvc.FeeReport(ctx.Request().Context(), contextSchool(ctx).ID, ctx.QueryParam("class"))
	if err != nil {
		return errors.Wrap(err, "computing fee report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

// queryMonth reads the optional "month" query param (2006-01); the current
// month is the default.
func queryMonth(ctx echo.Context) (report.Month, error) {
	raw := core.CleanString(ctx.QueryParam("month"))
	if raw == "" {
		return report.CurrentMonth(), nil
	}
	month, err := report.ParseMonth(raw)
	if err != nil {
		return report.Month{}, core.NewValidationError(nil, core.FieldError{Field: "month", Error: "invalid month"})
	}
	return month, nil
}

type StudentFeesResponse struct {
	Fees   []fee.Fee        `json:"fees"`
	Totals report.FeeTotals `json:"totals"`
}
