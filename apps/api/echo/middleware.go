package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/user"
)

const (
	contextCallerKey  = "caller"
	contextSchoolKey  = "school"
	contextTeacherKey = "teacher"
	contextStudentKey = "student"
)

// requireRole re-evaluates gate rules 1-3 on every request from a fresh user
// row, resolves the caller's tenant and profile, and stashes the snapshots for
// the handlers (which run rules 4-5 against their targets).
func requireRole(required user.Role, deps *ServerDeps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			caller := access.Caller{}

			usr, err := getContextUser(ctx, deps)
			switch errors.Cause(err) {
			case nil:
				caller.User = usr
				caller.Authenticated = true
			case errUnauthorized: // stale token: user row is gone
			default:
				return errors.Wrap(err, "getting context user")
			}

			reqCtx := ctx.Request().Context()
			if caller.Authenticated {
				switch usr.Role {
				case user.RoleSchoolAdmin:
					sch, err := deps.SchoolSvc.GetByAdmin(reqCtx, usr.ID)
					if err == nil {
						caller.SchoolID = sch.ID
						ctx.Set(contextSchoolKey, sch)
					} else if err != school.ErrNotFound {
						return errors.Wrap(err, "finding school by admin")
					}
				case user.RoleTeacher:
					tcr, err := deps.TeacherSvc.GetByUser(reqCtx, usr.ID)
					if err == nil {
						caller.SchoolID = tcr.SchoolID
						caller.TeacherID = tcr.ID
						ctx.Set(contextTeacherKey, tcr)
					} else if err != teacher.ErrNotFound {
						return errors.Wrap(err, "finding teacher profile")
					}
				case user.RoleStudent:
					std, err := deps.StudentSvc.GetByUser(reqCtx, usr.ID)
					if err == nil {
						caller.SchoolID = std.SchoolID
						ctx.Set(contextStudentKey, std)
					} else if err != student.ErrNotFound {
						return errors.Wrap(err, "finding student profile")
					}
				}
			}

			if err := access.Check(caller, required, nil).Err(); err != nil {
				return err
			}

			// past the gate; the role-specific groups need their anchor
			switch required {
			case user.RoleSchoolAdmin:
				if caller.SchoolID == 0 {
					return errNoSchool
				}
			case user.RoleTeacher:
				if caller.TeacherID == 0 {
					return errNoProfile
				}
			case user.RoleStudent:
				if _, ok := ctx.Get(contextStudentKey).(student.Student); !ok {
					return errNoProfile
				}
			}

			ctx.Set(contextCallerKey, caller)
			return next(ctx)
		}
	}
}

func contextCaller(ctx echo.Context) access.Caller {
	caller, _ := ctx.Get(contextCallerKey).(access.Caller)
	return caller
}

func contextSchool(ctx echo.Context) school.School {
	sch, _ := ctx.Get(contextSchoolKey).(school.School)
	return sch
}

func contextTeacher(ctx echo.Context) teacher.Teacher {
	tcr, _ := ctx.Get(contextTeacherKey).(teacher.Teacher)
	return tcr
}

func contextStudent(ctx echo.Context) student.Student {
	std, _ := ctx.Get(contextStudentKey).(student.Student)
	return std
}
