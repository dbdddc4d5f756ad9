package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/user"
)

func Test_studentApi_access(t *testing.T) {
	a := setup(t)

	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	std := a.createStudent(t, sch, "Hero", "Mwamba", "hero@test.cd", "Grade 5A")
	tcr := a.createTeacher(t, sch, "Grace", "Lumu", "grace@test.cd", "Mathematics")
	orphan := a.createUser(t, "orphan.student", "orphan@test.cd", user.RoleStudent, true)

	// the repo joins account info onto the profile
	profile, err := a.stdSvc.GetByID(context.Background(), std.ID)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "teacher not allowed", token: a.teacherToken(t, tcr), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "school admin not allowed", token: a.adminToken(t, sch), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "student without a profile", token: getToken(t, orphan), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "no profile attached to this account"}),
		},
		{
			name: "own profile returned", token: a.studentToken(t, std), wantCode: http.StatusOK,
			wantData: marchallObj(t, profile),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/student/profile", tt.token)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_attendance(t *testing.T) {
	a := setup(t)

	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	std := a.createStudent(t, sch, "Hero", "Mwamba", "hero@test.cd", "Grade 5A")
	token := a.studentToken(t, std)

	ctx := context.Background()
	for _, day := range []struct {
		date   string
		status attendance.Status
	}{
		{date: "2026-03-02", status: attendance.StatusPresent},
		{date: "2026-03-03", status: attendance.StatusAbsent},
		{date: "2026-03-04", status: attendance.StatusPresent},
		{date: "2026-04-01", status: attendance.StatusPresent}, // out of month
	} {
		_, err := a.attSvc.RecordClass(ctx, sch.ID, attendance.ClassAttendance{
			ClassName: "Grade 5A",
			Date:      day.date,
			Entries:   []attendance.Entry{{StudentID: std.ID, Status: day.status}},
		})
		require.NoError(t, err)
	}

	t.Run("month rolled up", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/attendance?month=2026-03", token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res echoapi.StudentAttendanceResponse
		decode(t, rec, &res)
		assert.Equal(t, "2026-03", res.Month)
		assert.Len(t, res.Records, 3)
		assert.Equal(t, 2, res.Present)
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, 66.67, res.Percent)
	})

	t.Run("invalid month", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/attendance?month=lol", token)
		a.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"month": "invalid month"}),
		}, rec)
	})
}

func Test_studentApi_fees(t *testing.T) {
	a := setup(t)

	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	std := a.createStudent(t, sch, "Hero", "Mwamba", "hero@test.cd", "Grade 5A")

	ctx := context.Background()
	tuition, err := a.feeSvc.Create(ctx, std, fee.NewFee{FeeType: "tuition", Amount: 150.50, DueDate: "2026-03-31"})
	require.NoError(t, err)
	_, err = a.feeSvc.MarkPaid(ctx, tuition.ID)
	require.NoError(t, err)
	_, err = a.feeSvc.Create(ctx, std, fee.NewFee{FeeType: "library", Amount: 25.25, DueDate: "2026-09-30"})
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/v1/student/fees", a.studentToken(t, std))
	a.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res echoapi.StudentFeesResponse
	decode(t, rec, &res)
	require.Len(t, res.Fees, 2)
	assert.Equal(t, report.FeeTotals{Pending: 25.25, Paid: 150.50}, res.Totals)
}

func Test_studentApi_assignments(t *testing.T) {
	a := setup(t)

	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	other := a.createSchool(t, "Bondeko Secondary", "bondeko.admin", "admin@bondeko.cd")
	std := a.createStudent(t, sch, "Hero", "Mwamba", "hero@test.cd", "Grade 5A")
	grace := a.createTeacher(t, sch, "Grace", "Lumu", "grace@test.cd", "Mathematics")
	far := a.createTeacher(t, other, "Far", "Away", "far@test.cd", "Biology")
	token := a.studentToken(t, std)

	ctx := context.Background()
	asg, err := a.asgSvc.Create(ctx, grace, assignment.NewAssignment{
		ClassName: "Grade 5A", Title: "Fractions homework", DueDate: "2026-03-20",
	})
	require.NoError(t, err)
	otherClass, err := a.asgSvc.Create(ctx, grace, assignment.NewAssignment{
		ClassName: "Grade 6", Title: "Decimals homework", DueDate: "2026-03-21",
	})
	require.NoError(t, err)
	otherSchool, err := a.asgSvc.Create(ctx, far, assignment.NewAssignment{
		ClassName: "Grade 5A", Title: "Cells homework", DueDate: "2026-03-22",
	})
	require.NoError(t, err)

	t.Run("only own class listed, without a submission yet", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/assignments", token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var items []echoapi.StudentAssignment
		decode(t, rec, &items)
		require.Len(t, items, 1)
		assert.Equal(t, asg.ID, items[0].ID)
		assert.Nil(t, items[0].Submission)
	})

	t.Run("assignments out of reach look unknown", func(t *testing.T) {
		for _, id := range []int{999, otherClass.ID, otherSchool.ID} {
			req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/student/assignments/%d/submit", id), token)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
		}
	})

	var sub assignment.Submission
	t.Run("submitted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/student/assignments/%d/submit", asg.ID), token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		decode(t, rec, &sub)
		assert.Equal(t, assignment.SubmissionSubmitted, sub.Status)
		require.NotNil(t, sub.SubmittedAt)
	})

	t.Run("listed with the submission attached", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/assignments", token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var items []echoapi.StudentAssignment
		decode(t, rec, &items)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].Submission)
		assert.Equal(t, sub.ID, items[0].Submission.ID)
	})

	t.Run("resubmission allowed until graded", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/student/assignments/%d/submit", asg.ID), token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var again assignment.Submission
		decode(t, rec, &again)
		assert.Equal(t, sub.ID, again.ID)

		grade := 85.0
		_, err := a.asgSvc.Grade(context.Background(), sub.ID, assignment.GradeSubmission{Grade: &grade})
		require.NoError(t, err)

		req, rec = newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/student/assignments/%d/submit", asg.ID), token)
		a.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "submission has already been graded"}),
		}, rec)
	})
}
