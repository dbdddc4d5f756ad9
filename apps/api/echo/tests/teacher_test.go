package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/user"
)

func Test_teacherApi_access(t *testing.T) {
	a := setup(t)

	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	tcr := a.createTeacher(t, sch, "Grace", "Lumu", "grace@test.cd", "Mathematics")
	std := a.createStudent(t, sch, "Hero", "Mwamba", "hero@test.cd", "Grade 5A")
	orphan := a.createUser(t, "orphan.teacher", "orphan@test.cd", user.RoleTeacher, true)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student not allowed", token: a.studentToken(t, std), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "school admin not allowed", token: a.adminToken(t, sch), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "teacher without a profile", token: getToken(t, orphan), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "no profile attached to this account"}),
		},
		{
			name: "teacher allowed", token: a.teacherToken(t, tcr), wantCode: http.StatusOK,
			wantData: marchallList(t, []interface{}{}...),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/assignments", tt.token)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_teacherApi_assignments(t *testing.T) {
	a := setup(t)

	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	other := a.createSchool(t, "Bondeko Secondary", "bondeko.admin", "admin@bondeko.cd")

	grace := a.createTeacher(t, sch, "Grace", "Lumu", "grace@test.cd", "Mathematics")
	peer := a.createTeacher(t, sch, "Jean", "Kalala", "jean@test.cd", "History")
	stranger := a.createTeacher(t, other, "Far", "Away", "far@test.cd", "Biology")
	token := a.teacherToken(t, grace)

	var asg assignment.Assignment
	t.Run("created; subject comes from the profile", func(t *testing.T) {
		body := marchallObj(t, map[string]string{
			"class_name":  "Grade 5A",
			"title":       "Fractions homework",
			"description": "Exercises 1-10",
			"due_date":    "2026-03-20",
			"subject":     "Poetry", // ignored
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/teacher/assignments", token, body)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		decode(t, rec, &asg)
		assert.Equal(t, grace.ID, asg.TeacherID)
		assert.Equal(t, sch.ID, asg.SchoolID)
		assert.Equal(t, "Mathematics", asg.Subject)
	})

	t.Run("only the owner may touch it", func(t *testing.T) {
		path := fmt.Sprintf("/v1/teacher/assignments/%d", asg.ID)

		req, rec := newAuthRequest(http.MethodGet, path, a.teacherToken(t, peer))
		a.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "only the assignment owner may grade its submissions"}),
		}, rec)

		req, rec = newAuthRequest(http.MethodGet, path, a.teacherToken(t, stranger))
		a.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "resource belongs to another school"}),
		}, rec)
	})

	t.Run("updated; class and subject stay fixed", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"title": "Fractions homework (v2)"})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/teacher/assignments/%d", asg.ID), token, body)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got assignment.Assignment
		decode(t, rec, &got)
		assert.Equal(t, "Fractions homework (v2)", got.Title)
		assert.Equal(t, asg.Subject, got.Subject)
		assert.Equal(t, asg.DueDate, got.DueDate) // untouched
	})

	t.Run("deleted along with its submissions", func(t *testing.T) {
		std := a.createStudent(t, sch, "Hero", "Mwamba", "hero@test.cd", "Grade 5A")
		sub, err := a.asgSvc.Submit(context.Background(), std, asg.ID)
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/teacher/assignments/%d", asg.ID), token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		_, err = a.asgSvc.GetByID(context.Background(), asg.ID)
		assert.Equal(t, assignment.ErrNotFound, err)
		_, err = a.asgSvc.GetSubmission(context.Background(), sub.ID)
		assert.Equal(t, assignment.ErrSubmissionNotFound, err)
	})
}

func Test_teacherApi_grading(t *testing.T) {
	a := setup(t)

	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	grace := a.createTeacher(t, sch, "Grace", "Lumu", "grace@test.cd", "Mathematics")
	peer := a.createTeacher(t, sch, "Jean", "Kalala", "jean@test.cd", "History")
	std := a.createStudent(t, sch, "Hero", "Mwamba", "hero@test.cd", "Grade 5A")
	token := a.teacherToken(t, grace)

	ctx := context.Background()
	asg, err := a.asgSvc.Create(ctx, grace, assignment.NewAssignment{
		ClassName: "Grade 5A", Title: "Fractions homework", DueDate: "2026-03-20",
	})
	require.NoError(t, err)
	sub, err := a.asgSvc.Submit(ctx, std, asg.ID)
	require.NoError(t, err)

	gradePath := fmt.Sprintf("/v1/teacher/submissions/%d/grade", sub.ID)
	grade := func(g float64, feedback string) []byte {
		return marchallObj(t, map[string]interface{}{"grade": g, "feedback": feedback})
	}

	tests := []httpTest{
		{
			name: "unknown submission", path: "/v1/teacher/submissions/999/grade", token: token,
			body: grade(85, ""), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "not the owner", path: gradePath, token: a.teacherToken(t, peer), body: grade(85, ""),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "only the assignment owner may grade its submissions"}),
		},
		{
			name: "grade out of range", path: gradePath, token: token, body: grade(120, ""),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"grade": "grade must be 100 or less"}),
		},
		{
			name: "grade required", path: gradePath, token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"grade": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("graded", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, gradePath, token, grade(85.5, "well done"))
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got assignment.Submission
		decode(t, rec, &got)
		assert.Equal(t, assignment.SubmissionGraded, got.Status)
		require.NotNil(t, got.Grade)
		assert.Equal(t, 85.5, *got.Grade)
		assert.Equal(t, "well done", got.Feedback)
	})

	t.Run("submissions listed with student data", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/teacher/assignments/%d/submissions", asg.ID), token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var subs []assignment.Submission
		decode(t, rec, &subs)
		require.Len(t, subs, 1)
		assert.Equal(t, std.FullName(), subs[0].StudentName)
	})
}

func Test_teacherApi_reports(t *testing.T) {
	a := setup(t)

	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	grace := a.createTeacher(t, sch, "Grace", "Lumu", "grace@test.cd", "Mathematics")
	s1 := a.createStudent(t, sch, "Amani", "Kazadi", "amani@test.cd", "Grade 5A")
	s2 := a.createStudent(t, sch, "Neema", "Ilunga", "neema@test.cd", "Grade 5A")
	token := a.teacherToken(t, grace)

	ctx := context.Background()
	asg, err := a.asgSvc.Create(ctx, grace, assignment.NewAssignment{
		ClassName: "Grade 5A", Title: "Fractions homework", DueDate: "2026-03-20",
	})
	require.NoError(t, err)

	gradeOf := func(g float64) *float64 { return &g }
	for _, tc := range []struct {
		std   int
		grade *float64
	}{
		{std: s1.ID, grade: gradeOf(90)},
		{std: s2.ID, grade: gradeOf(80)},
	} {
		std, err := a.stdSvc.GetByID(ctx, tc.std)
		require.NoError(t, err)
		sub, err := a.asgSvc.Submit(ctx, std, asg.ID)
		require.NoError(t, err)
		_, err = a.asgSvc.Grade(ctx, sub.ID, assignment.GradeSubmission{Grade: tc.grade})
		require.NoError(t, err)
	}

	t.Run("stats", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/stats", token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var stats report.TeacherStats
		decode(t, rec, &stats)
		assert.Equal(t, 1, stats.Assignments)
		assert.Equal(t, 1, stats.Classes)
		assert.Equal(t, 0, stats.PendingSubmissions) // all graded
		assert.Len(t, stats.RecentAssignments, 1)
	})

	t.Run("class performance", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/reports/performance", token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var breakdown []report.ClassPerformance
		decode(t, rec, &breakdown)
		require.Len(t, breakdown, 1)
		assert.Equal(t, report.ClassPerformance{
			ClassName:   "Grade 5A",
			Assignments: 1,
			Submissions: 2,
			Graded:      2,
			Average:     85,
			Band:        report.BandExcellent,
		}, breakdown[0])
	})

	t.Run("summary", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/reports/summary", token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sum report.TeacherSummary
		decode(t, rec, &sum)
		assert.Equal(t, 1, sum.Assignments)
		assert.Equal(t, 2, sum.Submissions)
		assert.Equal(t, 2, sum.Graded)
		assert.Equal(t, 85.0, sum.Average)
		assert.Equal(t, report.BandExcellent, sum.Band)
		assert.Len(t, sum.Classes, 1)
	})

	t.Run("class attendance", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/reports/attendance?class=Grade+5A&month=2026-03", token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var rep report.AttendanceReport
		decode(t, rec, &rep)
		assert.Equal(t, "Grade 5A", rep.ClassName)
		assert.Len(t, rep.Students, 2) // nothing recorded yet
		assert.Zero(t, rep.Total)
	})
}
