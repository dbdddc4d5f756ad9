package assignment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/storage/database/inmem"
)

func setup(t *testing.T) *assignment.Service {
	t.Helper()
	db, err := inmem.Open()
	if err != nil {
		t.Fatalf("inmem.Open(): %v", err)
	}
	return assignment.NewService(db, inmem.NewAssignmentRepository(db))
}

func Test_Service_Create(t *testing.T) {
	svc := setup(t)
	tcr := teacher.Teacher{ID: 5, SchoolID: 1, Subject: "Mathematics"}

	asg, err := svc.Create(context.Background(), tcr, assignment.NewAssignment{
		ClassName: "Grade 5A",
		Title:     "Fractions homework",
		DueDate:   "2026-03-20",
		// no subject in the payload; it always comes from the profile
	})
	require.NoError(t, err)
	assert.NotZero(t, asg.ID)
	assert.Equal(t, tcr.ID, asg.TeacherID)
	assert.Equal(t, tcr.SchoolID, asg.SchoolID)
	assert.Equal(t, "Mathematics", asg.Subject)

	t.Run("bad due date", func(t *testing.T) {
		_, err := svc.Create(context.Background(), tcr, assignment.NewAssignment{
			ClassName: "Grade 5A", Title: "Oops", DueDate: "20/03/2026",
		})
		assert.Error(t, err)
	})
}

func Test_Service_Submit(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	tcr := teacher.Teacher{ID: 5, SchoolID: 1, Subject: "Mathematics"}
	std := student.Student{ID: 9, SchoolID: 1, FirstName: "Hero", LastName: "Mwamba", ClassName: "Grade 5A"}

	asg, err := svc.Create(ctx, tcr, assignment.NewAssignment{
		ClassName: "Grade 5A", Title: "Fractions homework", DueDate: "2026-03-20",
	})
	require.NoError(t, err)

	sub, err := svc.Submit(ctx, std, asg.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.SubmissionSubmitted, sub.Status)
	require.NotNil(t, sub.SubmittedAt)
	assert.Equal(t, "Hero Mwamba", sub.StudentName)

	t.Run("resubmission reuses the row", func(t *testing.T) {
		again, err := svc.Submit(ctx, std, asg.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, again.ID)
		assert.Equal(t, assignment.SubmissionSubmitted, again.Status)
	})

	t.Run("graded submissions are frozen", func(t *testing.T) {
		grade := 85.5
		graded, err := svc.Grade(ctx, sub.ID, assignment.GradeSubmission{Grade: &grade, Feedback: "well done"})
		require.NoError(t, err)
		assert.Equal(t, assignment.SubmissionGraded, graded.Status)
		require.NotNil(t, graded.Grade)
		assert.Equal(t, 85.5, *graded.Grade)

		_, err = svc.Submit(ctx, std, asg.ID)
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, core.KindConflict, verr.Kind)
		assert.EqualError(t, err, assignment.ErrAlreadyGraded.Error())
	})
}

func Test_Service_Delete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	tcr := teacher.Teacher{ID: 5, SchoolID: 1, Subject: "Mathematics"}
	std := student.Student{ID: 9, SchoolID: 1, FirstName: "Hero", ClassName: "Grade 5A"}

	asg, err := svc.Create(ctx, tcr, assignment.NewAssignment{
		ClassName: "Grade 5A", Title: "Fractions homework", DueDate: "2026-03-20",
	})
	require.NoError(t, err)
	sub, err := svc.Submit(ctx, std, asg.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, asg.ID))

	_, err = svc.GetByID(ctx, asg.ID)
	assert.Equal(t, assignment.ErrNotFound, err)
	_, err = svc.GetSubmission(ctx, sub.ID)
	assert.Equal(t, assignment.ErrSubmissionNotFound, err)
	_, err = svc.GetStudentSubmission(ctx, asg.ID, std.ID)
	assert.Equal(t, assignment.ErrSubmissionNotFound, err)
}
