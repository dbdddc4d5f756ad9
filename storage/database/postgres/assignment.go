package pgrepos

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
)

const assignmentCols = `id, teacher_id, school_id, class_name, subject, title, description, due_date, created_at`

const submissionCols = `sub.id, sub.assignment_id, sub.student_id, sub.submitted_at, sub.status, sub.grade, sub.feedback,
	s.first_name || ' ' || s.last_name AS student_name, s.roll_number`

const submissionFrom = `FROM assignment_submission sub JOIN student s ON s.id = sub.student_id`

type assignmentRepository struct {
	exec core.DBExecutor
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{exec: exec}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	q := `
		INSERT INTO assignment (teacher_id, school_id, class_name, subject, title, description, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, q,
			asg.TeacherID, asg.SchoolID, asg.ClassName, asg.Subject, asg.Title,
			asg.Description, asg.DueDate, asg.CreatedAt).
		Scan(&asg.ID)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id int, exec ...core.DBExecutor) (assignment.Assignment, error) {
	q := fmt.Sprintf(`SELECT %s FROM assignment WHERE id = $1`, assignmentCols)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, id)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	var asgs []assignment.Assignment
	if err = structScan(rows, &asgs, "getting assignment"); err != nil {
		return assignment.Assignment{}, err
	}
	if len(asgs) == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return asgs[0], nil
}

func (repo assignmentRepository) queryAssignments(ctx context.Context, where string, args []interface{}, exec []core.DBExecutor) ([]assignment.Assignment, error) {
	q := fmt.Sprintf(`SELECT %s FROM assignment WHERE %s`, assignmentCols, where)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	asgs := make([]assignment.Assignment, 0)
	if err = structScan(rows, &asgs, "querying assignments"); err != nil {
		return nil, err
	}
	return asgs, nil
}

func (repo assignmentRepository) QueryAssignmentsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	return repo.queryAssignments(ctx, `teacher_id = $1 ORDER BY id`, []interface{}{teacherID}, exec)
}

func (repo assignmentRepository) QueryAssignmentsByClass(ctx context.Context, schoolID int, className string, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	return repo.queryAssignments(ctx, `school_id = $1 AND class_name = $2 ORDER BY id`, []interface{}{schoolID, className}, exec)
}

func (repo assignmentRepository) QueryRecentAssignments(ctx context.Context, teacherID, limit int, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	return repo.queryAssignments(ctx, `teacher_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, []interface{}{teacherID, limit}, exec)
}

func (repo assignmentRepository) CountAssignments(ctx context.Context, teacherID int, exec ...core.DBExecutor) (int, error) {
	var count int
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM assignment WHERE teacher_id = $1`, teacherID).
		Scan(&count)
	return count, errors.Wrap(err, "counting assignments")
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	q := fmt.Sprintf(`
		UPDATE assignment
		SET title = $1, description = $2, due_date = $3
		WHERE id = $4
		RETURNING %s`, assignmentCols)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, asg.Title, asg.Description, asg.DueDate, asg.ID)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	var asgs []assignment.Assignment
	if err = structScan(rows, &asgs, "updating assignment"); err != nil {
		return assignment.Assignment{}, err
	}
	if len(asgs) == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return asgs[0], nil
}

func (repo assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM assignment WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting assignments")
}

func (repo assignmentRepository) CreateSubmission(ctx context.Context, sub assignment.Submission, exec ...core.DBExecutor) (assignment.Submission, error) {
	q := `
		INSERT INTO assignment_submission (assignment_id, student_id, submitted_at, status, grade, feedback)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, q, sub.AssignmentID, sub.StudentID, sub.SubmittedAt, sub.Status, sub.Grade, sub.Feedback).
		Scan(&sub.ID)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo assignmentRepository) getSubmission(ctx context.Context, where string, args []interface{}, exec []core.DBExecutor) (assignment.Submission, error) {
	q := fmt.Sprintf(`SELECT %s %s WHERE %s`, submissionCols, submissionFrom, where)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, args...)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "getting submission")
	}
	var subs []assignment.Submission
	if err = structScan(rows, &subs, "getting submission"); err != nil {
		return assignment.Submission{}, err
	}
	if len(subs) == 0 {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return subs[0], nil
}

func (repo assignmentRepository) GetSubmission(ctx context.Context, id int, exec ...core.DBExecutor) (assignment.Submission, error) {
	return repo.getSubmission(ctx, `sub.id = $1`, []interface{}{id}, exec)
}

func (repo assignmentRepository) GetStudentSubmission(ctx context.Context, assignmentID, studentID int, exec ...core.DBExecutor) (assignment.Submission, error) {
	return repo.getSubmission(ctx, `sub.assignment_id = $1 AND sub.student_id = $2`, []interface{}{assignmentID, studentID}, exec)
}

func (repo assignmentRepository) querySubmissions(ctx context.Context, where string, args []interface{}, exec []core.DBExecutor) ([]assignment.Submission, error) {
	q := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY sub.id`, submissionCols, submissionFrom, where)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]assignment.Submission, 0)
	if err = structScan(rows, &subs, "querying submissions"); err != nil {
		return nil, err
	}
	return subs, nil
}

func (repo assignmentRepository) QuerySubmissionsByAssignment(ctx context.Context, assignmentID int, exec ...core.DBExecutor) ([]assignment.Submission, error) {
	return repo.querySubmissions(ctx, `sub.assignment_id = $1`, []interface{}{assignmentID}, exec)
}

func (repo assignmentRepository) QuerySubmissionsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]assignment.Submission, error) {
	where := `sub.assignment_id IN (SELECT id FROM assignment WHERE teacher_id = $1)`
	return repo.querySubmissions(ctx, where, []interface{}{teacherID}, exec)
}

func (repo assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission, exec ...core.DBExecutor) (assignment.Submission, error) {
	q := `
		UPDATE assignment_submission
		SET submitted_at = $1, status = $2, grade = $3, feedback = $4
		WHERE id = $5`
	res, err := getExec(repo.exec, exec).ExecContext(ctx, q, sub.SubmittedAt, sub.Status, sub.Grade, sub.Feedback, sub.ID)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return repo.GetSubmission(ctx, sub.ID, exec...)
}

func (repo assignmentRepository) DeleteSubmissionsByAssignment(ctx context.Context, assignmentIDs []int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).
		ExecContext(ctx, `DELETE FROM assignment_submission WHERE assignment_id = ANY($1)`, pq.Array(assignmentIDs))
	return errors.Wrap(err, "deleting submissions")
}
