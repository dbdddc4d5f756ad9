package pgrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
)

const studentCols = `s.id, s.user_id, s.school_id, s.first_name, s.last_name, s.roll_number,
	s.class_name, s.date_of_birth, s.parent_phone, s.created_at,
	u.username, u.email`

const studentFrom = `FROM student s JOIN "user" u ON u.id = s.user_id`

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	q := `
		INSERT INTO student (user_id, school_id, first_name, last_name, roll_number, class_name, date_of_birth, parent_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, q,
			std.UserID, std.SchoolID, std.FirstName, std.LastName, std.RollNumber,
			std.ClassName, std.DateOfBirth, std.ParentPhone, std.CreatedAt).
		Scan(&std.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, filter student.GetFilter, exec ...core.DBExecutor) (student.Student, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != 0:
		where, arg = "s.id = $1", filter.ID
	case filter.UserID != 0:
		where, arg = "s.user_id = $1", filter.UserID
	default:
		return student.Student{}, student.ErrNotFound
	}

	rows, err := getExec(repo.exec, exec).
		QueryContext(ctx, fmt.Sprintf(`SELECT %s %s WHERE %s`, studentCols, studentFrom, where), arg)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	var students []student.Student
	if err = structScan(rows, &students, "getting student"); err != nil {
		return student.Student{}, err
	}
	if len(students) == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return students[0], nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, exec ...core.DBExecutor) ([]student.Student, error) {
	where := []string{"TRUE"}
	var args []interface{}
	if filter.SchoolID != 0 {
		args = append(args, filter.SchoolID)
		where = append(where, fmt.Sprintf("s.school_id = $%d", len(args)))
	}
	if filter.ClassName != "" {
		args = append(args, filter.ClassName)
		where = append(where, fmt.Sprintf("s.class_name = $%d", len(args)))
	}
	if len(filter.IDs) > 0 {
		args = append(args, pq.Array(filter.IDs))
		where = append(where, fmt.Sprintf("s.id = ANY($%d)", len(args)))
	}

	q := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY s.id`, studentCols, studentFrom, strings.Join(where, " AND "))
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0)
	if err = structScan(rows, &students, "querying students"); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo studentRepository) QueryClassNames(ctx context.Context, schoolID int, exec ...core.DBExecutor) ([]string, error) {
	q := `SELECT DISTINCT class_name FROM student WHERE school_id = $1 ORDER BY class_name`
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "querying class names")
	}
	defer func() { _ = rows.Close() }()

	classes := make([]string, 0)
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "querying class names")
		}
		classes = append(classes, name)
	}
	return classes, errors.Wrap(rows.Err(), "querying class names")
}

func (repo studentRepository) QueryRecentStudents(ctx context.Context, schoolID, limit int, exec ...core.DBExecutor) ([]student.Student, error) {
	q := fmt.Sprintf(`
		SELECT %s %s
		WHERE s.school_id = $1
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $2`, studentCols, studentFrom)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, schoolID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying recent students")
	}
	students := make([]student.Student, 0)
	if err = structScan(rows, &students, "querying recent students"); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo studentRepository) CountStudents(ctx context.Context, schoolID int, exec ...core.DBExecutor) (int, error) {
	var count int
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM student WHERE school_id = $1`, schoolID).
		Scan(&count)
	return count, errors.Wrap(err, "counting students")
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	q := `
		UPDATE student
		SET roll_number = $1, class_name = $2, date_of_birth = $3, parent_phone = $4
		WHERE id = $5`
	res, err := getExec(repo.exec, exec).
		ExecContext(ctx, q, std.RollNumber, std.ClassName, std.DateOfBirth, std.ParentPhone, std.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudent(ctx, student.GetFilter{ID: std.ID}, exec...)
}

func (repo studentRepository) DeleteStudentsByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM student WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting students")
}
