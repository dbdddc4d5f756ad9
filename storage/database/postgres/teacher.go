package pgrepos

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/teacher"
)

const teacherCols = `t.id, t.user_id, t.school_id, t.first_name, t.last_name, t.subject,
	t.qualification, t.created_at,
	u.username, u.email`

const teacherFrom = `FROM teacher t JOIN "user" u ON u.id = t.user_id`

type teacherRepository struct {
	exec core.DBExecutor
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(exec core.DBExecutor) *teacherRepository {
	return &teacherRepository{exec: exec}
}

func (repo teacherRepository) CreateTeacher(ctx context.Context, tcr teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	q := `
		INSERT INTO teacher (user_id, school_id, first_name, last_name, subject, qualification, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, q,
			tcr.UserID, tcr.SchoolID, tcr.FirstName, tcr.LastName, tcr.Subject, tcr.Qualification, tcr.CreatedAt).
		Scan(&tcr.ID)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return tcr, nil
}

func (repo teacherRepository) GetTeacher(ctx context.Context, filter teacher.GetFilter, exec ...core.DBExecutor) (teacher.Teacher, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != 0:
		where, arg = "t.id = $1", filter.ID
	case filter.UserID != 0:
		where, arg = "t.user_id = $1", filter.UserID
	default:
		return teacher.Teacher{}, teacher.ErrNotFound
	}

	rows, err := getExec(repo.exec, exec).
		QueryContext(ctx, fmt.Sprintf(`SELECT %s %s WHERE %s`, teacherCols, teacherFrom, where), arg)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "getting teacher")
	}
	var teachers []teacher.Teacher
	if err = structScan(rows, &teachers, "getting teacher"); err != nil {
		return teacher.Teacher{}, err
	}
	if len(teachers) == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return teachers[0], nil
}

func (repo teacherRepository) QueryTeachersBySchool(ctx context.Context, schoolID int, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	q := fmt.Sprintf(`SELECT %s %s WHERE t.school_id = $1 ORDER BY t.id`, teacherCols, teacherFrom)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]teacher.Teacher, 0)
	if err = structScan(rows, &teachers, "querying teachers"); err != nil {
		return nil, err
	}
	return teachers, nil
}

func (repo teacherRepository) QueryRecentTeachers(ctx context.Context, schoolID, limit int, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	q := fmt.Sprintf(`
		SELECT %s %s
		WHERE t.school_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2`, teacherCols, teacherFrom)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, schoolID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying recent teachers")
	}
	teachers := make([]teacher.Teacher, 0)
	if err = structScan(rows, &teachers, "querying recent teachers"); err != nil {
		return nil, err
	}
	return teachers, nil
}

func (repo teacherRepository) CountTeachers(ctx context.Context, schoolID int, exec ...core.DBExecutor) (int, error) {
	var count int
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM teacher WHERE school_id = $1`, schoolID).
		Scan(&count)
	return count, errors.Wrap(err, "counting teachers")
}

func (repo teacherRepository) UpdateTeacher(ctx context.Context, tcr teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	q := `UPDATE teacher SET subject = $1, qualification = $2 WHERE id = $3`
	res, err := getExec(repo.exec, exec).ExecContext(ctx, q, tcr.Subject, tcr.Qualification, tcr.ID)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return repo.GetTeacher(ctx, teacher.GetFilter{ID: tcr.ID}, exec...)
}

func (repo teacherRepository) DeleteTeachersByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM teacher WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting teachers")
}
