package pgrepos

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

type attendanceRepository struct {
	exec core.DBExecutor
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{exec: exec}
}

func (repo attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	q := `
		INSERT INTO attendance (student_id, date, status, remarks)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, date)
		DO UPDATE SET status = EXCLUDED.status, remarks = EXCLUDED.remarks
		RETURNING id`
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, q, rec.StudentID, rec.Date, rec.Status, rec.Remarks).
		Scan(&rec.ID)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance record")
	}
	return rec, nil
}

func (repo attendanceRepository) QueryRecordsByStudent(ctx context.Context, studentID int, from, to time.Time, exec ...core.DBExecutor) ([]attendance.Record, error) {
	q := `SELECT id, student_id, date, status, remarks FROM attendance WHERE student_id = $1`
	args := []interface{}{studentID}
	if !from.IsZero() {
		args = append(args, from)
		q += ` AND date >= $2`
	}
	if !to.IsZero() {
		args = append(args, to)
		if len(args) == 3 {
			q += ` AND date < $3`
		} else {
			q += ` AND date < $2`
		}
	}
	q += ` ORDER BY date`

	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	records := make([]attendance.Record, 0)
	if err = structScan(rows, &records, "querying attendance records"); err != nil {
		return nil, err
	}
	return records, nil
}

func (repo attendanceRepository) QueryRecordsByDate(ctx context.Context, studentIDs []int, date time.Time, exec ...core.DBExecutor) ([]attendance.Record, error) {
	q := `
		SELECT a.id, a.student_id, a.date, a.status, a.remarks,
			s.first_name || ' ' || s.last_name AS student_name, s.roll_number
		FROM attendance a
		JOIN student s ON s.id = a.student_id
		WHERE a.student_id = ANY($1) AND a.date = $2
		ORDER BY a.student_id`
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, pq.Array(studentIDs), date)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	records := make([]attendance.Record, 0)
	if err = structScan(rows, &records, "querying attendance records"); err != nil {
		return nil, err
	}
	return records, nil
}
