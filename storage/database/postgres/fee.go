package pgrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
)

const feeCols = `f.id, f.student_id, f.school_id, f.fee_type, f.amount, f.due_date, f.paid_date,
	f.status, f.created_at,
	s.first_name || ' ' || s.last_name AS student_name, s.roll_number, s.class_name`

const feeFrom = `FROM fee f JOIN student s ON s.id = f.student_id`

type feeRepository struct {
	exec core.DBExecutor
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(exec core.DBExecutor) *feeRepository {
	return &feeRepository{exec: exec}
}

func (repo feeRepository) CreateFee(ctx context.Context, f fee.Fee, exec ...core.DBExecutor) (fee.Fee, error) {
	q := `
		INSERT INTO fee (student_id, school_id, fee_type, amount, due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, q, f.StudentID, f.SchoolID, f.FeeType, f.Amount, f.DueDate, f.Status, f.CreatedAt).
		Scan(&f.ID)
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "inserting fee")
	}
	return f, nil
}

func (repo feeRepository) GetFee(ctx context.Context, id int, exec ...core.DBExecutor) (fee.Fee, error) {
	q := fmt.Sprintf(`SELECT %s %s WHERE f.id = $1`, feeCols, feeFrom)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, id)
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "getting fee")
	}
	var fees []fee.Fee
	if err = structScan(rows, &fees, "getting fee"); err != nil {
		return fee.Fee{}, err
	}
	if len(fees) == 0 {
		return fee.Fee{}, fee.ErrNotFound
	}
	return fees[0], nil
}

func (repo feeRepository) QueryFeesByStudents(ctx context.Context, studentIDs []int, exec ...core.DBExecutor) ([]fee.Fee, error) {
	q := fmt.Sprintf(`SELECT %s %s WHERE f.student_id = ANY($1) ORDER BY f.id`, feeCols, feeFrom)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, pq.Array(studentIDs))
	if err != nil {
		return nil, errors.Wrap(err, "querying fees")
	}
	fees := make([]fee.Fee, 0)
	if err = structScan(rows, &fees, "querying fees"); err != nil {
		return nil, err
	}
	return fees, nil
}

func (repo feeRepository) QueryFeesBySchool(ctx context.Context, schoolID int, className string, exec ...core.DBExecutor) ([]fee.Fee, error) {
	q := fmt.Sprintf(`SELECT %s %s WHERE f.school_id = $1`, feeCols, feeFrom)
	args := []interface{}{schoolID}
	if className != "" {
		args = append(args, className)
		q += ` AND s.class_name = $2`
	}
	q += ` ORDER BY f.id`

	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying fees")
	}
	fees := make([]fee.Fee, 0)
	if err = structScan(rows, &fees, "querying fees"); err != nil {
		return nil, err
	}
	return fees, nil
}

func (repo feeRepository) MarkFeePaid(ctx context.Context, id int, paidDate time.Time, exec ...core.DBExecutor) (fee.Fee, error) {
	q := `UPDATE fee SET status = $1, paid_date = $2 WHERE id = $3`
	res, err := getExec(repo.exec, exec).ExecContext(ctx, q, fee.StatusPaid, paidDate, id)
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "marking fee paid")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fee.Fee{}, fee.ErrNotFound
	}
	return repo.GetFee(ctx, id, exec...)
}
