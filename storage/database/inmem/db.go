// Package inmem is a map-backed stand-in for the Postgres layer, used by
// service and API tests. Repositories ignore the executor argument; BeginTx
// hands back a no-op transactor since every write is applied directly.
package inmem

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/user"
)

var errNotSupported = errors.New("inmem: raw SQL not supported")

type DB struct {
	mu sync.RWMutex

	users       map[int]*user.User
	schools     map[int]*school.School
	students    map[int]*student.Student
	teachers    map[int]*teacher.Teacher
	attendances map[int]*attendance.Record
	fees        map[int]*fee.Fee
	assignments map[int]*assignment.Assignment
	submissions map[int]*assignment.Submission

	pkCount int
}

var _ core.DB = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	return &DB{
		users:       make(map[int]*user.User),
		schools:     make(map[int]*school.School),
		students:    make(map[int]*student.Student),
		teachers:    make(map[int]*teacher.Teacher),
		attendances: make(map[int]*attendance.Record),
		fees:        make(map[int]*fee.Fee),
		assignments: make(map[int]*assignment.Assignment),
		submissions: make(map[int]*assignment.Submission),
	}, nil
}

func (db *DB) nextPK() int {
	db.pkCount++
	return db.pkCount
}

func (db *DB) Exec(string, ...interface{}) (sql.Result, error) { return nil, errNotSupported }
func (db *DB) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNotSupported
}
func (db *DB) Query(string, ...interface{}) (*sql.Rows, error) { return nil, errNotSupported }
func (db *DB) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNotSupported
}
func (db *DB) QueryRow(string, ...interface{}) *sql.Row                     { return nil }
func (db *DB) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

func (db *DB) BeginTx(context.Context, *sql.TxOptions) (core.DBTransactor, error) {
	return noopTx{db}, nil
}

type noopTx struct{ *DB }

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }
