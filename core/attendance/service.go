package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
)

var (
	// errors
	ErrNotFound = errors.New("attendance record not found")
)

type (
	Repository interface {
		// UpsertRecord inserts the record or, when (student_id, date) exists,
		// overwrites its status and remarks. Last write wins.
		UpsertRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		// QueryRecordsByStudent returns records in [from, to); zero bounds are open.
		QueryRecordsByStudent(ctx context.Context, studentID int, from, to time.Time, exec ...core.DBExecutor) ([]Record, error)
		QueryRecordsByDate(ctx context.Context, studentIDs []int, date time.Time, exec ...core.DBExecutor) ([]Record, error)
	}

	Service struct {
		db      core.DB
		repo    Repository
		stdRepo student.Repository
	}
)

func NewService(db core.DB, repo Repository, stdRepo student.Repository) *Service {
	return &Service{
		db:      db,
		repo:    repo,
		stdRepo: stdRepo,
	}
}

// RecordClass upserts attendance for every student of the class on the given
// date in one transaction. Submitted entries win; students of the class not
// mentioned are marked absent. Entries for students outside the class are
// ignored.
func (svc *Service) RecordClass(ctx context.Context, schoolID int, ca ClassAttendance) ([]Record, error) {
	date, err := ParseDate(ca.Date)
	if err != nil {
		return nil, err
	}

	students, err := svc.stdRepo.QueryStudents(ctx, student.QueryFilter{SchoolID: schoolID, ClassName: ca.ClassName})
	if err != nil {
		return nil, err
	}

	byStudent := make(map[int]Entry, len(ca.Entries))
	for _, e := range ca.Entries {
		byStudent[e.StudentID] = e
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(students))
	for _, std := range students {
		rec := Record{
			StudentID: std.ID,
			Date:      date,
			Status:    StatusAbsent,
		}
		if e, ok := byStudent[std.ID]; ok {
			rec.Status = e.Status
			rec.Remarks = e.Remarks
		}
		if rec, err = svc.repo.UpsertRecord(ctx, rec, tx); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		rec.StudentName = std.FullName()
		rec.RollNumber = std.RollNumber
		records = append(records, rec)
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return records, nil
}

// DayView returns one entry per student of the class: the recorded status,
// or an absent placeholder when the date was never recorded.
func (svc *Service) DayView(ctx context.Context, schoolID int, className string, date time.Time) ([]Record, error) {
	students, err := svc.stdRepo.QueryStudents(ctx, student.QueryFilter{SchoolID: schoolID, ClassName: core.CleanString(className)})
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(students))
	for _, std := range students {
		ids = append(ids, std.ID)
	}

	records, err := svc.repo.QueryRecordsByDate(ctx, ids, date)
	if err != nil {
		return nil, err
	}
	recorded := make(map[int]Record, len(records))
	for _, rec := range records {
		recorded[rec.StudentID] = rec
	}

	view := make([]Record, 0, len(students))
	for _, std := range students {
		rec, ok := recorded[std.ID]
		if !ok {
			rec = Record{StudentID: std.ID, Date: date, Status: StatusAbsent}
		}
		rec.StudentName = std.FullName()
		rec.RollNumber = std.RollNumber
		view = append(view, rec)
	}
	return view, nil
}

// ListByStudent returns a student's records in [from, to); zero bounds are
// open.
func (svc *Service) ListByStudent(ctx context.Context, studentID int, from, to time.Time) ([]Record, error) {
	return svc.repo.QueryRecordsByStudent(ctx, studentID, from, to)
}
