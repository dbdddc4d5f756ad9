package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) resolve(rec attendance.Record) attendance.Record {
	if std, ok := repo.db.students[rec.StudentID]; ok {
		rec.StudentName = std.FullName()
		rec.RollNumber = std.RollNumber
	}
	return rec
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record, _ ...core.DBExecutor) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.attendances {
		if existing.StudentID == rec.StudentID && existing.Date.Equal(rec.Date) {
			existing.Status = rec.Status
			existing.Remarks = rec.Remarks
			return *existing, nil
		}
	}
	rec.ID = repo.db.nextPK()
	stored := rec
	stored.StudentName, stored.RollNumber = "", ""
	repo.db.attendances[rec.ID] = &stored
	return rec, nil
}

func (repo *attendanceRepository) QueryRecordsByStudent(ctx context.Context, studentID int, from, to time.Time, _ ...core.DBExecutor) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendances {
		if rec.StudentID != studentID {
			continue
		}
		if !from.IsZero() && rec.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !rec.Date.Before(to) {
			continue
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func (repo *attendanceRepository) QueryRecordsByDate(ctx context.Context, studentIDs []int, date time.Time, _ ...core.DBExecutor) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make(map[int]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		ids[id] = struct{}{}
	}

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendances {
		if _, ok := ids[rec.StudentID]; !ok {
			continue
		}
		if !rec.Date.Equal(date) {
			continue
		}
		records = append(records, repo.resolve(*rec))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StudentID < records[j].StudentID })
	return records, nil
}
