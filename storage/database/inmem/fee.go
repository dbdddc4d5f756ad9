package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
)

type feeRepository struct {
	db *DB
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) *feeRepository {
	return &feeRepository{db: db}
}

func (repo *feeRepository) resolve(f fee.Fee) fee.Fee {
	if std, ok := repo.db.students[f.StudentID]; ok {
		f.StudentName = std.FullName()
		f.RollNumber = std.RollNumber
		f.ClassName = std.ClassName
	}
	return f
}

func (repo *feeRepository) CreateFee(ctx context.Context, f fee.Fee, _ ...core.DBExecutor) (fee.Fee, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	f.ID = repo.db.nextPK()
	stored := f
	stored.StudentName, stored.RollNumber, stored.ClassName = "", "", ""
	repo.db.fees[f.ID] = &stored
	return repo.resolve(f), nil
}

func (repo *feeRepository) GetFee(ctx context.Context, id int, _ ...core.DBExecutor) (fee.Fee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if f, ok := repo.db.fees[id]; ok {
		return repo.resolve(*f), nil
	}
	return fee.Fee{}, fee.ErrNotFound
}

func (repo *feeRepository) QueryFeesByStudents(ctx context.Context, studentIDs []int, _ ...core.DBExecutor) ([]fee.Fee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make(map[int]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		ids[id] = struct{}{}
	}

	fees := make([]fee.Fee, 0)
	for _, f := range repo.db.fees {
		if _, ok := ids[f.StudentID]; ok {
			fees = append(fees, repo.resolve(*f))
		}
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].ID < fees[j].ID })
	return fees, nil
}

func (repo *feeRepository) QueryFeesBySchool(ctx context.Context, schoolID int, className string, _ ...core.DBExecutor) ([]fee.Fee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	fees := make([]fee.Fee, 0)
	for _, f := range repo.db.fees {
		if f.SchoolID != schoolID {
			continue
		}
		resolved := repo.resolve(*f)
		if className != "" && resolved.ClassName != className {
			continue
		}
		fees = append(fees, resolved)
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].ID < fees[j].ID })
	return fees, nil
}

func (repo *feeRepository) MarkFeePaid(ctx context.Context, id int, paidDate time.Time, _ ...core.DBExecutor) (fee.Fee, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	f, ok := repo.db.fees[id]
	if !ok {
		return fee.Fee{}, fee.ErrNotFound
	}
	f.Status = fee.StatusPaid
	f.PaidDate = &paidDate
	return repo.resolve(*f), nil
}
