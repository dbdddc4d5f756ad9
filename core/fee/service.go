package fee

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
)

var (
	// errors
	ErrNotFound = errors.New("fee record not found")
)

type (
	Repository interface {
		CreateFee(ctx context.Context, f Fee, exec ...core.DBExecutor) (Fee, error)
		GetFee(ctx context.Context, id int, exec ...core.DBExecutor) (Fee, error)
		QueryFeesByStudents(ctx context.Context, studentIDs []int, exec ...core.DBExecutor) ([]Fee, error)
		// QueryFeesBySchool joins student data; className narrows to one class
		// when non-empty.
		QueryFeesBySchool(ctx context.Context, schoolID int, className string, exec ...core.DBExecutor) ([]Fee, error)
		MarkFeePaid(ctx context.Context, id int, paidDate time.Time, exec ...core.DBExecutor) (Fee, error)
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

// Create bills the given student. The tenant is taken from the student row,
// never from the payload.
func (svc *Service) Create(ctx context.Context, std student.Student, nf NewFee) (Fee, error) {
	due, err := time.Parse(DateLayout, nf.DueDate)
	if err != nil {
		return Fee{}, err
	}
	status := nf.Status
	if status == "" {
		status = StatusPending
	}

	f, err := svc.repo.CreateFee(ctx, Fee{
		StudentID: std.ID,
		SchoolID:  std.SchoolID,
		FeeType:   nf.FeeType,
		Amount:    nf.Amount,
		DueDate:   due,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Fee{}, err
	}
	f.StudentName = std.FullName()
	f.RollNumber = std.RollNumber
	f.ClassName = std.ClassName
	return f, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Fee, error) {
	return svc.repo.GetFee(ctx, id)
}

func (svc *Service) ListByStudent(ctx context.Context, studentID int) ([]Fee, error) {
	return svc.repo.QueryFeesByStudents(ctx, []int{studentID})
}

func (svc *Service) ListByStudents(ctx context.Context, studentIDs []int) ([]Fee, error) {
	return svc.repo.QueryFeesByStudents(ctx, studentIDs)
}

func (svc *Service) ListBySchool(ctx context.Context, schoolID int, className string) ([]Fee, error) {
	return svc.repo.QueryFeesBySchool(ctx, schoolID, core.CleanString(className))
}

// MarkPaid sets status=paid and stamps today's date (UTC).
func (svc *Service) MarkPaid(ctx context.Context, id int) (Fee, error) {
	return svc.repo.MarkFeePaid(ctx, id, time.Now().UTC().Truncate(24*time.Hour))
}
