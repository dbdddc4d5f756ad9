package teacher

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("teacher not found")
)

const defaultPassword = "teacher123"

type (
	Repository interface {
		CreateTeacher(ctx context.Context, tcr Teacher, exec ...core.DBExecutor) (Teacher, error)
		// GetTeacher applies the first non-zero GetFilter field.
		GetTeacher(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Teacher, error)
		QueryTeachersBySchool(ctx context.Context, schoolID int, exec ...core.DBExecutor) ([]Teacher, error)
		QueryRecentTeachers(ctx context.Context, schoolID, limit int, exec ...core.DBExecutor) ([]Teacher, error)
		CountTeachers(ctx context.Context, schoolID int, exec ...core.DBExecutor) (int, error)
		UpdateTeacher(ctx context.Context, tcr Teacher, exec ...core.DBExecutor) (Teacher, error)
		DeleteTeachersByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error
	}

	Service struct {
		db      core.DB
		repo    Repository
		usrRepo user.Repository
		usrSvc  *user.Service
	}
)

func NewService(db core.DB, repo Repository, usrRepo user.Repository, usrSvc *user.Service) *Service {
	return &Service{
		db:      db,
		repo:    repo,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
	}
}

// Create provisions the teacher account and profile in one transaction and
// mails the credentials.
func (svc *Service) Create(ctx context.Context, sch school.School, nt NewTeacher) (Teacher, error) {
	now := time.Now().UTC()
	pwd := nt.Password
	if pwd == "" {
		pwd = defaultPassword
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Teacher{}, err
	}

	uname, err := user.AllocateUsername(ctx, svc.usrRepo, nt.FirstName, nt.LastName, sch.ID, tx)
	if err != nil {
		_ = tx.Rollback()
		return Teacher{}, err
	}
	usr := user.User{
		Username:  uname,
		Email:     nt.Email,
		Role:      user.RoleTeacher,
		IsActive:  true,
		CreatedAt: now,
	}
	if err = usr.SetPassword(pwd); err != nil {
		_ = tx.Rollback()
		return Teacher{}, err
	}
	if usr, err = svc.usrRepo.CreateUser(ctx, usr, tx); err != nil {
		_ = tx.Rollback()
		return Teacher{}, err
	}

	tcr, err := svc.repo.CreateTeacher(ctx, Teacher{
		UserID:        usr.ID,
		SchoolID:      sch.ID,
		FirstName:     nt.FirstName,
		LastName:      nt.LastName,
		Subject:       nt.Subject,
		Qualification: nt.Qualification,
		CreatedAt:     now,
	}, tx)
	if err != nil {
		_ = tx.Rollback()
		return Teacher{}, err
	}
	if err = tx.Commit(); err != nil {
		return Teacher{}, err
	}

	tcr.Username = usr.Username
	tcr.Email = usr.Email
	svc.usrSvc.SendCredentialsEmail(tcr.FullName(), sch.Name, usr, pwd)
	return tcr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, GetFilter{ID: id})
}

// GetByUser resolves the profile behind a teacher account.
func (svc *Service) GetByUser(ctx context.Context, userID int) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, GetFilter{UserID: userID})
}

func (svc *Service) ListBySchool(ctx context.Context, schoolID int) ([]Teacher, error) {
	return svc.repo.QueryTeachersBySchool(ctx, schoolID)
}

func (svc *Service) Recent(ctx context.Context, schoolID, limit int) ([]Teacher, error) {
	return svc.repo.QueryRecentTeachers(ctx, schoolID, limit)
}

func (svc *Service) Count(ctx context.Context, schoolID int) (int, error) {
	return svc.repo.CountTeachers(ctx, schoolID)
}

func (svc *Service) Update(ctx context.Context, id int, ut UpdateTeacher) (Teacher, error) {
	return svc.repo.UpdateTeacher(ctx, Teacher{
		ID:            id,
		Subject:       ut.Subject,
		Qualification: ut.Qualification,
	})
}

// Delete removes the profile and its account in one transaction.
func (svc *Service) Delete(ctx context.Context, id int) error {
	tcr, err := svc.repo.GetTeacher(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteTeachersByID(ctx, []int{tcr.ID}, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = svc.usrRepo.DeleteUsersByID(ctx, []int{tcr.UserID}, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
