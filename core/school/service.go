package school

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("school not found")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School, exec ...core.DBExecutor) (School, error)
		QueryAllSchools(ctx context.Context, exec ...core.DBExecutor) ([]School, error)
		// GetSchool applies the first non-zero GetFilter field.
		GetSchool(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (School, error)
		QueryAdmins(ctx context.Context, exec ...core.DBExecutor) ([]Admin, error)
		UpdateSchool(ctx context.Context, sch School, isActive *bool, exec ...core.DBExecutor) (School, error)
		DeleteSchoolsByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error
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

// Create provisions the School and its school_admin account in one
// transaction; neither exists if the other fails.
func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	now := time.Now().UTC()

	admin := user.User{
		Username:  ns.AdminUsername,
		Email:     ns.AdminEmail,
		Role:      user.RoleSchoolAdmin,
		IsActive:  true,
		CreatedAt: now,
	}
	if err := admin.SetPassword(ns.AdminPassword); err != nil {
		return School{}, err
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return School{}, err
	}

	admin, err = svc.usrRepo.CreateUser(ctx, admin, tx)
	if err != nil {
		_ = tx.Rollback()
		return School{}, err
	}
	sch, err := svc.repo.CreateSchool(ctx, School{
		Name:      ns.Name,
		Address:   ns.Address,
		Phone:     ns.Phone,
		Email:     ns.Email,
		AdminID:   admin.ID,
		IsActive:  true,
		CreatedAt: now,
	}, tx)
	if err != nil {
		_ = tx.Rollback()
		return School{}, err
	}
	if err = tx.Commit(); err != nil {
		return School{}, err
	}

	sch.AdminUsername = admin.Username
	svc.usrSvc.SendCredentialsEmail(admin.Username, sch.Name, admin, ns.AdminPassword)
	return sch, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]School, error) {
	return svc.repo.QueryAllSchools(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (School, error) {
	return svc.repo.GetSchool(ctx, GetFilter{ID: id})
}

// GetByAdmin resolves a school_admin's tenant. ErrNotFound means the admin
// has no school yet; callers decide what that implies.
func (svc *Service) GetByAdmin(ctx context.Context, adminID int) (School, error) {
	return svc.repo.GetSchool(ctx, GetFilter{AdminID: adminID})
}

// Admins lists every school_admin account with its school name resolved.
func (svc *Service) Admins(ctx context.Context) ([]Admin, error) {
	admins, err := svc.repo.QueryAdmins(ctx)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		if admins[i].SchoolName == "" {
			admins[i].SchoolName = NoSchool
		}
	}
	return admins, nil
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateSchool) (School, error) {
	return svc.repo.UpdateSchool(ctx, School{
		ID:      id,
		Name:    us.Name,
		Address: us.Address,
		Phone:   us.Phone,
		Email:   us.Email,
	}, us.IsActive)
}

// Delete removes the School row only; the admin account survives and shows
// up under NoSchool until reassigned.
func (svc *Service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteSchoolsByID(ctx, ids)
}

// ToggleAdmin flips a school_admin account's active switch and reports the
// new state.
func (svc *Service) ToggleAdmin(ctx context.Context, adminID int) (user.User, error) {
	usr, err := svc.usrSvc.GetByID(ctx, adminID)
	if err != nil {
		return user.User{}, err
	}
	return svc.usrSvc.SetActive(ctx, adminID, !usr.IsActive)
}
