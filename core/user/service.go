package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists or ErrEmailExists when another
		// user (not in excludedUsers) already holds the username or email.
		// Empty username or email is not checked.
		CheckUniqueness(ctx context.Context, username, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// GetUser applies the first non-zero GetFilter field.
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		QueryUsers(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]User, error)
		CountUsersByRole(ctx context.Context, role Role, exec ...core.DBExecutor) (int, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool, exec ...core.DBExecutor) (User, error)
		DeleteUsersByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error
	}

	Service struct {
		conf    *core.Config
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		conf:    conf,
		db:      db,
		repo:    repo,
		mailSvc: mailSvc,
	}
}

// CheckUniqueness maps repository sentinel errors to field-level conflict errors.
func CheckUniqueness(ctx context.Context, repo Repository, uname, email string, exclUsers ...User) error {
	if err := repo.CheckUniqueness(ctx, uname, email, exclUsers); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewConflictError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	return CheckUniqueness(ctx, svc.repo, uname, email, exclUsers...)
}

// AllocateUsername returns the first free handle for a provisioned account:
// "first.last", then "first.last.<schoolID>". When both are taken the
// conflict surfaces as a field-level error instead of a third tier.
func AllocateUsername(ctx context.Context, repo Repository, firstName, lastName string, schoolID int, exec ...core.DBExecutor) (string, error) {
	uname := BuildUsername(firstName, lastName)
	for _, candidate := range []string{uname, fmt.Sprintf("%s.%d", uname, schoolID)} {
		err := repo.CheckUniqueness(ctx, candidate, "", nil, exec...)
		if err == nil {
			return candidate, nil
		}
		if err != ErrUsernameExists {
			return "", err
		}
	}
	return "", core.NewConflictError(
		ErrUsernameExists,
		core.FieldError{Field: "username", Error: ErrUsernameExists.Error()},
	)
}

// Register creates a self-service account; the role is always student.
func (svc *Service) Register(ctx context.Context, ru RegisterUser) (User, error) {
	return svc.create(ctx, ru.Username, ru.Email, ru.Password, RoleStudent)
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	return svc.create(ctx, nu.Username, nu.Email, nu.Password, nu.Role)
}

func (svc *Service) create(ctx context.Context, uname, email, pwd string, role Role) (User, error) {
	usr := User{
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter)
}

func (svc *Service) CountByRole(ctx context.Context, role Role) (int, error) {
	return svc.repo.CountUsersByRole(ctx, role)
}

func (svc *Service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:       id,
		Username: uu.Username,
		Email:    uu.Email,
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

// SetActive flips the account switch; a disabled account fails every
// authenticated request until re-enabled.
func (svc *Service) SetActive(ctx context.Context, id int, active bool) (User, error) {
	return svc.repo.UpdateUser(ctx, User{ID: id}, &active)
}

func (svc *Service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteUsersByID(ctx, ids)
}

// SendCredentialsEmail mails the initial username/password to a freshly
// provisioned account. Delivery runs in the background; failures are logged
// by the email service.
func (svc *Service) SendCredentialsEmail(name, schoolName string, usr User, pwd string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: name, Address: usr.Email}},
		Subject:      fmt.Sprintf("Welcome to %s", svc.conf.AppName),
		TemplateName: "welcome",
		TemplateData: struct {
			Name       string
			SchoolName string
			Username   string
			Password   string
		}{name, schoolName, usr.Username, pwd},
	})
}
