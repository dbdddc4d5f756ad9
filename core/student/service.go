package student

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("student not found")
	ErrBadCSVHeader = errors.New("invalid CSV header")
)

// defaultPassword is the initial password for provisioned students; the
// credentials email tells them to change it.
const defaultPassword = "student123"

var csvHeader = []string{"first_name", "last_name", "email", "roll_number", "class_name", "date_of_birth", "parent_phone"}

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		// GetStudent applies the first non-zero GetFilter field.
		GetStudent(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		QueryStudents(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Student, error)
		QueryClassNames(ctx context.Context, schoolID int, exec ...core.DBExecutor) ([]string, error)
		QueryRecentStudents(ctx context.Context, schoolID, limit int, exec ...core.DBExecutor) ([]Student, error)
		CountStudents(ctx context.Context, schoolID int, exec ...core.DBExecutor) (int, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error
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

// Create provisions the student account and profile in one transaction and
// mails the credentials. The username falls back to "first.last.<schoolID>"
// when "first.last" is taken.
func (svc *Service) Create(ctx context.Context, sch school.School, ns NewStudent) (Student, error) {
	pwd := ns.Password
	if pwd == "" {
		pwd = defaultPassword
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Student{}, err
	}
	std, usr, err := svc.create(ctx, sch.ID, ns, pwd, tx)
	if err != nil {
		_ = tx.Rollback()
		return Student{}, err
	}
	if err = tx.Commit(); err != nil {
		return Student{}, err
	}

	svc.usrSvc.SendCredentialsEmail(std.FullName(), sch.Name, usr, pwd)
	return std, nil
}

func (svc *Service) create(ctx context.Context, schoolID int, ns NewStudent, pwd string, tx core.DBTransactor) (Student, user.User, error) {
	now := time.Now().UTC()

	uname, err := user.AllocateUsername(ctx, svc.usrRepo, ns.FirstName, ns.LastName, schoolID, tx)
	if err != nil {
		return Student{}, user.User{}, err
	}
	usr := user.User{
		Username:  uname,
		Email:     ns.Email,
		Role:      user.RoleStudent,
		IsActive:  true,
		CreatedAt: now,
	}
	if err = usr.SetPassword(pwd); err != nil {
		return Student{}, user.User{}, err
	}
	if usr, err = svc.usrRepo.CreateUser(ctx, usr, tx); err != nil {
		return Student{}, user.User{}, err
	}

	std, err := svc.repo.CreateStudent(ctx, Student{
		UserID:      usr.ID,
		SchoolID:    schoolID,
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		RollNumber:  ns.RollNumber,
		ClassName:   ns.ClassName,
		DateOfBirth: ns.DateOfBirth,
		ParentPhone: ns.ParentPhone,
		CreatedAt:   now,
	}, tx)
	if err != nil {
		return Student{}, user.User{}, err
	}
	std.Username = usr.Username
	std.Email = usr.Email
	return std, usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{ID: id})
}

// GetByUser resolves the profile behind a student account.
func (svc *Service) GetByUser(ctx context.Context, userID int) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{UserID: userID})
}

func (svc *Service) ListBySchool(ctx context.Context, schoolID int) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, QueryFilter{SchoolID: schoolID})
}

func (svc *Service) ListByClass(ctx context.Context, schoolID int, className string) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, QueryFilter{SchoolID: schoolID, ClassName: core.CleanString(className)})
}

// ClassNames lists the distinct class labels in use at a school.
func (svc *Service) ClassNames(ctx context.Context, schoolID int) ([]string, error) {
	return svc.repo.QueryClassNames(ctx, schoolID)
}

func (svc *Service) Recent(ctx context.Context, schoolID, limit int) ([]Student, error) {
	return svc.repo.QueryRecentStudents(ctx, schoolID, limit)
}

func (svc *Service) Count(ctx context.Context, schoolID int) (int, error) {
	return svc.repo.CountStudents(ctx, schoolID)
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	return svc.repo.UpdateStudent(ctx, Student{
		ID:          id,
		RollNumber:  us.RollNumber,
		ClassName:   us.ClassName,
		DateOfBirth: us.DateOfBirth,
		ParentPhone: us.ParentPhone,
	})
}

// Delete removes the profile and its account in one transaction.
func (svc *Service) Delete(ctx context.Context, id int) error {
	std, err := svc.repo.GetStudent(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteStudentsByID(ctx, []int{std.ID}, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = svc.usrRepo.DeleteUsersByID(ctx, []int{std.UserID}, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// BulkImport provisions students from a CSV stream. Rows are independent:
// bad rows are reported as "row N: reason" (N counts data rows from 1) and
// the good ones land in a single transaction.
func (svc *Service) BulkImport(ctx context.Context, sch school.School, r io.Reader, validate *validator.Validate) (ImportResult, error) {
	res := ImportResult{Errors: []string{}}

	csvr := csv.NewReader(r)
	csvr.TrimLeadingSpace = true

	header, err := csvr.Read()
	if err == io.EOF {
		return res, ErrBadCSVHeader
	}
	if err != nil {
		return res, err
	}
	if !matchesHeader(header) {
		return res, ErrBadCSVHeader
	}

	type row struct {
		n  int
		ns NewStudent
	}
	var rows []row
	seenEmails := make(map[string]int) // email -> first row claiming it

	for n := 1; ; n++ {
		record, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", n, err))
			continue
		}

		ns := NewStudent{
			FirstName:   record[0],
			LastName:    record[1],
			Email:       record[2],
			RollNumber:  record[3],
			ClassName:   record[4],
			DateOfBirth: record[5],
			ParentPhone: record[6],
		}
		ns.clean()
		if err = validate.Struct(&ns); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %s", n, describeRowErr(err)))
			continue
		}
		if first, dup := seenEmails[ns.Email]; dup {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: duplicate email (already used on row %d)", n, first))
			continue
		}
		if err = user.CheckUniqueness(ctx, svc.usrRepo, "", ns.Email); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %s", n, describeRowErr(err)))
			continue
		}
		seenEmails[ns.Email] = n
		rows = append(rows, row{n: n, ns: ns})
	}

	if len(rows) == 0 {
		return res, nil
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	type welcome struct {
		std Student
		usr user.User
	}
	welcomes := make([]welcome, 0, len(rows))
	for _, rw := range rows {
		std, usr, err := svc.create(ctx, sch.ID, rw.ns, defaultPassword, tx)
		if err != nil {
			var verr *core.ValidationError
			if errors.As(err, &verr) {
				// username exhausted for this row; the others still go in
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: %s", rw.n, describeRowErr(err)))
				continue
			}
			_ = tx.Rollback()
			return ImportResult{Errors: res.Errors}, err
		}
		welcomes = append(welcomes, welcome{std: std, usr: usr})
	}
	if err = tx.Commit(); err != nil {
		return ImportResult{Errors: res.Errors}, err
	}

	for _, w := range welcomes {
		svc.usrSvc.SendCredentialsEmail(w.std.FullName(), sch.Name, w.usr, defaultPassword)
	}
	res.Imported = len(welcomes)
	return res, nil
}

func matchesHeader(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i, col := range header {
		if core.CleanString(col, true /* lower */) != csvHeader[i] {
			return false
		}
	}
	return true
}

// describeRowErr flattens an error into a one-line reason for the import
// report.
func describeRowErr(err error) string {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		if fe.Tag() == "required" {
			return fe.Field() + " is required"
		}
		return "invalid " + fe.Field()
	}
	return strings.TrimSpace(err.Error())
}
