package student

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// Student is a school-scoped profile backed by a student account.
type Student struct {
	ID          int       `json:"id" db:"id"`
	UserID      int       `json:"user_id" db:"user_id"`
	SchoolID    int       `json:"school_id" db:"school_id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	RollNumber  string    `json:"roll_number" db:"roll_number"`
	ClassName   string    `json:"class_name" db:"class_name"`
	DateOfBirth string    `json:"date_of_birth" db:"date_of_birth"` // YYYY-MM-DD, may be empty
	ParentPhone string    `json:"parent_phone" db:"parent_phone"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC

	// joined
	Username string `json:"username,omitempty" db:"username"`
	Email    string `json:"email,omitempty" db:"email"`
}

func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// NewStudent contains information needed to provision a Student and its
// account. Password falls back to the default when omitted.
type NewStudent struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	RollNumber  string `json:"roll_number"`
	ClassName   string `json:"class_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	ParentPhone string `json:"parent_phone"`
	Password    string `json:"password" validate:"omitempty,min=8"`
}

func (ns *NewStudent) clean() {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.RollNumber = core.CleanString(ns.RollNumber)
	ns.ClassName = core.CleanString(ns.ClassName)
	ns.DateOfBirth = core.CleanString(ns.DateOfBirth)
	ns.ParentPhone = core.CleanString(ns.ParentPhone)
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.clean()
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return user.CheckUniqueness(ctx, svc.usrRepo, "", ns.Email)
}

// UpdateStudent defines what information may be provided to modify an
// existing Student; absent fields are left untouched.
type UpdateStudent struct {
	RollNumber  string `json:"roll_number"`
	ClassName   string `json:"class_name"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	ParentPhone string `json:"parent_phone"`
}

func (us *UpdateStudent) Validate(origStd Student, validate *validator.Validate) error {
	roll := core.CleanString(us.RollNumber)
	if roll != "" {
		us.RollNumber = roll
	} else {
		us.RollNumber = origStd.RollNumber
	}

	class := core.CleanString(us.ClassName)
	if class != "" {
		us.ClassName = class
	} else {
		us.ClassName = origStd.ClassName
	}

	dob := core.CleanString(us.DateOfBirth)
	if dob != "" {
		us.DateOfBirth = dob
	} else {
		us.DateOfBirth = origStd.DateOfBirth
	}

	phone := core.CleanString(us.ParentPhone)
	if phone != "" {
		us.ParentPhone = phone
	} else {
		us.ParentPhone = origStd.ParentPhone
	}

	return validate.Struct(us)
}

// ImportResult summarizes a bulk CSV import: how many rows landed and what
// went wrong with the ones that did not.
type ImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

type GetFilter struct {
	ID     int
	UserID int
}

type QueryFilter struct {
	SchoolID  int
	ClassName string
	IDs       []int
}
