package teacher

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// Teacher is a school-scoped profile backed by a teacher account.
type Teacher struct {
	ID            int       `json:"id" db:"id"`
	UserID        int       `json:"user_id" db:"user_id"`
	SchoolID      int       `json:"school_id" db:"school_id"`
	FirstName     string    `json:"first_name" db:"first_name"`
	LastName      string    `json:"last_name" db:"last_name"`
	Subject       string    `json:"subject" db:"subject"`
	Qualification string    `json:"qualification" db:"qualification"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"` // UTC

	// joined
	Username string `json:"username,omitempty" db:"username"`
	Email    string `json:"email,omitempty" db:"email"`
}

func (t *Teacher) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// NewTeacher contains information needed to provision a Teacher and its
// account. Password falls back to the default when omitted.
type NewTeacher struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Subject       string `json:"subject" validate:"required"`
	Qualification string `json:"qualification"`
	Password      string `json:"password" validate:"omitempty,min=8"`
}

func (nt *NewTeacher) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Subject = core.CleanString(nt.Subject)
	nt.Qualification = core.CleanString(nt.Qualification)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return user.CheckUniqueness(ctx, svc.usrRepo, "", nt.Email)
}

// UpdateTeacher defines what information may be provided to modify an
// existing Teacher; absent fields are left untouched.
type UpdateTeacher struct {
	Subject       string `json:"subject"`
	Qualification string `json:"qualification"`
}

func (ut *UpdateTeacher) Validate(origTcr Teacher, validate *validator.Validate) error {
	subject := core.CleanString(ut.Subject)
	if subject != "" {
		ut.Subject = subject
	} else {
		ut.Subject = origTcr.Subject
	}

	qual := core.CleanString(ut.Qualification)
	if qual != "" {
		ut.Qualification = qual
	} else {
		ut.Qualification = origTcr.Qualification
	}

	return validate.Struct(ut)
}

type GetFilter struct {
	ID     int
	UserID int
}
