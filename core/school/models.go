package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// School is the tenant every profile and record hangs off of.
type School struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email" db:"email"`
	AdminID   int       `json:"admin_id" db:"admin_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC

	// joined
	AdminUsername string `json:"admin_username,omitempty" db:"admin_username"`
}

// Admin is a school_admin account with its tenant resolved; admins whose
// school was deleted show up with the NoSchool placeholder.
type Admin struct {
	user.User
	SchoolName string `json:"school_name" db:"school_name"`
}

const NoSchool = "No School"

// NewSchool contains information needed to create a School together with
// its school_admin account; both land in one transaction.
type NewSchool struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`

	AdminUsername string `json:"admin_username" validate:"required,min=3,username"`
	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminPassword string `json:"admin_password" validate:"required,min=8"`
}

func (ns *NewSchool) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Address = core.CleanString(ns.Address)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.AdminUsername = core.CleanString(ns.AdminUsername, true /* lower */)
	ns.AdminEmail = core.CleanString(ns.AdminEmail, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return user.CheckUniqueness(ctx, svc.usrRepo, ns.AdminUsername, ns.AdminEmail)
}

// UpdateSchool defines what information may be provided to modify an existing
// School; absent fields are left untouched.
type UpdateSchool struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsActive *bool  `json:"is_active"`
}

func (us *UpdateSchool) Validate(origSch School, validate *validator.Validate) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = origSch.Name
	}

	address := core.CleanString(us.Address)
	if address != "" {
		us.Address = address
	} else {
		us.Address = origSch.Address
	}

	phone := core.CleanString(us.Phone)
	if phone != "" {
		us.Phone = phone
	} else {
		us.Phone = origSch.Phone
	}

	email := core.CleanString(us.Email, true /* lower */)
	if email != "" {
		us.Email = email
	} else {
		us.Email = origSch.Email
	}

	return validate.Struct(us)
}

type GetFilter struct {
	ID      int
	AdminID int
}
