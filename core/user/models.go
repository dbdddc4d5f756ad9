package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

// Role is the closed set of actor roles; every endpoint requires exactly one.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleSchoolAdmin Role = "school_admin"
	RoleTeacher     Role = "teacher"
	RoleStudent     Role = "student"
)

var Roles = []RoleInfo{
	{Name: "Super Admin", Value: RoleSuperAdmin},
	{Name: "School Admin", Value: RoleSchoolAdmin},
	{Name: "Teacher", Value: RoleTeacher},
	{Name: "Student", Value: RoleStudent},
}

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

func (r Role) Label() string {
	for _, ri := range Roles {
		if ri.Value == r {
			return ri.Name
		}
	}
	return string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleSchoolAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsSuperAdmin() bool  { return u.Role == RoleSuperAdmin }
func (u *User) IsSchoolAdmin() bool { return u.Role == RoleSchoolAdmin }
func (u *User) IsTeacher() bool     { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool     { return u.Role == RoleStudent }

// BuildUsername composes the default handle for a provisioned account.
func BuildUsername(firstName, lastName string) string {
	first := core.CleanString(firstName, true /* lower */)
	last := core.CleanString(lastName, true /* lower */)
	return strings.ReplaceAll(first, " ", "") + "." + strings.ReplaceAll(last, " ", "")
}

// RegisterUser contains information needed for self-service registration;
// the role is always student.
type RegisterUser struct {
	Username        string `json:"username" validate:"required,min=3,username"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (ru *RegisterUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ru.Username = core.CleanString(ru.Username, true /* lower */)
	ru.Email = core.CleanString(ru.Email, true /* lower */)

	if err := validate.Struct(ru); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ru.Username, ru.Email)
}

// NewUser contains information needed to create a new User with any role.
type NewUser struct {
	Username string `json:"username" validate:"required,min=3,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"required,oneof=super_admin school_admin teacher student"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing
// User; absent fields are left untouched.
type UpdateUser struct {
	Username string `json:"username" validate:"omitempty,min=3,username"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsActive *bool  `json:"is_active"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc *Service) error {
	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Username, uu.Email, origUsr)
}

type GetFilter struct {
	ID              int
	Username        string
	Email           string
	UsernameOrEmail string
}

type QueryFilter struct {
	Role     Role
	IsActive *bool
}
