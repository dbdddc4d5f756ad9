package access

import (
	"testing"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

func TestCheck(t *testing.T) {
	activeTeacher := Caller{
		User:          user.User{ID: 1, Role: user.RoleTeacher, IsActive: true},
		Authenticated: true,
		SchoolID:      10,
		TeacherID:     5,
	}
	activeAdmin := Caller{
		User:          user.User{ID: 2, Role: user.RoleSchoolAdmin, IsActive: true},
		Authenticated: true,
		SchoolID:      10,
	}
	activeSuper := Caller{
		User:          user.User{ID: 3, Role: user.RoleSuperAdmin, IsActive: true},
		Authenticated: true,
	}

	tests := []struct {
		name       string
		caller     Caller
		required   user.Role
		target     *Target
		wantReason core.ErrorKind
	}{
		{
			name:       "anonymous",
			caller:     Caller{},
			required:   user.RoleStudent,
			wantReason: core.KindUnauthenticated,
		},
		{
			name: "anonymous trumps disabled",
			caller: Caller{
				User: user.User{Role: user.RoleStudent},
			},
			required:   user.RoleStudent,
			wantReason: core.KindUnauthenticated,
		},
		{
			name: "disabled account",
			caller: Caller{
				User:          user.User{Role: user.RoleTeacher},
				Authenticated: true,
				SchoolID:      10,
				TeacherID:     5,
			},
			required:   user.RoleTeacher,
			wantReason: core.KindAccountDisabled,
		},
		{
			name: "disabled trumps role mismatch",
			caller: Caller{
				User:          user.User{Role: user.RoleStudent},
				Authenticated: true,
			},
			required:   user.RoleTeacher,
			wantReason: core.KindAccountDisabled,
		},
		{
			name:       "role mismatch, no hierarchy",
			caller:     activeSuper,
			required:   user.RoleSchoolAdmin,
			wantReason: core.KindRoleMismatch,
		},
		{
			name:       "role mismatch trumps tenant mismatch",
			caller:     activeAdmin,
			required:   user.RoleTeacher,
			target:     &Target{SchoolID: 99},
			wantReason: core.KindRoleMismatch,
		},
		{
			name:       "foreign tenant",
			caller:     activeAdmin,
			required:   user.RoleSchoolAdmin,
			target:     &Target{SchoolID: 99},
			wantReason: core.KindTenantMismatch,
		},
		{
			name:       "tenant mismatch trumps ownership",
			caller:     activeTeacher,
			required:   user.RoleTeacher,
			target:     &Target{SchoolID: 99, OwnerTeacherID: 7},
			wantReason: core.KindTenantMismatch,
		},
		{
			name:       "not the owner",
			caller:     activeTeacher,
			required:   user.RoleTeacher,
			target:     &Target{SchoolID: 10, OwnerTeacherID: 7},
			wantReason: core.KindNotOwner,
		},
		{
			name:     "nil target skips tenant and ownership",
			caller:   activeTeacher,
			required: user.RoleTeacher,
		},
		{
			name:     "own tenant and own resource",
			caller:   activeTeacher,
			required: user.RoleTeacher,
			target:   &Target{SchoolID: 10, OwnerTeacherID: 5},
		},
		{
			name:     "school admin within tenant",
			caller:   activeAdmin,
			required: user.RoleSchoolAdmin,
			target:   &Target{SchoolID: 10},
		},
		{
			name:     "super admin has no tenant to match",
			caller:   activeSuper,
			required: user.RoleSuperAdmin,
			target:   &Target{SchoolID: 99},
		},
		{
			name: "ownership only binds teachers",
			caller: Caller{
				User:          user.User{Role: user.RoleSchoolAdmin, IsActive: true},
				Authenticated: true,
				SchoolID:      10,
			},
			required: user.RoleSchoolAdmin,
			target:   &Target{SchoolID: 10, OwnerTeacherID: 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Check(tt.caller, tt.required, tt.target)
			wantAllowed := tt.wantReason == ""
			if d.Allowed != wantAllowed {
				t.Errorf("Check() allowed = %v, want %v", d.Allowed, wantAllowed)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Check() reason = %v, want %v", d.Reason, tt.wantReason)
			}
		})
	}
}

func TestDecision_Err(t *testing.T) {
	if err := (Decision{Allowed: true}).Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}

	tests := []struct {
		reason  core.ErrorKind
		wantMsg string
	}{
		{reason: core.KindUnauthenticated, wantMsg: "authentication required"},
		{reason: core.KindAccountDisabled, wantMsg: "account is disabled"},
		{reason: core.KindRoleMismatch, wantMsg: "access denied for this role"},
		{reason: core.KindTenantMismatch, wantMsg: "resource belongs to another school"},
		{reason: core.KindNotOwner, wantMsg: "only the assignment owner may grade its submissions"},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			err := deny(tt.reason).Err()
			if err == nil {
				t.Fatal("Err() = nil, want error")
			}
			if kind, _ := core.KindOf(err); kind != tt.reason {
				t.Errorf("KindOf() = %v, want %v", kind, tt.reason)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}
