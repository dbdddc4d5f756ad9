// Package access is the tenant/role gate. Check is pure: it does no I/O and
// keeps no state, so every request re-evaluates it against fresh snapshots.
package access

import (
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type (
	// Caller is the request-time snapshot of who is asking: the fresh user
	// row plus the resolved tenant and, for teachers, the profile id.
	Caller struct {
		User          user.User
		Authenticated bool
		SchoolID      int // 0 when the caller has no tenant
		TeacherID     int // 0 unless the caller is a teacher
	}

	// Target is the snapshot of what is being touched: the entity's
	// transitive school and, for grade/feedback operations, the owning
	// teacher.
	Target struct {
		SchoolID       int
		OwnerTeacherID int
	}

	Decision struct {
		Allowed bool
		Reason  core.ErrorKind
	}
)

var reasonMsgs = map[core.ErrorKind]string{
	core.KindUnauthenticated: "authentication required",
	core.KindAccountDisabled: "account is disabled",
	core.KindRoleMismatch:    "access denied for this role",
	core.KindTenantMismatch:  "resource belongs to another school",
	core.KindNotOwner:        "only the assignment owner may grade its submissions",
}

func deny(reason core.ErrorKind) Decision {
	return Decision{Reason: reason}
}

// Err maps a denial to its classified error; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return core.NewAppError(d.Reason, reasonMsgs[d.Reason])
}

// Check evaluates the rules in order and stops at the first denial:
//  1. caller must be authenticated
//  2. caller's account must be active
//  3. caller's role must equal the required role; no hierarchy
//  4. for school_admin and teacher, the target's school must be the caller's
//  5. when the target names an owning teacher, the caller must be them
//  6. otherwise allow
//
// A nil target skips rules 4 and 5 (operations without a tenant-scoped
// target, e.g. listings resolved from the caller's own tenant).
func Check(c Caller, required user.Role, t *Target) Decision {
	if !c.Authenticated {
		return deny(core.KindUnauthenticated)
	}
	if !c.User.IsActive {
		return deny(core.KindAccountDisabled)
	}
	if c.User.Role != required {
		return deny(core.KindRoleMismatch)
	}
	if t != nil {
		if required == user.RoleSchoolAdmin || required == user.RoleTeacher {
			if t.SchoolID != c.SchoolID {
				return deny(core.KindTenantMismatch)
			}
		}
		if t.OwnerTeacherID != 0 && required == user.RoleTeacher {
			if t.OwnerTeacherID != c.TeacherID {
				return deny(core.KindNotOwner)
			}
		}
	}
	return Decision{Allowed: true}
}
