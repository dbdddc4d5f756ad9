package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// EnsureSuperAdmin creates the platform owner account from Bootstrap config
// when it does not exist yet. Safe to run on every start.
func EnsureSuperAdmin(ctx context.Context, conf *core.Config, usrRepo user.Repository) error {
	_, err := usrRepo.GetUser(ctx, user.GetFilter{Username: conf.Bootstrap.AdminUsername})
	switch err {
	case nil:
		return nil
	case user.ErrNotFound:
	default:
		return errors.Wrap(err, "looking up super admin")
	}

	usr := user.User{
		Username:  conf.Bootstrap.AdminUsername,
		Email:     conf.Bootstrap.AdminEmail,
		Role:      user.RoleSuperAdmin,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err = usr.SetPassword(conf.Bootstrap.AdminPassword); err != nil {
		return errors.Wrap(err, "hashing super admin password")
	}
	if _, err = usrRepo.CreateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "creating super admin")
	}
	return nil
}
