package main

import (
	"context"

	"github.com/kazimoto/shule/core/profile"
)

// grantSuper grants the super_admin role out-of-band. The HTTP promotion path
// can never mint a super admin; this is the only way in.
func (cli *commandLine) grantSuper(email string) error {
	ctx := context.Background()

	prof, err := cli.profiles.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if prof.IsSuperAdmin() {
		logger.Printf("%s is already a super admin", prof.Email)
		return nil
	}

	if _, err = cli.profiles.UpdateRoles(ctx, prof.ID, append(prof.Roles, profile.RoleSuperAdmin)); err != nil {
		return err
	}
	logger.Printf("granted super_admin to %s", prof.Email)
	return nil
}

func (cli *commandLine) revokeSuper(email string) error {
	ctx := context.Background()

	prof, err := cli.profiles.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !prof.IsSuperAdmin() {
		logger.Printf("%s is not a super admin", prof.Email)
		return nil
	}

	roles := make([]string, 0, len(prof.Roles))
	for _, r := range prof.Roles {
		if r != profile.RoleSuperAdmin {
			roles = append(roles, r)
		}
	}
	// a profile's role set is never empty once created
	if len(roles) == 0 {
		roles = []string{profile.RoleParent}
	}

	if _, err = cli.profiles.UpdateRoles(ctx, prof.ID, roles); err != nil {
		return err
	}
	logger.Printf("revoked super_admin from %s", prof.Email)
	return nil
}
