package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/user"
)

// addUser creates an account with the given roles, or refreshes the roles and
// password of an existing one.
func (cli *commandLine) addUser(name, email, pwd string, roles []string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		nu := user.NewUser{
			Name:            name,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		}
		if err := nu.Validate(cli.usrSvc); err != nil {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, nu)
		return err
	}

	usr.Roles = roles
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	active := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	return err
}
