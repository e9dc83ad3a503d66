package main

import (
	"context"

	"github.com/eakinwale/acadia/core/user"
)

// addAdmin creates a user holding every admin role.
func (cli *commandLine) addAdmin(name, email, pwd string) error {
	nu := user.NewUser{
		Name:            name,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           user.AdminRoles,
	}
	if err := nu.Validate(cli.usrSvc); err != nil {
		return err
	}
	_, err := cli.usrSvc.Create(context.Background(), nu)
	return err
}
