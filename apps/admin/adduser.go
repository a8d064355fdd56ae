package main

import (
	"context"
	"strings"

	"github.com/YounesFetouaki/edu-path/core/user"
)

// addUser creates a user after applying the same validation as the API: role, password policy & uniqueness.
func (cli *commandLine) addUser(uname, email, pwd, role string) (user.User, error) {
	ctx := context.Background()
	nu := user.NewUser{
		Username: uname,
		Email:    email,
		Password: pwd,
		Role:     strings.ToUpper(strings.TrimSpace(role)),
	}
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return user.User{}, err
	}
	return cli.usrSvc.Create(ctx, nu)
}
