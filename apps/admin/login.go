package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
)

var errNotAdmin = errors.New("this account is not an administrator")

// login checks the admin's credentials against the backend and prints the token.
func (cli *commandLine) login(email, pwd string) error {
	form := api.LoginForm{Email: email, Password: pwd}
	if err := form.Validate(cli.validate); err != nil {
		return core.TranslateValidation(err, cli.translator)
	}

	res, err := cli.svc.Auth.Login(context.Background(), form)
	if err != nil {
		return err
	}
	if !res.User.Admin() {
		_ = cli.svc.Auth.Logout(context.Background(), res.Token)
		return errNotAdmin
	}

	fmt.Fprintf(cli.out, "Logged in as %s <%s>.\n", res.User.Name, res.User.Email)
	fmt.Fprintf(cli.out, "export %s=%s\n", tokenEnv, res.Token)
	return nil
}
