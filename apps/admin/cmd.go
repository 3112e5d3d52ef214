package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
)

const tokenEnv = "MURIM_TOKEN"

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp    = errors.New("help provided")
	errNoToken = fmt.Errorf("no token: run `login` and set %s", tokenEnv)
)

type commandLine struct {
	svc        *api.Services
	exporter   core.SheetExporter
	validate   *validator.Validate
	translator ut.Translator
	openDB     func() (*sql.DB, error)
	out        io.Writer
	getenv     func(string) string
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL          - log in to the backend and print the session token")
	fmt.Fprintln(cli.out, "  dashboard [-token TOKEN]    - print the admin dashboard counters")
	fmt.Fprintln(cli.out, "  export-alunos [-token TOKEN] - export every student to the configured sheet")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]   - run a goose command on the session database")
	fmt.Fprintf(cli.out, "TOKEN defaults to $%s.\n", tokenEnv)
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginEmail := loginCmd.String("email", "", "The admin's email. The password will be prompted next.")

	dashboardCmd := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	dashboardToken := dashboardCmd.String("token", "", "Backend token (defaults to $"+tokenEnv+")")

	exportCmd := flag.NewFlagSet("export-alunos", flag.ContinueOnError)
	exportToken := exportCmd.String("token", "", "Backend token (defaults to $"+tokenEnv+")")

	for _, fs := range []*flag.FlagSet{loginCmd, dashboardCmd, exportCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(*loginEmail, string(pwd))
	case "dashboard":
		if err := dashboardCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		token, err := cli.token(*dashboardToken)
		if err != nil {
			return err
		}
		return cli.dashboard(token)
	case "export-alunos":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		token, err := cli.token(*exportToken)
		if err != nil {
			return err
		}
		return cli.exportAlunos(token)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) token(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	getenv := cli.getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if token := getenv(tokenEnv); token != "" {
		return token, nil
	}
	return "", errNoToken
}
