package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	testutil "github.com/matkerbino/murim/tests"
)

type fakeExporter struct {
	err    error
	header []string
	rows   [][]interface{}
}

func (e *fakeExporter) Export(_ context.Context, header []string, rows [][]interface{}) error {
	if e.err != nil {
		return e.err
	}
	e.header, e.rows = header, rows
	return nil
}

func setup(t *testing.T) (*commandLine, *testutil.Backend, *bytes.Buffer) {
	backend := testutil.NewBackend(t)
	conf := core.NewTestConfig(backend.URL)
	out := new(bytes.Buffer)
	validate, translator := testutil.NewValidator()

	return &commandLine{
		svc:        api.NewServices(api.NewClient(conf.APIURL, conf.APITimeout)),
		exporter:   &fakeExporter{},
		validate:   validate,
		translator: translator,
		openDB: func() (*sql.DB, error) {
			return sql.Open("postgres", "postgres://localhost/murim_test?sslmode=disable")
		},
		out:    out,
		getenv: func(string) string { return "" },
	}, backend, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    []string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error, out string) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.ErrorIs(t, err, tt.wantErr)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
	for _, s := range tt.wantOut {
		assert.Contains(t, out, s)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: []string{"export-alunos"}},
		{name: "unknown flag", args: []string{"dashboard", "-lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(append([]string{"admin"}, tt.args...))
			tt.check(t, err, out.String())
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	var gotCommand string
	var gotArgs []string
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		gotCommand, gotArgs = command, args
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "sessions_index", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			tt.check(t, err, "")
		})
	}

	t.Run("arguments are passed through", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "migrate", "create", "sessions_index", "sql"}))
		assert.Equal(t, "create", gotCommand)
		assert.Equal(t, []string{"sessions_index", "sql"}, gotArgs)
	})

	t.Run("database unavailable", func(t *testing.T) {
		cli, _, _ := setup(t)
		cli.openDB = func() (*sql.DB, error) { return nil, errors.New("connection refused") }
		assert.EqualError(t, cli.run([]string{"admin", "migrate", "up"}), "connection refused")
	})
}

func Test_commandLine_login(t *testing.T) {
	cli, backend, out := setup(t)
	testutil.NewUser(t, backend, "Admin", "admin@murim.com", "kungfu123", true)
	testutil.NewUser(t, backend, "Aluno", "aluno@murim.com", "kungfu123", false)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"login"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"login", "-email", "admin@murim.com"}, wantErr: errHelp},
		{name: "invalid email", args: []string{"login", "-email", "admin"}, extra: extra{pwd: "kungfu123"}, wantErrStr: "email: e-mail inválido"},
		{name: "wrong password", args: []string{"login", "-email", "admin@murim.com"}, extra: extra{pwd: "lol"}, wantErrStr: "logging in"},
		{name: "not an admin", args: []string{"login", "-email", "aluno@murim.com"}, extra: extra{pwd: "kungfu123"}, wantErr: errNotAdmin},
		{
			name:    "admin",
			args:    []string{"login", "-email", " Admin@Murim.com "},
			extra:   extra{pwd: "kungfu123"},
			wantOut: []string{"Logged in as Admin <admin@murim.com>.", "export MURIM_TOKEN=token-"},
		},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(append([]string{"admin"}, tt.args...))
			tt.check(t, err, out.String())
		})
	}

	t.Run("non admin token is revoked", func(t *testing.T) {
		assert.Equal(t, 1, backend.CallCount("POST", "/logout"))
	})
}

func Test_commandLine_dashboard(t *testing.T) {
	cli, backend, out := setup(t)
	_, token := testutil.NewUser(t, backend, "Admin", "admin@murim.com", "kungfu123", true)
	backend.Seed(t, "alunos", api.Aluno{Nome: "Bruce Lee", Email: "bruce@murim.com"}, api.Aluno{Nome: "Ip Man", Email: "ip@murim.com"})

	tests := []cliTest{
		{name: "no token", args: []string{"dashboard"}, wantErr: errNoToken},
		{name: "revoked token", args: []string{"dashboard", "-token", "nope"}, wantErrStr: "getting dashboard"},
		{name: "ok", args: []string{"dashboard", "-token", token}, wantOut: []string{"Alunos", "2 (0 ativos)", "Receita mensal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(append([]string{"admin"}, tt.args...))
			tt.check(t, err, out.String())
		})
	}

	t.Run("token from environment", func(t *testing.T) {
		out.Reset()
		cli.getenv = func(key string) string {
			if key == tokenEnv {
				return token
			}
			return ""
		}
		require.NoError(t, cli.run([]string{"admin", "dashboard"}))
		assert.Contains(t, out.String(), "2 (0 ativos)")
	})
}

func Test_commandLine_exportAlunos(t *testing.T) {
	cli, backend, out := setup(t)
	_, token := testutil.NewUser(t, backend, "Admin", "admin@murim.com", "kungfu123", true)
	backend.Seed(t, "alunos", api.Aluno{Nome: "Bruce Lee", Email: "bruce@murim.com"}, api.Aluno{Nome: "Ip Man", Email: "ip@murim.com"})

	t.Run("no token", func(t *testing.T) {
		assert.ErrorIs(t, cli.run([]string{"admin", "export-alunos"}), errNoToken)
	})

	t.Run("ok", func(t *testing.T) {
		exp := &fakeExporter{}
		cli.exporter = exp
		out.Reset()

		require.NoError(t, cli.run([]string{"admin", "export-alunos", "-token", token}))
		assert.Contains(t, out.String(), "2 aluno(s) exported.")
		assert.Equal(t, api.AlunoSheetHeader, exp.header)
		require.Len(t, exp.rows, 2)
		assert.Equal(t, "Bruce Lee", exp.rows[0][1])
	})

	t.Run("disabled", func(t *testing.T) {
		cli.exporter = &fakeExporter{err: core.ErrExportDisabled}
		assert.ErrorIs(t, cli.run([]string{"admin", "export-alunos", "-token", token}), core.ErrExportDisabled)
	})

	t.Run("backend failure", func(t *testing.T) {
		cli.exporter = &fakeExporter{}
		backend.Fail("GET", "/alunos", 500)
		assert.Error(t, cli.run([]string{"admin", "export-alunos", "-token", token}))
	})
}
