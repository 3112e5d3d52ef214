package testutil

import (
	"fmt"
	"os"
	"sync"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/storage/database"
)

// Logger is a core.Logger that keeps every message in memory.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	l.Messages = append(l.Messages, level+": "+msg)
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { panic(fmt.Sprintf("FATAL: %s", msg)) }

// NewValidator returns a validator with every form validator registered, and the
// translator its messages are registered on.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	api.InitValidators(validate, translator)
	return validate, translator
}

// NewUser registers an account on the fake backend and returns it with its token.
func NewUser(t *testing.T, b *Backend, name, email, pwd string, admin bool) (api.Usuario, string) {
	t.Helper()
	usr := api.Usuario{Name: name, Email: email, IsAdmin: admin}
	if admin {
		usr.Role = "admin"
	}
	token := b.AddAccount(&usr, pwd)
	return usr, token
}

// PrepareDB connects to $DATABASE_URL, migrates it and empties the sessions table.
// The test is skipped when DATABASE_URL is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connecting to %s: %v", dsn, err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db.DB, "up"); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE sessions`); err != nil {
		t.Fatalf("truncating sessions: %v", err)
	}
	return db
}
