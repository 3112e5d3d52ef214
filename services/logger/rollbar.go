package logsvc

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
)

// RollbarLogger prints every entry to a std logger and reports it to Rollbar when enabled.
//
// Args may be an error, a map[string]interface{} of extras, the *http.Request being served
// and the api.Usuario behind it (reported as the Rollbar person).
type RollbarLogger struct {
	std *log.Logger
	mu  sync.Mutex // rollbar's person is global
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// splitArgs separates the user from what rollbar.Log understands; anonymous users are dropped.
func splitArgs(msg string, args []interface{}) ([]interface{}, *api.Usuario) {
	var usr *api.Usuario
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case api.Usuario:
			if usr == nil && a.ID != 0 {
				usr = &a
			}
		case *api.Usuario:
			if usr == nil && a != nil && a.ID != 0 {
				usr = a
			}
		case nil:
		default:
			out = append(out, arg)
		}
	}
	return out, usr
}

// line renders an entry for the std logger.
func line(level, msg string, args []interface{}, usr *api.Usuario) string {
	s := fmt.Sprintf("[%s] %s", level, msg)
	if usr != nil {
		s += fmt.Sprintf(" (user %d <%s>)", usr.ID, usr.Email)
	}
	for _, arg := range args[1:] {
		switch a := arg.(type) {
		case *http.Request:
			s += fmt.Sprintf("\n\t%s %s", a.Method, a.URL.Path)
		case error:
			s += fmt.Sprintf("\n\t%+v", a)
		default:
			s += fmt.Sprintf("\n\t%v", a)
		}
	}
	return s
}

func (l *RollbarLogger) log(level, msg string, args []interface{}) {
	out, usr := splitArgs(msg, args)

	l.mu.Lock()
	if usr != nil {
		rollbar.SetPerson(strconv.Itoa(usr.ID), usr.Name, usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, out...)
	l.mu.Unlock()

	l.std.Println(line(level, msg, out, usr))
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}
