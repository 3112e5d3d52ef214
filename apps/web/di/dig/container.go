package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoweb "github.com/matkerbino/murim/apps/web/echo"
	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/core/session"
	emailsvc "github.com/matkerbino/murim/services/email"
	logsvc "github.com/matkerbino/murim/services/logger"
	sheetsvc "github.com/matkerbino/murim/services/sheets"
	"github.com/matkerbino/murim/storage/database"
	inmemstore "github.com/matkerbino/murim/storage/session/inmem"
	pgstore "github.com/matkerbino/murim/storage/session/postgres"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// SessionStore is the session repository, with the database backing it (nil for the inmem store).
type SessionStore struct {
	dig.Out
	Repo session.Repository
	DB   *sqlx.DB
}

type SessionStoreParam struct {
	dig.In
	DB *sqlx.DB
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Services   *api.Services
	Sessions   *session.Service
	Mail       core.EmailService
	Exporter   core.SheetExporter
	Validate   *validator.Validate
	Translator ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "WEB : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newSessionStore(conf *core.Config, loggerParam DBLoggerParam) SessionStore {
	if conf.SessionStore != "postgres" {
		return SessionStore{Repo: inmemstore.NewSessionRepository()}
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up session database: %v", err), err)
	}
	return SessionStore{Repo: pgstore.NewSessionRepository(db), DB: db}
}

func newSessionService(conf *core.Config, repo session.Repository) *session.Service {
	return session.NewService(repo, conf.SessionTTL)
}

func newAPIServices(conf *core.Config) *api.Services {
	return api.NewServices(api.NewClient(conf.APIURL, conf.APITimeout))
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newSheetExporter(conf *core.Config, logger core.Logger) core.SheetExporter {
	exporter, err := sheetsvc.NewExporter(conf, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up sheets exporter: %v", err), err)
		return sheetsvc.Disabled()
	}
	return exporter
}

func newServer(p serverParams) (*echoweb.Server, error) {
	return echoweb.NewServer(&echoweb.Options{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Services:   p.Services,
		Sessions:   p.Sessions,
		Mail:       p.Mail,
		Exporter:   p.Exporter,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newSessionStore))
	must(c.Provide(newSessionService))
	must(c.Provide(newAPIServices))
	must(c.Provide(newEmailService))
	must(c.Provide(newSheetExporter))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
