package echoweb

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/core/session"
	appfs "github.com/matkerbino/murim/fs"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		Services       *api.Services
		Sessions       *session.Service
		Mail           core.EmailService
		Exporter       core.SheetExporter
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
		FS             fs.FS // defaults to the embedded FS
	}

	Server struct {
		opts     *Options
		conf     *core.Config
		logger   core.Logger
		svc      *api.Services
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(opts *Options) (*Server, error) {
	if opts.FS == nil {
		opts.FS = appfs.FS
	}

	s := &Server{
		opts:     opts,
		conf:     opts.Conf,
		logger:   opts.Logger,
		svc:      opts.Services,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	rdr, err := newRenderer(s.opts.FS)
	if err != nil {
		return err
	}
	static, err := fs.Sub(s.opts.FS, "static")
	if err != nil {
		return err
	}

	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.Renderer = rdr
	s.app.HTTPErrorHandler = s.httpErrorHandler

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper:        func(ctx echo.Context) bool { return s.conf.Server.DisableCSRF || isStatic(ctx) },
		TokenLookup:    "form:_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	s.app.Use(s.sessionMiddleware)

	s.app.StaticFS("/static", static)

	s.registerPublicRoutes()
	s.registerAdminRoutes(s.app.Group("/admin", s.requireAdmin))
	return nil
}

func isStatic(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().URL.Path, "/static/")
}

func (s *Server) Start() {
	s.errors <- s.app.Start(s.conf.Server.Addr)
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
