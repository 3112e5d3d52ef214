package tests

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/matkerbino/murim/apps/web/echo"
	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/core/session"
	appfs "github.com/matkerbino/murim/fs"
	emailsvc "github.com/matkerbino/murim/services/email"
	inmemstore "github.com/matkerbino/murim/storage/session/inmem"
	"github.com/matkerbino/murim/tests"
)

const (
	adminEmail = "admin@murim.com"
	userEmail  = "aluno@murim.com"
	password   = "Murim2024"
)

type (
	testApp struct {
		server   *Server
		backend  *testutil.Backend
		mail     *emailsvc.ConsoleServiceMock
		exporter *fakeExporter
		conf     *core.Config
	}

	// browser keeps cookies between requests, like a real browser would.
	browser struct {
		t       *testing.T
		app     *testApp
		cookies map[string]*http.Cookie
	}

	httpTest struct {
		name         string
		method       string
		path         string
		form         url.Values
		wantCode     int
		wantLocation string
		wantBody     []string
	}
)

func setup(t *testing.T, configure ...func(*core.Config)) *testApp {
	backend := testutil.NewBackend(t)
	conf := core.NewTestConfig(backend.URL)
	conf.ContactInbox = "contato@murim.com"
	for _, fn := range configure {
		fn(conf)
	}
	logger := new(testutil.Logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	api.InitValidators(validate, translator)
	core.ParseEmailTemplates(appfs.FS, "templates/emails", logger)

	app := &testApp{
		backend:  backend,
		mail:     emailsvc.NewConsoleServiceMock(conf, logger),
		exporter: new(fakeExporter),
		conf:     conf,
	}
	srv, err := NewServer(&Options{
		Conf:           conf,
		Logger:         logger,
		Services:       api.NewServices(api.NewClient(conf.APIURL, conf.APITimeout)),
		Sessions:       session.NewService(inmemstore.NewSessionRepository(), conf.SessionTTL),
		Mail:           app.mail,
		Exporter:       app.exporter,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	require.NoError(t, err)
	app.server = srv

	testutil.NewUser(t, backend, "Admin", adminEmail, password, true)
	testutil.NewUser(t, backend, "Aluno", userEmail, password, false)
	return app
}

func (app *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: app, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.app.server.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return b.do(http.MethodPost, path, form)
}

func (b *browser) login(email string) {
	b.t.Helper()
	rec := b.post("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(b.t, http.StatusSeeOther, rec.Code, rec.Body.String())
}

func (app *testApp) adminBrowser(t *testing.T) *browser {
	b := app.browser(t)
	b.login(adminEmail)
	return b
}

func (app *testApp) userBrowser(t *testing.T) *browser {
	b := app.browser(t)
	b.login(userEmail)
	return b
}

func runHttpTests(t *testing.T, b *browser, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if tt.method == http.MethodPost {
				rec = b.post(tt.path, tt.form)
			} else {
				rec = b.do(tt.method, tt.path, tt.form)
			}
			checkResponse(t, tt, rec)
		})
	}
}

func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if !assert.Equal(t, tt.wantCode, rec.Code) {
		t.Log(rec.Body.String())
	}
	if tt.wantLocation != "" {
		assert.Equal(t, tt.wantLocation, rec.Header().Get(echo.HeaderLocation))
	}
	for _, want := range tt.wantBody {
		assert.Contains(t, rec.Body.String(), want)
	}
}

// countRows counts the data rows of the admin table.
func countRows(body string) int {
	return strings.Count(body, `<tr class="row"`)
}

type fakeExporter struct {
	mu     sync.Mutex
	header []string
	rows   [][]interface{}
	err    error
}

func (e *fakeExporter) Export(_ context.Context, header []string, rows [][]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.header, e.rows = header, rows
	return nil
}
