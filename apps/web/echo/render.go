package echoweb

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/core/session"
)

var layoutFiles = []string{"templates/layout/base.gohtml", "templates/layout/partials.gohtml"}

type (
	renderer struct {
		templates map[string]*template.Template // {"pages/home": tmpl}
	}

	// view is what every page template receives.
	view struct {
		AppName string
		Title   string
		Path    string
		CSRF    string
		User    *api.Usuario
		IsAdmin bool
		Flashes []session.Flash
		Data    interface{}
	}
)

var _ echo.Renderer = (*renderer)(nil)

// newRenderer parses every `templates/{pages,admin}/*.gohtml` of fsys on top of the layout.
func newRenderer(fsys fs.FS) (*renderer, error) {
	r := &renderer{templates: make(map[string]*template.Template)}
	for _, dir := range []string{"pages", "admin"} {
		files, err := fs.Glob(fsys, path.Join("templates", dir, "*.gohtml"))
		if err != nil {
			return nil, errors.Wrapf(err, "listing %s templates", dir)
		}
		for _, file := range files {
			tmpl, err := template.New(path.Base(file)).
				Funcs(templateFuncs).
				ParseFS(fsys, append(layoutFiles[:len(layoutFiles):len(layoutFiles)], file)...)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", file)
			}
			r.templates[dir+"/"+strings.TrimSuffix(path.Base(file), ".gohtml")] = tmpl
		}
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// render executes the page template `name` with the request's session state.
func (s *Server) render(ctx echo.Context, code int, name, title string, data interface{}) error {
	v := view{
		AppName: s.conf.AppName,
		Title:   title,
		Path:    ctx.Request().URL.Path,
		Data:    data,
	}
	if csrf, ok := ctx.Get("csrf").(string); ok {
		v.CSRF = csrf
	}
	if sess := contextSession(ctx); sess != nil {
		v.User = sess.User
		v.IsAdmin = sess.IsAdmin()
		v.Flashes = sess.PopFlashes()
	}
	return ctx.Render(code, name, v)
}

var templateFuncs = template.FuncMap{
	"money":    formatMoney,
	"date":     formatDate,
	"truncate": core.Truncate,
	"status":   statusLabel,
	"join":     strings.Join,
	"add":      func(a, b int) int { return a + b },
	"dict":     dict,
}

// dict builds a map from key/value pairs, to pass several values to a sub-template.
func dict(kv ...interface{}) (map[string]interface{}, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, errors.Errorf("dict: key %v is not a string", kv[i])
		}
		m[key] = kv[i+1]
	}
	return m, nil
}

// formatMoney formats v as Brazilian Reais, eg. 1234.5 -> "R$ 1.234,50".
func formatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, dec := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, b.String(), dec)
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// formatDate formats backend dates as dd/mm/yyyy (with hh:mm when there is a time part).
// Unparseable values are returned as is.
func formatDate(v interface{}) string {
	var s string
	switch d := v.(type) {
	case string:
		s = d
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format("02/01/2006 15:04")
	case fmt.Stringer:
		s = d.String()
	default:
		return fmt.Sprint(v)
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			return t.Format("02/01/2006")
		}
		return t.Format("02/01/2006 15:04")
	}
	return s
}

var statusLabels = map[string]string{
	api.StatusAtivo:      "Ativo",
	api.StatusInativo:    "Inativo",
	api.StatusPendente:   "Pendente",
	api.StatusAprovado:   "Aprovado",
	api.StatusCancelado:  "Cancelado",
	api.StatusConcluido:  "Concluído",
	api.StatusPago:       "Pago",
	api.StatusAtrasado:   "Atrasado",
	api.StatusRespondido: "Respondido",
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}
