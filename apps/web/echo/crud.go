package echoweb

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/session"
)

type (
	column struct {
		Label string
		Field string // ordering field, "" when the column is not sortable
	}

	rowAction struct {
		Label string
		URL   string
		Post  bool // rendered as a form button
		Class string
	}

	tableRow struct {
		ID      int
		Cells   []string
		Actions []rowAction
	}

	// adminTable feeds the generic "admin/list" template.
	adminTable struct {
		Title     string
		Base      string // eg. /admin/alunos
		Query     ListQuery
		Columns   []column
		Page      core.Page[tableRow]
		Pager     pager
		CanCreate bool
		Actions   []rowAction // page level actions, eg. export
	}

	option struct {
		Value string
		Label string
	}

	formField struct {
		Name     string
		Label    string
		Type     string // text, email, number, date, time, url, textarea, select, checkbox, password
		Value    string
		Options  []option
		Required bool
		Help     string
		Error    string
	}

	// adminForm feeds the generic "admin/form" template.
	adminForm struct {
		Title  string
		Action string
		Back   string
		Fields []formField
	}

	// adminConfirm feeds the delete confirmation page.
	adminConfirm struct {
		Title  string
		Item   string
		Action string
		Back   string
	}
)

func (t adminTable) SortURL(field string) string {
	return t.Query.SortURL(t.Base, field)
}

// SortIndicator is the arrow shown next to the header of the current ordering.
func (t adminTable) SortIndicator(field string) string {
	if len(t.Query.Orderings) == 0 || t.Query.Orderings[0].Field != field {
		return ""
	}
	if t.Query.Orderings[0].Ascending {
		return "▲"
	}
	return "▼"
}

// table lists a backend resource with search, ordering and pagination.
type table[T any] struct {
	path    string // under /admin
	title   string
	list    func(ctx context.Context, token string) ([]T, error)
	id      func(T) int
	columns []column
	cells   func(T) []string
	search  func(T) []string
	sorters map[string]core.Less[T]
	actions func(T) []rowAction

	canCreate bool
	canEdit   bool
	canDelete bool
}

func (tb *table[T]) base() string { return "/admin/" + tb.path }

func (tb *table[T]) rowActions(item T) []rowAction {
	var actions []rowAction
	if tb.actions != nil {
		actions = append(actions, tb.actions(item)...)
	}
	id := tb.id(item)
	if tb.canEdit {
		actions = append(actions, rowAction{Label: "Editar", URL: fmt.Sprintf("%s/%d/editar", tb.base(), id)})
	}
	if tb.canDelete {
		actions = append(actions, rowAction{Label: "Excluir", URL: fmt.Sprintf("%s/%d/excluir", tb.base(), id), Class: "danger"})
	}
	return actions
}

func (tb *table[T]) handleList(s *Server, pageActions ...rowAction) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var q ListQuery
		q.Bind(ctx)

		items, err := tb.list(ctx.Request().Context(), token(ctx))
		if err != nil {
			return err
		}
		items = core.Filter(items, q.Search, tb.search)
		items = core.Order(items, q.Orderings, tb.sorters)

		rows := make([]tableRow, 0, len(items))
		for _, item := range items {
			rows = append(rows, tableRow{ID: tb.id(item), Cells: tb.cells(item), Actions: tb.rowActions(item)})
		}
		page := core.Paginate(rows, q.Page, s.conf.ItemsPerPage)

		return s.render(ctx, http.StatusOK, "admin/list", tb.title, adminTable{
			Title:     tb.title,
			Base:      tb.base(),
			Query:     q,
			Columns:   tb.columns,
			Page:      page,
			Pager:     newPager(page, q, tb.base()),
			CanCreate: tb.canCreate,
			Actions:   pageActions,
		})
	}
}

// crud adds create, edit and delete pages to a table.
type crud[T any, F any] struct {
	table[T]
	singular string // "aluno"
	label    func(T) string

	get    func(ctx context.Context, token string, id int) (T, error)
	create func(ctx context.Context, token string, form F) (T, error)
	update func(ctx context.Context, token string, id int, form F) (T, error)
	remove func(ctx context.Context, token string, id int) error

	newForm  func() F
	formFrom func(T) F
	validate func(*F, *validator.Validate) error
	fields   func(ctx echo.Context, form F) ([]formField, error)
}

// crudService is satisfied by every api resource service.
type crudService[T any, F any] interface {
	List(ctx context.Context, token string) ([]T, error)
	Get(ctx context.Context, token string, id int) (T, error)
	Create(ctx context.Context, token string, form F) (T, error)
	Update(ctx context.Context, token string, id int, form F) (T, error)
	Delete(ctx context.Context, token string, id int) error
}

func newCrud[T any, F any](svc crudService[T, F], path, title, singular string) *crud[T, F] {
	return &crud[T, F]{
		table: table[T]{
			path:      path,
			title:     title,
			list:      svc.List,
			canCreate: true,
			canEdit:   true,
			canDelete: true,
		},
		singular: singular,
		get:      svc.Get,
		create:   svc.Create,
		update:   svc.Update,
		remove:   svc.Delete,
	}
}

func (c *crud[T, F]) register(s *Server, g *echo.Group, pageActions ...rowAction) {
	g.GET("/"+c.path, c.handleList(s, pageActions...))
	if c.canCreate {
		g.GET("/"+c.path+"/novo", c.newPage(s))
		g.POST("/"+c.path, c.handleCreate(s))
	}
	if c.canEdit {
		g.GET("/"+c.path+"/:id/editar", c.editPage(s))
		g.POST("/"+c.path+"/:id", c.handleUpdate(s))
	}
	if c.canDelete {
		g.GET("/"+c.path+"/:id/excluir", c.confirmPage(s))
		g.POST("/"+c.path+"/:id/excluir", c.handleDelete(s))
	}
}

func (c *crud[T, F]) renderForm(s *Server, ctx echo.Context, code, id int, form F, errs map[string]string) error {
	fields, err := c.fields(ctx, form)
	if err != nil {
		return err
	}
	for i := range fields {
		fields[i].Error = errs[fields[i].Name]
	}

	title, action := "Novo "+c.singular, c.base()
	if id > 0 {
		title, action = "Editar "+c.singular, fmt.Sprintf("%s/%d", c.base(), id)
	}
	return s.render(ctx, code, "admin/form", title, adminForm{
		Title:  title,
		Action: action,
		Back:   c.base(),
		Fields: fields,
	})
}

func (c *crud[T, F]) newPage(s *Server) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return c.renderForm(s, ctx, http.StatusOK, 0, c.newForm(), nil)
	}
}

func (c *crud[T, F]) editPage(s *Server) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := paramID(ctx)
		if err != nil {
			return err
		}
		item, err := c.get(ctx.Request().Context(), token(ctx), id)
		if err != nil {
			return err
		}
		return c.renderForm(s, ctx, http.StatusOK, id, c.formFrom(item), nil)
	}
}

// bindForm binds and validates the submitted form. ok is false when the response was already
// handled (the form was re-rendered with its errors).
func (c *crud[T, F]) bindForm(s *Server, ctx echo.Context, id int, form *F) (ok bool, err error) {
	if err := ctx.Bind(form); err != nil {
		return false, err
	}
	if err := c.validate(form, s.opts.Validate); err != nil {
		flds, isValidation := s.fieldErrors(err)
		if !isValidation {
			return false, err
		}
		return false, c.renderForm(s, ctx, http.StatusUnprocessableEntity, id, *form, flds)
	}
	return true, nil
}

func (c *crud[T, F]) handleCreate(s *Server) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		form := c.newForm()
		if ok, err := c.bindForm(s, ctx, 0, &form); !ok {
			return err
		}

		if _, err := c.create(ctx.Request().Context(), token(ctx), form); err != nil {
			if flds, ok := s.fieldErrors(err); ok {
				return c.renderForm(s, ctx, http.StatusUnprocessableEntity, 0, form, flds)
			}
			return s.actionFailed(ctx, err, "Erro ao criar "+c.singular, c.base())
		}
		flash(ctx, session.FlashSuccess, capitalize(c.singular)+" criado(a) com sucesso.")
		return ctx.Redirect(http.StatusSeeOther, c.base())
	}
}

func (c *crud[T, F]) handleUpdate(s *Server) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := paramID(ctx)
		if err != nil {
			return err
		}
		var form F
		if ok, err := c.bindForm(s, ctx, id, &form); !ok {
			return err
		}

		if _, err := c.update(ctx.Request().Context(), token(ctx), id, form); err != nil {
			if flds, ok := s.fieldErrors(err); ok {
				return c.renderForm(s, ctx, http.StatusUnprocessableEntity, id, form, flds)
			}
			return s.actionFailed(ctx, err, "Erro ao atualizar "+c.singular, c.base())
		}
		flash(ctx, session.FlashSuccess, capitalize(c.singular)+" atualizado(a) com sucesso.")
		return ctx.Redirect(http.StatusSeeOther, c.base())
	}
}

func (c *crud[T, F]) confirmPage(s *Server) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := paramID(ctx)
		if err != nil {
			return err
		}
		item, err := c.get(ctx.Request().Context(), token(ctx), id)
		if err != nil {
			return err
		}

		label := "#" + strconv.Itoa(id)
		if c.label != nil {
			label = c.label(item)
		}
		return s.render(ctx, http.StatusOK, "admin/confirm", "Excluir "+c.singular, adminConfirm{
			Title:  "Excluir " + c.singular,
			Item:   label,
			Action: fmt.Sprintf("%s/%d/excluir", c.base(), id),
			Back:   c.base(),
		})
	}
}

// handleDelete only deletes when the confirmation form was submitted with confirmar=sim.
func (c *crud[T, F]) handleDelete(s *Server) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := paramID(ctx)
		if err != nil {
			return err
		}
		if ctx.FormValue("confirmar") != "sim" {
			flash(ctx, session.FlashInfo, "Exclusão cancelada.")
			return ctx.Redirect(http.StatusSeeOther, c.base())
		}

		if err := c.remove(ctx.Request().Context(), token(ctx), id); err != nil {
			return s.actionFailed(ctx, err, "Erro ao excluir "+c.singular, c.base())
		}
		flash(ctx, session.FlashSuccess, capitalize(c.singular)+" excluído(a) com sucesso.")
		return ctx.Redirect(http.StatusSeeOther, c.base())
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
