package echoweb

import (
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/core/session"
)

func (s *Server) registerPublicRoutes() {
	s.app.GET("/", s.home)

	s.app.GET("/login", s.loginPage)
	s.app.POST("/login", s.login)
	s.app.GET("/registro", s.registerPage)
	s.app.POST("/registro", s.register)
	s.app.POST("/logout", s.logout)

	s.app.GET("/horarios", s.horarios)

	s.app.GET("/planos", s.planos)
	s.app.POST("/planos/:id/assinar", s.assinar, s.requireLogin)

	s.app.GET("/personais", s.personais)
	s.app.GET("/personais/:id", s.personal)
	s.app.POST("/personais/:id/agendar", s.agendar, s.requireLogin)

	s.app.GET("/loja", s.loja)
	s.app.GET("/carrinho", s.carrinho, s.requireLogin)
	s.app.POST("/carrinho", s.addToCart, s.requireLogin)
	s.app.POST("/carrinho/:id", s.updateCartItem, s.requireLogin)
	s.app.POST("/carrinho/:id/remover", s.removeCartItem, s.requireLogin)
	s.app.POST("/checkout", s.checkout, s.requireLogin)

	s.app.GET("/dicas", s.dicas)
	s.app.GET("/dicas/:id", s.dica)
	s.app.POST("/dicas/:id/comentarios", s.comentar, s.requireLogin)
	s.app.POST("/dicas/:id/curtir", s.curtir, s.requireLogin)

	s.app.GET("/contato", s.contatoPage)
	s.app.POST("/contato", s.contato)

	s.app.GET("/minha-conta", s.minhaConta, s.requireLogin)
}

// formPage is the data of any page built around a single form.
type formPage struct {
	Form    interface{}
	Errors  map[string]string
	Message string
	Next    string
}

// Home

type homePage struct {
	Planos []api.Plano
	Dicas  []api.Dica
	Hoje   *diaHorarios
}

func (s *Server) home(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	planos, err := s.svc.Planos.List(reqCtx, token(ctx))
	if err != nil {
		return err
	}
	featured := make([]api.Plano, 0, len(planos))
	for _, p := range planos {
		if p.Ativo && p.Destaque {
			featured = append(featured, p)
		}
	}
	if len(featured) == 0 {
		featured = activePlanos(planos)
	}

	dicas, err := s.svc.Dicas.List(reqCtx, token(ctx))
	if err != nil {
		return err
	}
	sort.SliceStable(dicas, func(i, j int) bool { return dicas[i].CreatedAt.Time.After(dicas[j].CreatedAt.Time) })
	if len(dicas) > 3 {
		dicas = dicas[:3]
	}

	dias, err := s.svc.Horarios.DiasSemana(reqCtx, token(ctx))
	if err != nil {
		return err
	}
	horarios, err := s.svc.Horarios.List(reqCtx, token(ctx))
	if err != nil {
		return err
	}

	return s.render(ctx, http.StatusOK, "pages/home", "", homePage{
		Planos: featured,
		Dicas:  dicas,
		Hoje:   todayHorarios(groupHorarios(dias, horarios), time.Now()),
	})
}

// Auth

func (s *Server) loginPage(ctx echo.Context) error {
	if sess := contextSession(ctx); sess != nil && sess.IsAuthenticated() {
		return ctx.Redirect(http.StatusSeeOther, "/")
	}
	return s.render(ctx, http.StatusOK, "pages/login", "Entrar", formPage{Form: api.LoginForm{}, Next: safeNext(ctx.QueryParam("next"), "")})
}

func (s *Server) login(ctx echo.Context) error {
	var form api.LoginForm
	if err := ctx.Bind(&form); err != nil {
		return err
	}
	page := formPage{Form: form, Next: safeNext(ctx.FormValue("next"), "")}

	if err := form.Validate(s.opts.Validate); err != nil {
		flds, ok := s.fieldErrors(err)
		if !ok {
			return err
		}
		page.Form, page.Errors = form, flds
		return s.render(ctx, http.StatusUnprocessableEntity, "pages/login", "Entrar", page)
	}

	res, err := s.svc.Auth.Login(ctx.Request().Context(), form)
	if err != nil {
		_, isAPIErr := api.AsError(err)
		if !(api.IsUnauthorized(err) || isAPIErr) {
			return err
		}
		page.Form = api.LoginForm{Email: form.Email}
		page.Message = "E-mail ou senha inválidos."
		return s.render(ctx, http.StatusUnprocessableEntity, "pages/login", "Entrar", page)
	}

	sess, err := s.renewSession(ctx)
	if err != nil {
		return err
	}
	sess.Login(res.Token, res.User)
	sess.AddFlash(session.FlashSuccess, fmt.Sprintf("Bem-vindo(a), %s!", res.User.Name))

	fallback := "/"
	if sess.IsAdmin() {
		fallback = "/admin"
	}
	return ctx.Redirect(http.StatusSeeOther, safeNext(page.Next, fallback))
}

func (s *Server) registerPage(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "pages/registro", "Cadastre-se", formPage{Form: api.RegisterForm{}})
}

func (s *Server) register(ctx echo.Context) error {
	var form api.RegisterForm
	if err := ctx.Bind(&form); err != nil {
		return err
	}

	renderErrs := func(err error) error {
		flds, ok := s.fieldErrors(err)
		if !ok {
			return err
		}
		page := formPage{Form: api.RegisterForm{Name: form.Name, Email: form.Email}, Errors: flds}
		return s.render(ctx, http.StatusUnprocessableEntity, "pages/registro", "Cadastre-se", page)
	}

	if err := form.Validate(s.opts.Validate); err != nil {
		return renderErrs(err)
	}
	res, err := s.svc.Auth.Register(ctx.Request().Context(), form)
	if err != nil {
		if _, ok := s.fieldErrors(err); ok {
			return renderErrs(err)
		}
		return s.actionFailed(ctx, err, "Não foi possível concluir o cadastro", "/registro")
	}

	if res.Token == "" {
		flash(ctx, session.FlashSuccess, "Cadastro realizado! Faça login para continuar.")
		return ctx.Redirect(http.StatusSeeOther, "/login")
	}
	sess, err := s.renewSession(ctx)
	if err != nil {
		return err
	}
	sess.Login(res.Token, res.User)
	sess.AddFlash(session.FlashSuccess, fmt.Sprintf("Bem-vindo(a), %s!", res.User.Name))
	return ctx.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) logout(ctx echo.Context) error {
	sess := contextSession(ctx)
	if sess.IsAuthenticated() {
		if err := s.svc.Auth.Logout(ctx.Request().Context(), sess.Token); err != nil && !api.IsUnauthorized(err) {
			s.logger.Warn(fmt.Sprintf("backend logout: %v", err), currentUser(ctx))
		}
	}
	sess.Logout()
	sess.AddFlash(session.FlashInfo, "Você saiu da sua conta.")
	return ctx.Redirect(http.StatusSeeOther, "/")
}

// Horarios

type (
	diaHorarios struct {
		Dia      api.DiaSemana
		Horarios []api.Horario
	}
	horariosPage struct {
		Dias []diaHorarios
	}
)

func (s *Server) horarios(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	dias, err := s.svc.Horarios.DiasSemana(reqCtx, token(ctx))
	if err != nil {
		return err
	}
	horarios, err := s.svc.Horarios.List(reqCtx, token(ctx))
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, "pages/horarios", "Horários", horariosPage{Dias: groupHorarios(dias, horarios)})
}

// groupHorarios groups the class slots by week day (in the days' order), each sorted by start time.
func groupHorarios(dias []api.DiaSemana, horarios []api.Horario) []diaHorarios {
	sort.SliceStable(dias, func(i, j int) bool { return dias[i].Ordem < dias[j].Ordem })
	sort.SliceStable(horarios, func(i, j int) bool { return horarios[i].HoraInicio < horarios[j].HoraInicio })

	grouped := make([]diaHorarios, 0, len(dias))
	for _, dia := range dias {
		group := diaHorarios{Dia: dia}
		for _, h := range horarios {
			if h.DiaSemanaID == dia.ID {
				group.Horarios = append(group.Horarios, h)
			}
		}
		grouped = append(grouped, group)
	}
	return grouped
}

// todayHorarios picks the day of `now` among grouped days. Ordem counts from Monday (1);
// Sunday is either 7 or 0.
func todayHorarios(grouped []diaHorarios, now time.Time) *diaHorarios {
	ordem := int(now.Weekday())
	for i, g := range grouped {
		if g.Dia.Ordem == ordem || (ordem == 0 && g.Dia.Ordem == 7) {
			return &grouped[i]
		}
	}
	return nil
}

// Planos

func activePlanos(planos []api.Plano) []api.Plano {
	active := make([]api.Plano, 0, len(planos))
	for _, p := range planos {
		if p.Ativo {
			active = append(active, p)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Preco < active[j].Preco })
	return active
}

func (s *Server) planos(ctx echo.Context) error {
	planos, err := s.svc.Planos.List(ctx.Request().Context(), token(ctx))
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, "pages/planos", "Planos", activePlanos(planos))
}

func (s *Server) assinar(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	assinatura, err := s.svc.Planos.Assinar(ctx.Request().Context(), token(ctx), id)
	if err != nil {
		return s.actionFailed(ctx, err, "Não foi possível assinar o plano", "/planos")
	}

	msg := "Assinatura realizada com sucesso!"
	if assinatura.Plano != nil {
		msg = fmt.Sprintf("Assinatura do plano %s realizada com sucesso!", assinatura.Plano.Nome)
	}
	flash(ctx, session.FlashSuccess, msg)
	return ctx.Redirect(http.StatusSeeOther, "/minha-conta")
}

// Personais

type personaisPage struct {
	Query ListQuery
	Page  core.Page[api.Personal]
	Pager pager
}

var personalSorters = map[string]core.Less[api.Personal]{
	"nome":       func(a, b api.Personal) bool { return a.Nome < b.Nome },
	"preco_hora": func(a, b api.Personal) bool { return a.PrecoHora < b.PrecoHora },
}

func (s *Server) personais(ctx echo.Context) error {
	var q ListQuery
	q.Bind(ctx)

	personais, err := s.svc.Personais.List(ctx.Request().Context(), token(ctx))
	if err != nil {
		return err
	}
	personais = core.Filter(personais, q.Search, func(p api.Personal) []string {
		return []string{p.Nome, p.Especialidade, p.Bio.String}
	})
	personais = core.Order(personais, q.Orderings, personalSorters)

	page := core.Paginate(personais, q.Page, s.conf.ItemsPerPage)
	return s.render(ctx, http.StatusOK, "pages/personais", "Personais", personaisPage{
		Query: q,
		Page:  page,
		Pager: newPager(page, q, "/personais"),
	})
}

type personalPage struct {
	Personal api.Personal
	Form     api.AgendamentoForm
	Errors   map[string]string
}

func (s *Server) personal(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	return s.renderPersonal(ctx, http.StatusOK, id, api.AgendamentoForm{}, nil)
}

func (s *Server) renderPersonal(ctx echo.Context, code, id int, form api.AgendamentoForm, errs map[string]string) error {
	personal, err := s.svc.Personais.Get(ctx.Request().Context(), token(ctx), id)
	if err != nil {
		return err
	}
	return s.render(ctx, code, "pages/personal", personal.Nome, personalPage{Personal: personal, Form: form, Errors: errs})
}

func (s *Server) agendar(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var form api.AgendamentoForm
	if err := ctx.Bind(&form); err != nil {
		return err
	}
	form.PersonalID = id

	if err := form.Validate(s.opts.Validate); err != nil {
		flds, ok := s.fieldErrors(err)
		if !ok {
			return err
		}
		return s.renderPersonal(ctx, http.StatusUnprocessableEntity, id, form, flds)
	}

	if _, err := s.svc.Agendamentos.Agendar(ctx.Request().Context(), token(ctx), form); err != nil {
		return s.actionFailed(ctx, err, "Não foi possível agendar", fmt.Sprintf("/personais/%d", id))
	}
	flash(ctx, session.FlashSuccess, "Agendamento solicitado! Aguarde a confirmação.")
	return ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/personais/%d", id))
}

// Loja & Carrinho

type lojaPage struct {
	Query ListQuery
	Page  core.Page[api.Produto]
	Pager pager
}

var produtoSorters = map[string]core.Less[api.Produto]{
	"nome":    func(a, b api.Produto) bool { return a.Nome < b.Nome },
	"preco":   func(a, b api.Produto) bool { return a.Preco < b.Preco },
	"estoque": func(a, b api.Produto) bool { return a.Estoque < b.Estoque },
}

func produtoSearchFields(p api.Produto) []string {
	return []string{p.Nome, p.Categoria.String, p.Descricao.String}
}

func (s *Server) loja(ctx echo.Context) error {
	var q ListQuery
	q.Bind(ctx)

	produtos, err := s.svc.Produtos.List(ctx.Request().Context(), token(ctx))
	if err != nil {
		return err
	}
	active := make([]api.Produto, 0, len(produtos))
	for _, p := range produtos {
		if p.Ativo {
			active = append(active, p)
		}
	}
	active = core.Filter(active, q.Search, produtoSearchFields)
	active = core.Order(active, q.Orderings, produtoSorters)

	page := core.Paginate(active, q.Page, s.conf.ItemsPerPage)
	return s.render(ctx, http.StatusOK, "pages/loja", "Loja", lojaPage{Query: q, Page: page, Pager: newPager(page, q, "/loja")})
}

func (s *Server) carrinho(ctx echo.Context) error {
	cart, err := s.svc.Carrinho.Get(ctx.Request().Context(), token(ctx))
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, "pages/carrinho", "Carrinho", cart)
}

func (s *Server) addToCart(ctx echo.Context) error {
	var form api.CartAddForm
	if err := ctx.Bind(&form); err != nil {
		return err
	}
	if err := form.Validate(s.opts.Validate); err != nil {
		if flds, ok := s.fieldErrors(err); ok {
			flash(ctx, session.FlashError, firstError(flds))
			return ctx.Redirect(http.StatusSeeOther, "/loja")
		}
		return err
	}

	if _, err := s.svc.Carrinho.Add(ctx.Request().Context(), token(ctx), form); err != nil {
		return s.actionFailed(ctx, err, "Não foi possível adicionar o produto", "/loja")
	}
	flash(ctx, session.FlashSuccess, "Produto adicionado ao carrinho.")
	return ctx.Redirect(http.StatusSeeOther, "/carrinho")
}

func (s *Server) updateCartItem(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var form api.CartUpdateForm
	if err := ctx.Bind(&form); err != nil {
		return err
	}
	if err := form.Validate(s.opts.Validate); err != nil {
		if flds, ok := s.fieldErrors(err); ok {
			flash(ctx, session.FlashError, firstError(flds))
			return ctx.Redirect(http.StatusSeeOther, "/carrinho")
		}
		return err
	}

	if _, err := s.svc.Carrinho.Update(ctx.Request().Context(), token(ctx), id, form); err != nil {
		return s.actionFailed(ctx, err, "Não foi possível atualizar o carrinho", "/carrinho")
	}
	flash(ctx, session.FlashSuccess, "Carrinho atualizado.")
	return ctx.Redirect(http.StatusSeeOther, "/carrinho")
}

func (s *Server) removeCartItem(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err := s.svc.Carrinho.Remove(ctx.Request().Context(), token(ctx), id); err != nil {
		return s.actionFailed(ctx, err, "Não foi possível remover o produto", "/carrinho")
	}
	flash(ctx, session.FlashSuccess, "Produto removido do carrinho.")
	return ctx.Redirect(http.StatusSeeOther, "/carrinho")
}

func (s *Server) checkout(ctx echo.Context) error {
	res, err := s.svc.Carrinho.Checkout(ctx.Request().Context(), token(ctx))
	if err != nil {
		return s.actionFailed(ctx, err, "Não foi possível finalizar a compra", "/carrinho")
	}
	flash(ctx, session.FlashSuccess, fmt.Sprintf("Pedido #%d realizado! Total: %s", res.ID, formatMoney(res.Total)))
	return ctx.Redirect(http.StatusSeeOther, "/minha-conta")
}

// Dicas

type dicasPage struct {
	Query      ListQuery
	Categoria  int
	Categorias []api.CategoriaDica
	Page       core.Page[api.Dica]
	Pager      pager
}

func (s *Server) dicas(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var q ListQuery
	q.Bind(ctx)
	categoria, _ := strconv.Atoi(ctx.QueryParam("categoria"))

	categorias, err := s.svc.CategoriasDicas.List(reqCtx, token(ctx))
	if err != nil {
		return err
	}
	dicas, err := s.svc.Dicas.ListByCategoria(reqCtx, token(ctx), categoria)
	if err != nil {
		return err
	}
	dicas = core.Filter(dicas, q.Search, func(d api.Dica) []string {
		return []string{d.Titulo, d.Resumo.String, d.Autor.String}
	})
	sort.SliceStable(dicas, func(i, j int) bool { return dicas[i].CreatedAt.Time.After(dicas[j].CreatedAt.Time) })

	if categoria > 0 {
		q.Extra = url.Values{"categoria": {strconv.Itoa(categoria)}}
	}
	page := core.Paginate(dicas, q.Page, s.conf.ItemsPerPage)
	return s.render(ctx, http.StatusOK, "pages/dicas", "Dicas", dicasPage{
		Query:      q,
		Categoria:  categoria,
		Categorias: categorias,
		Page:       page,
		Pager:      newPager(page, q, "/dicas"),
	})
}

type dicaPage struct {
	Dica        api.Dica
	Comentarios []api.Comentario
	Form        api.ComentarioForm
	Errors      map[string]string
}

func (s *Server) dica(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	return s.renderDica(ctx, http.StatusOK, id, api.ComentarioForm{}, nil)
}

func (s *Server) renderDica(ctx echo.Context, code, id int, form api.ComentarioForm, errs map[string]string) error {
	reqCtx := ctx.Request().Context()
	dica, err := s.svc.Dicas.Get(reqCtx, token(ctx), id)
	if err != nil {
		return err
	}
	comentarios, err := s.svc.Dicas.Comentarios(reqCtx, token(ctx), id)
	if err != nil {
		return err
	}
	return s.render(ctx, code, "pages/dica", dica.Titulo, dicaPage{Dica: dica, Comentarios: comentarios, Form: form, Errors: errs})
}

func (s *Server) comentar(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var form api.ComentarioForm
	if err := ctx.Bind(&form); err != nil {
		return err
	}
	if err := form.Validate(s.opts.Validate); err != nil {
		flds, ok := s.fieldErrors(err)
		if !ok {
			return err
		}
		return s.renderDica(ctx, http.StatusUnprocessableEntity, id, form, flds)
	}

	to := fmt.Sprintf("/dicas/%d", id)
	if _, err := s.svc.Dicas.Comentar(ctx.Request().Context(), token(ctx), id, form); err != nil {
		return s.actionFailed(ctx, err, "Não foi possível comentar", to)
	}
	flash(ctx, session.FlashSuccess, "Comentário publicado.")
	return ctx.Redirect(http.StatusSeeOther, to)
}

func (s *Server) curtir(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	to := fmt.Sprintf("/dicas/%d", id)
	if _, err := s.svc.Dicas.Curtir(ctx.Request().Context(), token(ctx), id); err != nil {
		return s.actionFailed(ctx, err, "Não foi possível curtir", to)
	}
	flash(ctx, session.FlashSuccess, "Obrigado pela curtida!")
	return ctx.Redirect(http.StatusSeeOther, to)
}

// Contato

func (s *Server) contatoPage(ctx echo.Context) error {
	var form api.ContatoForm
	if usr := contextSession(ctx).User; usr != nil {
		form.Nome, form.Email = usr.Name, usr.Email
	}
	return s.render(ctx, http.StatusOK, "pages/contato", "Contato", formPage{Form: form})
}

func (s *Server) contato(ctx echo.Context) error {
	var form api.ContatoForm
	if err := ctx.Bind(&form); err != nil {
		return err
	}
	if err := form.Validate(s.opts.Validate); err != nil {
		flds, ok := s.fieldErrors(err)
		if !ok {
			return err
		}
		return s.render(ctx, http.StatusUnprocessableEntity, "pages/contato", "Contato", formPage{Form: form, Errors: flds})
	}

	if _, err := s.svc.Contatos.Create(ctx.Request().Context(), token(ctx), form); err != nil {
		if flds, ok := s.fieldErrors(err); ok {
			return s.render(ctx, http.StatusUnprocessableEntity, "pages/contato", "Contato", formPage{Form: form, Errors: flds})
		}
		return s.actionFailed(ctx, err, "Não foi possível enviar a mensagem", "/contato")
	}

	if s.conf.ContactInbox != "" {
		s.opts.Mail.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: s.conf.AppName, Address: s.conf.ContactInbox}},
			ReplyTo:      &mail.Address{Name: form.Nome, Address: form.Email},
			Subject:      "Nova mensagem de contato",
			TemplateName: "contato",
			TemplateData: form,
		})
	}
	flash(ctx, session.FlashSuccess, "Mensagem enviada com sucesso! Responderemos em breve.")
	return ctx.Redirect(http.StatusSeeOther, "/contato")
}

// Minha conta

type minhaContaPage struct {
	Assinaturas  []api.Assinatura
	Agendamentos []api.Agendamento
}

func (s *Server) minhaConta(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	assinaturas, err := s.svc.Assinaturas.List(reqCtx, token(ctx))
	if err != nil {
		return err
	}
	agendamentos, err := s.svc.Agendamentos.List(reqCtx, token(ctx))
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, "pages/minha-conta", "Minha conta", minhaContaPage{
		Assinaturas:  assinaturas,
		Agendamentos: agendamentos,
	})
}

// firstError picks the error of the first field, in name order.
func firstError(flds map[string]string) string {
	names := make([]string, 0, len(flds))
	for name := range flds {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return flds[names[0]]
}
