package echoweb

import (
	"fmt"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/core/session"
)

func (s *Server) registerAdminRoutes(g *echo.Group) {
	g.GET("", s.dashboard)

	s.alunosCrud().register(s, g, rowAction{Label: "Exportar para planilha", URL: "/admin/alunos/exportar", Post: true})
	g.POST("/alunos/exportar", s.exportAlunos)

	s.personaisCrud().register(s, g)
	s.produtosCrud().register(s, g)
	s.planosCrud().register(s, g)
	s.pagamentosCrud().register(s, g)
	s.dicasCrud().register(s, g)
	s.categoriasCrud().register(s, g)
	s.usuariosCrud().register(s, g)

	s.agendamentosCrud().register(s, g)
	g.POST("/agendamentos/:id/aprovar", s.aprovarAgendamento)

	s.contatosCrud().register(s, g)
	g.GET("/contatos/:id", s.contatoDetail)
	g.POST("/contatos/:id/responder", s.responderContato)

	s.comentariosCrud().register(s, g)

	assinaturas := s.assinaturasTable()
	g.GET("/"+assinaturas.path, assinaturas.handleList(s))
}

func (s *Server) dashboard(ctx echo.Context) error {
	d, err := s.svc.Dashboard.Get(ctx.Request().Context(), token(ctx))
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, "admin/dashboard", "Painel", d)
}

// Form fields

func textField(name, label, value string, required bool) formField {
	return formField{Name: name, Label: label, Type: "text", Value: value, Required: required}
}

func typedField(typ, name, label, value string, required bool) formField {
	return formField{Name: name, Label: label, Type: typ, Value: value, Required: required}
}

func numberField(name, label string, value float64, required bool) formField {
	v := ""
	if value != 0 {
		v = strconv.FormatFloat(value, 'f', -1, 64)
	}
	return formField{Name: name, Label: label, Type: "number", Value: v, Required: required}
}

func intField(name, label string, value int, required bool) formField {
	return formField{Name: name, Label: label, Type: "number", Value: strconv.Itoa(value), Required: required}
}

func checkboxField(name, label string, checked bool) formField {
	return formField{Name: name, Label: label, Type: "checkbox", Value: strconv.FormatBool(checked)}
}

func selectField(name, label, value string, required bool, options ...option) formField {
	return formField{Name: name, Label: label, Type: "select", Value: value, Options: options, Required: required}
}

func idValue(id int) string {
	if id <= 0 {
		return ""
	}
	return strconv.Itoa(id)
}

var (
	alunoStatusOptions = []option{{api.StatusAtivo, "Ativo"}, {api.StatusInativo, "Inativo"}}

	pagamentoStatusOptions = []option{
		{api.StatusPendente, "Pendente"}, {api.StatusPago, "Pago"}, {api.StatusAtrasado, "Atrasado"}, {api.StatusCancelado, "Cancelado"},
	}
	metodoPagamentoOptions = []option{
		{"dinheiro", "Dinheiro"}, {"pix", "PIX"}, {"cartao_credito", "Cartão de crédito"}, {"cartao_debito", "Cartão de débito"}, {"boleto", "Boleto"},
	}
)

func nomeLess[T any](nome func(T) string) core.Less[T] {
	return func(a, b T) bool { return nome(a) < nome(b) }
}

// Alunos

func (s *Server) alunosCrud() *crud[api.Aluno, api.AlunoForm] {
	c := newCrud[api.Aluno, api.AlunoForm](s.svc.Alunos, "alunos", "Alunos", "aluno")
	c.id = func(a api.Aluno) int { return a.ID }
	c.label = func(a api.Aluno) string { return a.Nome }
	c.columns = []column{{"ID", "id"}, {"Nome", "nome"}, {"E-mail", "email"}, {"Telefone", ""}, {"Plano", ""}, {"Status", "status"}}
	c.cells = func(a api.Aluno) []string {
		plano := ""
		if a.Plano != nil {
			plano = a.Plano.Nome
		}
		return []string{strconv.Itoa(a.ID), a.Nome, a.Email, a.Telefone.String, plano, statusLabel(a.Status)}
	}
	c.search = func(a api.Aluno) []string { return []string{a.Nome, a.Email, a.CPF.String, a.Telefone.String} }
	c.sorters = map[string]core.Less[api.Aluno]{
		"id":     func(a, b api.Aluno) bool { return a.ID < b.ID },
		"nome":   nomeLess(func(a api.Aluno) string { return a.Nome }),
		"email":  func(a, b api.Aluno) bool { return a.Email < b.Email },
		"status": func(a, b api.Aluno) bool { return a.Status < b.Status },
	}
	c.newForm = func() api.AlunoForm { return api.AlunoForm{Status: api.StatusAtivo} }
	c.formFrom = api.AlunoFormFrom
	c.validate = (*api.AlunoForm).Validate
	c.fields = func(ctx echo.Context, f api.AlunoForm) ([]formField, error) {
		planos, err := s.svc.Planos.List(ctx.Request().Context(), token(ctx))
		if err != nil {
			return nil, err
		}
		opts := make([]option, 0, len(planos))
		for _, p := range planos {
			opts = append(opts, option{strconv.Itoa(p.ID), p.Nome})
		}
		return []formField{
			textField("nome", "Nome", f.Nome, true),
			typedField("email", "email", "E-mail", f.Email, true),
			textField("telefone", "Telefone", f.Telefone, false),
			textField("cpf", "CPF", f.CPF, false),
			typedField("date", "data_nascimento", "Data de nascimento", f.DataNascimento, false),
			textField("endereco", "Endereço", f.Endereco, false),
			selectField("plano_id", "Plano", idValue(f.PlanoID), false, opts...),
			selectField("status", "Status", f.Status, true, alunoStatusOptions...),
		}, nil
	}
	return c
}

func (s *Server) exportAlunos(ctx echo.Context) error {
	alunos, err := s.svc.Alunos.List(ctx.Request().Context(), token(ctx))
	if err != nil {
		return s.actionFailed(ctx, err, "Erro ao exportar alunos", "/admin/alunos")
	}

	err = s.opts.Exporter.Export(ctx.Request().Context(), api.AlunoSheetHeader, api.AlunoSheetRows(alunos))
	switch {
	case errors.Is(err, core.ErrExportDisabled):
		flash(ctx, session.FlashInfo, "Exportação para planilha não configurada.")
	case err != nil:
		s.logger.Error(fmt.Sprintf("exporting alunos: %v", err), err, currentUser(ctx))
		flash(ctx, session.FlashError, "Erro ao exportar alunos para a planilha.")
	default:
		flash(ctx, session.FlashSuccess, fmt.Sprintf("%d aluno(s) exportado(s) para a planilha.", len(alunos)))
	}
	return ctx.Redirect(http.StatusSeeOther, "/admin/alunos")
}

// Personais

func (s *Server) personaisCrud() *crud[api.Personal, api.PersonalForm] {
	c := newCrud[api.Personal, api.PersonalForm](s.svc.Personais, "personais", "Personais", "personal")
	c.id = func(p api.Personal) int { return p.ID }
	c.label = func(p api.Personal) string { return p.Nome }
	c.columns = []column{{"ID", "id"}, {"Nome", "nome"}, {"Especialidade", "especialidade"}, {"Preço/hora", "preco_hora"}, {"Disponível", ""}}
	c.cells = func(p api.Personal) []string {
		return []string{strconv.Itoa(p.ID), p.Nome, p.Especialidade, formatMoney(p.PrecoHora), yesNo(p.Disponivel)}
	}
	c.search = func(p api.Personal) []string { return []string{p.Nome, p.Email, p.Especialidade} }
	c.sorters = map[string]core.Less[api.Personal]{
		"id":            func(a, b api.Personal) bool { return a.ID < b.ID },
		"nome":          personalSorters["nome"],
		"especialidade": func(a, b api.Personal) bool { return a.Especialidade < b.Especialidade },
		"preco_hora":    personalSorters["preco_hora"],
	}
	c.newForm = func() api.PersonalForm { return api.PersonalForm{Disponivel: true} }
	c.formFrom = api.PersonalFormFrom
	c.validate = (*api.PersonalForm).Validate
	c.fields = func(_ echo.Context, f api.PersonalForm) ([]formField, error) {
		return []formField{
			textField("nome", "Nome", f.Nome, true),
			typedField("email", "email", "E-mail", f.Email, true),
			textField("telefone", "Telefone", f.Telefone, false),
			textField("especialidade", "Especialidade", f.Especialidade, true),
			typedField("textarea", "bio", "Bio", f.Bio, false),
			typedField("url", "foto", "Foto (URL)", f.Foto, false),
			numberField("preco_hora", "Preço por hora", f.PrecoHora, false),
			checkboxField("disponivel", "Disponível", f.Disponivel),
		}, nil
	}
	return c
}

// Produtos

func (s *Server) produtosCrud() *crud[api.Produto, api.ProdutoForm] {
	c := newCrud[api.Produto, api.ProdutoForm](s.svc.Produtos, "produtos", "Produtos", "produto")
	c.id = func(p api.Produto) int { return p.ID }
	c.label = func(p api.Produto) string { return p.Nome }
	c.columns = []column{{"ID", "id"}, {"Nome", "nome"}, {"Categoria", ""}, {"Preço", "preco"}, {"Estoque", "estoque"}, {"Ativo", ""}}
	c.cells = func(p api.Produto) []string {
		return []string{strconv.Itoa(p.ID), p.Nome, p.Categoria.String, formatMoney(p.Preco), strconv.Itoa(p.Estoque), yesNo(p.Ativo)}
	}
	c.search = produtoSearchFields
	c.sorters = map[string]core.Less[api.Produto]{
		"id":      func(a, b api.Produto) bool { return a.ID < b.ID },
		"nome":    produtoSorters["nome"],
		"preco":   produtoSorters["preco"],
		"estoque": produtoSorters["estoque"],
	}
	c.newForm = func() api.ProdutoForm { return api.ProdutoForm{Ativo: true} }
	c.formFrom = api.ProdutoFormFrom
	c.validate = (*api.ProdutoForm).Validate
	c.fields = func(_ echo.Context, f api.ProdutoForm) ([]formField, error) {
		return []formField{
			textField("nome", "Nome", f.Nome, true),
			typedField("textarea", "descricao", "Descrição", f.Descricao, false),
			numberField("preco", "Preço", f.Preco, true),
			intField("estoque", "Estoque", f.Estoque, false),
			textField("categoria", "Categoria", f.Categoria, false),
			typedField("url", "imagem", "Imagem (URL)", f.Imagem, false),
			checkboxField("ativo", "Ativo", f.Ativo),
		}, nil
	}
	return c
}

// Planos

func (s *Server) planosCrud() *crud[api.Plano, api.PlanoForm] {
	c := newCrud[api.Plano, api.PlanoForm](s.svc.Planos, "planos", "Planos", "plano")
	c.id = func(p api.Plano) int { return p.ID }
	c.label = func(p api.Plano) string { return p.Nome }
	c.columns = []column{{"ID", "id"}, {"Nome", "nome"}, {"Preço", "preco"}, {"Duração (meses)", "duracao"}, {"Destaque", ""}, {"Ativo", ""}}
	c.cells = func(p api.Plano) []string {
		return []string{strconv.Itoa(p.ID), p.Nome, formatMoney(p.Preco), strconv.Itoa(p.Duracao), yesNo(p.Destaque), yesNo(p.Ativo)}
	}
	c.search = func(p api.Plano) []string { return []string{p.Nome, p.Descricao.String} }
	c.sorters = map[string]core.Less[api.Plano]{
		"id":      func(a, b api.Plano) bool { return a.ID < b.ID },
		"nome":    nomeLess(func(p api.Plano) string { return p.Nome }),
		"preco":   func(a, b api.Plano) bool { return a.Preco < b.Preco },
		"duracao": func(a, b api.Plano) bool { return a.Duracao < b.Duracao },
	}
	c.newForm = func() api.PlanoForm { return api.PlanoForm{Ativo: true, Duracao: 1} }
	c.formFrom = api.PlanoFormFrom
	c.validate = (*api.PlanoForm).Validate
	c.fields = func(_ echo.Context, f api.PlanoForm) ([]formField, error) {
		beneficios := typedField("textarea", "beneficios", "Benefícios", f.BeneficiosText, false)
		beneficios.Help = "Um benefício por linha."
		return []formField{
			textField("nome", "Nome", f.Nome, true),
			typedField("textarea", "descricao", "Descrição", f.Descricao, false),
			numberField("preco", "Preço", f.Preco, true),
			intField("duracao", "Duração (meses)", f.Duracao, true),
			beneficios,
			checkboxField("destaque", "Destaque", f.Destaque),
			checkboxField("ativo", "Ativo", f.Ativo),
		}, nil
	}
	return c
}

// Pagamentos

func (s *Server) pagamentosCrud() *crud[api.Pagamento, api.PagamentoForm] {
	c := newCrud[api.Pagamento, api.PagamentoForm](s.svc.Pagamentos, "pagamentos", "Pagamentos", "pagamento")
	c.id = func(p api.Pagamento) int { return p.ID }
	c.label = func(p api.Pagamento) string { return fmt.Sprintf("#%d (%s)", p.ID, formatMoney(p.Valor)) }
	c.columns = []column{{"ID", "id"}, {"Aluno", "aluno"}, {"Valor", "valor"}, {"Vencimento", "data_vencimento"}, {"Pagamento", ""}, {"Status", "status"}}
	c.cells = func(p api.Pagamento) []string {
		return []string{strconv.Itoa(p.ID), pagamentoAluno(p), formatMoney(p.Valor), formatDate(p.DataVencimento), formatDate(p.DataPagamento.String), statusLabel(p.Status)}
	}
	c.search = func(p api.Pagamento) []string { return []string{pagamentoAluno(p), p.Descricao.String, p.Status} }
	c.sorters = map[string]core.Less[api.Pagamento]{
		"id":              func(a, b api.Pagamento) bool { return a.ID < b.ID },
		"aluno":           nomeLess(pagamentoAluno),
		"valor":           func(a, b api.Pagamento) bool { return a.Valor < b.Valor },
		"data_vencimento": func(a, b api.Pagamento) bool { return a.DataVencimento < b.DataVencimento },
		"status":          func(a, b api.Pagamento) bool { return a.Status < b.Status },
	}
	c.newForm = func() api.PagamentoForm { return api.PagamentoForm{Status: api.StatusPendente} }
	c.formFrom = api.PagamentoFormFrom
	c.validate = (*api.PagamentoForm).Validate
	c.fields = func(ctx echo.Context, f api.PagamentoForm) ([]formField, error) {
		alunos, err := s.svc.Alunos.List(ctx.Request().Context(), token(ctx))
		if err != nil {
			return nil, err
		}
		opts := make([]option, 0, len(alunos))
		for _, a := range alunos {
			opts = append(opts, option{strconv.Itoa(a.ID), a.Nome})
		}
		return []formField{
			selectField("aluno_id", "Aluno", idValue(f.AlunoID), true, opts...),
			numberField("valor", "Valor", f.Valor, true),
			typedField("date", "data_vencimento", "Vencimento", f.DataVencimento, true),
			typedField("date", "data_pagamento", "Data do pagamento", f.DataPagamento, false),
			selectField("metodo_pagamento", "Método", f.MetodoPagamento, false, metodoPagamentoOptions...),
			typedField("textarea", "descricao", "Descrição", f.Descricao, false),
			selectField("status", "Status", f.Status, true, pagamentoStatusOptions...),
		}, nil
	}
	return c
}

func pagamentoAluno(p api.Pagamento) string {
	if p.Aluno != nil {
		return p.Aluno.Nome
	}
	return "#" + strconv.Itoa(p.AlunoID)
}

// Dicas & categorias

func (s *Server) dicasCrud() *crud[api.Dica, api.DicaForm] {
	c := newCrud[api.Dica, api.DicaForm](s.svc.Dicas, "dicas", "Dicas", "dica")
	c.id = func(d api.Dica) int { return d.ID }
	c.label = func(d api.Dica) string { return d.Titulo }
	c.columns = []column{{"ID", "id"}, {"Título", "titulo"}, {"Categoria", ""}, {"Autor", ""}, {"Curtidas", "curtidas"}}
	c.cells = func(d api.Dica) []string {
		categoria := ""
		if d.Categoria != nil {
			categoria = d.Categoria.Nome
		}
		return []string{strconv.Itoa(d.ID), d.Titulo, categoria, d.Autor.String, strconv.Itoa(d.Curtidas)}
	}
	c.search = func(d api.Dica) []string { return []string{d.Titulo, d.Resumo.String, d.Autor.String} }
	c.sorters = map[string]core.Less[api.Dica]{
		"id":       func(a, b api.Dica) bool { return a.ID < b.ID },
		"titulo":   func(a, b api.Dica) bool { return a.Titulo < b.Titulo },
		"curtidas": func(a, b api.Dica) bool { return a.Curtidas < b.Curtidas },
	}
	c.newForm = func() api.DicaForm { return api.DicaForm{} }
	c.formFrom = api.DicaFormFrom
	c.validate = (*api.DicaForm).Validate
	c.fields = func(ctx echo.Context, f api.DicaForm) ([]formField, error) {
		categorias, err := s.svc.CategoriasDicas.List(ctx.Request().Context(), token(ctx))
		if err != nil {
			return nil, err
		}
		opts := make([]option, 0, len(categorias))
		for _, cat := range categorias {
			opts = append(opts, option{strconv.Itoa(cat.ID), cat.Nome})
		}
		return []formField{
			textField("titulo", "Título", f.Titulo, true),
			typedField("textarea", "resumo", "Resumo", f.Resumo, false),
			typedField("textarea", "conteudo", "Conteúdo", f.Conteudo, true),
			typedField("url", "imagem", "Imagem (URL)", f.Imagem, false),
			textField("autor", "Autor", f.Autor, false),
			selectField("categoria_id", "Categoria", idValue(f.CategoriaID), false, opts...),
		}, nil
	}
	return c
}

func (s *Server) categoriasCrud() *crud[api.CategoriaDica, api.CategoriaDicaForm] {
	c := newCrud[api.CategoriaDica, api.CategoriaDicaForm](s.svc.CategoriasDicas, "categorias-dicas", "Categorias de dicas", "categoria")
	c.id = func(cat api.CategoriaDica) int { return cat.ID }
	c.label = func(cat api.CategoriaDica) string { return cat.Nome }
	c.columns = []column{{"ID", "id"}, {"Nome", "nome"}, {"Descrição", ""}}
	c.cells = func(cat api.CategoriaDica) []string {
		return []string{strconv.Itoa(cat.ID), cat.Nome, core.Truncate(cat.Descricao.String, 80)}
	}
	c.search = func(cat api.CategoriaDica) []string { return []string{cat.Nome, cat.Descricao.String} }
	c.sorters = map[string]core.Less[api.CategoriaDica]{
		"id":   func(a, b api.CategoriaDica) bool { return a.ID < b.ID },
		"nome": nomeLess(func(cat api.CategoriaDica) string { return cat.Nome }),
	}
	c.newForm = func() api.CategoriaDicaForm { return api.CategoriaDicaForm{} }
	c.formFrom = func(cat api.CategoriaDica) api.CategoriaDicaForm {
		return api.CategoriaDicaForm{Nome: cat.Nome, Descricao: cat.Descricao.String}
	}
	c.validate = (*api.CategoriaDicaForm).Validate
	c.fields = func(_ echo.Context, f api.CategoriaDicaForm) ([]formField, error) {
		return []formField{
			textField("nome", "Nome", f.Nome, true),
			typedField("textarea", "descricao", "Descrição", f.Descricao, false),
		}, nil
	}
	return c
}

// Usuarios

func (s *Server) usuariosCrud() *crud[api.Usuario, api.UsuarioForm] {
	c := newCrud[api.Usuario, api.UsuarioForm](s.svc.Usuarios, "usuarios", "Usuários", "usuário")
	c.id = func(u api.Usuario) int { return u.ID }
	c.label = func(u api.Usuario) string { return fmt.Sprintf("%s <%s>", u.Name, u.Email) }
	c.columns = []column{{"ID", "id"}, {"Nome", "name"}, {"E-mail", "email"}, {"Admin", ""}}
	c.cells = func(u api.Usuario) []string {
		return []string{strconv.Itoa(u.ID), u.Name, u.Email, yesNo(u.Admin())}
	}
	c.search = func(u api.Usuario) []string { return []string{u.Name, u.Email} }
	c.sorters = map[string]core.Less[api.Usuario]{
		"id":    func(a, b api.Usuario) bool { return a.ID < b.ID },
		"name":  func(a, b api.Usuario) bool { return a.Name < b.Name },
		"email": func(a, b api.Usuario) bool { return a.Email < b.Email },
	}
	c.newForm = api.NewUsuarioForm
	c.formFrom = api.UsuarioFormFrom
	c.validate = (*api.UsuarioForm).Validate
	c.fields = func(ctx echo.Context, f api.UsuarioForm) ([]formField, error) {
		creating := ctx.Param("id") == ""
		pwd := typedField("password", "password", "Senha", "", creating)
		if !creating {
			pwd.Help = "Deixe em branco para manter a senha atual."
		}
		return []formField{
			textField("name", "Nome", f.Name, true),
			typedField("email", "email", "E-mail", f.Email, true),
			pwd,
			typedField("password", "password_confirmation", "Confirmação da senha", "", creating),
			checkboxField("is_admin", "Administrador", f.IsAdmin),
		}, nil
	}
	return c
}

// Agendamentos

func (s *Server) agendamentosCrud() *crud[api.Agendamento, api.AgendamentoForm] {
	c := newCrud[api.Agendamento, api.AgendamentoForm](s.svc.Agendamentos, "agendamentos", "Agendamentos", "agendamento")
	c.canCreate, c.canEdit = false, false
	c.id = func(a api.Agendamento) int { return a.ID }
	c.label = func(a api.Agendamento) string {
		return fmt.Sprintf("%s com %s em %s", agendamentoCliente(a), agendamentoPersonal(a), formatDate(a.DataHora))
	}
	c.columns = []column{{"ID", "id"}, {"Cliente", "cliente"}, {"Personal", "personal"}, {"Data/hora", "data_hora"}, {"Status", "status"}}
	c.cells = func(a api.Agendamento) []string {
		return []string{strconv.Itoa(a.ID), agendamentoCliente(a), agendamentoPersonal(a), formatDate(a.DataHora), statusLabel(a.Status)}
	}
	c.search = func(a api.Agendamento) []string {
		return []string{agendamentoCliente(a), agendamentoPersonal(a), a.Status}
	}
	c.sorters = map[string]core.Less[api.Agendamento]{
		"id":        func(a, b api.Agendamento) bool { return a.ID < b.ID },
		"cliente":   nomeLess(agendamentoCliente),
		"personal":  nomeLess(agendamentoPersonal),
		"data_hora": func(a, b api.Agendamento) bool { return a.DataHora < b.DataHora },
		"status":    func(a, b api.Agendamento) bool { return a.Status < b.Status },
	}
	c.actions = func(a api.Agendamento) []rowAction {
		if a.Status != api.StatusPendente {
			return nil
		}
		return []rowAction{{Label: "Aprovar", URL: fmt.Sprintf("/admin/agendamentos/%d/aprovar", a.ID), Post: true}}
	}
	return c
}

func agendamentoCliente(a api.Agendamento) string {
	if a.Usuario != nil {
		return a.Usuario.Name
	}
	return a.Nome.String
}

func agendamentoPersonal(a api.Agendamento) string {
	if a.Personal != nil {
		return a.Personal.Nome
	}
	return "#" + strconv.Itoa(a.PersonalID)
}

func (s *Server) aprovarAgendamento(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if _, err := s.svc.Agendamentos.Aprovar(ctx.Request().Context(), token(ctx), id); err != nil {
		return s.actionFailed(ctx, err, "Erro ao aprovar agendamento", "/admin/agendamentos")
	}
	flash(ctx, session.FlashSuccess, "Agendamento aprovado.")
	return ctx.Redirect(http.StatusSeeOther, "/admin/agendamentos")
}

// Contatos

func (s *Server) contatosCrud() *crud[api.Contato, api.ContatoForm] {
	c := newCrud[api.Contato, api.ContatoForm](s.svc.Contatos, "contatos", "Contatos", "contato")
	c.canCreate, c.canEdit = false, false
	c.id = func(ct api.Contato) int { return ct.ID }
	c.label = func(ct api.Contato) string { return fmt.Sprintf("%s <%s>", ct.Nome, ct.Email) }
	c.columns = []column{{"ID", "id"}, {"Nome", "nome"}, {"E-mail", "email"}, {"Assunto", ""}, {"Recebido em", "created_at"}, {"Status", "status"}}
	c.cells = func(ct api.Contato) []string {
		return []string{strconv.Itoa(ct.ID), ct.Nome, ct.Email, core.Truncate(ct.Assunto.String, 40), formatDate(ct.CreatedAt.Time), statusLabel(ct.Status)}
	}
	c.search = func(ct api.Contato) []string { return []string{ct.Nome, ct.Email, ct.Assunto.String, ct.Mensagem} }
	c.sorters = map[string]core.Less[api.Contato]{
		"id":         func(a, b api.Contato) bool { return a.ID < b.ID },
		"nome":       nomeLess(func(ct api.Contato) string { return ct.Nome }),
		"email":      func(a, b api.Contato) bool { return a.Email < b.Email },
		"created_at": func(a, b api.Contato) bool { return a.CreatedAt.Time.Before(b.CreatedAt.Time) },
		"status":     func(a, b api.Contato) bool { return a.Status < b.Status },
	}
	c.actions = func(ct api.Contato) []rowAction {
		return []rowAction{{Label: "Ver", URL: fmt.Sprintf("/admin/contatos/%d", ct.ID)}}
	}
	return c
}

type contatoDetailPage struct {
	Contato api.Contato
	Form    api.RespostaForm
	Errors  map[string]string
}

func (s *Server) contatoDetail(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	return s.renderContato(ctx, http.StatusOK, id, api.RespostaForm{}, nil)
}

func (s *Server) renderContato(ctx echo.Context, code, id int, form api.RespostaForm, errs map[string]string) error {
	contato, err := s.svc.Contatos.Get(ctx.Request().Context(), token(ctx), id)
	if err != nil {
		return err
	}
	return s.render(ctx, code, "admin/contato", "Contato #"+strconv.Itoa(id), contatoDetailPage{Contato: contato, Form: form, Errors: errs})
}

// responderContato stores the answer and e-mails it to the sender.
func (s *Server) responderContato(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var form api.RespostaForm
	if err := ctx.Bind(&form); err != nil {
		return err
	}
	if err := form.Validate(s.opts.Validate); err != nil {
		flds, ok := s.fieldErrors(err)
		if !ok {
			return err
		}
		return s.renderContato(ctx, http.StatusUnprocessableEntity, id, form, flds)
	}

	back := fmt.Sprintf("/admin/contatos/%d", id)
	contato, err := s.svc.Contatos.Responder(ctx.Request().Context(), token(ctx), id, form)
	if err != nil {
		return s.actionFailed(ctx, err, "Erro ao responder contato", back)
	}

	if contato.Email != "" {
		s.opts.Mail.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: contato.Nome, Address: contato.Email}},
			Subject:      "Resposta ao seu contato",
			TemplateName: "resposta",
			TemplateData: map[string]string{"Nome": contato.Nome, "Resposta": form.Resposta, "Mensagem": contato.Mensagem},
		})
	}
	flash(ctx, session.FlashSuccess, "Resposta enviada.")
	return ctx.Redirect(http.StatusSeeOther, back)
}

// Comentarios

func (s *Server) comentariosCrud() *crud[api.Comentario, api.ComentarioForm] {
	c := newCrud[api.Comentario, api.ComentarioForm](s.svc.Comentarios, "comentarios", "Comentários", "comentário")
	c.canCreate, c.canEdit = false, false
	c.id = func(cm api.Comentario) int { return cm.ID }
	c.label = func(cm api.Comentario) string { return core.Truncate(cm.Conteudo, 80) }
	c.columns = []column{{"ID", "id"}, {"Autor", "autor"}, {"Dica", ""}, {"Comentário", ""}, {"Data", "created_at"}}
	c.cells = func(cm api.Comentario) []string {
		dica := "#" + strconv.Itoa(cm.DicaID)
		if cm.Dica != nil {
			dica = cm.Dica.Titulo
		}
		return []string{strconv.Itoa(cm.ID), comentarioAutor(cm), dica, core.Truncate(cm.Conteudo, 80), formatDate(cm.CreatedAt.Time)}
	}
	c.search = func(cm api.Comentario) []string { return []string{comentarioAutor(cm), cm.Conteudo} }
	c.sorters = map[string]core.Less[api.Comentario]{
		"id":         func(a, b api.Comentario) bool { return a.ID < b.ID },
		"autor":      nomeLess(comentarioAutor),
		"created_at": func(a, b api.Comentario) bool { return a.CreatedAt.Time.Before(b.CreatedAt.Time) },
	}
	return c
}

func comentarioAutor(cm api.Comentario) string {
	if cm.Usuario != nil {
		return cm.Usuario.Name
	}
	return "Anônimo"
}

// Assinaturas

func (s *Server) assinaturasTable() *table[api.Assinatura] {
	return &table[api.Assinatura]{
		path:    "assinaturas",
		title:   "Assinaturas",
		list:    s.svc.Assinaturas.List,
		id:      func(a api.Assinatura) int { return a.ID },
		columns: []column{{"ID", "id"}, {"Usuário", "usuario"}, {"Plano", "plano"}, {"Início", "data_inicio"}, {"Fim", ""}, {"Valor", "valor_pago"}, {"Status", "status"}},
		cells: func(a api.Assinatura) []string {
			return []string{strconv.Itoa(a.ID), assinaturaUsuario(a), assinaturaPlano(a), formatDate(a.DataInicio), formatDate(a.DataFim.String), formatMoney(a.ValorPago), statusLabel(a.Status)}
		},
		search: func(a api.Assinatura) []string { return []string{assinaturaUsuario(a), assinaturaPlano(a), a.Status} },
		sorters: map[string]core.Less[api.Assinatura]{
			"id":          func(a, b api.Assinatura) bool { return a.ID < b.ID },
			"usuario":     nomeLess(assinaturaUsuario),
			"plano":       nomeLess(assinaturaPlano),
			"data_inicio": func(a, b api.Assinatura) bool { return a.DataInicio < b.DataInicio },
			"valor_pago":  func(a, b api.Assinatura) bool { return a.ValorPago < b.ValorPago },
			"status":      func(a, b api.Assinatura) bool { return a.Status < b.Status },
		},
	}
}

func assinaturaUsuario(a api.Assinatura) string {
	if a.Usuario != nil {
		return a.Usuario.Name
	}
	return "#" + strconv.Itoa(a.UserID)
}

func assinaturaPlano(a api.Assinatura) string {
	if a.Plano != nil {
		return a.Plano.Nome
	}
	return "#" + strconv.Itoa(a.PlanoID)
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
