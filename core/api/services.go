package api

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
)

type (
	AlunoService    struct{ resource[Aluno, AlunoForm] }
	PlanoService    struct{ resource[Plano, PlanoForm] }
	PersonalService struct {
		resource[Personal, PersonalForm]
	}
	ProdutoService   struct{ resource[Produto, ProdutoForm] }
	PagamentoService struct {
		resource[Pagamento, PagamentoForm]
	}
	AgendamentoService struct {
		resource[Agendamento, AgendamentoForm]
	}
	DicaService          struct{ resource[Dica, DicaForm] }
	CategoriaDicaService struct {
		resource[CategoriaDica, CategoriaDicaForm]
	}
	ComentarioService struct {
		resource[Comentario, ComentarioForm]
	}
	ContatoService struct{ resource[Contato, ContatoForm] }
	UsuarioService struct{ resource[Usuario, UsuarioForm] }

	AssinaturaService struct{ c *Client }
	CartService       struct{ c *Client }
	HorarioService    struct{ c *Client }
	DashboardService  struct{ c *Client }
	AuthService       struct{ c *Client }
)

// Services bundles every backend resource.
type Services struct {
	Alunos          *AlunoService
	Planos          *PlanoService
	Personais       *PersonalService
	Produtos        *ProdutoService
	Pagamentos      *PagamentoService
	Agendamentos    *AgendamentoService
	Dicas           *DicaService
	CategoriasDicas *CategoriaDicaService
	Comentarios     *ComentarioService
	Contatos        *ContatoService
	Usuarios        *UsuarioService
	Assinaturas     *AssinaturaService
	Carrinho        *CartService
	Horarios        *HorarioService
	Dashboard       *DashboardService
	Auth            *AuthService
}

func NewServices(c *Client) *Services {
	return &Services{
		Alunos:          &AlunoService{newResource[Aluno, AlunoForm](c, "/alunos", "aluno")},
		Planos:          &PlanoService{newResource[Plano, PlanoForm](c, "/planos", "plano")},
		Personais:       &PersonalService{newResource[Personal, PersonalForm](c, "/personais", "personal")},
		Produtos:        &ProdutoService{newResource[Produto, ProdutoForm](c, "/produtos", "produto")},
		Pagamentos:      &PagamentoService{newResource[Pagamento, PagamentoForm](c, "/pagamentos", "pagamento")},
		Agendamentos:    &AgendamentoService{newResource[Agendamento, AgendamentoForm](c, "/agendamentos", "agendamento")},
		Dicas:           &DicaService{newResource[Dica, DicaForm](c, "/dicas", "dica")},
		CategoriasDicas: &CategoriaDicaService{newResource[CategoriaDica, CategoriaDicaForm](c, "/categorias-dicas", "categoria")},
		Comentarios:     &ComentarioService{newResource[Comentario, ComentarioForm](c, "/comentarios", "comentario")},
		Contatos:        &ContatoService{newResource[Contato, ContatoForm](c, "/contatos", "contato")},
		Usuarios:        &UsuarioService{newResource[Usuario, UsuarioForm](c, "/admin/usuarios", "usuario")},
		Assinaturas:     &AssinaturaService{c: c},
		Carrinho:        &CartService{c: c},
		Horarios:        &HorarioService{c: c},
		Dashboard:       &DashboardService{c: c},
		Auth:            &AuthService{c: c},
	}
}

// Planos

// Assinar subscribes the token's user to the plan.
func (svc *PlanoService) Assinar(ctx context.Context, token string, id int) (Assinatura, error) {
	var a Assinatura
	err := svc.c.post(ctx, token, pathID(svc.path, id, "assinar"), struct{}{}, &a)
	return a, errors.Wrapf(err, "subscribing to plano %d", id)
}

// Agendamentos

// Aprovar approves a pending booking.
func (svc *AgendamentoService) Aprovar(ctx context.Context, token string, id int) (Agendamento, error) {
	var a Agendamento
	err := svc.c.post(ctx, token, pathID(svc.path, id, "aprovar"), struct{}{}, &a)
	return a, errors.Wrapf(err, "approving agendamento %d", id)
}

// Agendar books a session with the personal trainer in form.PersonalID.
func (svc *AgendamentoService) Agendar(ctx context.Context, token string, form AgendamentoForm) (Agendamento, error) {
	return svc.Create(ctx, token, form)
}

// Dicas

// ListByCategoria lists tips, optionally restricted to one category (0 = all).
func (svc *DicaService) ListByCategoria(ctx context.Context, token string, categoriaID int) ([]Dica, error) {
	var query map[string]string
	if categoriaID > 0 {
		query = map[string]string{"categoria_id": strconv.Itoa(categoriaID)}
	}
	var dicas []Dica
	if err := svc.c.get(ctx, token, svc.path, query, &dicas); err != nil {
		return nil, errors.Wrap(err, "listing dicas")
	}
	if dicas == nil {
		dicas = []Dica{}
	}
	return dicas, nil
}

func (svc *DicaService) Comentarios(ctx context.Context, token string, id int) ([]Comentario, error) {
	var comentarios []Comentario
	if err := svc.c.get(ctx, token, pathID(svc.path, id, "comentarios"), nil, &comentarios); err != nil {
		return nil, errors.Wrapf(err, "listing comentarios of dica %d", id)
	}
	if comentarios == nil {
		comentarios = []Comentario{}
	}
	return comentarios, nil
}

func (svc *DicaService) Comentar(ctx context.Context, token string, id int, form ComentarioForm) (Comentario, error) {
	var c Comentario
	err := svc.c.post(ctx, token, pathID(svc.path, id, "comentarios"), form, &c)
	return c, errors.Wrapf(err, "commenting dica %d", id)
}

// Curtir likes a tip and returns the new like count.
func (svc *DicaService) Curtir(ctx context.Context, token string, id int) (int, error) {
	var res struct {
		Curtidas int `json:"curtidas"`
	}
	if err := svc.c.post(ctx, token, pathID(svc.path, id, "curtir"), struct{}{}, &res); err != nil {
		return 0, errors.Wrapf(err, "liking dica %d", id)
	}
	return res.Curtidas, nil
}

// Contatos

// Responder stores the answer to a contact message.
func (svc *ContatoService) Responder(ctx context.Context, token string, id int, form RespostaForm) (Contato, error) {
	var c Contato
	err := svc.c.post(ctx, token, pathID(svc.path, id, "responder"), form, &c)
	return c, errors.Wrapf(err, "answering contato %d", id)
}

// Assinaturas

// List returns the token user's subscriptions (every subscription for admins).
func (svc *AssinaturaService) List(ctx context.Context, token string) ([]Assinatura, error) {
	var items []Assinatura
	if err := svc.c.get(ctx, token, "/assinaturas", nil, &items); err != nil {
		return nil, errors.Wrap(err, "listing assinaturas")
	}
	if items == nil {
		items = []Assinatura{}
	}
	return items, nil
}

// Carrinho

func (svc *CartService) Get(ctx context.Context, token string) (Cart, error) {
	var items []CartItem
	if err := svc.c.get(ctx, token, "/carrinho", nil, &items); err != nil {
		return Cart{}, errors.Wrap(err, "getting carrinho")
	}
	return Cart{Items: items}, nil
}

func (svc *CartService) Add(ctx context.Context, token string, form CartAddForm) (CartItem, error) {
	var item CartItem
	err := svc.c.post(ctx, token, "/carrinho", form, &item)
	return item, errors.Wrap(err, "adding to carrinho")
}

func (svc *CartService) Update(ctx context.Context, token string, id int, form CartUpdateForm) (CartItem, error) {
	var item CartItem
	err := svc.c.put(ctx, token, pathID("/carrinho", id), form, &item)
	return item, errors.Wrapf(err, "updating carrinho item %d", id)
}

func (svc *CartService) Remove(ctx context.Context, token string, id int) error {
	return errors.Wrapf(svc.c.delete(ctx, token, pathID("/carrinho", id)), "removing carrinho item %d", id)
}

// CheckoutResult is the order created by /checkout.
type CheckoutResult struct {
	ID     int     `json:"id"`
	Total  float64 `json:"total"`
	Status string  `json:"status"`
}

func (svc *CartService) Checkout(ctx context.Context, token string) (CheckoutResult, error) {
	var res CheckoutResult
	err := svc.c.post(ctx, token, "/checkout", struct{}{}, &res)
	return res, errors.Wrap(err, "checking out")
}

// Horarios

func (svc *HorarioService) List(ctx context.Context, token string) ([]Horario, error) {
	var items []Horario
	if err := svc.c.get(ctx, token, "/horarios", nil, &items); err != nil {
		return nil, errors.Wrap(err, "listing horarios")
	}
	return items, nil
}

func (svc *HorarioService) DiasSemana(ctx context.Context, token string) ([]DiaSemana, error) {
	var items []DiaSemana
	if err := svc.c.get(ctx, token, "/dias-semana", nil, &items); err != nil {
		return nil, errors.Wrap(err, "listing dias-semana")
	}
	return items, nil
}

// Dashboard

func (svc *DashboardService) Get(ctx context.Context, token string) (Dashboard, error) {
	var d Dashboard
	err := svc.c.get(ctx, token, "/admin/dashboard", nil, &d)
	return d, errors.Wrap(err, "getting dashboard")
}

// Auth

// authPayload accepts both `token` and `access_token` spellings.
type authPayload struct {
	Token       string  `json:"token"`
	AccessToken string  `json:"access_token"`
	User        Usuario `json:"user"`
}

func (p authPayload) result() AuthResult {
	token := p.Token
	if token == "" {
		token = p.AccessToken
	}
	return AuthResult{Token: token, User: p.User}
}

func (svc *AuthService) Login(ctx context.Context, form LoginForm) (AuthResult, error) {
	var p authPayload
	if err := svc.c.post(ctx, "", "/login", form, &p); err != nil {
		return AuthResult{}, errors.Wrap(err, "logging in")
	}
	if p.result().Token == "" {
		return AuthResult{}, errors.New("logging in: no token in response")
	}
	return p.result(), nil
}

func (svc *AuthService) Register(ctx context.Context, form RegisterForm) (AuthResult, error) {
	var p authPayload
	if err := svc.c.post(ctx, "", "/register", form, &p); err != nil {
		return AuthResult{}, errors.Wrap(err, "registering")
	}
	return p.result(), nil
}

func (svc *AuthService) Logout(ctx context.Context, token string) error {
	return errors.Wrap(svc.c.post(ctx, token, "/logout", struct{}{}, nil), "logging out")
}
