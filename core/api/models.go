package api

import (
	"github.com/volatiletech/null/v8"
)

// Statuses used by the backend.
const (
	StatusAtivo   = "ativo"
	StatusInativo = "inativo"

	StatusPendente   = "pendente"
	StatusAprovado   = "aprovado"
	StatusCancelado  = "cancelado"
	StatusConcluido  = "concluido"
	StatusPago       = "pago"
	StatusAtrasado   = "atrasado"
	StatusRespondido = "respondido"
)

// Aluno is a gym member.
type Aluno struct {
	ID             int         `json:"id"`
	Nome           string      `json:"nome"`
	Email          string      `json:"email"`
	Telefone       null.String `json:"telefone"`
	CPF            null.String `json:"cpf"`
	DataNascimento null.String `json:"data_nascimento"`
	Endereco       null.String `json:"endereco"`
	PlanoID        null.Int    `json:"plano_id"`
	Plano          *Plano      `json:"plano,omitempty"`
	Status         string      `json:"status"`
	CreatedAt      null.Time   `json:"created_at"`
}

// Plano is a membership plan.
type Plano struct {
	ID         int         `json:"id"`
	Nome       string      `json:"nome"`
	Descricao  null.String `json:"descricao"`
	Preco      float64     `json:"preco"`
	Duracao    int         `json:"duracao"` // meses
	Beneficios []string    `json:"beneficios"`
	Destaque   bool        `json:"destaque"`
	Ativo      bool        `json:"ativo"`
}

// Personal is a personal trainer.
type Personal struct {
	ID            int         `json:"id"`
	Nome          string      `json:"nome"`
	Email         string      `json:"email"`
	Telefone      null.String `json:"telefone"`
	Especialidade string      `json:"especialidade"`
	Bio           null.String `json:"bio"`
	Foto          null.String `json:"foto"`
	PrecoHora     float64     `json:"preco_hora"`
	Disponivel    bool        `json:"disponivel"`
}

// Produto is an item sold in the shop.
type Produto struct {
	ID        int         `json:"id"`
	Nome      string      `json:"nome"`
	Descricao null.String `json:"descricao"`
	Preco     float64     `json:"preco"`
	Estoque   int         `json:"estoque"`
	Categoria null.String `json:"categoria"`
	Imagem    null.String `json:"imagem"`
	Ativo     bool        `json:"ativo"`
}

// Pagamento is a member's payment.
type Pagamento struct {
	ID              int         `json:"id"`
	AlunoID         int         `json:"aluno_id"`
	Aluno           *Aluno      `json:"aluno,omitempty"`
	Valor           float64     `json:"valor"`
	DataPagamento   null.String `json:"data_pagamento"`
	DataVencimento  string      `json:"data_vencimento"`
	MetodoPagamento null.String `json:"metodo_pagamento"`
	Descricao       null.String `json:"descricao"`
	Status          string      `json:"status"`
}

// Agendamento is a booking with a personal trainer.
type Agendamento struct {
	ID          int         `json:"id"`
	PersonalID  int         `json:"personal_id"`
	Personal    *Personal   `json:"personal,omitempty"`
	UserID      null.Int    `json:"user_id"`
	Usuario     *Usuario    `json:"user,omitempty"`
	Nome        null.String `json:"nome"`
	Email       null.String `json:"email"`
	DataHora    string      `json:"data_hora"`
	Observacoes null.String `json:"observacoes"`
	Status      string      `json:"status"`
}

// CategoriaDica groups tips.
type CategoriaDica struct {
	ID        int         `json:"id"`
	Nome      string      `json:"nome"`
	Descricao null.String `json:"descricao"`
}

// Dica is a blog-style tip/article.
type Dica struct {
	ID          int            `json:"id"`
	Titulo      string         `json:"titulo"`
	Resumo      null.String    `json:"resumo"`
	Conteudo    string         `json:"conteudo"`
	Imagem      null.String    `json:"imagem"`
	Autor       null.String    `json:"autor"`
	CategoriaID null.Int       `json:"categoria_id"`
	Categoria   *CategoriaDica `json:"categoria,omitempty"`
	Curtidas    int            `json:"curtidas"`
	Comentarios []Comentario   `json:"comentarios,omitempty"`
	CreatedAt   null.Time      `json:"created_at"`
}

// Comentario is a comment on a Dica.
type Comentario struct {
	ID        int       `json:"id"`
	DicaID    int       `json:"dica_id"`
	Dica      *Dica     `json:"dica,omitempty"`
	UserID    null.Int  `json:"user_id"`
	Usuario   *Usuario  `json:"user,omitempty"`
	Conteudo  string    `json:"conteudo"`
	CreatedAt null.Time `json:"created_at"`
}

// Contato is a message sent through the contact form.
type Contato struct {
	ID        int         `json:"id"`
	Nome      string      `json:"nome"`
	Email     string      `json:"email"`
	Telefone  null.String `json:"telefone"`
	Assunto   null.String `json:"assunto"`
	Mensagem  string      `json:"mensagem"`
	Resposta  null.String `json:"resposta"`
	Status    string      `json:"status"`
	CreatedAt null.Time   `json:"created_at"`
}

// Usuario is a site account.
type Usuario struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	Role      string    `json:"role,omitempty"`
	CreatedAt null.Time `json:"created_at"`
}

// Admin reports whether the account can access the admin dashboard.
func (u Usuario) Admin() bool {
	return u.IsAdmin || u.Role == "admin"
}

// Assinatura is a plan subscription.
type Assinatura struct {
	ID         int         `json:"id"`
	UserID     int         `json:"user_id"`
	Usuario    *Usuario    `json:"user,omitempty"`
	PlanoID    int         `json:"plano_id"`
	Plano      *Plano      `json:"plano,omitempty"`
	DataInicio string      `json:"data_inicio"`
	DataFim    null.String `json:"data_fim"`
	ValorPago  float64     `json:"valor_pago"`
	Status     string      `json:"status"`
}

// CartItem is one line of the shopping cart.
type CartItem struct {
	ID         int      `json:"id"`
	ProdutoID  int      `json:"produto_id"`
	Produto    *Produto `json:"produto,omitempty"`
	Quantidade int      `json:"quantidade"`
}

// Subtotal is price * quantity, 0 when the product was not expanded.
func (ci CartItem) Subtotal() float64 {
	if ci.Produto == nil {
		return 0
	}
	return ci.Produto.Preco * float64(ci.Quantidade)
}

// Cart is the current user's cart.
type Cart struct {
	Items []CartItem
}

func (c Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

func (c Cart) Count() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantidade
	}
	return n
}

// DiaSemana is a day of the week as listed by the backend.
type DiaSemana struct {
	ID    int    `json:"id"`
	Nome  string `json:"nome"`
	Ordem int    `json:"ordem"`
}

// Horario is a class slot in the weekly schedule.
type Horario struct {
	ID          int         `json:"id"`
	DiaSemanaID int         `json:"dia_semana_id"`
	DiaSemana   *DiaSemana  `json:"dia_semana,omitempty"`
	Atividade   string      `json:"atividade"`
	HoraInicio  string      `json:"hora_inicio"`
	HoraFim     string      `json:"hora_fim"`
	Instrutor   null.String `json:"instrutor"`
	Sala        null.String `json:"sala"`
}

// Dashboard holds the admin dashboard counters.
type Dashboard struct {
	TotalAlunos           int     `json:"total_alunos"`
	AlunosAtivos          int     `json:"alunos_ativos"`
	TotalPersonais        int     `json:"total_personais"`
	TotalProdutos         int     `json:"total_produtos"`
	AssinaturasAtivas     int     `json:"assinaturas_ativas"`
	AgendamentosPendentes int     `json:"agendamentos_pendentes"`
	ContatosPendentes     int     `json:"contatos_pendentes"`
	ReceitaMensal         float64 `json:"receita_mensal"`
}

// AuthResult is what /login and /register return.
type AuthResult struct {
	Token string  `json:"token"`
	User  Usuario `json:"user"`
}
