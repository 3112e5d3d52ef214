package api

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matkerbino/murim/core"
)

// Forms double as request payloads: `form` tags bind the HTML form, `json` tags build the body.

type AlunoForm struct {
	Nome           string `json:"nome" form:"nome" validate:"required,notblank"`
	Email          string `json:"email" form:"email" validate:"required,email"`
	Telefone       string `json:"telefone,omitempty" form:"telefone" validate:"omitempty,telefone"`
	CPF            string `json:"cpf,omitempty" form:"cpf" validate:"omitempty,cpf"`
	DataNascimento string `json:"data_nascimento,omitempty" form:"data_nascimento" validate:"omitempty,datetime=2006-01-02"`
	Endereco       string `json:"endereco,omitempty" form:"endereco"`
	PlanoID        int    `json:"plano_id,omitempty" form:"plano_id" validate:"omitempty,gt=0"`
	Status         string `json:"status" form:"status" validate:"required,oneof=ativo inativo"`
}

func (f *AlunoForm) Validate(validate *validator.Validate) error {
	f.Nome = core.CleanString(f.Nome)
	f.Email = core.CleanString(f.Email, true /* lower */)
	f.Telefone = core.CleanString(f.Telefone)
	f.CPF = core.CleanString(f.CPF)
	f.Endereco = core.CleanString(f.Endereco)
	if f.Status == "" {
		f.Status = StatusAtivo
	}
	return validate.Struct(f)
}

// AlunoFormFrom prefills an edit form.
func AlunoFormFrom(a Aluno) AlunoForm {
	return AlunoForm{
		Nome:           a.Nome,
		Email:          a.Email,
		Telefone:       a.Telefone.String,
		CPF:            a.CPF.String,
		DataNascimento: a.DataNascimento.String,
		Endereco:       a.Endereco.String,
		PlanoID:        a.PlanoID.Int,
		Status:         a.Status,
	}
}

type PlanoForm struct {
	Nome           string   `json:"nome" form:"nome" validate:"required,notblank"`
	Descricao      string   `json:"descricao,omitempty" form:"descricao"`
	Preco          float64  `json:"preco" form:"preco" validate:"gt=0"`
	Duracao        int      `json:"duracao" form:"duracao" validate:"gt=0"`
	BeneficiosText string   `json:"-" form:"beneficios"`
	Beneficios     []string `json:"beneficios"`
	Destaque       bool     `json:"destaque" form:"destaque"`
	Ativo          bool     `json:"ativo" form:"ativo"`
}

func (f *PlanoForm) Validate(validate *validator.Validate) error {
	f.Nome = core.CleanString(f.Nome)
	f.Descricao = core.CleanString(f.Descricao)
	f.Beneficios = splitLines(f.BeneficiosText)
	return validate.Struct(f)
}

func PlanoFormFrom(p Plano) PlanoForm {
	return PlanoForm{
		Nome:           p.Nome,
		Descricao:      p.Descricao.String,
		Preco:          p.Preco,
		Duracao:        p.Duracao,
		BeneficiosText: strings.Join(p.Beneficios, "\n"),
		Beneficios:     p.Beneficios,
		Destaque:       p.Destaque,
		Ativo:          p.Ativo,
	}
}

type PersonalForm struct {
	Nome          string  `json:"nome" form:"nome" validate:"required,notblank"`
	Email         string  `json:"email" form:"email" validate:"required,email"`
	Telefone      string  `json:"telefone,omitempty" form:"telefone" validate:"omitempty,telefone"`
	Especialidade string  `json:"especialidade" form:"especialidade" validate:"required,notblank"`
	Bio           string  `json:"bio,omitempty" form:"bio"`
	Foto          string  `json:"foto,omitempty" form:"foto" validate:"omitempty,url"`
	PrecoHora     float64 `json:"preco_hora" form:"preco_hora" validate:"gte=0"`
	Disponivel    bool    `json:"disponivel" form:"disponivel"`
}

func (f *PersonalForm) Validate(validate *validator.Validate) error {
	f.Nome = core.CleanString(f.Nome)
	f.Email = core.CleanString(f.Email, true /* lower */)
	f.Telefone = core.CleanString(f.Telefone)
	f.Especialidade = core.CleanString(f.Especialidade)
	f.Bio = core.CleanString(f.Bio)
	f.Foto = core.CleanString(f.Foto)
	return validate.Struct(f)
}

func PersonalFormFrom(p Personal) PersonalForm {
	return PersonalForm{
		Nome:          p.Nome,
		Email:         p.Email,
		Telefone:      p.Telefone.String,
		Especialidade: p.Especialidade,
		Bio:           p.Bio.String,
		Foto:          p.Foto.String,
		PrecoHora:     p.PrecoHora,
		Disponivel:    p.Disponivel,
	}
}

type ProdutoForm struct {
	Nome      string  `json:"nome" form:"nome" validate:"required,notblank"`
	Descricao string  `json:"descricao,omitempty" form:"descricao"`
	Preco     float64 `json:"preco" form:"preco" validate:"gt=0"`
	Estoque   int     `json:"estoque" form:"estoque" validate:"gte=0"`
	Categoria string  `json:"categoria,omitempty" form:"categoria"`
	Imagem    string  `json:"imagem,omitempty" form:"imagem" validate:"omitempty,url"`
	Ativo     bool    `json:"ativo" form:"ativo"`
}

func (f *ProdutoForm) Validate(validate *validator.Validate) error {
	f.Nome = core.CleanString(f.Nome)
	f.Descricao = core.CleanString(f.Descricao)
	f.Categoria = core.CleanString(f.Categoria)
	f.Imagem = core.CleanString(f.Imagem)
	return validate.Struct(f)
}

func ProdutoFormFrom(p Produto) ProdutoForm {
	return ProdutoForm{
		Nome:      p.Nome,
		Descricao: p.Descricao.String,
		Preco:     p.Preco,
		Estoque:   p.Estoque,
		Categoria: p.Categoria.String,
		Imagem:    p.Imagem.String,
		Ativo:     p.Ativo,
	}
}

type PagamentoForm struct {
	AlunoID         int     `json:"aluno_id" form:"aluno_id" validate:"gt=0"`
	Valor           float64 `json:"valor" form:"valor" validate:"gt=0"`
	DataVencimento  string  `json:"data_vencimento" form:"data_vencimento" validate:"required,datetime=2006-01-02"`
	DataPagamento   string  `json:"data_pagamento,omitempty" form:"data_pagamento" validate:"omitempty,datetime=2006-01-02"`
	MetodoPagamento string  `json:"metodo_pagamento,omitempty" form:"metodo_pagamento" validate:"omitempty,oneof=dinheiro pix cartao_credito cartao_debito boleto"`
	Descricao       string  `json:"descricao,omitempty" form:"descricao"`
	Status          string  `json:"status" form:"status" validate:"required,oneof=pendente pago atrasado cancelado"`
}

func (f *PagamentoForm) Validate(validate *validator.Validate) error {
	f.Descricao = core.CleanString(f.Descricao)
	if f.Status == "" {
		f.Status = StatusPendente
	}
	return validate.Struct(f)
}

func PagamentoFormFrom(p Pagamento) PagamentoForm {
	return PagamentoForm{
		AlunoID:         p.AlunoID,
		Valor:           p.Valor,
		DataVencimento:  p.DataVencimento,
		DataPagamento:   p.DataPagamento.String,
		MetodoPagamento: p.MetodoPagamento.String,
		Descricao:       p.Descricao.String,
		Status:          p.Status,
	}
}

// AgendamentoForm books a session with a personal trainer.
type AgendamentoForm struct {
	PersonalID  int    `json:"personal_id" form:"-"`
	Data        string `json:"-" form:"data" validate:"required,datetime=2006-01-02"`
	Hora        string `json:"-" form:"hora" validate:"required,datetime=15:04"`
	DataHora    string `json:"data_hora"`
	Observacoes string `json:"observacoes,omitempty" form:"observacoes" validate:"max=500"`
}

func (f *AgendamentoForm) Validate(validate *validator.Validate) error {
	f.Data = core.CleanString(f.Data)
	f.Hora = core.CleanString(f.Hora)
	f.Observacoes = core.CleanString(f.Observacoes)
	if err := validate.Struct(f); err != nil {
		return err
	}
	f.DataHora = f.Data + " " + f.Hora + ":00"
	return nil
}

type CategoriaDicaForm struct {
	Nome      string `json:"nome" form:"nome" validate:"required,notblank"`
	Descricao string `json:"descricao,omitempty" form:"descricao"`
}

func (f *CategoriaDicaForm) Validate(validate *validator.Validate) error {
	f.Nome = core.CleanString(f.Nome)
	f.Descricao = core.CleanString(f.Descricao)
	return validate.Struct(f)
}

type DicaForm struct {
	Titulo      string `json:"titulo" form:"titulo" validate:"required,notblank,max=255"`
	Resumo      string `json:"resumo,omitempty" form:"resumo" validate:"max=500"`
	Conteudo    string `json:"conteudo" form:"conteudo" validate:"required,notblank"`
	Imagem      string `json:"imagem,omitempty" form:"imagem" validate:"omitempty,url"`
	Autor       string `json:"autor,omitempty" form:"autor"`
	CategoriaID int    `json:"categoria_id,omitempty" form:"categoria_id" validate:"omitempty,gt=0"`
}

func (f *DicaForm) Validate(validate *validator.Validate) error {
	f.Titulo = core.CleanString(f.Titulo)
	f.Resumo = core.CleanString(f.Resumo)
	f.Conteudo = strings.TrimSpace(f.Conteudo)
	f.Imagem = core.CleanString(f.Imagem)
	f.Autor = core.CleanString(f.Autor)
	return validate.Struct(f)
}

func DicaFormFrom(d Dica) DicaForm {
	return DicaForm{
		Titulo:      d.Titulo,
		Resumo:      d.Resumo.String,
		Conteudo:    d.Conteudo,
		Imagem:      d.Imagem.String,
		Autor:       d.Autor.String,
		CategoriaID: d.CategoriaID.Int,
	}
}

type ComentarioForm struct {
	Conteudo string `json:"conteudo" form:"conteudo" validate:"required,notblank,max=1000"`
}

func (f *ComentarioForm) Validate(validate *validator.Validate) error {
	f.Conteudo = core.CleanString(f.Conteudo)
	return validate.Struct(f)
}

// ContatoForm is the public contact form.
type ContatoForm struct {
	Nome     string `json:"nome" form:"nome" validate:"required,notblank"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Telefone string `json:"telefone,omitempty" form:"telefone" validate:"omitempty,telefone"`
	Assunto  string `json:"assunto,omitempty" form:"assunto" validate:"max=255"`
	Mensagem string `json:"mensagem" form:"mensagem" validate:"required"`
}

func (f *ContatoForm) Validate(validate *validator.Validate) error {
	f.Nome = core.CleanString(f.Nome)
	f.Email = core.CleanString(f.Email, true /* lower */)
	f.Telefone = core.CleanString(f.Telefone)
	f.Assunto = core.CleanString(f.Assunto)
	f.Mensagem = core.CleanString(f.Mensagem)
	return validate.Struct(f)
}

type RespostaForm struct {
	Resposta string `json:"resposta" form:"resposta" validate:"required,notblank"`
}

func (f *RespostaForm) Validate(validate *validator.Validate) error {
	f.Resposta = strings.TrimSpace(f.Resposta)
	return validate.Struct(f)
}

// UsuarioForm creates (Password required) or updates (Password optional) an account.
type UsuarioForm struct {
	Name            string `json:"name" form:"name" validate:"required,notblank"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password,omitempty" form:"password"`
	PasswordConfirm string `json:"password_confirmation,omitempty" form:"password_confirmation" validate:"required_with=Password,eqfield=Password"`
	IsAdmin         bool   `json:"is_admin" form:"is_admin"`

	requirePassword bool
}

func (f *UsuarioForm) Validate(validate *validator.Validate) error {
	f.Name = core.CleanString(f.Name)
	f.Email = core.CleanString(f.Email, true /* lower */)
	return validate.Struct(f)
}

// NewUsuarioForm returns a form for account creation, where the password is required.
func NewUsuarioForm() UsuarioForm {
	return UsuarioForm{requirePassword: true}
}

// RequirePassword marks the password as required, for creation.
func (f *UsuarioForm) RequirePassword() { f.requirePassword = true }

func UsuarioFormFrom(u Usuario) UsuarioForm {
	return UsuarioForm{Name: u.Name, Email: u.Email, IsAdmin: u.Admin()}
}

type LoginForm struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (f *LoginForm) Validate(validate *validator.Validate) error {
	f.Email = core.CleanString(f.Email, true /* lower */)
	return validate.Struct(f)
}

// RegisterForm is the public sign up form; the password policy applies.
type RegisterForm struct {
	Name            string `json:"name" form:"name" validate:"required,notblank"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirmation" form:"password_confirmation" validate:"required,eqfield=Password"`
}

func (f *RegisterForm) Validate(validate *validator.Validate) error {
	f.Name = core.CleanString(f.Name)
	f.Email = core.CleanString(f.Email, true /* lower */)
	return validate.Struct(f)
}

type CartAddForm struct {
	ProdutoID  int `json:"produto_id" form:"produto_id" validate:"gt=0"`
	Quantidade int `json:"quantidade" form:"quantidade" validate:"gte=1,lte=99"`
}

func (f *CartAddForm) Validate(validate *validator.Validate) error {
	if f.Quantidade == 0 {
		f.Quantidade = 1
	}
	return validate.Struct(f)
}

type CartUpdateForm struct {
	Quantidade int `json:"quantidade" form:"quantidade" validate:"gte=1,lte=99"`
}

func (f *CartUpdateForm) Validate(validate *validator.Validate) error {
	return validate.Struct(f)
}

func splitLines(s string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
