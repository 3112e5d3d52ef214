package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   string
}

func newTestServer(t *testing.T, status int, body string) (*Client, *[]recordedRequest) {
	reqs := make([]recordedRequest, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.RequestURI(), auth: r.Header.Get("Authorization"), body: string(b)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.URL+"/api/", srv.Client()), &reqs
}

func TestClient_unwrap(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantNome string
	}{
		{name: "envelope", body: `{"status":"success","data":{"id":1,"nome":"Mensal"}}`, wantNome: "Mensal"},
		{name: "bare body", body: `{"id":1,"nome":"Anual"}`, wantNome: "Anual"},
		{name: "null data", body: `{"id":1,"nome":"Trimestral","data":null}`, wantNome: "Trimestral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestServer(t, http.StatusOK, tt.body)
			svc := NewServices(c)

			plano, err := svc.Planos.Get(context.Background(), "", 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNome, plano.Nome)
		})
	}
}

func TestClient_listEnvelope(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"data":[{"id":1,"nome":"Ana"},{"id":2,"nome":"Bia"}]}`)
	svc := NewServices(c)

	alunos, err := svc.Alunos.List(context.Background(), "tok")
	require.NoError(t, err)
	assert.Len(t, alunos, 2)
	if assert.Len(t, *reqs, 1) {
		assert.Equal(t, "/api/alunos", (*reqs)[0].path)
		assert.Equal(t, "Bearer tok", (*reqs)[0].auth)
	}
}

func TestClient_noToken(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `[]`)
	svc := NewServices(c)

	planos, err := svc.Planos.List(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, planos)
	assert.Empty(t, planos)
	assert.Empty(t, (*reqs)[0].auth)
}

func TestClient_unauthorized(t *testing.T) {
	c, _ := newTestServer(t, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
	svc := NewServices(c)

	_, err := svc.Alunos.List(context.Background(), "expired")
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, ErrUnauthorized, errors.Cause(err))
}

func TestClient_errorReshaping(t *testing.T) {
	c, _ := newTestServer(t, http.StatusUnprocessableEntity,
		`{"message":"Dados inválidos","errors":{"email":["O e-mail já está em uso."]}}`)
	svc := NewServices(c)

	_, err := svc.Alunos.Create(context.Background(), "tok", AlunoForm{Nome: "Ana", Email: "ana@murim.com", Status: StatusAtivo})
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Dados inválidos", apiErr.Message)
	assert.Equal(t, map[string]string{"email": "O e-mail já está em uso."}, apiErr.FieldErrors())
	assert.False(t, IsUnauthorized(err))
}

func TestClient_notFound(t *testing.T) {
	c, _ := newTestServer(t, http.StatusNotFound, ``)
	svc := NewServices(c)

	_, err := svc.Produtos.Get(context.Background(), "", 99)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, ErrNotFound.Error(), apiErr.Message)
}

func TestClient_paths(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		call       func(svc *Services) error
		wantMethod string
		wantPath   string
	}{
		{
			name:       "delete",
			call:       func(svc *Services) error { return svc.Alunos.Delete(ctx, "tok", 7) },
			wantMethod: http.MethodDelete, wantPath: "/api/alunos/7",
		},
		{
			name: "update",
			call: func(svc *Services) error {
				_, err := svc.Produtos.Update(ctx, "tok", 3, ProdutoForm{Nome: "Luva", Preco: 10})
				return err
			},
			wantMethod: http.MethodPut, wantPath: "/api/produtos/3",
		},
		{
			name: "aprovar",
			call: func(svc *Services) error {
				_, err := svc.Agendamentos.Aprovar(ctx, "tok", 4)
				return err
			},
			wantMethod: http.MethodPost, wantPath: "/api/agendamentos/4/aprovar",
		},
		{
			name: "responder",
			call: func(svc *Services) error {
				_, err := svc.Contatos.Responder(ctx, "tok", 5, RespostaForm{Resposta: "Obrigado!"})
				return err
			},
			wantMethod: http.MethodPost, wantPath: "/api/contatos/5/responder",
		},
		{
			name: "assinar",
			call: func(svc *Services) error {
				_, err := svc.Planos.Assinar(ctx, "tok", 2)
				return err
			},
			wantMethod: http.MethodPost, wantPath: "/api/planos/2/assinar",
		},
		{
			name: "dicas by categoria",
			call: func(svc *Services) error {
				_, err := svc.Dicas.ListByCategoria(ctx, "", 6)
				return err
			},
			wantMethod: http.MethodGet, wantPath: "/api/dicas?categoria_id=6",
		},
		{
			name: "usuarios",
			call: func(svc *Services) error {
				_, err := svc.Usuarios.List(ctx, "tok")
				return err
			},
			wantMethod: http.MethodGet, wantPath: "/api/admin/usuarios",
		},
		{
			name: "checkout",
			call: func(svc *Services) error {
				_, err := svc.Carrinho.Checkout(ctx, "tok")
				return err
			},
			wantMethod: http.MethodPost, wantPath: "/api/checkout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, reqs := newTestServer(t, http.StatusOK, `{}`)
			if tt.name == "dicas by categoria" || tt.name == "usuarios" {
				c, reqs = newTestServer(t, http.StatusOK, `[]`)
			}
			require.NoError(t, tt.call(NewServices(c)))
			if assert.Len(t, *reqs, 1) {
				assert.Equal(t, tt.wantMethod, (*reqs)[0].method)
				assert.Equal(t, tt.wantPath, (*reqs)[0].path)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantToken string
		wantErr   bool
	}{
		{name: "token", body: `{"token":"abc","user":{"id":1,"name":"Ana","email":"ana@murim.com"}}`, wantToken: "abc"},
		{name: "access_token in envelope", body: `{"data":{"access_token":"xyz","user":{"id":1}}}`, wantToken: "xyz"},
		{name: "no token", body: `{"user":{"id":1}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, reqs := newTestServer(t, http.StatusOK, tt.body)
			res, err := NewServices(c).Auth.Login(context.Background(), LoginForm{Email: "ana@murim.com", Password: "x"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, res.Token)
			assert.Equal(t, 1, res.User.ID)
			assert.JSONEq(t, `{"email":"ana@murim.com","password":"x"}`, (*reqs)[0].body)
		})
	}
}
